package dialog

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vietcare/booking-assistant/internal/catalog"
	"github.com/vietcare/booking-assistant/internal/observability/metrics"
	"github.com/vietcare/booking-assistant/pkg/logging"
)

// Gateway is the slice of the catalog the engine consumes. The concrete
// implementation is catalog.Client; tests use fakes.
type Gateway interface {
	ListHospitals(ctx context.Context) ([]catalog.Option, error)
	ListDepartments(ctx context.Context, hospitalID string) ([]catalog.Option, error)
	ListDoctors(ctx context.Context, departmentID string) ([]catalog.Option, error)
	GetSchedule(ctx context.Context, doctorID, date string) ([]string, error)
	CreateBooking(ctx context.Context, req catalog.BookingRequest) (*catalog.BookingResponse, error)
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Engine drives the booking conversation. It is stateless: every turn takes
// the previous context and returns the next one, so one Engine serves any
// number of concurrent conversations.
type Engine struct {
	gateway Gateway
	logger  *logging.Logger
	metrics *metrics.ChatMetrics
	now     func() time.Time
	newRef  func() string
}

// NewEngine creates a dialogue engine over the given gateway.
func NewEngine(gateway Gateway, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		gateway: gateway,
		logger:  logger,
		now:     time.Now,
		newRef:  func() string { return "APPT-" + uuid.NewString() },
	}
}

// WithMetrics attaches chat metrics. Nil metrics are a no-op.
func (e *Engine) WithMetrics(m *metrics.ChatMetrics) *Engine {
	e.metrics = m
	return e
}

// WithClock overrides the time source, for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	if now != nil {
		e.now = now
	}
	return e
}

// WithReferenceFunc overrides booking reference generation, for tests.
func (e *Engine) WithReferenceFunc(f func() string) *Engine {
	if f != nil {
		e.newRef = f
	}
	return e
}

// Respond processes one user message against the previous context and returns
// the reply plus the context for the next turn. Gateway failures never
// surface as errors; every outcome is user-facing guidance per the failure
// handling of each step.
func (e *Engine) Respond(ctx context.Context, message string, prev *Context) Result {
	conv := e.ensureContext(prev)

	if IsCancelCommand(message) {
		e.metrics.ObserveTurn("cancel")
		return Result{Response: msgCancelled, Context: e.fresh(), Done: true}
	}

	if conv.Flow == FlowIdle {
		e.metrics.ObserveTurn("")
		return e.startFlow(ctx)
	}

	need := conv.Need
	if need == "" {
		need = NextNeed(conv)
	}
	e.metrics.ObserveTurn(string(need))

	switch need {
	case NeedHospital:
		return e.handleHospital(ctx, message, conv)
	case NeedDepartment:
		return e.handleDepartment(ctx, message, conv)
	case NeedDoctor:
		return e.handleDoctor(ctx, message, conv)
	case NeedSlot:
		return e.handleSlot(message, conv)
	case NeedFullName:
		return e.handleFullName(message, conv)
	case NeedPhone:
		return e.handlePhone(message, conv)
	case NeedEmail:
		return e.handleEmail(message, conv)
	case NeedSymptoms:
		return e.finalizeBooking(ctx, normalizeSymptoms(message), conv)
	default:
		return e.startFlow(ctx)
	}
}

func (e *Engine) fresh() Context {
	return NewContext(e.now())
}

// ensureContext discards expired or absent contexts; expiry is not an error,
// the flow simply restarts.
func (e *Engine) ensureContext(prev *Context) Context {
	if prev == nil {
		return e.fresh()
	}
	if prev.Expired(e.now()) {
		e.logger.Debug("dialog: context expired, starting over")
		return e.fresh()
	}
	c := *prev
	c.UpdatedAt = e.now()
	return c
}

func (e *Engine) reply(c Context, need Need, response string) Result {
	c.Flow = FlowCollecting
	c.Need = need
	c.UpdatedAt = e.now()
	return Result{Response: response, Context: c}
}

func (e *Engine) startFlow(ctx context.Context) Result {
	options, err := e.gateway.ListHospitals(ctx)
	if err != nil {
		e.logger.Warn("dialog: hospital list fetch failed", "error", err)
		return Result{Response: msgHospitalsUnavailable, Context: e.fresh()}
	}
	if len(options) == 0 {
		return Result{Response: msgNoHospitals, Context: e.fresh()}
	}

	c := e.fresh()
	c.HospitalOptions = options
	return e.reply(c, NeedHospital, msgStartFlow(formatOptionList(options)))
}

func (e *Engine) handleHospital(ctx context.Context, message string, c Context) Result {
	options := c.HospitalOptions
	if len(options) == 0 {
		var err error
		options, err = e.gateway.ListHospitals(ctx)
		if err != nil || len(options) == 0 {
			return Result{Response: msgNoHospitalList, Context: e.fresh()}
		}
	}
	c.HospitalOptions = options

	choice, ok := Resolve(message, options)
	if !ok {
		return e.reply(c, NeedHospital, msgHospitalInvalid+"\n"+formatOptionList(options))
	}

	departments, err := e.gateway.ListDepartments(ctx, choice.ID)
	if err != nil {
		e.logger.Warn("dialog: department list fetch failed", "hospital_id", choice.ID, "error", err)
		return e.reply(c, NeedHospital, msgDepartmentsFetchFailed)
	}
	if len(departments) == 0 {
		return e.reply(c, NeedHospital, msgHospitalClosed(choice.Label, formatOptionList(options)))
	}

	c.Data.HospitalID = choice.ID
	c.Data.HospitalName = choice.Label
	c.DepartmentOptions = departments
	return e.reply(c, NeedDepartment, msgHospitalChosen(choice.Label, formatOptionList(departments)))
}

func (e *Engine) handleDepartment(ctx context.Context, message string, c Context) Result {
	if c.Data.HospitalID == "" {
		return e.startFlow(ctx)
	}

	options := c.DepartmentOptions
	if len(options) == 0 {
		var err error
		options, err = e.gateway.ListDepartments(ctx, c.Data.HospitalID)
		if err != nil {
			e.logger.Warn("dialog: department list refetch failed", "hospital_id", c.Data.HospitalID, "error", err)
			return e.reply(c, NeedDepartment, msgDepartmentsFetchFailed)
		}
	}
	if len(options) == 0 {
		return e.reply(c, NeedHospital, msgNoDepartmentsForHospital)
	}
	c.DepartmentOptions = options

	choice, ok := Resolve(message, options)
	if !ok {
		return e.reply(c, NeedDepartment, msgDepartmentInvalid+"\n"+formatOptionList(options))
	}

	doctors, err := e.gateway.ListDoctors(ctx, choice.ID)
	if err != nil {
		e.logger.Warn("dialog: doctor list fetch failed", "department_id", choice.ID, "error", err)
		return e.reply(c, NeedDepartment, msgDoctorsFetchFailed)
	}
	if len(doctors) == 0 {
		return e.reply(c, NeedDepartment, msgDepartmentEmpty(choice.Label, formatOptionList(options)))
	}

	c.Data.DepartmentID = choice.ID
	c.Data.DepartmentName = choice.Label
	c.DoctorOptions = doctors
	return e.reply(c, NeedDoctor, msgDepartmentChosen(choice.Label, formatOptionList(doctors)))
}

func (e *Engine) handleDoctor(ctx context.Context, message string, c Context) Result {
	if c.Data.DepartmentID == "" {
		return e.startFlow(ctx)
	}

	options := c.DoctorOptions
	if len(options) == 0 {
		var err error
		options, err = e.gateway.ListDoctors(ctx, c.Data.DepartmentID)
		if err != nil {
			e.logger.Warn("dialog: doctor list refetch failed", "department_id", c.Data.DepartmentID, "error", err)
			return e.reply(c, NeedDoctor, msgDoctorsFetchFailed)
		}
	}
	if len(options) == 0 {
		return e.reply(c, NeedDepartment, msgNoDoctorsForDepartment)
	}
	c.DoctorOptions = options

	choice, ok := Resolve(message, options)
	if !ok {
		return e.reply(c, NeedDoctor, msgDoctorInvalid+"\n"+formatOptionList(options))
	}

	slots := e.buildSlotOptions(ctx, choice.ID)
	if len(slots) == 0 {
		return e.reply(c, NeedDoctor, msgNoSlotsForDoctor)
	}

	c.Data.DoctorID = choice.ID
	c.Data.DoctorName = choice.Label
	c.SlotOptions = slots
	return e.reply(c, NeedSlot, msgDoctorChosen(choice.Label, formatOptionList(slots)))
}

func (e *Engine) handleSlot(message string, c Context) Result {
	options := c.SlotOptions
	if len(options) == 0 {
		return e.reply(c, NeedDoctor, msgNoSlotList)
	}

	choice, ok := Resolve(message, options)
	if !ok {
		return e.reply(c, NeedSlot, msgSlotInvalid+"\n"+formatOptionList(options))
	}

	c.Data.Date = choice.Date
	c.Data.Time = choice.Time
	return e.reply(c, NeedFullName, msgSlotChosen(choice.Label))
}

func (e *Engine) handleFullName(message string, c Context) Result {
	name := strings.TrimSpace(message)
	if len([]rune(name)) < 3 {
		return e.reply(c, NeedFullName, msgFullNameTooShort)
	}

	c.Data.FullName = name
	return e.reply(c, NeedPhone, msgAskPhone)
}

func (e *Engine) handlePhone(message string, c Context) Result {
	digits := digitsOnly(message)
	if len(digits) < 10 || len(digits) > 11 {
		return e.reply(c, NeedPhone, msgPhoneInvalid)
	}

	c.Data.Phone = digits
	return e.reply(c, NeedEmail, msgAskEmail)
}

func (e *Engine) handleEmail(message string, c Context) Result {
	email := strings.TrimSpace(message)
	if !emailPattern.MatchString(email) {
		return e.reply(c, NeedEmail, msgEmailInvalid)
	}

	c.Data.Email = email
	return e.reply(c, NeedSymptoms, msgAskSymptoms)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
