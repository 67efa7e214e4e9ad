package dialog

import (
	"context"
	"time"

	"github.com/vietcare/booking-assistant/internal/catalog"
)

// finalizeBooking validates the collected data, submits the appointment and
// formats the outcome. On gateway failure the context stays at the symptoms
// step so the patient does not re-enter everything; this is the only step
// where failure keeps progress.
func (e *Engine) finalizeBooking(ctx context.Context, symptoms string, c Context) Result {
	c.Data.Symptoms = &symptoms

	if missing := missingBookingFields(c.Data); len(missing) > 0 {
		// should be unreachable given the fill-order invariant
		e.logger.Error("dialog: finalize with incomplete data", "missing", missing)
		e.metrics.ObserveBooking("incomplete")
		return Result{Response: msgMissingFields, Context: e.fresh()}
	}

	req := catalog.BookingRequest{
		AppointmentID: e.newRef(),
		PatientName:   c.Data.FullName,
		Phone:         c.Data.Phone,
		Email:         c.Data.Email,
		HospitalID:    c.Data.HospitalID,
		DepartmentID:  c.Data.DepartmentID,
		DoctorID:      c.Data.DoctorID,
		Date:          c.Data.Date,
		Time:          c.Data.Time,
		Symptoms:      symptoms,
	}

	resp, err := e.gateway.CreateBooking(ctx, req)
	if err != nil {
		e.logger.Error("dialog: booking submission failed", "error", err)
		e.metrics.ObserveBooking("failure")
		return e.reply(c, NeedSymptoms, msgBookingFailed)
	}

	reference := req.AppointmentID
	if resp != nil && resp.AppointmentID != "" {
		reference = resp.AppointmentID
	}

	humanDate := c.Data.Date
	if parsed, perr := time.Parse("2006-01-02", c.Data.Date); perr == nil {
		humanDate = parsed.Format("02/01/2006")
	}

	e.metrics.ObserveBooking("success")
	e.logger.Info("dialog: booking created",
		"reference", reference,
		"hospital_id", c.Data.HospitalID,
		"doctor_id", c.Data.DoctorID,
		"date", c.Data.Date,
		"time", c.Data.Time,
	)
	return Result{
		Response: msgBookingConfirmed(c.Data, humanDate, reference),
		Context:  e.fresh(),
		Done:     true,
	}
}

func missingBookingFields(d Data) []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"hospitalId", d.HospitalID},
		{"departmentId", d.DepartmentID},
		{"doctorId", d.DoctorID},
		{"date", d.Date},
		{"time", d.Time},
		{"fullName", d.FullName},
		{"phone", d.Phone},
		{"email", d.Email},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
