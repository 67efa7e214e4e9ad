// Package catalog is the client for the hospital booking gateway: the remote
// API that lists hospitals, departments, doctors and schedules, and accepts
// appointment submissions.
package catalog

import (
	"encoding/json"
	"fmt"
)

// flexID decodes gateway identifiers that arrive as either JSON strings or
// numbers, depending on the upstream deployment.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexID(n.String())
		return nil
	}
	return fmt.Errorf("catalog: id is neither string nor number: %s", b)
}

// HospitalRecord is the raw gateway hospital payload. Deployments disagree on
// which identifier field is populated, so every variant is optional and the
// fallback chain is resolved once, in toOption.
type HospitalRecord struct {
	HospitalID flexID `json:"hospitalId"`
	ID         flexID `json:"id"`
	Code       flexID `json:"code"`
	Name       string `json:"name"`
	Address    string `json:"address"`
}

// DepartmentRecord is the raw gateway department payload.
type DepartmentRecord struct {
	DepartmentID flexID `json:"departmentId"`
	ID           flexID `json:"id"`
	Name         string `json:"name"`
}

// DoctorRecord is the raw gateway doctor payload.
type DoctorRecord struct {
	DoctorID flexID `json:"doctorId"`
	ID       flexID `json:"id"`
	Name     string `json:"name"`
}

// ScheduleResponse is one doctor's availability for a single date.
type ScheduleResponse struct {
	AvailableSlots []string `json:"availableSlots"`
}

// Option is one selectable catalog entry offered to the patient.
type Option struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
}

// Identity returns the fields option resolution matches against.
func (o Option) Identity() (id, label string) {
	return o.ID, o.Label
}

// Display returns the fields shown when the option is listed to the patient.
func (o Option) Display() (label, detail string) {
	return o.Label, o.Detail
}

// SlotOption is a bookable time slot for a specific doctor.
type SlotOption struct {
	Option
	Date string `json:"date"` // yyyy-MM-dd
	Time string `json:"time"` // HH:MM
}

// BookingRequest is the appointment submission payload. AppointmentID is the
// client-generated reference; the gateway may replace it with its own.
type BookingRequest struct {
	AppointmentID string `json:"appointmentId"`
	PatientName   string `json:"patientName"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	HospitalID    string `json:"hospitalId"`
	DepartmentID  string `json:"departmentId"`
	DoctorID      string `json:"doctorId"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Symptoms      string `json:"symptoms"`
}

// BookingResponse is the gateway's reply to an appointment submission.
type BookingResponse struct {
	AppointmentID string `json:"appointmentId"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (r HospitalRecord) toOption() Option {
	return Option{
		ID:     firstNonEmpty(string(r.HospitalID), string(r.ID), string(r.Code), r.Name),
		Label:  firstNonEmpty(r.Name, "Bệnh viện"),
		Detail: r.Address,
	}
}

func (r DepartmentRecord) toOption() Option {
	return Option{
		ID:    firstNonEmpty(string(r.DepartmentID), string(r.ID), r.Name),
		Label: firstNonEmpty(r.Name, "Chuyên khoa"),
	}
}

func (r DoctorRecord) toOption() Option {
	return Option{
		ID:    firstNonEmpty(string(r.DoctorID), string(r.ID), r.Name),
		Label: firstNonEmpty(r.Name, "Bác sĩ"),
	}
}
