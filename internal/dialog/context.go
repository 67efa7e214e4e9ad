// Package dialog implements the multi-turn appointment booking conversation:
// a slot-filling state machine that walks the patient through hospital,
// department, doctor, time slot and contact details, then submits the booking
// to the catalog gateway.
package dialog

import (
	"time"

	"github.com/vietcare/booking-assistant/internal/catalog"
)

// Need identifies the field the conversation is currently collecting.
type Need string

const (
	NeedHospital   Need = "hospital"
	NeedDepartment Need = "department"
	NeedDoctor     Need = "doctor"
	NeedSlot       Need = "slot"
	NeedFullName   Need = "fullName"
	NeedPhone      Need = "phone"
	NeedEmail      Need = "email"
	NeedSymptoms   Need = "symptoms"
)

// Flow is the lifecycle phase of a conversation.
type Flow string

const (
	FlowIdle       Flow = "idle"
	FlowCollecting Flow = "collecting"
)

// ContextTTL is how long an unfinished conversation stays resumable. Expiry is
// checked lazily on the next turn; expired contexts restart the flow.
const ContextTTL = 10 * time.Minute

// Data is the booking information accumulated across turns. Fields fill in
// canonical order and are never cleared except by restarting the flow.
type Data struct {
	HospitalID     string `json:"hospitalId,omitempty"`
	HospitalName   string `json:"hospitalName,omitempty"`
	DepartmentID   string `json:"departmentId,omitempty"`
	DepartmentName string `json:"departmentName,omitempty"`
	DoctorID       string `json:"doctorId,omitempty"`
	DoctorName     string `json:"doctorName,omitempty"`
	Date           string `json:"date,omitempty"`
	Time           string `json:"time,omitempty"`
	FullName       string `json:"fullName,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`

	// Symptoms distinguishes "not asked yet" (nil) from "skipped" (empty).
	Symptoms *string `json:"symptoms,omitempty"`
}

// Context is the serializable state of one in-progress conversation. The
// engine receives and returns it by value and keeps no state of its own, so
// any number of conversations can run concurrently as long as each caller
// holds its own context.
type Context struct {
	Flow Flow `json:"flow"`
	Need Need `json:"need,omitempty"`
	Data Data `json:"data"`

	// Option lists offered at the current step, carried so the next answer
	// can be resolved without refetching. Lists from completed steps may
	// remain but are only meaningful for the step named by Need.
	HospitalOptions   []catalog.Option     `json:"hospitalOptions,omitempty"`
	DepartmentOptions []catalog.Option     `json:"departmentOptions,omitempty"`
	DoctorOptions     []catalog.Option     `json:"doctorOptions,omitempty"`
	SlotOptions       []catalog.SlotOption `json:"slotOptions,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// NewContext returns a fresh idle context.
func NewContext(now time.Time) Context {
	return Context{Flow: FlowIdle, UpdatedAt: now}
}

// Expired reports whether the context has been idle past ContextTTL.
func (c Context) Expired(now time.Time) bool {
	return !c.UpdatedAt.IsZero() && now.Sub(c.UpdatedAt) > ContextTTL
}

// NextNeed returns the first unfilled field in canonical fill order, or ""
// when everything has been collected.
func NextNeed(c Context) Need {
	d := c.Data
	switch {
	case d.HospitalID == "":
		return NeedHospital
	case d.DepartmentID == "":
		return NeedDepartment
	case d.DoctorID == "":
		return NeedDoctor
	case d.Date == "" || d.Time == "":
		return NeedSlot
	case d.FullName == "":
		return NeedFullName
	case d.Phone == "":
		return NeedPhone
	case d.Email == "":
		return NeedEmail
	case d.Symptoms == nil:
		return NeedSymptoms
	}
	return ""
}

// Result is one turn's outcome: the reply to render and the context to carry
// into the next turn. Done marks terminal turns (booking created or flow
// cancelled).
type Result struct {
	Response string  `json:"response"`
	Context  Context `json:"context"`
	Done     bool    `json:"done,omitempty"`
}
