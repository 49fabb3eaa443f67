package models

import (
	"time"

	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	MaxDoctorLength    = 200
	MaxSpecialtyLength = 100
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusScheduled, StatusCompleted, StatusCancelled}

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// Appointment is a consultation booked for a patient.
//
// Invariants:
//   - PatientID references an existing patient
//   - Doctor is non-empty
//   - Status is one of scheduled, completed, cancelled
type Appointment struct {
	ID          id.AppointmentID
	PatientID   id.PatientID
	ScheduledAt time.Time
	Doctor      string
	Specialty   string
	Notes       string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Fields are the mutable attributes of an appointment after request parsing.
type Fields struct {
	PatientID   id.PatientID
	ScheduledAt time.Time
	Doctor      string
	Specialty   string
	Notes       string
	Status      Status
}

func NewAppointment(appointmentID id.AppointmentID, f Fields, now time.Time) (*Appointment, error) {
	if f.PatientID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "appointment requires a patient")
	}
	if f.Doctor == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "appointment requires a doctor")
	}
	if f.Status == "" {
		f.Status = StatusScheduled
	}
	if !f.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid appointment status")
	}
	a := &Appointment{ID: appointmentID, CreatedAt: now}
	a.Apply(f, now)
	return a, nil
}

// Apply overwrites the mutable fields. An empty status becomes scheduled.
func (a *Appointment) Apply(f Fields, now time.Time) {
	a.PatientID = f.PatientID
	a.ScheduledAt = f.ScheduledAt
	a.Doctor = f.Doctor
	a.Specialty = f.Specialty
	a.Notes = f.Notes
	a.Status = f.Status
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	a.UpdatedAt = now
}

// View is an appointment joined with its patient's name for listings.
type View struct {
	*Appointment
	PatientName string
}
