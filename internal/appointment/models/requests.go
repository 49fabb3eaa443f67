package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
	textutil "clinic/pkg/platform/strings"
)

// AppointmentRequest is the create and update payload. Date and time are
// separate fields and combine into ScheduledAt.
type AppointmentRequest struct {
	PatientID string `json:"patient_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Doctor    string `json:"doctor"`
	Specialty string `json:"specialty,omitempty"`
	Notes     string `json:"notes,omitempty"`
	Status    string `json:"status,omitempty"`
}

func (r *AppointmentRequest) Normalize() {
	if r == nil {
		return
	}
	r.PatientID = strings.TrimSpace(r.PatientID)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	textutil.SquishAll(&r.Doctor, &r.Specialty)
	r.Notes = strings.TrimSpace(r.Notes)
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
}

// Validate returns the parsed fields. Scheduled times are interpreted in loc.
// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *AppointmentRequest) Validate(loc *time.Location) (Fields, error) {
	if r == nil {
		return Fields{}, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if loc == nil {
		loc = time.UTC
	}

	if utf8.RuneCountInString(r.Doctor) > MaxDoctorLength {
		return Fields{}, dErrors.New(dErrors.CodeValidation, "doctor must be 200 characters or less")
	}
	if utf8.RuneCountInString(r.Specialty) > MaxSpecialtyLength {
		return Fields{}, dErrors.New(dErrors.CodeValidation, "specialty must be 100 characters or less")
	}

	if r.PatientID == "" {
		return Fields{}, dErrors.New(dErrors.CodeValidation, "patient_id is required")
	}
	if r.Date == "" || r.Time == "" {
		return Fields{}, dErrors.New(dErrors.CodeValidation, "date and time are required")
	}
	if r.Doctor == "" {
		return Fields{}, dErrors.New(dErrors.CodeValidation, "doctor is required")
	}

	patientID, err := id.ParsePatientID(r.PatientID)
	if err != nil {
		return Fields{}, dErrors.New(dErrors.CodeValidation, "patient_id must be a UUID")
	}
	scheduledAt, err := time.ParseInLocation(DateLayout+" "+TimeLayout, r.Date+" "+r.Time, loc)
	if err != nil {
		return Fields{}, dErrors.New(dErrors.CodeValidation, "date must be YYYY-MM-DD and time HH:MM")
	}

	status := StatusScheduled
	if r.Status != "" {
		status = Status(r.Status)
		if !status.IsValid() {
			return Fields{}, dErrors.New(dErrors.CodeValidation, "status must be scheduled, completed or cancelled")
		}
	}

	return Fields{
		PatientID:   patientID,
		ScheduledAt: scheduledAt,
		Doctor:      r.Doctor,
		Specialty:   r.Specialty,
		Notes:       r.Notes,
		Status:      status,
	}, nil
}
