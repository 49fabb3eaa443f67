package models

import "time"

type AppointmentResponse struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	PatientName string    `json:"patient_name,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Doctor      string    `json:"doctor"`
	Specialty   string    `json:"specialty"`
	Notes       string    `json:"notes"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToResponse(v View) AppointmentResponse {
	a := v.Appointment
	return AppointmentResponse{
		ID:          a.ID.String(),
		PatientID:   a.PatientID.String(),
		PatientName: v.PatientName,
		ScheduledAt: a.ScheduledAt,
		Date:        a.ScheduledAt.Format(DateLayout),
		Time:        a.ScheduledAt.Format(TimeLayout),
		Doctor:      a.Doctor,
		Specialty:   a.Specialty,
		Notes:       a.Notes,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func ToResponses(views []View) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(views))
	for _, v := range views {
		out = append(out, ToResponse(v))
	}
	return out
}
