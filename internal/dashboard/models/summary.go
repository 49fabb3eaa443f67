package models

import (
	"time"

	appointmentmodels "clinic/internal/appointment/models"
)

// RecentLimit is how many recently created appointments the summary carries.
const RecentLimit = 5

// Summary is the dashboard payload. It is cached as JSON, so it holds
// response types rather than domain models.
type Summary struct {
	TotalPatients         int                                     `json:"total_patients"`
	TotalAppointments     int                                     `json:"total_appointments"`
	ScheduledAppointments int                                     `json:"scheduled_appointments"`
	RecentAppointments    []appointmentmodels.AppointmentResponse `json:"recent_appointments"`
	GeneratedAt           time.Time                               `json:"generated_at"`
}
