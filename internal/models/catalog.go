// internal/models/catalog.go
package models

import "time"

// Appointment status values relevant to reminder eligibility.
const (
	AppointmentScheduled = "scheduled"
	AppointmentConfirmed = "confirmed"
	AppointmentCancelled = "cancelled"
)

// Appointment is the read-only slice of the booking record the dispatcher
// needs. The appointment service owns the full entity.
type Appointment struct {
	ID          string    `json:"id"`
	SalonID     string    `json:"salonId"`
	ClientID    string    `json:"clientId"`
	Status      string    `json:"status"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

// AppointmentContext carries everything needed to render and address one
// reminder: merge variables plus the client's per-channel addresses.
type AppointmentContext struct {
	Appointment Appointment
	Variables   map[string]string
	Contacts    map[Channel]string
}
