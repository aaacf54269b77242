// internal/models/template.go
package models

// MessageTemplate is a per-salon, per-channel, per-trigger message template.
// Templates are deactivated, never hard-deleted, so historical notifications
// keep a valid reference.
type MessageTemplate struct {
	ID           string   `json:"id"`
	SalonID      string   `json:"salonId"`
	Channel      Channel  `json:"channel"`
	TriggerEvent string   `json:"triggerEvent"`
	Name         string   `json:"name,omitempty"`
	Subject      string   `json:"subject,omitempty"` // email only
	Body         string   `json:"body"`
	Variables    []string `json:"variables,omitempty"`
	IsActive     bool     `json:"isActive"`
	IsDefault    bool     `json:"isDefault"`
}

// MergeVariables is the canonical merge-field set. Placeholders outside this
// set stay verbatim in rendered output so staff notice misconfiguration.
var MergeVariables = []string{
	"client_name",
	"pet_name",
	"service_name",
	"appointment_date",
	"appointment_time",
	"salon_name",
	"salon_address",
	"salon_phone",
	"price",
	"groomer_name",
}
