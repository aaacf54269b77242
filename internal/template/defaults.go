// internal/template/defaults.go
package template

import "salon-notifications/internal/models"

// builtin holds the hard-coded fallback per trigger event, used when a salon
// has configured no default template for the channel. Kept as data so the
// fallback is testable on its own, not buried in dispatch code.
type builtinTemplate struct {
	Subject string
	Body    string
}

var builtin = map[string]builtinTemplate{
	models.TriggerReminder24h: {
		Subject: "Appointment reminder",
		Body:    "Hi {{client_name}}! A reminder that {{pet_name}} has a {{service_name}} appointment at {{salon_name}} tomorrow, {{appointment_date}} at {{appointment_time}}.",
	},
	models.TriggerReminder2h: {
		Subject: "Appointment reminder",
		Body:    "Hi {{client_name}}! {{pet_name}}'s {{service_name}} appointment at {{salon_name}} starts at {{appointment_time}}. See you soon!",
	},
	models.TriggerConfirmation: {
		Subject: "Appointment confirmed",
		Body:    "Hi {{client_name}}! {{pet_name}} is booked for {{service_name}} on {{appointment_date}} at {{appointment_time}} at {{salon_name}}, {{salon_address}}.",
	},
	models.TriggerTestSend: {
		Subject: "Test notification",
		Body:    "Test notification from {{salon_name}}.",
	},
}

var genericBuiltin = builtinTemplate{
	Subject: "Notification",
	Body:    "Hi {{client_name}}! You have an update from {{salon_name}} regarding your {{appointment_date}} {{appointment_time}} appointment.",
}

// builtinFor never fails: an unknown trigger event falls back to the generic
// text so the system never refuses to send merely for lack of configuration.
func builtinFor(triggerEvent string) builtinTemplate {
	if t, ok := builtin[triggerEvent]; ok {
		return t
	}
	return genericBuiltin
}
