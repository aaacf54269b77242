// internal/models/notification.go
package models

import (
	"database/sql"
	"time"
)

// Channel is a message transport.
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelChatBot  Channel = "chatbot"
)

// Valid reports whether ch names a known transport.
func (ch Channel) Valid() bool {
	switch ch {
	case ChannelSMS, ChannelEmail, ChannelWhatsApp, ChannelChatBot:
		return true
	}
	return false
}

// Status is the lifecycle state of a dispatch attempt.
// pending -> sent -> delivered -> read, or pending -> failed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
)

// Trigger events. Reminder windows reference these; the confirmation and test
// triggers arrive through the direct dispatch API only.
const (
	TriggerReminder24h  = "reminder_24h"
	TriggerReminder2h   = "reminder_2h"
	TriggerConfirmation = "appointment_confirmation"
	TriggerTestSend     = "test_send"
)

// Notification is one dispatch attempt. Recipient, subject and body are
// immutable once the row leaves pending.
type Notification struct {
	ID                string         `json:"id"`
	SalonID           string         `json:"salonId"`
	Channel           Channel        `json:"channel"`
	TriggerEvent      string         `json:"triggerEvent"`
	AppointmentID     sql.NullString `json:"appointmentId,omitempty"`
	ClientID          sql.NullString `json:"clientId,omitempty"`
	TemplateID        sql.NullString `json:"templateId,omitempty"`
	Recipient         string         `json:"recipient"`
	Subject           string         `json:"subject,omitempty"`
	Body              string         `json:"body"`
	Status            Status         `json:"status"`
	ProviderMessageID string         `json:"providerMessageId,omitempty"`
	Cost              float64        `json:"cost"`
	ErrorMessage      string         `json:"errorMessage,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	SentAt            sql.NullTime   `json:"sentAt,omitempty"`
	DeliveredAt       sql.NullTime   `json:"deliveredAt,omitempty"`
	ReadAt            sql.NullTime   `json:"readAt,omitempty"`
}
