// internal/store/catalog.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"salon-notifications/internal/common/errors"
	"salon-notifications/internal/models"
)

// Catalog is a read-only view over the booking tables. The dispatcher never
// writes to appointments, clients, salons or services; it only joins them to
// build reminder context.
type Catalog struct {
	db *sql.DB
}

func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{db: db}
}

// DueAppointments returns appointments scheduled inside [from, to] that are
// still live. Cancelled appointments never come back from this query.
func (c *Catalog) DueAppointments(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, salon_id, client_id, status, scheduled_at
		 FROM appointments
		 WHERE scheduled_at >= $1 AND scheduled_at <= $2
		   AND status IN ('scheduled', 'confirmed')
		 ORDER BY scheduled_at`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("due appointments: %w", err)
	}
	defer rows.Close()

	var out []models.Appointment
	for rows.Next() {
		var a models.Appointment
		if err := rows.Scan(&a.ID, &a.SalonID, &a.ClientID, &a.Status, &a.ScheduledAt); err != nil {
			return nil, fmt.Errorf("due appointments: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("due appointments: %w", err)
	}
	return out, nil
}

// AppointmentContext joins the appointment with its client, pet, service,
// salon and groomer and flattens the result into merge variables plus the
// client's per-channel addresses. Optional relations (groomer, pet) fold into
// empty variables rather than errors.
func (c *Catalog) AppointmentContext(ctx context.Context, appointmentID string) (models.AppointmentContext, error) {
	var (
		appt         models.Appointment
		clientName   string
		phone        sql.NullString
		email        sql.NullString
		telegramChat sql.NullString
		petName      sql.NullString
		serviceName  sql.NullString
		price        sql.NullFloat64
		salonName    string
		salonAddress sql.NullString
		salonPhone   sql.NullString
		groomerName  sql.NullString
	)

	err := c.db.QueryRowContext(ctx,
		`SELECT a.id, a.salon_id, a.client_id, a.status, a.scheduled_at,
		        c.name, c.phone, c.email, c.telegram_chat_id,
		        p.name, sv.name, sv.price,
		        s.name, s.address, s.phone,
		        g.name
		 FROM appointments a
		 JOIN clients c ON c.id = a.client_id
		 JOIN salons s ON s.id = a.salon_id
		 LEFT JOIN pets p ON p.id = a.pet_id
		 LEFT JOIN services sv ON sv.id = a.service_id
		 LEFT JOIN groomers g ON g.id = a.groomer_id
		 WHERE a.id = $1`,
		appointmentID).Scan(
		&appt.ID, &appt.SalonID, &appt.ClientID, &appt.Status, &appt.ScheduledAt,
		&clientName, &phone, &email, &telegramChat,
		&petName, &serviceName, &price,
		&salonName, &salonAddress, &salonPhone,
		&groomerName)
	if err == sql.ErrNoRows {
		return models.AppointmentContext{}, errors.NewAppointmentCancelledError(appointmentID)
	}
	if err != nil {
		return models.AppointmentContext{}, fmt.Errorf("appointment context: %w", err)
	}

	vars := map[string]string{
		"client_name":      clientName,
		"pet_name":         petName.String,
		"service_name":     serviceName.String,
		"appointment_date": appt.ScheduledAt.Format("2006-01-02"),
		"appointment_time": appt.ScheduledAt.Format("15:04"),
		"salon_name":       salonName,
		"salon_address":    salonAddress.String,
		"salon_phone":      salonPhone.String,
		"price":            formatPrice(price),
		"groomer_name":     groomerName.String,
	}

	contacts := make(map[models.Channel]string)
	if phone.Valid && phone.String != "" {
		contacts[models.ChannelSMS] = phone.String
		contacts[models.ChannelWhatsApp] = phone.String
	}
	if email.Valid && email.String != "" {
		contacts[models.ChannelEmail] = email.String
	}
	if telegramChat.Valid && telegramChat.String != "" {
		contacts[models.ChannelChatBot] = telegramChat.String
	}

	return models.AppointmentContext{
		Appointment: appt,
		Variables:   vars,
		Contacts:    contacts,
	}, nil
}

// ClientContact returns the client's address on the given channel, for direct
// sends that name a client instead of a raw recipient.
func (c *Catalog) ClientContact(ctx context.Context, clientID string, channel models.Channel) (string, error) {
	var phone, email, telegramChat sql.NullString
	err := c.db.QueryRowContext(ctx,
		`SELECT phone, email, telegram_chat_id FROM clients WHERE id = $1`,
		clientID).Scan(&phone, &email, &telegramChat)
	if err == sql.ErrNoRows {
		return "", errors.NewRecipientUnknownError(string(channel))
	}
	if err != nil {
		return "", fmt.Errorf("client contact: %w", err)
	}

	var addr string
	switch channel {
	case models.ChannelSMS, models.ChannelWhatsApp:
		addr = phone.String
	case models.ChannelEmail:
		addr = email.String
	case models.ChannelChatBot:
		addr = telegramChat.String
	}
	if addr == "" {
		return "", errors.NewRecipientUnknownError(string(channel))
	}
	return addr, nil
}

func formatPrice(p sql.NullFloat64) string {
	if !p.Valid {
		return ""
	}
	return strconv.FormatFloat(p.Float64, 'f', 2, 64)
}
