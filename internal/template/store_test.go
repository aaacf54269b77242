// internal/template/store_test.go
package template

import (
	"context"
	"testing"

	commonerrors "salon-notifications/internal/common/errors"
	"salon-notifications/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func templateRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "salon_id", "channel", "trigger_event", "name",
		"subject", "body", "variables", "is_active", "is_default",
	})
}

func TestStore_Resolve_ExplicitID(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM message_templates\s+WHERE id = \$1 AND salon_id = \$2 AND is_active`).
		WithArgs("tpl-1", "salon-1").
		WillReturnRows(templateRows().AddRow(
			"tpl-1", "salon-1", "sms", "reminder_24h", "spring promo",
			nil, "Напоминание: {{appointment_time}}", "{appointment_time}", true, false))

	store := NewStore(db)
	tmpl, err := store.Resolve(context.Background(), "salon-1", models.ChannelSMS, "reminder_24h", "tpl-1")

	assert.NoError(t, err)
	assert.Equal(t, "tpl-1", tmpl.ID)
	assert.Equal(t, "Напоминание: {{appointment_time}}", tmpl.Body)
	assert.Equal(t, []string{"appointment_time"}, tmpl.Variables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Resolve_ExplicitIDMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM message_templates\s+WHERE id = \$1 AND salon_id = \$2 AND is_active`).
		WithArgs("tpl-gone", "salon-1").
		WillReturnRows(templateRows())

	store := NewStore(db)
	_, err = store.Resolve(context.Background(), "salon-1", models.ChannelSMS, "reminder_24h", "tpl-gone")

	assert.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeTemplateNotFound, commonerrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Resolve_SalonDefault(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM message_templates\s+WHERE salon_id = \$1 AND channel = \$2 AND trigger_event = \$3 AND is_active AND is_default`).
		WithArgs("salon-1", "email", "appointment_confirmation").
		WillReturnRows(templateRows().AddRow(
			"tpl-2", "salon-1", "email", "appointment_confirmation", nil,
			"Booking confirmed", "Dear {{client_name}}, see you on {{appointment_date}}.",
			"{client_name,appointment_date}", true, true))

	store := NewStore(db)
	tmpl, err := store.Resolve(context.Background(), "salon-1", models.ChannelEmail, "appointment_confirmation", "")

	assert.NoError(t, err)
	assert.Equal(t, "Booking confirmed", tmpl.Subject)
	assert.True(t, tmpl.IsDefault)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Resolve_BuiltinFallback(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM message_templates`).
		WithArgs("salon-1", "sms", "reminder_24h").
		WillReturnRows(templateRows())

	store := NewStore(db)
	tmpl, err := store.Resolve(context.Background(), "salon-1", models.ChannelSMS, "reminder_24h", "")

	assert.NoError(t, err)
	assert.Empty(t, tmpl.ID)
	assert.NotEmpty(t, tmpl.Body)
	assert.Contains(t, tmpl.Body, "{{client_name}}")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Resolve_UnknownTriggerStillFallsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM message_templates`).
		WithArgs("salon-1", "sms", "never_configured").
		WillReturnRows(templateRows())

	store := NewStore(db)
	tmpl, err := store.Resolve(context.Background(), "salon-1", models.ChannelSMS, "never_configured", "")

	assert.NoError(t, err)
	assert.NotEmpty(t, tmpl.Body)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuiltinCoversAllReminderTriggers(t *testing.T) {
	for _, trigger := range []string{
		models.TriggerReminder24h,
		models.TriggerReminder2h,
		models.TriggerConfirmation,
	} {
		tmpl := builtinFor(trigger)
		assert.NotEmpty(t, tmpl.Body, trigger)
	}
}
