// internal/template/store.go
package template

import (
	"context"
	"database/sql"
	"fmt"

	"salon-notifications/internal/common/errors"
	"salon-notifications/internal/models"

	"github.com/lib/pq"
)

// Store resolves message templates against Postgres with a built-in fallback.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const templateColumns = `id, salon_id, channel, trigger_event, name, subject, body, variables, is_active, is_default`

// Resolve returns the template for a dispatch. Resolution order: the explicit
// id when given (must be active and belong to the salon, else
// TEMPLATE_NOT_FOUND), else the salon's active default for (channel,
// trigger_event), else the built-in fallback. Only the explicit-id path can
// fail.
func (s *Store) Resolve(ctx context.Context, salonID string, channel models.Channel, triggerEvent, explicitTemplateID string) (models.MessageTemplate, error) {
	if explicitTemplateID != "" {
		tmpl, err := s.byID(ctx, salonID, explicitTemplateID)
		if err == sql.ErrNoRows {
			return models.MessageTemplate{}, errors.NewTemplateNotFoundError(explicitTemplateID)
		}
		if err != nil {
			return models.MessageTemplate{}, fmt.Errorf("resolve template %s: %w", explicitTemplateID, err)
		}
		return tmpl, nil
	}

	tmpl, err := s.defaultFor(ctx, salonID, channel, triggerEvent)
	if err == sql.ErrNoRows {
		fallback := builtinFor(triggerEvent)
		return models.MessageTemplate{
			SalonID:      salonID,
			Channel:      channel,
			TriggerEvent: triggerEvent,
			Subject:      fallback.Subject,
			Body:         fallback.Body,
			IsActive:     true,
		}, nil
	}
	if err != nil {
		return models.MessageTemplate{}, fmt.Errorf("resolve default template: %w", err)
	}
	return tmpl, nil
}

func (s *Store) byID(ctx context.Context, salonID, id string) (models.MessageTemplate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM message_templates
		 WHERE id = $1 AND salon_id = $2 AND is_active`,
		id, salonID)
	return scanTemplate(row)
}

func (s *Store) defaultFor(ctx context.Context, salonID string, channel models.Channel, triggerEvent string) (models.MessageTemplate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM message_templates
		 WHERE salon_id = $1 AND channel = $2 AND trigger_event = $3 AND is_active AND is_default`,
		salonID, channel, triggerEvent)
	return scanTemplate(row)
}

func scanTemplate(row *sql.Row) (models.MessageTemplate, error) {
	var t models.MessageTemplate
	var name, subject sql.NullString
	err := row.Scan(&t.ID, &t.SalonID, &t.Channel, &t.TriggerEvent,
		&name, &subject, &t.Body, pq.Array(&t.Variables), &t.IsActive, &t.IsDefault)
	if err != nil {
		return models.MessageTemplate{}, err
	}
	t.Name = name.String
	t.Subject = subject.String
	return t, nil
}
