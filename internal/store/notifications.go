// internal/store/notifications.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"salon-notifications/internal/models"

	"github.com/lib/pq"
)

// ErrDuplicateDispatch is returned when a pending/sent notification already
// exists for the same (appointment, trigger_event). Backed by a partial unique
// index so it holds under concurrent scan cycles, not just the pre-check.
var ErrDuplicateDispatch = errors.New("duplicate dispatch for appointment and trigger event")

// ErrUnknownProviderID is returned by the webhook hook when no matching,
// updatable notification exists.
var ErrUnknownProviderID = errors.New("unknown provider message id")

// Notifications is the durable log of every dispatch attempt. Only the
// dispatch orchestrator writes here; everything else reads.
type Notifications struct {
	db *sql.DB
}

func NewNotifications(db *sql.DB) *Notifications {
	return &Notifications{db: db}
}

// InsertPending durably records the attempt before any network call, so a
// crash mid-send still leaves an auditable trace.
func (n *Notifications) InsertPending(ctx context.Context, notif *models.Notification) error {
	notif.Status = models.StatusPending
	err := n.db.QueryRowContext(ctx,
		`INSERT INTO notifications
		     (id, salon_id, channel, trigger_event, appointment_id, client_id, template_id,
		      recipient, subject, body, status, cost, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'pending', 0, NOW())
		 RETURNING created_at`,
		notif.ID, notif.SalonID, notif.Channel, notif.TriggerEvent,
		notif.AppointmentID, notif.ClientID, notif.TemplateID,
		notif.Recipient, notif.Subject, notif.Body).Scan(&notif.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateDispatch
		}
		return fmt.Errorf("insert pending notification: %w", err)
	}
	return nil
}

// InsertFailed records a dispatch that was refused before the provider call
// (disabled channel, quota, missing template, cancelled appointment). Callers
// always get an auditable row.
func (n *Notifications) InsertFailed(ctx context.Context, notif *models.Notification, reason string) error {
	notif.Status = models.StatusFailed
	notif.ErrorMessage = reason
	notif.Cost = 0
	err := n.db.QueryRowContext(ctx,
		`INSERT INTO notifications
		     (id, salon_id, channel, trigger_event, appointment_id, client_id, template_id,
		      recipient, subject, body, status, cost, error_message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'failed', 0, $11, NOW())
		 RETURNING created_at`,
		notif.ID, notif.SalonID, notif.Channel, notif.TriggerEvent,
		notif.AppointmentID, notif.ClientID, notif.TemplateID,
		notif.Recipient, notif.Subject, notif.Body, reason).Scan(&notif.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert failed notification: %w", err)
	}
	return nil
}

// MarkSent moves pending -> sent. The status predicate keeps transitions
// monotonic even if two workers race on the same row.
func (n *Notifications) MarkSent(ctx context.Context, id, providerMessageID string, cost float64) error {
	res, err := n.db.ExecContext(ctx,
		`UPDATE notifications
		 SET status = 'sent', provider_message_id = $2, cost = $3, sent_at = NOW()
		 WHERE id = $1 AND status = 'pending'`,
		id, providerMessageID, cost)
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return requireAffected(res, id, models.StatusSent)
}

// MarkFailed moves pending -> failed and records the reason. Cost stays 0.
func (n *Notifications) MarkFailed(ctx context.Context, id, reason string) error {
	res, err := n.db.ExecContext(ctx,
		`UPDATE notifications
		 SET status = 'failed', error_message = $2
		 WHERE id = $1 AND status = 'pending'`,
		id, reason)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return requireAffected(res, id, models.StatusFailed)
}

// UpdateByProviderID is the inbound webhook hook: providers report delivered,
// the client UI reports read. Terminal states never move backwards; a
// delivered report on a read row is a no-op rather than an error.
func (n *Notifications) UpdateByProviderID(ctx context.Context, providerMessageID string, status models.Status) error {
	var res sql.Result
	var err error

	switch status {
	case models.StatusDelivered:
		res, err = n.db.ExecContext(ctx,
			`UPDATE notifications
			 SET status = 'delivered', delivered_at = NOW()
			 WHERE provider_message_id = $1 AND status = 'sent'`,
			providerMessageID)
	case models.StatusRead:
		res, err = n.db.ExecContext(ctx,
			`UPDATE notifications
			 SET status = 'read', read_at = NOW(), delivered_at = COALESCE(delivered_at, NOW())
			 WHERE provider_message_id = $1 AND status IN ('sent', 'delivered')`,
			providerMessageID)
	default:
		return fmt.Errorf("webhook status %q not allowed", status)
	}
	if err != nil {
		return fmt.Errorf("update by provider id: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update by provider id: %w", err)
	}
	if affected == 0 {
		exists, existsErr := n.providerIDExists(ctx, providerMessageID)
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return ErrUnknownProviderID
		}
		// Row exists but is already at or past the reported state.
	}
	return nil
}

func (n *Notifications) providerIDExists(ctx context.Context, providerMessageID string) (bool, error) {
	var exists bool
	err := n.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM notifications WHERE provider_message_id = $1)`,
		providerMessageID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("provider id lookup: %w", err)
	}
	return exists, nil
}

// HasNonFailed is the scanner's idempotency probe: a pending, sent, delivered
// or read attempt for this (appointment, trigger) means skip. Failed attempts
// do not count, which grants exactly one retry per window.
func (n *Notifications) HasNonFailed(ctx context.Context, appointmentID, triggerEvent string) (bool, error) {
	var exists bool
	err := n.db.QueryRowContext(ctx,
		`SELECT EXISTS(
		     SELECT 1 FROM notifications
		     WHERE appointment_id = $1 AND trigger_event = $2 AND status <> 'failed')`,
		appointmentID, triggerEvent).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("idempotency probe: %w", err)
	}
	return exists, nil
}

// SweepAbandoned fails pending rows older than the cutoff. A crash between
// the pending insert and the terminal update otherwise leaves the idempotency
// probe blocking the retry forever.
func (n *Notifications) SweepAbandoned(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := n.db.ExecContext(ctx,
		`UPDATE notifications
		 SET status = 'failed', error_message = 'abandoned'
		 WHERE status = 'pending' AND created_at < $1`,
		olderThan)
	if err != nil {
		return 0, fmt.Errorf("sweep abandoned: %w", err)
	}
	return res.RowsAffected()
}

func requireAffected(res sql.Result, id string, to models.Status) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("notification %s: no pending row to move to %s", id, to)
	}
	return nil
}
