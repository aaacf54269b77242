// internal/quota/ledger.go
package quota

import (
	"context"
	"database/sql"
	"fmt"

	"salon-notifications/internal/common/errors"
	"salon-notifications/internal/common/metrics"
	"salon-notifications/internal/models"
)

// Ledger is the authoritative per-salon, per-channel send quota. Check and
// increment happen in one conditional UPDATE so concurrent dispatch workers
// cannot both pass the check before either increments. Counters for a new day
// or month are zeroed lazily inside the same statement; no reset cron.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// reserveQuery rolls the period anchors forward and increments both counters,
// but only when the channel is enabled and neither effective counter has
// reached its limit. Limit 0 means unlimited.
const reserveQuery = `
UPDATE channel_settings SET
    daily_count   = CASE WHEN count_date = CURRENT_DATE THEN daily_count + 1 ELSE 1 END,
    count_date    = CURRENT_DATE,
    monthly_count = CASE WHEN count_month = DATE_TRUNC('month', CURRENT_DATE)::date THEN monthly_count + 1 ELSE 1 END,
    count_month   = DATE_TRUNC('month', CURRENT_DATE)::date
WHERE salon_id = $1 AND channel = $2 AND enabled
  AND (daily_limit = 0 OR
       (CASE WHEN count_date = CURRENT_DATE THEN daily_count ELSE 0 END) < daily_limit)
  AND (monthly_limit = 0 OR
       (CASE WHEN count_month = DATE_TRUNC('month', CURRENT_DATE)::date THEN monthly_count ELSE 0 END) < monthly_limit)`

// CheckAndReserve consumes one quota slot for (salon, channel). The slot is
// not refunded if the subsequent provider call fails. Returns
// CHANNEL_DISABLED when the channel row is missing or disabled and
// QUOTA_EXCEEDED when either counter is at its limit.
func (l *Ledger) CheckAndReserve(ctx context.Context, salonID string, channel models.Channel) error {
	res, err := l.db.ExecContext(ctx, reserveQuery, salonID, channel)
	if err != nil {
		return fmt.Errorf("quota reserve: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("quota reserve: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// The reserve touched nothing: distinguish a disabled channel from an
	// exhausted quota for the audit record.
	var enabled bool
	err = l.db.QueryRowContext(ctx,
		`SELECT enabled FROM channel_settings WHERE salon_id = $1 AND channel = $2`,
		salonID, channel).Scan(&enabled)
	if err == sql.ErrNoRows {
		return errors.NewChannelDisabledError(string(channel))
	}
	if err != nil {
		return fmt.Errorf("quota reserve: %w", err)
	}
	if !enabled {
		return errors.NewChannelDisabledError(string(channel))
	}
	return errors.NewQuotaExceededError(string(channel))
}

// Get returns the settings row with its live counters. Missing row is
// reported as a disabled channel.
func (l *Ledger) Get(ctx context.Context, salonID string, channel models.Channel) (models.ChannelSettings, error) {
	var s models.ChannelSettings
	var credentialRef sql.NullString
	err := l.db.QueryRowContext(ctx,
		`SELECT salon_id, channel, enabled, credential_ref, daily_limit, monthly_limit,
		        daily_count, monthly_count, count_date, count_month
		 FROM channel_settings WHERE salon_id = $1 AND channel = $2`,
		salonID, channel).Scan(
		&s.SalonID, &s.Channel, &s.Enabled, &credentialRef, &s.DailyLimit, &s.MonthlyLimit,
		&s.DailyCount, &s.MonthlyCount, &s.CountDate, &s.CountMonth)
	if err == sql.ErrNoRows {
		return models.ChannelSettings{}, errors.NewChannelDisabledError(string(channel))
	}
	if err != nil {
		return models.ChannelSettings{}, fmt.Errorf("get channel settings: %w", err)
	}
	s.CredentialRef = credentialRef.String
	if s.DailyLimit > 0 {
		metrics.QuotaCounters.WithLabelValues(string(channel)).Set(float64(s.DailyLimit - s.DailyCount))
	}
	return s, nil
}

// Upsert creates or updates the settings row for (salon, channel). Counters
// and period anchors are preserved on update; limits and flags are replaced.
func (l *Ledger) Upsert(ctx context.Context, s models.ChannelSettings) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO channel_settings
		     (salon_id, channel, enabled, credential_ref, daily_limit, monthly_limit,
		      daily_count, monthly_count, count_date, count_month)
		 VALUES ($1, $2, $3, $4, $5, $6, 0, 0, CURRENT_DATE, DATE_TRUNC('month', CURRENT_DATE)::date)
		 ON CONFLICT (salon_id, channel) DO UPDATE SET
		     enabled = EXCLUDED.enabled,
		     credential_ref = EXCLUDED.credential_ref,
		     daily_limit = EXCLUDED.daily_limit,
		     monthly_limit = EXCLUDED.monthly_limit`,
		s.SalonID, s.Channel, s.Enabled, s.CredentialRef, s.DailyLimit, s.MonthlyLimit)
	if err != nil {
		return fmt.Errorf("upsert channel settings: %w", err)
	}
	return nil
}
