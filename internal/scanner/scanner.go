// internal/scanner/scanner.go
package scanner

import (
	"context"
	"sync"
	"time"

	"salon-notifications/internal/common/config"
	"salon-notifications/internal/common/logger"
	"salon-notifications/internal/common/metrics"
	"salon-notifications/internal/dispatch"
	"salon-notifications/internal/models"

	"github.com/redis/go-redis/v9"
)

const lockKey = "reminder-scan:lock"

// Dispatcher is the slice of the orchestrator the scanner needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *dispatch.Request) (*models.Notification, error)
}

type appointmentSource interface {
	DueAppointments(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
}

type dedupeStore interface {
	HasNonFailed(ctx context.Context, appointmentID, triggerEvent string) (bool, error)
	SweepAbandoned(ctx context.Context, olderThan time.Time) (int64, error)
}

// Scanner periodically finds appointments entering a reminder window and
// hands them to the dispatcher. A Redis lock keeps concurrent replicas from
// running the same cycle; the loser simply skips its tick.
type Scanner struct {
	cfg        config.ScannerConfig
	redis      *redis.Client
	catalog    appointmentSource
	records    dedupeStore
	dispatcher Dispatcher
	logger     logger.Logger

	// now is swapped in tests to pin window math.
	now func() time.Time
}

func New(
	cfg config.ScannerConfig,
	redisClient *redis.Client,
	catalog appointmentSource,
	records dedupeStore,
	dispatcher Dispatcher,
	log logger.Logger,
) *Scanner {
	return &Scanner{
		cfg:        cfg,
		redis:      redisClient,
		catalog:    catalog,
		records:    records,
		dispatcher: dispatcher,
		logger:     log.WithFields(map[string]interface{}{"component": "scanner"}),
		now:        time.Now,
	}
}

// Run blocks, executing one cycle per interval until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ScanInterval())
	defer ticker.Stop()

	s.logger.Info("reminder scanner started", map[string]interface{}{
		"interval": s.cfg.ScanInterval().String(),
		"windows":  len(s.cfg.Windows),
		"workers":  s.cfg.Workers,
	})

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reminder scanner stopped", nil)
			return
		case <-ticker.C:
			s.Cycle(ctx)
		}
	}
}

// Cycle runs one full scan: acquire the replica lock, sweep abandoned rows,
// then walk every reminder window. Exported so operators can trigger a cycle
// out of band.
func (s *Scanner) Cycle(ctx context.Context) {
	// A slow cycle must not run into the next tick: everything in flight is
	// cut off before the lock TTL expires.
	ctx, cancel := context.WithTimeout(ctx, s.cycleDeadline())
	defer cancel()

	acquired, err := s.redis.SetNX(ctx, lockKey, "1", s.cfg.ScanInterval()).Result()
	if err != nil {
		s.logger.Error("scan lock acquisition failed", map[string]interface{}{"error": err})
		metrics.ScanCycles.WithLabelValues("lock_error").Inc()
		return
	}
	if !acquired {
		metrics.ScanCycles.WithLabelValues("skipped").Inc()
		return
	}
	defer s.redis.Del(context.WithoutCancel(ctx), lockKey)

	if swept, err := s.records.SweepAbandoned(ctx, s.now().Add(-s.cfg.AbandonAge())); err != nil {
		s.logger.Error("abandoned sweep failed", map[string]interface{}{"error": err})
	} else if swept > 0 {
		s.logger.Warn("swept abandoned notifications", map[string]interface{}{"count": swept})
	}

	for _, window := range s.cfg.Windows {
		s.scanWindow(ctx, window)
	}
	metrics.ScanCycles.WithLabelValues("completed").Inc()
}

// cycleDeadline leaves 10% of the interval as headroom between a cut-off
// cycle and the next tick.
func (s *Scanner) cycleDeadline() time.Duration {
	return s.cfg.ScanInterval() - s.cfg.ScanInterval()/10
}

func (s *Scanner) scanWindow(ctx context.Context, window config.ReminderWindow) {
	now := s.now()
	from := now.Add(time.Duration(window.Offset-window.Tolerance) * time.Second)
	to := now.Add(time.Duration(window.Offset+window.Tolerance) * time.Second)

	appts, err := s.catalog.DueAppointments(ctx, from, to)
	if err != nil {
		s.logger.Error("due appointment query failed", map[string]interface{}{
			"triggerEvent": window.TriggerEvent,
			"error":        err,
		})
		return
	}

	// Bounded pool: a big window burst must not open one provider call per
	// appointment at once.
	workers := s.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, appt := range appts {
		appt := appt
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			s.process(ctx, window.TriggerEvent, appt)
		}()
	}
	wg.Wait()
}

func (s *Scanner) process(ctx context.Context, triggerEvent string, appt models.Appointment) {
	already, err := s.records.HasNonFailed(ctx, appt.ID, triggerEvent)
	if err != nil {
		s.logger.Error("idempotency probe failed", map[string]interface{}{
			"appointmentId": appt.ID,
			"error":         err,
		})
		metrics.ScanCandidates.WithLabelValues(triggerEvent, "error").Inc()
		return
	}
	if already {
		metrics.ScanCandidates.WithLabelValues(triggerEvent, "already_sent").Inc()
		return
	}

	_, err = s.dispatcher.Dispatch(ctx, &dispatch.Request{
		SalonID:        appt.SalonID,
		Channel:        models.ChannelSMS,
		TriggerEvent:   triggerEvent,
		AppointmentID:  appt.ID,
		ClientID:       appt.ClientID,
		CheckFreshness: true,
	})
	if err != nil {
		// The refusal or failure is already on the notification row; the
		// scanner only counts it.
		metrics.ScanCandidates.WithLabelValues(triggerEvent, "failed").Inc()
		s.logger.Warn("reminder dispatch failed", map[string]interface{}{
			"appointmentId": appt.ID,
			"triggerEvent":  triggerEvent,
			"error":         err,
		})
		return
	}
	metrics.ScanCandidates.WithLabelValues(triggerEvent, "dispatched").Inc()
}
