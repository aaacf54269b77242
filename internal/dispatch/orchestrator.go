// internal/dispatch/orchestrator.go
package dispatch

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"salon-notifications/internal/channel"
	"salon-notifications/internal/common/errors"
	"salon-notifications/internal/common/logger"
	"salon-notifications/internal/common/metrics"
	"salon-notifications/internal/models"

	"github.com/google/uuid"
)

// Request is one dispatch order, from the scanner or the direct API.
// Recipient may be empty when ClientID or AppointmentID can resolve it.
type Request struct {
	SalonID       string
	Channel       models.Channel
	TriggerEvent  string
	AppointmentID string
	ClientID      string
	TemplateID    string
	Recipient     string
	Variables     map[string]string

	// CheckFreshness re-reads the appointment status right before sending.
	// The scanner sets it; direct API sends trust the caller.
	CheckFreshness bool
}

// Consumer-side slices of the stores, so tests swap in fakes without sqlmock.

type templateResolver interface {
	Resolve(ctx context.Context, salonID string, ch models.Channel, triggerEvent, explicitTemplateID string) (models.MessageTemplate, error)
}

type quotaLedger interface {
	CheckAndReserve(ctx context.Context, salonID string, ch models.Channel) error
}

type recordStore interface {
	InsertPending(ctx context.Context, notif *models.Notification) error
	InsertFailed(ctx context.Context, notif *models.Notification, reason string) error
	MarkSent(ctx context.Context, id, providerMessageID string, cost float64) error
	MarkFailed(ctx context.Context, id, reason string) error
}

type bookingCatalog interface {
	AppointmentContext(ctx context.Context, appointmentID string) (models.AppointmentContext, error)
	ClientContact(ctx context.Context, clientID string, ch models.Channel) (string, error)
}

// auditIndexer receives terminal notifications for the search index.
// Indexing is best-effort; errors are logged, never surfaced.
type auditIndexer interface {
	Index(ctx context.Context, notif *models.Notification)
}

// Renderer turns template text plus merge variables into final output.
type renderFunc func(text string, vars map[string]string) string

// Orchestrator runs the full dispatch pipeline: validate, resolve context and
// template, render, reserve quota, record, send, finalize. Every refusal and
// provider failure lands on a failed Notification row; the only errors
// returned without a row are malformed requests and duplicates.
type Orchestrator struct {
	templates   templateResolver
	quota       quotaLedger
	records     recordStore
	catalog     bookingCatalog
	adapters    map[models.Channel]channel.Adapter
	indexer     auditIndexer
	render      renderFunc
	sendTimeout time.Duration
	logger      logger.Logger
}

func NewOrchestrator(
	templates templateResolver,
	quota quotaLedger,
	records recordStore,
	catalog bookingCatalog,
	adapters map[models.Channel]channel.Adapter,
	indexer auditIndexer,
	render renderFunc,
	sendTimeout time.Duration,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		templates:   templates,
		quota:       quota,
		records:     records,
		catalog:     catalog,
		adapters:    adapters,
		indexer:     indexer,
		render:      render,
		sendTimeout: sendTimeout,
		logger:      log.WithFields(map[string]interface{}{"component": "dispatch"}),
	}
}

// Dispatch executes one request end to end and returns the resulting
// notification row. A non-nil notification with status failed means the
// refusal was recorded; err then carries the taxonomy code for the caller.
func (o *Orchestrator) Dispatch(ctx context.Context, req *Request) (*models.Notification, error) {
	start := time.Now()

	if err := o.validate(req); err != nil {
		metrics.DispatchRefused.WithLabelValues(string(req.Channel), string(errors.ErrCodeInvalidRequest)).Inc()
		return nil, err
	}

	notif := o.newNotification(req)

	vars := map[string]string{}
	if req.AppointmentID != "" {
		apptCtx, err := o.catalog.AppointmentContext(ctx, req.AppointmentID)
		if err != nil {
			return o.refuse(ctx, notif, err)
		}
		if req.CheckFreshness && apptCtx.Appointment.Status == models.AppointmentCancelled {
			return o.refuse(ctx, notif, errors.NewAppointmentCancelledError(req.AppointmentID))
		}
		for k, v := range apptCtx.Variables {
			vars[k] = v
		}
		if notif.Recipient == "" {
			notif.Recipient = apptCtx.Contacts[req.Channel]
		}
		if req.ClientID == "" {
			notif.ClientID = nullString(apptCtx.Appointment.ClientID)
		}
	}
	for k, v := range req.Variables {
		vars[k] = v
	}

	if notif.Recipient == "" && req.ClientID != "" {
		addr, err := o.catalog.ClientContact(ctx, req.ClientID, req.Channel)
		if err != nil {
			return o.refuse(ctx, notif, err)
		}
		notif.Recipient = addr
	}
	if notif.Recipient == "" {
		return o.refuse(ctx, notif, errors.NewRecipientUnknownError(string(req.Channel)))
	}

	tmpl, err := o.templates.Resolve(ctx, req.SalonID, req.Channel, req.TriggerEvent, req.TemplateID)
	if err != nil {
		return o.refuse(ctx, notif, err)
	}
	if tmpl.ID != "" {
		notif.TemplateID = nullString(tmpl.ID)
	}

	notif.Subject = o.render(tmpl.Subject, vars)
	notif.Body = o.render(tmpl.Body, vars)

	// Quota is consumed here and deliberately not refunded on provider
	// failure: a flapping provider must not let a salon burst past its limit.
	if err := o.quota.CheckAndReserve(ctx, req.SalonID, req.Channel); err != nil {
		return o.refuse(ctx, notif, err)
	}

	// ErrDuplicateDispatch surfaces here when a concurrent cycle won the race
	// on the partial unique index.
	if err := o.records.InsertPending(ctx, notif); err != nil {
		return nil, err
	}

	sendCtx, cancel := context.WithTimeout(ctx, o.sendTimeout)
	defer cancel()

	result, sendErr := o.adapters[req.Channel].Send(sendCtx, notif.Recipient, notif.Subject, notif.Body)
	if sendErr != nil {
		reason := reasonOf(sendErr)
		if markErr := o.records.MarkFailed(ctx, notif.ID, reason); markErr != nil {
			o.logger.Error("failed to record send failure", map[string]interface{}{
				"notificationId": notif.ID,
				"error":          markErr,
			})
		}
		notif.Status = models.StatusFailed
		notif.ErrorMessage = reason
		o.finalize(ctx, notif, start)
		return notif, sendErr
	}

	if err := o.records.MarkSent(ctx, notif.ID, result.ProviderMessageID, result.Cost); err != nil {
		// The provider accepted the message; the row stays pending for the
		// abandoned sweep rather than being double-sent.
		o.logger.Error("failed to record successful send", map[string]interface{}{
			"notificationId": notif.ID,
			"error":          err,
		})
		return notif, err
	}
	notif.Status = models.StatusSent
	notif.ProviderMessageID = result.ProviderMessageID
	notif.Cost = result.Cost
	notif.SentAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	o.finalize(ctx, notif, start)
	o.logger.Info("notification dispatched", map[string]interface{}{
		"notificationId": notif.ID,
		"salonId":        notif.SalonID,
		"channel":        string(notif.Channel),
		"triggerEvent":   notif.TriggerEvent,
		"providerMsgId":  notif.ProviderMessageID,
	})
	return notif, nil
}

func (o *Orchestrator) validate(req *Request) error {
	if req.SalonID == "" {
		return errors.NewInvalidRequestError("salonId is required")
	}
	if !req.Channel.Valid() {
		return errors.NewInvalidRequestError("unknown channel: " + string(req.Channel))
	}
	if req.TriggerEvent == "" {
		return errors.NewInvalidRequestError("triggerEvent is required")
	}
	if req.Recipient == "" && req.ClientID == "" && req.AppointmentID == "" {
		return errors.NewInvalidRequestError("one of recipient, clientId or appointmentId is required")
	}
	if _, ok := o.adapters[req.Channel]; !ok {
		return errors.NewInvalidRequestError("no adapter for channel: " + string(req.Channel))
	}
	return nil
}

func (o *Orchestrator) newNotification(req *Request) *models.Notification {
	return &models.Notification{
		ID:            uuid.New().String(),
		SalonID:       req.SalonID,
		Channel:       req.Channel,
		TriggerEvent:  req.TriggerEvent,
		AppointmentID: nullString(req.AppointmentID),
		ClientID:      nullString(req.ClientID),
		TemplateID:    nullString(req.TemplateID),
		Recipient:     req.Recipient,
	}
}

// refuse records a pre-send failure as a failed row and hands the original
// error back for the caller's response.
func (o *Orchestrator) refuse(ctx context.Context, notif *models.Notification, cause error) (*models.Notification, error) {
	reason := reasonOf(cause)
	metrics.DispatchRefused.WithLabelValues(string(notif.Channel), string(errors.CodeOf(cause))).Inc()

	if err := o.records.InsertFailed(ctx, notif, reason); err != nil {
		o.logger.Error("failed to record dispatch refusal", map[string]interface{}{
			"salonId": notif.SalonID,
			"channel": string(notif.Channel),
			"reason":  reason,
			"error":   err,
		})
		return nil, cause
	}
	o.indexer.Index(ctx, notif)
	metrics.NotificationsDispatched.WithLabelValues(
		string(notif.Channel), notif.TriggerEvent, string(models.StatusFailed)).Inc()
	return notif, cause
}

func (o *Orchestrator) finalize(ctx context.Context, notif *models.Notification, start time.Time) {
	metrics.NotificationsDispatched.WithLabelValues(
		string(notif.Channel), notif.TriggerEvent, string(notif.Status)).Inc()
	metrics.DispatchDuration.WithLabelValues(string(notif.Channel)).Observe(time.Since(start).Seconds())
	o.indexer.Index(ctx, notif)
}

func reasonOf(err error) string {
	var de *errors.DispatchError
	if stderrors.As(err, &de) {
		return de.Reason()
	}
	return err.Error()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
