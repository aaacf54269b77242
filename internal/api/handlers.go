// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"salon-notifications/internal/common/errors"
	"salon-notifications/internal/common/logger"
	"salon-notifications/internal/common/validation"
	"salon-notifications/internal/dispatch"
	"salon-notifications/internal/models"
	"salon-notifications/internal/store"

	"github.com/gin-gonic/gin"
)

const salonHeader = "X-Salon-ID"

// dispatchSchema gates the direct send endpoint before any business logic
// runs. Everything else about the request is the orchestrator's problem.
var dispatchSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["channel", "triggerEvent"],
	"properties": {
		"channel":       {"type": "string", "enum": ["sms", "email", "whatsapp", "chatbot"]},
		"triggerEvent":  {"type": "string", "minLength": 1},
		"appointmentId": {"type": "string"},
		"clientId":      {"type": "string"},
		"templateId":    {"type": "string"},
		"recipient":     {"type": "string"},
		"variables":     {"type": "object", "additionalProperties": {"type": "string"}}
	},
	"additionalProperties": false
}`)

type dispatchPayload struct {
	Channel       string            `json:"channel"`
	TriggerEvent  string            `json:"triggerEvent"`
	AppointmentID string            `json:"appointmentId"`
	ClientID      string            `json:"clientId"`
	TemplateID    string            `json:"templateId"`
	Recipient     string            `json:"recipient"`
	Variables     map[string]string `json:"variables"`
}

type settingsPayload struct {
	Enabled       bool   `json:"enabled"`
	CredentialRef string `json:"credentialRef"`
	DailyLimit    int    `json:"dailyLimit"`
	MonthlyLimit  int    `json:"monthlyLimit"`
}

type webhookPayload struct {
	ProviderMessageID string `json:"providerMessageId" binding:"required"`
	Status            string `json:"status" binding:"required"`
}

type dispatcher interface {
	Dispatch(ctx context.Context, req *dispatch.Request) (*models.Notification, error)
}

type settingsStore interface {
	Get(ctx context.Context, salonID string, ch models.Channel) (models.ChannelSettings, error)
	Upsert(ctx context.Context, s models.ChannelSettings) error
}

type webhookStore interface {
	UpdateByProviderID(ctx context.Context, providerMessageID string, status models.Status) error
}

// HealthChecker is a readiness probe against one backing store. main wires
// the Postgres and Redis pings in here.
type HealthChecker func(ctx context.Context) error

// Handler carries the API's dependencies. Health probes ping the backing
// stores; everything else delegates to the dispatch layer.
type Handler struct {
	dispatcher dispatcher
	settings   settingsStore
	webhooks   webhookStore
	health     []HealthChecker
	logger     logger.Logger
}

func NewHandler(d dispatcher, settings settingsStore, webhooks webhookStore, health []HealthChecker, log logger.Logger) *Handler {
	return &Handler{
		dispatcher: d,
		settings:   settings,
		webhooks:   webhooks,
		health:     health,
		logger:     log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// CreateNotification is the direct send endpoint, used for confirmations,
// test sends and anything else that is not scanner-driven.
func (h *Handler) CreateNotification(c *gin.Context) {
	salonID := c.GetHeader(salonHeader)
	if salonID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": salonHeader + " header is required"})
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	if res := dispatchSchema.ValidateBytes(raw); !res.Valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Error()})
		return
	}

	var payload dispatchPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notif, err := h.dispatcher.Dispatch(c.Request.Context(), &dispatch.Request{
		SalonID:       salonID,
		Channel:       models.Channel(payload.Channel),
		TriggerEvent:  payload.TriggerEvent,
		AppointmentID: payload.AppointmentID,
		ClientID:      payload.ClientID,
		TemplateID:    payload.TemplateID,
		Recipient:     payload.Recipient,
		Variables:     payload.Variables,
	})
	if err != nil {
		status := statusFor(err)
		if notif != nil {
			// The refusal is on record; hand the row back with the error.
			c.JSON(status, gin.H{"error": reasonFor(err), "notification": notif})
			return
		}
		c.JSON(status, gin.H{"error": reasonFor(err)})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"notification": notif})
}

// UpsertChannelSettings enables, disables or re-limits one channel for the
// calling salon. Counters survive the update.
func (h *Handler) UpsertChannelSettings(c *gin.Context) {
	salonID := c.GetHeader(salonHeader)
	if salonID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": salonHeader + " header is required"})
		return
	}

	ch := models.Channel(c.Param("channel"))
	if !ch.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown channel: " + c.Param("channel")})
		return
	}

	var payload settingsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if payload.DailyLimit < 0 || payload.MonthlyLimit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limits must be non-negative"})
		return
	}

	err := h.settings.Upsert(c.Request.Context(), models.ChannelSettings{
		SalonID:       salonID,
		Channel:       ch,
		Enabled:       payload.Enabled,
		CredentialRef: payload.CredentialRef,
		DailyLimit:    payload.DailyLimit,
		MonthlyLimit:  payload.MonthlyLimit,
	})
	if err != nil {
		h.logger.Error("settings upsert failed", map[string]interface{}{
			"salonId": salonID,
			"channel": string(ch),
			"error":   err,
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "settings update failed"})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetChannelSettings returns the channel configuration with its live
// counters, for the salon dashboard's quota view.
func (h *Handler) GetChannelSettings(c *gin.Context) {
	salonID := c.GetHeader(salonHeader)
	if salonID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": salonHeader + " header is required"})
		return
	}

	ch := models.Channel(c.Param("channel"))
	if !ch.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown channel: " + c.Param("channel")})
		return
	}

	settings, err := h.settings.Get(c.Request.Context(), salonID, ch)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrCodeChannelDisabled {
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not configured"})
			return
		}
		h.logger.Error("settings read failed", map[string]interface{}{
			"salonId": salonID,
			"channel": string(ch),
			"error":   err,
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "settings read failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// DeliveryWebhook receives provider delivery reports and client read
// receipts. Unknown provider ids get 404 so the provider retries later.
func (h *Handler) DeliveryWebhook(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := models.Status(payload.Status)
	if status != models.StatusDelivered && status != models.StatusRead {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be delivered or read"})
		return
	}

	err := h.webhooks.UpdateByProviderID(c.Request.Context(), payload.ProviderMessageID, status)
	if stderrors.Is(err, store.ErrUnknownProviderID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider message id"})
		return
	}
	if err != nil {
		h.logger.Error("webhook update failed", map[string]interface{}{
			"providerMessageId": payload.ProviderMessageID,
			"error":             err,
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Health pings every backing store with a short deadline.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	for _, check := range h.health {
		if err := check(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func statusFor(err error) int {
	if stderrors.Is(err, store.ErrDuplicateDispatch) {
		return http.StatusConflict
	}
	switch errors.CodeOf(err) {
	case errors.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case errors.ErrCodeChannelDisabled, errors.ErrCodeAppointmentCancelled:
		return http.StatusConflict
	case errors.ErrCodeQuotaExceeded:
		return http.StatusTooManyRequests
	case errors.ErrCodeTemplateNotFound, errors.ErrCodeRecipientUnknown:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func reasonFor(err error) string {
	var de *errors.DispatchError
	if stderrors.As(err, &de) {
		return de.Reason()
	}
	return err.Error()
}
