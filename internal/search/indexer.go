// internal/search/indexer.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"salon-notifications/internal/common/database"
	"salon-notifications/internal/common/logger"
	"salon-notifications/internal/models"
)

// Indexer mirrors terminal notifications into Elasticsearch for the audit
// and reporting views. Indexing is strictly best-effort: Postgres is the
// source of truth, and a dead cluster must never block a dispatch.
type Indexer struct {
	es        *database.ElasticsearchClient
	indexName string
	logger    logger.Logger
}

func NewIndexer(es *database.ElasticsearchClient, indexName string, log logger.Logger) *Indexer {
	return &Indexer{
		es:        es,
		indexName: indexName,
		logger:    log.WithFields(map[string]interface{}{"component": "search"}),
	}
}

// document flattens the row for search: nullable columns become plain fields.
type document struct {
	ID                string  `json:"id"`
	SalonID           string  `json:"salonId"`
	Channel           string  `json:"channel"`
	TriggerEvent      string  `json:"triggerEvent"`
	AppointmentID     string  `json:"appointmentId,omitempty"`
	ClientID          string  `json:"clientId,omitempty"`
	Recipient         string  `json:"recipient"`
	Subject           string  `json:"subject,omitempty"`
	Body              string  `json:"body"`
	Status            string  `json:"status"`
	ProviderMessageID string  `json:"providerMessageId,omitempty"`
	Cost              float64 `json:"cost"`
	ErrorMessage      string  `json:"errorMessage,omitempty"`
	CreatedAt         string  `json:"createdAt"`
	SentAt            string  `json:"sentAt,omitempty"`
}

// Index writes one notification document, keyed by notification id so
// re-indexing after a status change overwrites rather than duplicates.
func (i *Indexer) Index(ctx context.Context, notif *models.Notification) {
	if i == nil || i.es == nil {
		return
	}

	doc := document{
		ID:                notif.ID,
		SalonID:           notif.SalonID,
		Channel:           string(notif.Channel),
		TriggerEvent:      notif.TriggerEvent,
		AppointmentID:     notif.AppointmentID.String,
		ClientID:          notif.ClientID.String,
		Recipient:         notif.Recipient,
		Subject:           notif.Subject,
		Body:              notif.Body,
		Status:            string(notif.Status),
		ProviderMessageID: notif.ProviderMessageID,
		Cost:              notif.Cost,
		ErrorMessage:      notif.ErrorMessage,
		CreatedAt:         notif.CreatedAt.UTC().Format(time.RFC3339),
	}
	if notif.SentAt.Valid {
		doc.SentAt = notif.SentAt.Time.UTC().Format(time.RFC3339)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		i.logger.Error("failed to marshal audit document", map[string]interface{}{
			"notificationId": notif.ID,
			"error":          err,
		})
		return
	}

	indexCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := i.es.Client.Index(
		i.indexName,
		bytes.NewReader(payload),
		i.es.Client.Index.WithDocumentID(notif.ID),
		i.es.Client.Index.WithContext(indexCtx),
	)
	if err != nil {
		i.logger.Warn("audit index write failed", map[string]interface{}{
			"notificationId": notif.ID,
			"error":          err,
		})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		i.logger.Warn("audit index write rejected", map[string]interface{}{
			"notificationId": notif.ID,
			"status":         res.Status(),
		})
	}
}
