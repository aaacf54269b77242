// internal/api/handlers_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"salon-notifications/internal/common/config"
	commonerrors "salon-notifications/internal/common/errors"
	"salon-notifications/internal/common/logger"
	"salon-notifications/internal/dispatch"
	"salon-notifications/internal/models"
	"salon-notifications/internal/store"

	"github.com/stretchr/testify/assert"
)

type fakeDispatcher struct {
	gotReq *dispatch.Request
	notif  *models.Notification
	err    error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, req *dispatch.Request) (*models.Notification, error) {
	f.gotReq = req
	return f.notif, f.err
}

type fakeSettings struct {
	got    models.ChannelSettings
	stored models.ChannelSettings
	err    error
	getErr error
}

func (f *fakeSettings) Get(_ context.Context, _ string, _ models.Channel) (models.ChannelSettings, error) {
	return f.stored, f.getErr
}

func (f *fakeSettings) Upsert(_ context.Context, s models.ChannelSettings) error {
	f.got = s
	return f.err
}

type fakeWebhooks struct {
	gotID     string
	gotStatus models.Status
	err       error
}

func (f *fakeWebhooks) UpdateByProviderID(_ context.Context, providerMessageID string, status models.Status) error {
	f.gotID = providerMessageID
	f.gotStatus = status
	return f.err
}

func testServer(d *fakeDispatcher, s *fakeSettings, w *fakeWebhooks, health []HealthChecker) *Server {
	h := NewHandler(d, s, w, health, logger.NewNoOpLogger())
	return NewServer(config.HTTPConfig{Address: ":0"}, h, logger.NewNoOpLogger())
}

func doJSON(t *testing.T, srv *Server, method, path string, headers map[string]string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	return rec
}

func salonHeaders() map[string]string {
	return map[string]string{salonHeader: "salon-1"}
}

func TestCreateNotification(t *testing.T) {
	d := &fakeDispatcher{notif: &models.Notification{ID: "ntf-1", Status: models.StatusSent}}
	srv := testServer(d, &fakeSettings{}, &fakeWebhooks{}, nil)

	rec := doJSON(t, srv, http.MethodPost, "/v1/notifications", salonHeaders(), map[string]interface{}{
		"channel":      "sms",
		"triggerEvent": "test_send",
		"recipient":    "+79001234567",
		"variables":    map[string]string{"client_name": "Ivan"},
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "salon-1", d.gotReq.SalonID)
	assert.Equal(t, models.ChannelSMS, d.gotReq.Channel)
	assert.False(t, d.gotReq.CheckFreshness)
}

func TestCreateNotification_MissingSalonHeader(t *testing.T) {
	srv := testServer(&fakeDispatcher{}, &fakeSettings{}, &fakeWebhooks{}, nil)

	rec := doJSON(t, srv, http.MethodPost, "/v1/notifications", nil, map[string]interface{}{
		"channel":      "sms",
		"triggerEvent": "test_send",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateNotification_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing channel", map[string]interface{}{"triggerEvent": "test_send"}},
		{"bad channel", map[string]interface{}{"channel": "fax", "triggerEvent": "test_send"}},
		{"empty trigger", map[string]interface{}{"channel": "sms", "triggerEvent": ""}},
		{"unknown field", map[string]interface{}{"channel": "sms", "triggerEvent": "x", "bogus": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDispatcher{}
			srv := testServer(d, &fakeSettings{}, &fakeWebhooks{}, nil)

			rec := doJSON(t, srv, http.MethodPost, "/v1/notifications", salonHeaders(), tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, d.gotReq)
		})
	}
}

func TestCreateNotification_QuotaRefusal(t *testing.T) {
	d := &fakeDispatcher{
		notif: &models.Notification{ID: "ntf-1", Status: models.StatusFailed},
		err:   commonerrors.NewQuotaExceededError("sms"),
	}
	srv := testServer(d, &fakeSettings{}, &fakeWebhooks{}, nil)

	rec := doJSON(t, srv, http.MethodPost, "/v1/notifications", salonHeaders(), map[string]interface{}{
		"channel":      "sms",
		"triggerEvent": "test_send",
		"recipient":    "+79001234567",
	})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "QUOTA_EXCEEDED")
	// The failed row is returned alongside the error.
	assert.Contains(t, rec.Body.String(), "ntf-1")
}

func TestCreateNotification_DuplicateConflict(t *testing.T) {
	d := &fakeDispatcher{err: store.ErrDuplicateDispatch}
	srv := testServer(d, &fakeSettings{}, &fakeWebhooks{}, nil)

	rec := doJSON(t, srv, http.MethodPost, "/v1/notifications", salonHeaders(), map[string]interface{}{
		"channel":       "sms",
		"triggerEvent":  "reminder_24h",
		"appointmentId": "appt-1",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpsertChannelSettings(t *testing.T) {
	s := &fakeSettings{}
	srv := testServer(&fakeDispatcher{}, s, &fakeWebhooks{}, nil)

	rec := doJSON(t, srv, http.MethodPut, "/v1/settings/channels/sms", salonHeaders(), map[string]interface{}{
		"enabled":      true,
		"dailyLimit":   100,
		"monthlyLimit": 2000,
	})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "salon-1", s.got.SalonID)
	assert.Equal(t, models.ChannelSMS, s.got.Channel)
	assert.Equal(t, 100, s.got.DailyLimit)
}

func TestUpsertChannelSettings_UnknownChannel(t *testing.T) {
	srv := testServer(&fakeDispatcher{}, &fakeSettings{}, &fakeWebhooks{}, nil)

	rec := doJSON(t, srv, http.MethodPut, "/v1/settings/channels/fax", salonHeaders(), map[string]interface{}{
		"enabled": true,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpsertChannelSettings_NegativeLimit(t *testing.T) {
	srv := testServer(&fakeDispatcher{}, &fakeSettings{}, &fakeWebhooks{}, nil)

	rec := doJSON(t, srv, http.MethodPut, "/v1/settings/channels/sms", salonHeaders(), map[string]interface{}{
		"enabled":    true,
		"dailyLimit": -5,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetChannelSettings(t *testing.T) {
	s := &fakeSettings{stored: models.ChannelSettings{
		SalonID:    "salon-1",
		Channel:    models.ChannelSMS,
		Enabled:    true,
		DailyLimit: 100,
		DailyCount: 42,
	}}
	srv := testServer(&fakeDispatcher{}, s, &fakeWebhooks{}, nil)

	rec := doJSON(t, srv, http.MethodGet, "/v1/settings/channels/sms", salonHeaders(), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"dailyCount":42`)
}

func TestGetChannelSettings_NotConfigured(t *testing.T) {
	s := &fakeSettings{getErr: commonerrors.NewChannelDisabledError("whatsapp")}
	srv := testServer(&fakeDispatcher{}, s, &fakeWebhooks{}, nil)

	rec := doJSON(t, srv, http.MethodGet, "/v1/settings/channels/whatsapp", salonHeaders(), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeliveryWebhook(t *testing.T) {
	w := &fakeWebhooks{}
	srv := testServer(&fakeDispatcher{}, &fakeSettings{}, w, nil)

	rec := doJSON(t, srv, http.MethodPost, "/v1/webhooks/delivery", nil, map[string]interface{}{
		"providerMessageId": "sns-msg-7",
		"status":            "delivered",
	})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "sns-msg-7", w.gotID)
	assert.Equal(t, models.StatusDelivered, w.gotStatus)
}

func TestDeliveryWebhook_RejectsOtherStatuses(t *testing.T) {
	srv := testServer(&fakeDispatcher{}, &fakeSettings{}, &fakeWebhooks{}, nil)

	rec := doJSON(t, srv, http.MethodPost, "/v1/webhooks/delivery", nil, map[string]interface{}{
		"providerMessageId": "sns-msg-7",
		"status":            "failed",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeliveryWebhook_UnknownID(t *testing.T) {
	w := &fakeWebhooks{err: store.ErrUnknownProviderID}
	srv := testServer(&fakeDispatcher{}, &fakeSettings{}, w, nil)

	rec := doJSON(t, srv, http.MethodPost, "/v1/webhooks/delivery", nil, map[string]interface{}{
		"providerMessageId": "never-seen",
		"status":            "read",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	srv := testServer(&fakeDispatcher{}, &fakeSettings{}, &fakeWebhooks{}, []HealthChecker{
		func(context.Context) error { return nil },
	})

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth_Unhealthy(t *testing.T) {
	srv := testServer(&fakeDispatcher{}, &fakeSettings{}, &fakeWebhooks{}, []HealthChecker{
		func(context.Context) error { return assert.AnError },
	})

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil, nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
