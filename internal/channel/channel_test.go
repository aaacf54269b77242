// internal/channel/channel_test.go
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	commonerrors "salon-notifications/internal/common/errors"
	commonhttp "salon-notifications/internal/common/http"
	"salon-notifications/internal/common/logger"
	"salon-notifications/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

// ==========================
// Email
// ==========================

func TestEmailAdapter_Send(t *testing.T) {
	var captured *ses.SendEmailInput
	adapter := &EmailAdapter{
		client: &MockSESService{
			SendEmailFunc: func(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
				captured = params
				return &ses.SendEmailOutput{MessageId: aws.String("ses-msg-1")}, nil
			},
		},
		fromEmail: "noreply@groomroom.example",
	}

	result, err := adapter.Send(context.Background(), "ivan@example.com", "Reminder", "See you at 14:30")

	assert.NoError(t, err)
	assert.Equal(t, "ses-msg-1", result.ProviderMessageID)
	assert.Equal(t, costEmail, result.Cost)
	assert.Equal(t, []string{"ivan@example.com"}, captured.Destination.ToAddresses)
	assert.Equal(t, "noreply@groomroom.example", aws.ToString(captured.Source))
	assert.Equal(t, "Reminder", aws.ToString(captured.Message.Subject.Data))
}

func TestEmailAdapter_SendFailure(t *testing.T) {
	adapter := &EmailAdapter{
		client: &MockSESService{
			SendEmailFunc: func(_ context.Context, _ *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
				return nil, errors.New("throttled")
			},
		},
		fromEmail: "noreply@groomroom.example",
	}

	_, err := adapter.Send(context.Background(), "ivan@example.com", "Reminder", "body")

	assert.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeAdapterFailure, commonerrors.CodeOf(err))
}

func TestEmailAdapter_SendTimeout(t *testing.T) {
	adapter := &EmailAdapter{
		client: &MockSESService{
			SendEmailFunc: func(ctx context.Context, _ *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		},
		fromEmail: "noreply@groomroom.example",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := adapter.Send(ctx, "ivan@example.com", "Reminder", "body")

	assert.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeTimeout, commonerrors.CodeOf(err))
}

// ==========================
// SMS
// ==========================

func TestSMSAdapter_Send(t *testing.T) {
	var captured *sns.PublishInput
	adapter := &SMSAdapter{
		client: &MockSNSService{
			PublishFunc: func(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
				captured = params
				return &sns.PublishOutput{MessageId: aws.String("sns-msg-1")}, nil
			},
		},
		senderID: "GroomRoom",
	}

	result, err := adapter.Send(context.Background(), "+79001234567", "", "Напоминание: 14:30")

	assert.NoError(t, err)
	assert.Equal(t, "sns-msg-1", result.ProviderMessageID)
	assert.Equal(t, costSMS, result.Cost)
	assert.Equal(t, "+79001234567", aws.ToString(captured.PhoneNumber))
	assert.Equal(t, "Напоминание: 14:30", aws.ToString(captured.Message))
	assert.Contains(t, captured.MessageAttributes, "AWS.SNS.SMS.SenderID")
}

func TestSMSAdapter_SendFailure(t *testing.T) {
	adapter := &SMSAdapter{
		client: &MockSNSService{
			PublishFunc: func(_ context.Context, _ *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
				return nil, errors.New("invalid phone number")
			},
		},
	}

	_, err := adapter.Send(context.Background(), "not-a-phone", "", "body")

	assert.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeAdapterFailure, commonerrors.CodeOf(err))
}

// ==========================
// WhatsApp
// ==========================

func TestWhatsAppAdapter_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "Bearer wa-key", r.Header.Get("Authorization"))

		var req whatsAppRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "+79001234567", req.To)
		assert.Equal(t, "See you soon", req.Text.Body)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"messages": []map[string]string{{"id": "wamid.abc"}},
		})
	}))
	defer srv.Close()

	adapter := NewWhatsAppAdapter(commonhttp.NewClient(time.Second), srv.URL, "wa-key")
	result, err := adapter.Send(context.Background(), "+79001234567", "", "See you soon")

	assert.NoError(t, err)
	assert.Equal(t, "wamid.abc", result.ProviderMessageID)
	assert.Equal(t, costWhatsApp, result.Cost)
}

func TestWhatsAppAdapter_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	adapter := NewWhatsAppAdapter(commonhttp.NewClient(time.Second), srv.URL, "wa-key")
	_, err := adapter.Send(context.Background(), "+79001234567", "", "body")

	assert.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeAdapterFailure, commonerrors.CodeOf(err))
}

// ==========================
// ChatBot
// ==========================

func TestChatBotAdapter_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottg-token/sendMessage", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":     true,
			"result": map[string]int64{"message_id": 4211},
		})
	}))
	defer srv.Close()

	adapter := NewChatBotAdapter(commonhttp.NewClient(time.Second), srv.URL, "tg-token")
	result, err := adapter.Send(context.Background(), "123456789", "", "Ваша запись подтверждена")

	assert.NoError(t, err)
	assert.Equal(t, "4211", result.ProviderMessageID)
	assert.Equal(t, costChatBot, result.Cost)
}

func TestChatBotAdapter_NotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]bool{"ok": false})
	}))
	defer srv.Close()

	adapter := NewChatBotAdapter(commonhttp.NewClient(time.Second), srv.URL, "tg-token")
	_, err := adapter.Send(context.Background(), "123456789", "", "body")

	assert.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeAdapterFailure, commonerrors.CodeOf(err))
}

// ==========================
// Sandbox
// ==========================

func TestSandboxAdapter_Send(t *testing.T) {
	adapter := NewSandboxAdapter(models.ChannelSMS, logger.NewNoOpLogger())

	result, err := adapter.Send(context.Background(), "+79001234567", "", "body")

	assert.NoError(t, err)
	assert.Contains(t, result.ProviderMessageID, "sandbox-")
	assert.Equal(t, costSMS, result.Cost)
}

func TestSandboxAdapter_DeterministicMessageID(t *testing.T) {
	adapter := NewSandboxAdapter(models.ChannelSMS, logger.NewNoOpLogger())

	first, err := adapter.Send(context.Background(), "+79001234567", "", "body")
	assert.NoError(t, err)
	replay, err := adapter.Send(context.Background(), "+79001234567", "", "body")
	assert.NoError(t, err)
	other, err := adapter.Send(context.Background(), "+79001234567", "", "different body")
	assert.NoError(t, err)

	assert.Equal(t, first.ProviderMessageID, replay.ProviderMessageID)
	assert.NotEqual(t, first.ProviderMessageID, other.ProviderMessageID)
}

func TestNominalCostCoversAllChannels(t *testing.T) {
	assert.Equal(t, costSMS, nominalCost(models.ChannelSMS))
	assert.Equal(t, costEmail, nominalCost(models.ChannelEmail))
	assert.Equal(t, costWhatsApp, nominalCost(models.ChannelWhatsApp))
	assert.Equal(t, costChatBot, nominalCost(models.ChannelChatBot))
}
