// internal/channel/whatsapp.go
package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"salon-notifications/internal/common/errors"
	commonhttp "salon-notifications/internal/common/http"
	"salon-notifications/internal/models"
)

// WhatsAppAdapter delivers through the WhatsApp Business API gateway. The
// gateway accepts a text message and returns the message id it assigned.
type WhatsAppAdapter struct {
	client *commonhttp.Client
	apiURL string
	apiKey string
}

func NewWhatsAppAdapter(client *commonhttp.Client, apiURL, apiKey string) *WhatsAppAdapter {
	return &WhatsAppAdapter{client: client, apiURL: apiURL, apiKey: apiKey}
}

type whatsAppRequest struct {
	To   string `json:"to"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

type whatsAppResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func (a *WhatsAppAdapter) Send(ctx context.Context, recipient, _ string, body string) (Result, error) {
	payload := whatsAppRequest{To: recipient, Type: "text"}
	payload.Text.Body = body

	buf, err := json.Marshal(payload)
	if err != nil {
		return Result{}, errors.NewAdapterFailureError(string(models.ChannelWhatsApp), err)
	}

	req, err := http.NewRequest(http.MethodPost, a.apiURL+"/messages", bytes.NewReader(buf))
	if err != nil {
		return Result{}, errors.NewAdapterFailureError(string(models.ChannelWhatsApp), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.DoWithContext(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, errors.NewTimeoutError(string(models.ChannelWhatsApp))
		}
		return Result{}, errors.NewAdapterFailureError(string(models.ChannelWhatsApp), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, errors.NewAdapterFailureError(string(models.ChannelWhatsApp),
			fmt.Errorf("gateway returned status %d", resp.StatusCode))
	}

	var out whatsAppResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, errors.NewAdapterFailureError(string(models.ChannelWhatsApp), err)
	}
	if len(out.Messages) == 0 {
		return Result{}, errors.NewAdapterFailureError(string(models.ChannelWhatsApp),
			fmt.Errorf("gateway response carried no message id"))
	}
	return Result{
		ProviderMessageID: out.Messages[0].ID,
		Cost:              costWhatsApp,
	}, nil
}
