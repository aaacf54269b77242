// internal/channel/chatbot.go
package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"salon-notifications/internal/common/errors"
	commonhttp "salon-notifications/internal/common/http"
	"salon-notifications/internal/models"
)

// ChatBotAdapter delivers through the Telegram bot API. Recipient is the
// chat id the client registered with the salon's bot.
type ChatBotAdapter struct {
	client *commonhttp.Client
	apiURL string
	token  string
}

func NewChatBotAdapter(client *commonhttp.Client, apiURL, token string) *ChatBotAdapter {
	return &ChatBotAdapter{client: client, apiURL: apiURL, token: token}
}

type chatBotResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func (a *ChatBotAdapter) Send(ctx context.Context, recipient, _ string, body string) (Result, error) {
	buf, err := json.Marshal(map[string]string{
		"chat_id": recipient,
		"text":    body,
	})
	if err != nil {
		return Result{}, errors.NewAdapterFailureError(string(models.ChannelChatBot), err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", a.apiURL, a.token)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return Result{}, errors.NewAdapterFailureError(string(models.ChannelChatBot), err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.DoWithContext(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, errors.NewTimeoutError(string(models.ChannelChatBot))
		}
		return Result{}, errors.NewAdapterFailureError(string(models.ChannelChatBot), err)
	}
	defer resp.Body.Close()

	var out chatBotResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, errors.NewAdapterFailureError(string(models.ChannelChatBot), err)
	}
	if !out.OK {
		return Result{}, errors.NewAdapterFailureError(string(models.ChannelChatBot),
			fmt.Errorf("bot API returned ok=false, status %d", resp.StatusCode))
	}
	return Result{
		ProviderMessageID: strconv.FormatInt(out.Result.MessageID, 10),
		Cost:              costChatBot,
	}, nil
}
