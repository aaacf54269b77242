// internal/channel/factory.go
package channel

import (
	"context"
	"fmt"
	"time"

	"salon-notifications/internal/common/config"
	commonhttp "salon-notifications/internal/common/http"
	"salon-notifications/internal/common/logger"
	"salon-notifications/internal/models"
)

// BuildAdapters wires one adapter per channel from config. Channels with no
// credentials get the sandbox adapter instead of failing boot, so a partially
// configured deployment still dispatches on the channels it can.
func BuildAdapters(ctx context.Context, cfg *config.Config, log logger.Logger) (map[models.Channel]Adapter, error) {
	httpClient := commonhttp.NewClient(cfg.Dispatch.Timeout() + time.Second)
	adapters := make(map[models.Channel]Adapter, 4)

	if cfg.Channels.SMS.AWSRegion != "" {
		sms, err := NewSMSAdapter(ctx, cfg.Channels.SMS.AWSRegion, cfg.Channels.SMS.SenderID)
		if err != nil {
			return nil, fmt.Errorf("sms adapter: %w", err)
		}
		adapters[models.ChannelSMS] = sms
	} else {
		adapters[models.ChannelSMS] = NewSandboxAdapter(models.ChannelSMS, log)
	}

	if cfg.Channels.Email.AWSRegion != "" && cfg.Channels.Email.FromEmail != "" {
		email, err := NewEmailAdapter(ctx, cfg.Channels.Email.AWSRegion, cfg.Channels.Email.FromEmail)
		if err != nil {
			return nil, fmt.Errorf("email adapter: %w", err)
		}
		adapters[models.ChannelEmail] = email
	} else {
		adapters[models.ChannelEmail] = NewSandboxAdapter(models.ChannelEmail, log)
	}

	if cfg.Channels.WhatsApp.APIURL != "" && cfg.Channels.WhatsApp.APIKey != "" {
		adapters[models.ChannelWhatsApp] = NewWhatsAppAdapter(httpClient,
			cfg.Channels.WhatsApp.APIURL, cfg.Channels.WhatsApp.APIKey)
	} else {
		adapters[models.ChannelWhatsApp] = NewSandboxAdapter(models.ChannelWhatsApp, log)
	}

	if cfg.Channels.ChatBot.APIURL != "" && cfg.Channels.ChatBot.Token != "" {
		adapters[models.ChannelChatBot] = NewChatBotAdapter(httpClient,
			cfg.Channels.ChatBot.APIURL, cfg.Channels.ChatBot.Token)
	} else {
		adapters[models.ChannelChatBot] = NewSandboxAdapter(models.ChannelChatBot, log)
	}

	return adapters, nil
}
