// internal/channel/adapter.go
package channel

import (
	"context"

	"salon-notifications/internal/models"
)

// Result is what a provider hands back for a successful send. The provider
// message id keys later delivery webhooks; cost is the provider's nominal
// per-message price used for the salon's spend report.
type Result struct {
	ProviderMessageID string
	Cost              float64
}

// Adapter sends one rendered message over one transport. Implementations must
// honor ctx cancellation; the orchestrator wraps every Send in a deadline.
type Adapter interface {
	Send(ctx context.Context, recipient, subject, body string) (Result, error)
}

// Nominal per-message costs, recorded on the notification row. Real billing
// reconciles from provider invoices; these only feed the in-app spend view.
const (
	costSMS      = 0.05
	costEmail    = 0.001
	costWhatsApp = 0.03
	costChatBot  = 0.0
)

func nominalCost(ch models.Channel) float64 {
	switch ch {
	case models.ChannelSMS:
		return costSMS
	case models.ChannelEmail:
		return costEmail
	case models.ChannelWhatsApp:
		return costWhatsApp
	default:
		return costChatBot
	}
}
