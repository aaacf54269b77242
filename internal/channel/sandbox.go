// internal/channel/sandbox.go
package channel

import (
	"context"
	"fmt"
	"hash/fnv"

	"salon-notifications/internal/common/logger"
	"salon-notifications/internal/models"
)

// SandboxAdapter stands in for any channel whose credentials are not
// configured. It logs the message, derives a provider id from the message
// content and reports the channel's nominal cost, so dev and staging exercise
// the full dispatch path without provider accounts. The id is stable for a
// given message, which keeps sandbox runs replayable.
type SandboxAdapter struct {
	channel models.Channel
	logger  logger.Logger
}

func NewSandboxAdapter(ch models.Channel, log logger.Logger) *SandboxAdapter {
	return &SandboxAdapter{
		channel: ch,
		logger:  log.WithFields(map[string]interface{}{"channel": string(ch), "mode": "sandbox"}),
	}
}

func (a *SandboxAdapter) Send(_ context.Context, recipient, subject, body string) (Result, error) {
	a.logger.Info("sandbox send", map[string]interface{}{
		"recipient": recipient,
		"subject":   subject,
		"body":      body,
	})
	return Result{
		ProviderMessageID: sandboxMessageID(a.channel, recipient, body),
		Cost:              nominalCost(a.channel),
	}, nil
}

func sandboxMessageID(ch models.Channel, recipient, body string) string {
	h := fnv.New64a()
	h.Write([]byte(ch))
	h.Write([]byte{0})
	h.Write([]byte(recipient))
	h.Write([]byte{0})
	h.Write([]byte(body))
	return fmt.Sprintf("sandbox-%016x", h.Sum64())
}
