// internal/models/settings.go
package models

import "time"

// ChannelSettings is one row per (salon, channel): the enable flag, an opaque
// credential reference and the quota ledger. Counters are reset lazily on
// first use of a new day/month; a limit of zero means unlimited.
type ChannelSettings struct {
	SalonID       string    `json:"salonId"`
	Channel       Channel   `json:"channel"`
	Enabled       bool      `json:"enabled"`
	CredentialRef string    `json:"credentialRef,omitempty"`
	DailyLimit    int       `json:"dailyLimit"`
	MonthlyLimit  int       `json:"monthlyLimit"`
	DailyCount    int       `json:"dailyCount"`
	MonthlyCount  int       `json:"monthlyCount"`
	CountDate     time.Time `json:"countDate"`
	CountMonth    time.Time `json:"countMonth"`
}
