// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	Channels  ChannelsConfig  `mapstructure:"channels"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Search    SearchConfig    `mapstructure:"search"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// Enabled reports whether audit indexing is configured at all.
func (e ElasticsearchConfig) Enabled() bool {
	return len(e.Addresses) > 0
}

// ScannerConfig controls the reminder eligibility scan loop.
type ScannerConfig struct {
	Interval     int              `mapstructure:"interval"`      // seconds
	Workers      int              `mapstructure:"workers"`       // bounded dispatch pool size
	AbandonAfter int              `mapstructure:"abandon_after"` // seconds before a pending row is swept to failed
	Windows      []ReminderWindow `mapstructure:"windows"`
}

// ReminderWindow declares one reminder trigger: send when the appointment is
// offset±tolerance away from now.
type ReminderWindow struct {
	TriggerEvent string `mapstructure:"trigger_event"`
	Offset       int    `mapstructure:"offset"`    // seconds
	Tolerance    int    `mapstructure:"tolerance"` // seconds
}

// ChannelsConfig holds per-transport provider settings. An adapter runs in
// sandbox mode when its provider credentials are absent.
type ChannelsConfig struct {
	SMS struct {
		AWSRegion string `mapstructure:"aws_region"`
		SenderID  string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	Email struct {
		AWSRegion string `mapstructure:"aws_region"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	WhatsApp struct {
		APIURL string `mapstructure:"api_url"`
		APIKey string `mapstructure:"api_key"`
	} `mapstructure:"whatsapp"`
	ChatBot struct {
		APIURL string `mapstructure:"api_url"`
		Token  string `mapstructure:"token"`
	} `mapstructure:"chatbot"`
}

type DispatchConfig struct {
	SendTimeout int `mapstructure:"send_timeout"` // seconds, per adapter call
}

type SearchConfig struct {
	IndexName string `mapstructure:"index_name"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ScanInterval returns the scan interval as a duration.
func (s ScannerConfig) ScanInterval() time.Duration {
	return time.Duration(s.Interval) * time.Second
}

// AbandonAge returns how old a pending row must be before the sweep fails it.
func (s ScannerConfig) AbandonAge() time.Duration {
	return time.Duration(s.AbandonAfter) * time.Second
}

// Timeout returns the per-send timeout as a duration.
func (d DispatchConfig) Timeout() time.Duration {
	return time.Duration(d.SendTimeout) * time.Second
}
