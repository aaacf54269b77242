// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_PASSWORD
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored if not found
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "salon-notifications"
	}
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = ":8080"
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	// Scanner defaults: 10 minute cycle, which is at most half the narrowest
	// default tolerance (reminder_2h is ±30m).
	if cfg.Scanner.Interval == 0 {
		cfg.Scanner.Interval = 600
	}
	if cfg.Scanner.Workers == 0 {
		cfg.Scanner.Workers = 8
	}
	if cfg.Scanner.AbandonAfter == 0 {
		cfg.Scanner.AbandonAfter = 3600
	}
	if len(cfg.Scanner.Windows) == 0 {
		cfg.Scanner.Windows = []ReminderWindow{
			{TriggerEvent: "reminder_24h", Offset: 24 * 3600, Tolerance: 3600},
			{TriggerEvent: "reminder_2h", Offset: 2 * 3600, Tolerance: 1800},
		}
	}

	if cfg.Dispatch.SendTimeout == 0 {
		cfg.Dispatch.SendTimeout = 15
	}

	if cfg.Search.IndexName == "" {
		cfg.Search.IndexName = "notifications"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	for _, w := range cfg.Scanner.Windows {
		if w.TriggerEvent == "" {
			return fmt.Errorf("scanner.windows: trigger_event is required")
		}
		if w.Offset <= 0 || w.Tolerance <= 0 {
			return fmt.Errorf("scanner.windows[%s]: offset and tolerance must be positive", w.TriggerEvent)
		}
		// The interval must be at most half the narrowest tolerance, otherwise
		// an appointment can pass through its window between cycles unseen.
		if cfg.Scanner.Interval > w.Tolerance/2 {
			return fmt.Errorf("scanner.interval %ds exceeds half the tolerance of %s (%ds)",
				cfg.Scanner.Interval, w.TriggerEvent, w.Tolerance)
		}
	}

	return nil
}
