package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBConn   string
	LogLevel string

	// Engine windows
	DueSoonWindowDays int
	ReminderCooldown  time.Duration

	// Reminder scheduler
	ReminderCron    string
	ReminderChannel string

	// Base-rate feed
	RateFeedURL    string
	BaseRateMargin float64
	DefaultRatePct float64

	// SMTP channel
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBConn:          getEnv("DB_CONN", ""),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		ReminderCron:    getEnv("REMINDER_CRON", "0 2 * * *"),
		ReminderChannel: getEnv("REMINDER_CHANNEL", "email"),
		RateFeedURL:     getEnv("RATE_FEED_URL", "https://rates.shikshapay.in/base-rate.xml"),
		SMTPHost:        getEnv("SMTP_HOST", "localhost"),
		SMTPPort:        getEnv("SMTP_PORT", "587"),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SenderEmail:     getEnv("SENDER_EMAIL", "noreply@shikshapay.in"),
	}

	dueSoon, err := getEnvInt("DUE_SOON_WINDOW_DAYS", 7)
	if err != nil {
		return nil, err
	}
	if dueSoon < 0 {
		return nil, fmt.Errorf("DUE_SOON_WINDOW_DAYS must not be negative")
	}
	cfg.DueSoonWindowDays = dueSoon

	cooldownHours, err := getEnvInt("REMINDER_COOLDOWN_HOURS", 48)
	if err != nil {
		return nil, err
	}
	if cooldownHours < 0 {
		return nil, fmt.Errorf("REMINDER_COOLDOWN_HOURS must not be negative")
	}
	cfg.ReminderCooldown = time.Duration(cooldownHours) * time.Hour

	margin, err := getEnvFloat("BASE_RATE_MARGIN_PCT", 5.0)
	if err != nil {
		return nil, err
	}
	cfg.BaseRateMargin = margin

	defaultRate, err := getEnvFloat("DEFAULT_ANNUAL_RATE_PCT", 12.5)
	if err != nil {
		return nil, err
	}
	if defaultRate < 0 {
		return nil, fmt.Errorf("DEFAULT_ANNUAL_RATE_PCT must not be negative")
	}
	cfg.DefaultRatePct = defaultRate

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}
