package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 7, cfg.DueSoonWindowDays)
	assert.Equal(t, 48*time.Hour, cfg.ReminderCooldown)
	assert.Equal(t, "0 2 * * *", cfg.ReminderCron)
	assert.Equal(t, "email", cfg.ReminderChannel)
	assert.Equal(t, 12.5, cfg.DefaultRatePct)
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("DUE_SOON_WINDOW_DAYS", "3")
	t.Setenv("REMINDER_COOLDOWN_HOURS", "24")
	t.Setenv("DEFAULT_ANNUAL_RATE_PCT", "9.75")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.DueSoonWindowDays)
	assert.Equal(t, 24*time.Hour, cfg.ReminderCooldown)
	assert.Equal(t, 9.75, cfg.DefaultRatePct)
}

func TestNewConfig_RejectsBadValues(t *testing.T) {
	t.Setenv("REMINDER_COOLDOWN_HOURS", "soon")
	_, err := NewConfig()
	assert.Error(t, err)
}

func TestNewConfig_RejectsNegativeWindows(t *testing.T) {
	t.Setenv("DUE_SOON_WINDOW_DAYS", "-1")
	_, err := NewConfig()
	assert.Error(t, err)
}
