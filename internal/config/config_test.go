package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("CERT_WORKERS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "https://stablebricks.com", cfg.AppBaseURL)
	assert.Equal(t, "https://api.flutterwave.com", cfg.FlutterwaveBaseURL)
	assert.Equal(t, "noreply@stablebricks.com", cfg.MailFrom)
	assert.Equal(t, "certificates", cfg.CertDir)
	assert.Equal(t, 5*time.Minute, cfg.SchedulerInterval)
	assert.Equal(t, "5000", cfg.WelcomeBonus.String())
	assert.Equal(t, "1000", cfg.ReferralBonus.String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("APP_BASE_URL", "https://staging.stablebricks.com/")
	t.Setenv("CERT_WORKERS", "0")
	t.Setenv("SCHEDULER_INTERVAL_SECONDS", "60")
	t.Setenv("WELCOME_BONUS", "2500.50")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "https://staging.stablebricks.com", cfg.AppBaseURL)
	assert.Equal(t, 1, cfg.CertWorkers)
	assert.Equal(t, time.Minute, cfg.SchedulerInterval)
	assert.Equal(t, "2500.5", cfg.WelcomeBonus.String())
}

func TestLoad_InvalidBonus(t *testing.T) {
	t.Setenv("REFERRAL_BONUS", "lots")
	_, err := Load()
	assert.Error(t, err)
}
