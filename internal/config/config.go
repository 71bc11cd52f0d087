package config

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	AppBaseURL          string // public origin used in certificate QR codes and email links

	FlutterwaveSecretKey string
	FlutterwaveBaseURL   string
	StripeSecretKey      string
	StripeWebhookSecret  string

	SendinblueAPIKey string // SENDINBLUE_API_KEY for transactional emails (Brevo)
	MailFrom         string

	CertBucket        string
	S3Region          string
	S3Endpoint        string // R2 / MinIO endpoint; empty uses AWS
	S3AccessKeyID     string
	S3SecretAccessKey string
	CertDir           string
	CertWorkers       int

	SchedulerInterval time.Duration
	WelcomeBonus      decimal.Decimal
	ReferralBonus     decimal.Decimal

	LogLevel string
	LogFile  string
}

// IsProduction reports whether secure cookies and JSON logs should be used.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("APP_BASE_URL", "https://stablebricks.com")
	v.SetDefault("FLUTTERWAVE_BASE_URL", "https://api.flutterwave.com")
	v.SetDefault("MAIL_FROM", "noreply@stablebricks.com")
	v.SetDefault("S3_REGION", "auto")
	v.SetDefault("CERT_DIR", "certificates")
	v.SetDefault("CERT_WORKERS", 4)
	v.SetDefault("SCHEDULER_INTERVAL_SECONDS", 300)
	v.SetDefault("WELCOME_BONUS", "5000")
	v.SetDefault("REFERRAL_BONUS", "1000")
	v.SetDefault("LOG_LEVEL", "info")

	env := v.GetString("APP_ENV")
	if env == "" {
		env = v.GetString("NODE_ENV")
	}
	if env == "" {
		env = "development"
	}

	welcome, err := decimal.NewFromString(v.GetString("WELCOME_BONUS"))
	if err != nil {
		return nil, err
	}
	referral, err := decimal.NewFromString(v.GetString("REFERRAL_BONUS"))
	if err != nil {
		return nil, err
	}

	workers := v.GetInt("CERT_WORKERS")
	if workers < 1 {
		workers = 1
	}
	interval := v.GetInt("SCHEDULER_INTERVAL_SECONDS")
	if interval < 1 {
		interval = 300
	}

	return &Config{
		Env:                  env,
		Port:                 v.GetString("PORT"),
		SessionSecret:        v.GetString("SESSION_SECRET"),
		DatabaseURL:          v.GetString("DATABASE_URL"),
		RedisURL:             v.GetString("REDIS_URL"),
		FrontendURLEndsWith:  v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:          v.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:    strings.EqualFold(v.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:       v.GetString("HEALTH_ADMIN_KEY"),
		AppBaseURL:           strings.TrimRight(strings.TrimSpace(v.GetString("APP_BASE_URL")), "/"),
		FlutterwaveSecretKey: v.GetString("FLUTTERWAVE_SECRET_KEY"),
		FlutterwaveBaseURL:   strings.TrimRight(v.GetString("FLUTTERWAVE_BASE_URL"), "/"),
		StripeSecretKey:      v.GetString("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:  v.GetString("STRIPE_WEBHOOK_SECRET"),
		SendinblueAPIKey:     v.GetString("SENDINBLUE_API_KEY"),
		MailFrom:             v.GetString("MAIL_FROM"),
		CertBucket:           v.GetString("CERT_BUCKET"),
		S3Region:             v.GetString("S3_REGION"),
		S3Endpoint:           v.GetString("S3_ENDPOINT"),
		S3AccessKeyID:        v.GetString("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:    v.GetString("S3_SECRET_ACCESS_KEY"),
		CertDir:              v.GetString("CERT_DIR"),
		CertWorkers:          workers,
		SchedulerInterval:    time.Duration(interval) * time.Second,
		WelcomeBonus:         welcome,
		ReferralBonus:        referral,
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFile:              v.GetString("LOG_FILE"),
	}, nil
}
