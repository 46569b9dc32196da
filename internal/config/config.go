package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/welldanyogia/webrana-gigbook-backend/internal/validator"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server ports
	APIPort  int
	SMTPPort int

	// SMTPDomains lists the inbound domains the SMTP receiver accepts mail for
	SMTPDomains []string

	// Logging
	LogLevel string

	// Security
	APIKey         string
	AllowedOrigins string
	AppEnv         string

	// Rate Limiting
	RateLimitRequests float64
	RateLimitBurst    int

	// Quota state. Empty RedisURL keeps counters in process memory.
	RedisURL             string
	ExtractionDailyQuota int

	// Extraction service
	ExtractionURL          string
	ExtractionTokenURL     string
	ExtractionClientID     string
	ExtractionClientSecret string
	ExtractionTimeout      time.Duration

	// Place lookup
	PlacesURL     string
	PlacesAPIKey  string
	PlacesTimeout time.Duration

	// Pipeline
	PipelineTimeout    time.Duration
	DedupLookback      time.Duration
	AdminTenantSlug    string
	TenantsFile        string
	MarketplaceDomains []string

	// Mailgun
	MailgunAPIKey            string
	MailgunDomain            string
	MailgunWebhookSigningKey string
	MailgunEU                bool
	ReviewNotifyFrom         string

	// Scheduler
	PlaceholderReviewAfter time.Duration
	SweepSchedule          string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	// Required: DATABASE_URL
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	var err error
	if cfg.APIPort, err = getEnvInt("API_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = getEnvInt("SMTP_PORT", 2525); err != nil {
		return nil, err
	}
	cfg.SMTPDomains = getEnvList("SMTP_DOMAINS", nil)

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	// Security configuration
	cfg.APIKey = os.Getenv("API_KEY")
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	cfg.AppEnv = getEnv("APP_ENV", "development")

	// Rate limiting configuration
	cfg.RateLimitRequests = 10.0
	if rps := os.Getenv("RATE_LIMIT_REQUESTS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			cfg.RateLimitRequests = v
		}
	}
	cfg.RateLimitBurst = 20
	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if v, err := strconv.Atoi(burst); err == nil {
			cfg.RateLimitBurst = v
		}
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.ExtractionDailyQuota, err = getEnvInt("EXTRACTION_DAILY_QUOTA", 200); err != nil {
		return nil, err
	}

	cfg.ExtractionURL = os.Getenv("EXTRACTION_URL")
	cfg.ExtractionTokenURL = os.Getenv("EXTRACTION_TOKEN_URL")
	cfg.ExtractionClientID = os.Getenv("EXTRACTION_CLIENT_ID")
	cfg.ExtractionClientSecret = os.Getenv("EXTRACTION_CLIENT_SECRET")
	if cfg.ExtractionTimeout, err = getEnvDuration("EXTRACTION_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}

	cfg.PlacesURL = os.Getenv("PLACES_URL")
	cfg.PlacesAPIKey = os.Getenv("PLACES_API_KEY")
	if cfg.PlacesTimeout, err = getEnvDuration("PLACES_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	if cfg.PipelineTimeout, err = getEnvDuration("PIPELINE_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.DedupLookback, err = getEnvDuration("DEDUP_LOOKBACK", 24*time.Hour); err != nil {
		return nil, err
	}
	cfg.AdminTenantSlug = strings.ToLower(getEnv("ADMIN_TENANT_SLUG", "admin"))
	cfg.TenantsFile = os.Getenv("TENANTS_FILE")
	cfg.MarketplaceDomains = getEnvList("MARKETPLACE_DOMAINS", nil)

	cfg.MailgunAPIKey = os.Getenv("MAILGUN_API_KEY")
	cfg.MailgunDomain = os.Getenv("MAILGUN_DOMAIN")
	cfg.MailgunWebhookSigningKey = os.Getenv("MAILGUN_WEBHOOK_SIGNING_KEY")
	if cfg.MailgunEU, err = getEnvBool("MAILGUN_EU", false); err != nil {
		return nil, err
	}
	cfg.ReviewNotifyFrom = os.Getenv("REVIEW_NOTIFY_FROM")

	if cfg.PlaceholderReviewAfter, err = getEnvDuration("PLACEHOLDER_REVIEW_AFTER", 14*24*time.Hour); err != nil {
		return nil, err
	}
	cfg.SweepSchedule = getEnv("SWEEP_SCHEDULE", "@every 1h")

	return cfg, nil
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Production-specific validation
	if cfg.IsProduction() {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("SMTPPort must be between 1 and 65535")
	}
	if c.AdminTenantSlug == "" {
		return fmt.Errorf("ADMIN_TENANT_SLUG cannot be empty")
	}
	if c.ExtractionDailyQuota < 0 {
		return fmt.Errorf("EXTRACTION_DAILY_QUOTA cannot be negative")
	}
	if c.PipelineTimeout <= 0 {
		return fmt.Errorf("PIPELINE_TIMEOUT must be positive")
	}
	// The extraction call runs inside the pipeline deadline and must leave
	// room for the fallback and the store write.
	if c.ExtractionTimeout <= 0 || c.ExtractionTimeout >= c.PipelineTimeout {
		return fmt.Errorf("EXTRACTION_TIMEOUT must be positive and shorter than PIPELINE_TIMEOUT")
	}
	if c.DedupLookback <= 0 {
		return fmt.Errorf("DEDUP_LOOKBACK must be positive")
	}
	if (c.ExtractionClientID == "") != (c.ExtractionClientSecret == "") {
		return fmt.Errorf("EXTRACTION_CLIENT_ID and EXTRACTION_CLIENT_SECRET must be set together")
	}
	if c.ExtractionClientID != "" && c.ExtractionTokenURL == "" {
		return fmt.Errorf("EXTRACTION_TOKEN_URL is required when client credentials are set")
	}
	for _, d := range c.SMTPDomains {
		if err := validator.ValidateDomain(d); err != nil {
			return fmt.Errorf("SMTP_DOMAINS entry %q: %w", d, err)
		}
	}
	for _, d := range c.MarketplaceDomains {
		if err := validator.ValidateDomain(d); err != nil {
			return fmt.Errorf("MARKETPLACE_DOMAINS entry %q: %w", d, err)
		}
	}
	return nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required in production")
	}

	if c.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}

	// Check for wildcard in production
	if strings.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	// Check for sslmode=disable in database URL
	if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	if c.MailgunWebhookSigningKey == "" {
		return fmt.Errorf("MAILGUN_WEBHOOK_SIGNING_KEY is required in production")
	}

	return nil
}

// Origins splits AllowedOrigins on commas, dropping blanks.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.Int("smtp_port", c.SMTPPort),
		slog.Any("smtp_domains", c.SMTPDomains),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
		slog.Bool("api_key_set", c.APIKey != ""),
		slog.Bool("allowed_origins_set", c.AllowedOrigins != ""),
		slog.Float64("rate_limit_rps", c.RateLimitRequests),
		slog.Int("rate_limit_burst", c.RateLimitBurst),
		slog.Bool("redis_quota", c.RedisURL != ""),
		slog.Int("extraction_daily_quota", c.ExtractionDailyQuota),
		slog.Bool("extraction_configured", c.ExtractionURL != ""),
		slog.Bool("extraction_oauth", c.ExtractionClientID != ""),
		slog.Duration("extraction_timeout", c.ExtractionTimeout),
		slog.Bool("places_configured", c.PlacesURL != ""),
		slog.Duration("pipeline_timeout", c.PipelineTimeout),
		slog.Duration("dedup_lookback", c.DedupLookback),
		slog.String("admin_tenant", c.AdminTenantSlug),
		slog.Bool("mailgun_notify", c.MailgunAPIKey != "" && c.MailgunDomain != ""),
		slog.Bool("webhook_signing_key_set", c.MailgunWebhookSigningKey != ""),
		slog.Duration("placeholder_review_after", c.PlaceholderReviewAfter),
		slog.String("sweep_schedule", c.SweepSchedule),
	)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a valid boolean: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	return v, nil
}

func getEnvList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
