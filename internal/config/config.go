// Package config defines runtime configuration for the steady services.
package config

import "time"

// Config holds runtime configuration for the API service.
type Config struct {
	Environment          string `koanf:"environment"`
	Addr                 string `koanf:"addr"`
	DatabaseURL          string `koanf:"database_url"`
	MigrationsDir        string `koanf:"migrations_dir"`
	JWTSecret            string `koanf:"jwt_secret"`
	SecretsKey           string `koanf:"secrets_key"`
	AccessTokenTTLMin    int    `koanf:"access_token_ttl_min"`
	RefreshTokenTTLHours int    `koanf:"refresh_token_ttl_hours"`

	FallbackRedirectURL string `koanf:"fallback_redirect_url"`
	ClickBuffer         int    `koanf:"click_buffer"`

	SettingsFile string `koanf:"settings_file"`

	RateLimitRedisAddr string `koanf:"rate_limit_redis_addr"`
	RateLimitRedisPass string `koanf:"rate_limit_redis_password"`
	RateLimitRedisDB   int    `koanf:"rate_limit_redis_db"`

	AIBaseURL string `koanf:"ai_base_url"`
	AIAPIKey  string `koanf:"ai_api_key"`
	AIModel   string `koanf:"ai_model"`

	PaymentBaseURL       string `koanf:"payment_base_url"`
	PaymentAPIKey        string `koanf:"payment_api_key"`
	PaymentWebhookSecret string `koanf:"payment_webhook_secret"`

	RegistrarBaseURL string `koanf:"registrar_base_url"`
	RegistrarAPIKey  string `koanf:"registrar_api_key"`

	StreamHeartbeatSeconds int `koanf:"stream_heartbeat_seconds"`
	StreamBackfillLimit    int `koanf:"stream_backfill_limit"`
}

// AccessTokenTTL returns the access token lifetime.
func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMin) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime.
func (c Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLHours) * time.Hour
}

// StreamHeartbeat returns the SSE heartbeat interval.
func (c Config) StreamHeartbeat() time.Duration {
	return time.Duration(c.StreamHeartbeatSeconds) * time.Second
}

// Defaults returns the baseline configuration before file and env layering.
func Defaults() Config {
	return Config{
		Environment:            "development",
		Addr:                   ":4000",
		DatabaseURL:            "postgres://steady:steady@db:5432/steady?sslmode=disable",
		MigrationsDir:          "db/migrations",
		JWTSecret:              "supersecuresecret",
		SecretsKey:             "supersecuresecret",
		AccessTokenTTLMin:      15,
		RefreshTokenTTLHours:   24,
		FallbackRedirectURL:    "https://steady.page",
		ClickBuffer:            256,
		SettingsFile:           "settings.yaml",
		AIBaseURL:              "https://api.openai.com/v1",
		AIModel:                "gpt-4o-mini",
		PaymentBaseURL:         "https://api.mercadopago.com",
		RegistrarBaseURL:       "https://api.name.com/v4",
		StreamHeartbeatSeconds: 15,
		StreamBackfillLimit:    50,
	}
}
