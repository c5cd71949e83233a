// Package config loads the gateway configuration. All runtime settings come
// from the environment at startup and are passed down explicitly; nothing
// reads ambient globals after construction.
package config

import (
	"fmt"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config is the process-wide gateway configuration, loaded once at startup.
type Config struct {
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	// DatabaseURL selects the postgres store; empty runs on the in-memory
	// store.
	DatabaseURL string `env:"DATABASE_URL"`

	// AdminSecret grants the admin capability. Empty disables every
	// admin-only method with a server-misconfiguration error.
	AdminSecret string `env:"ADMIN_SECRET"`

	JWTSecret   string `env:"JWT_SECRET,required"`
	JWTIssuer   string `env:"JWT_ISSUER,default=promptdeck"`
	JWTAudience string `env:"JWT_AUDIENCE,default=promptdeck-clients"`

	WeChatAppID  string `env:"WECHAT_APP_ID"`
	WeChatSecret string `env:"WECHAT_SECRET"`

	AIPlatform string `env:"AI_PLATFORM,default=gemini"`
	AIAPIKey   string `env:"AI_API_KEY"`
	AIModel    string `env:"AI_MODEL"`

	// SignupPoints is the free balance granted to new users.
	SignupPoints int64 `env:"SIGNUP_POINTS,default=5"`

	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND,default=10"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST,default=20"`
}

// Load reads .env (if present) and decodes the configuration from the
// environment.
func Load() (*Config, error) {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config from environment: %w", err)
	}
	return &cfg, nil
}
