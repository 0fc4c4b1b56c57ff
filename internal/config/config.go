package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

var ErrMissingWebhookSecret = errors.New("BOLD_SECRET_KEY is required when REQUIRE_SIGNATURE is enabled")

type Config struct {
	HTTPPort        string        `envconfig:"PORT" default:"3000"`
	GRPCPort        string        `envconfig:"GRPC_PORT" default:"50051"`
	AppURL          string        `envconfig:"APP_URL" default:"http://localhost:3000"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	RateLimit       float64       `envconfig:"RATE_LIMIT_RPS" default:"20"`
	RateBurst       int           `envconfig:"RATE_LIMIT_BURST" default:"40"`

	// Payment provider. Keys have no defaults and must come from the environment.
	BoldIdentityKey  string `envconfig:"BOLD_IDENTITY_KEY"`
	BoldSecretKey    string `envconfig:"BOLD_SECRET_KEY"`
	BoldPublicKey    string `envconfig:"BOLD_PUBLIC_KEY"`
	BoldAPIURL       string `envconfig:"BOLD_API_URL" default:"https://integrations.api.bold.co/online/link/v1"`
	RequireSignature bool   `envconfig:"REQUIRE_SIGNATURE" default:"true"`

	ORSAPIKey      string        `envconfig:"ORS_API_KEY"`
	ORSBaseURL     string        `envconfig:"ORS_BASE_URL" default:"https://api.openrouteservice.org"`
	LookupTimeout  time.Duration `envconfig:"DISTANCE_LOOKUP_TIMEOUT" default:"5s"`
	QuoteDebounce  time.Duration `envconfig:"QUOTE_DEBOUNCE" default:"800ms"`
	SessionIdleTTL time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`

	SMTPHost   string `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
	SMTPPort   int    `envconfig:"SMTP_PORT" default:"587"`
	EmailUser  string `envconfig:"EMAIL_USER"`
	EmailPass  string `envconfig:"EMAIL_PASS"`
	EmailAlias string `envconfig:"EMAIL_ALIAS"`
	OpsMailbox string `envconfig:"OPS_MAILBOX"`

	// Store coordinates used as the origin of every distance lookup.
	StoreLon float64 `envconfig:"STORE_LON" default:"-75.5859624"`
	StoreLat float64 `envconfig:"STORE_LAT" default:"6.1713705"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	DBHost     string `envconfig:"DB_HOST"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"deiiwo"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"deiiwo"`

	KafkaBrokers string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string `envconfig:"KAFKA_ORDERS_TOPIC" default:"orders-paid"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.RequireSignature && strings.TrimSpace(c.BoldSecretKey) == "" {
		return ErrMissingWebhookSecret
	}
	return nil
}

// Brokers splits KAFKA_BROKERS on commas, dropping blanks.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// OpsAddress is where internal order notifications go. Falls back to the sender alias.
func (c *Config) OpsAddress() string {
	if c.OpsMailbox != "" {
		return c.OpsMailbox
	}
	return c.EmailAlias
}

func (c *Config) MailConfigured() bool {
	return c.EmailUser != "" && c.EmailPass != ""
}
