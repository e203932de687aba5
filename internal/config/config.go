package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ListenAddr      string        `envconfig:"GIFTGATE_LISTEN_ADDR" default:":3000"`
	ShutdownTimeout time.Duration `envconfig:"GIFTGATE_SHUTDOWN_TIMEOUT" default:"5s"`
	StaticDir       string        `envconfig:"GIFTGATE_STATIC_DIR"` // mini-app assets served at /, empty = disabled

	LogLevel  string `envconfig:"GIFTGATE_LOG_LEVEL" default:"info"`  // "debug" | "info" | "warn" | "error"
	PrettyLog bool   `envconfig:"GIFTGATE_PRETTY_LOG" default:"true"` // true => zap dev (color), false => zap prod (JSON)

	// Gift pages
	FetchTimeout time.Duration `envconfig:"GIFTGATE_FETCH_TIMEOUT" default:"10s"`
	UserAgent    string        `envconfig:"GIFTGATE_USER_AGENT" default:"giftgate/1.0"`
	ProfileFile  string        `envconfig:"GIFTGATE_PROFILE_FILE"`                           // optional YAML parser profile
	GiftHosts    List          `envconfig:"GIFTGATE_GIFT_HOSTS" default:"t.me,fragment.com"` // allowed gift page hosts, subdomains included

	// Telegram identity lookup (names kept from the original deployment)
	BotToken        string        `envconfig:"BOT_TOKEN" required:"true"`
	APIID           int           `envconfig:"API_ID" required:"true"`
	APIHash         string        `envconfig:"API_HASH" required:"true"`
	SessionFile     string        `envconfig:"SESSION_FILE"` // empty => in-memory session
	// connect + bot login must finish within this, or startup fails
	IdentityTimeout time.Duration `envconfig:"GIFTGATE_IDENTITY_TIMEOUT" default:"30s"`

	// Redis metadata mirror (optional, empty address = disabled)
	RedisAddr           string        `envconfig:"GIFTGATE_REDIS_ADDR"`
	RedisUser           string        `envconfig:"GIFTGATE_REDIS_USERNAME"`
	RedisPassword       string        `envconfig:"GIFTGATE_REDIS_PASSWORD"`
	RedisDB             int           `envconfig:"GIFTGATE_REDIS_DB" default:"0"`
	RedisDT             time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	RedisRT             time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	RedisWT             time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
	RedisPoolSize       int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	RedisConnectTimeout time.Duration `envconfig:"REDIS_CONNECT_TIMEOUT" default:"30s"`
	RedisRetryInterval  time.Duration `envconfig:"REDIS_RETRY_INTERVAL" default:"2s"` // grows exponentially
	RedisMaxWait        time.Duration `envconfig:"REDIS_MAX_WAIT" default:"10s"`
	RedisPingTimeout    time.Duration `envconfig:"REDIS_PING_TIMEOUT" default:"5s"`

	// Access restrictions
	CORSOrigins  List `envconfig:"GIFTGATE_CORS_ORIGINS" default:"*"`
	AllowedCIDRS List `envconfig:"GIFTGATE_ALLOWED_CIDRS"`               // restricts /readyz and /metrics, empty = open
	TrustProxy   bool `envconfig:"GIFTGATE_TRUST_PROXY" default:"false"` // true => trust X-Forwarded-For headers
}

// List is a comma separated env value with blanks and surrounding quotes removed.
type List []string

func (l *List) Decode(value string) error {
	*l = splitAndTrim(value)
	return nil
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := cfg
		cfgCopy.BotToken = "***REDACTED***"
		cfgCopy.APIHash = "***REDACTED***"
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return &cfg, nil
}

// MustLoad is Load for main: any configuration error is fatal.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}
	return cfg
}

// RedisEnabled reports whether the Redis mirror is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func (c *Config) validate() error {
	var errs []error
	// envconfig accepts a required key that is set but empty.
	if c.BotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN is required"))
	}
	if c.APIHash == "" {
		errs = append(errs, errors.New("API_HASH is required"))
	}
	if c.APIID <= 0 {
		errs = append(errs, fmt.Errorf("API_ID must be > 0, got %d", c.APIID))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("GIFTGATE_FETCH_TIMEOUT must be > 0, got %v", c.FetchTimeout))
	}
	if c.IdentityTimeout <= 0 {
		errs = append(errs, fmt.Errorf("GIFTGATE_IDENTITY_TIMEOUT must be > 0, got %v", c.IdentityTimeout))
	}
	if c.RedisEnabled() {
		if c.RedisConnectTimeout <= 0 || c.RedisRetryInterval <= 0 || c.RedisMaxWait <= 0 || c.RedisPingTimeout <= 0 {
			errs = append(errs, errors.New("redis connect/retry/wait/ping timeouts must be > 0"))
		}
	}
	return errors.Join(errs...)
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
