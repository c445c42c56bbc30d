package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

var hmacAlgorithms = map[string]bool{
	"HS256": true,
	"HS384": true,
	"HS512": true,
}

// Config captures application runtime configuration loaded from environment variables.
// It is built once at startup and passed explicitly to the components that need it.
type Config struct {
	AppName        string        `env:"APP_NAME" envDefault:"Quillpost"`
	Env            string        `env:"APP_ENV" envDefault:"development"`
	Port           string        `env:"PORT" envDefault:"8080"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"json"`
	DatabaseURL    string        `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns     int32         `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	RedisURL       string        `env:"REDIS_URL,required,notEmpty"`
	AutoMigrate    bool          `env:"AUTO_MIGRATE" envDefault:"true"`
	ShutdownPeriod time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	LoginRateLimit int           `env:"LOGIN_RATE_LIMIT_PER_MINUTE" envDefault:"5"`
	CORSOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	Token          TokenConfig
	Password       PasswordConfig
	SMTP           SMTPConfig
	NotifyTimeout  time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"15s"`
}

// TokenConfig holds the signing material and lifetimes for issued tokens.
type TokenConfig struct {
	SecretKey       string        `env:"SECRET_KEY,required,notEmpty"`
	Algorithm       string        `env:"ALGORITHM,required,notEmpty"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`
}

// PasswordConfig tunes the password hasher.
type PasswordConfig struct {
	BcryptCost     int `env:"BCRYPT_COST" envDefault:"12"`
	MaxConcurrency int `env:"HASH_CONCURRENCY" envDefault:"4"`
}

// SMTPConfig describes the outbound mail relay. An empty Host disables email delivery.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	return load(env.Options{})
}

func load(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Token.Algorithm = strings.ToUpper(strings.TrimSpace(cfg.Token.Algorithm))

	if !hmacAlgorithms[cfg.Token.Algorithm] {
		return Config{}, fmt.Errorf("unsupported ALGORITHM %q: want one of HS256, HS384, HS512", cfg.Token.Algorithm)
	}
	if cfg.Token.AccessTokenTTL <= 0 {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if cfg.Token.RefreshTokenTTL <= 0 {
		return Config{}, fmt.Errorf("REFRESH_TOKEN_TTL must be positive")
	}
	if cfg.SMTP.Host != "" && cfg.SMTP.From == "" {
		return Config{}, fmt.Errorf("SMTP_FROM must be set when SMTP_HOST is configured")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the application runs in a local development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
