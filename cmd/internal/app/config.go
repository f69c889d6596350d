package app

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"libris/cmd/internal/auth/session"
	"libris/cmd/security/password"
)

// Environments recognized by APP_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	Port     int    `env:"PORT" envDefault:"3000"`
	HTTPHost string `env:"HTTP_HOST" envDefault:"0.0.0.0"`

	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	MaxHeaderBytes    int           `env:"HTTP_MAX_HEADER_BYTES" envDefault:"1048576"`
	MaxBodyBytes      int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`

	CORSAllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	CORSAllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`
	CORSMaxAgeSeconds    int      `env:"CORS_MAX_AGE_SECONDS" envDefault:"600"`

	DatabaseURL    string `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns     int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns     int32  `env:"DB_MIN_CONNS" envDefault:"0"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"false"`

	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`

	Session session.Config

	// Password is loaded by password.FromEnv, which owns its own range checks.
	Password password.Config
}

// LoadConfig reads an optional .env file, then the process environment.
// Variables already set in the environment win over .env entries.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	cfg.Password, err = password.FromEnv()
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks invariants that env tags cannot express.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT out of range: %d", c.Port)
	}
	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("config: unknown APP_ENV %q", c.Env)
	}
	if c.DBMinConns < 0 || c.DBMaxConns < 0 || (c.DBMaxConns > 0 && c.DBMinConns > c.DBMaxConns) {
		return fmt.Errorf("config: invalid pool bounds min=%d max=%d", c.DBMinConns, c.DBMaxConns)
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	return ValidateSecurityConfig(c)
}

// Addr is the listen address built from HTTP_HOST and PORT.
func (c Config) Addr() string {
	return net.JoinHostPort(strings.TrimSpace(c.HTTPHost), strconv.Itoa(c.Port))
}

// Production reports whether APP_ENV is production.
func (c Config) Production() bool { return c.Env == EnvProduction }
