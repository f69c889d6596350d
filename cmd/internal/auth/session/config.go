package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// PlaceholderSecret is the development default for SESSION_SECRET.
const PlaceholderSecret = "your-super-secret-key"

// Config defines runtime configuration for the session subsystem.
type Config struct {
	// TTL is the lifetime of a session from issuance.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"1h"`

	// KeyPrefix namespaces session keys in Redis.
	KeyPrefix string `env:"SESSION_KEY_PREFIX" envDefault:"session:"`

	// Secret keys log fingerprints of tokens.
	Secret string `env:"SESSION_SECRET" envDefault:"your-super-secret-key"`
}

// DefaultConfig returns the development configuration.
func DefaultConfig() Config {
	return Config{
		TTL:       time.Hour,
		KeyPrefix: "session:",
		Secret:    PlaceholderSecret,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional:
//   - SESSION_TTL (Go duration, > 0)
//   - SESSION_KEY_PREFIX
//   - SESSION_SECRET
//
// Returns an error wrapping ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks invariants that env tags cannot express.
func (c Config) Validate() error {
	if c.TTL <= 0 {
		return fmt.Errorf("%w: SESSION_TTL must be > 0", ErrConfig)
	}
	if strings.TrimSpace(c.KeyPrefix) == "" {
		return fmt.Errorf("%w: SESSION_KEY_PREFIX must not be empty", ErrConfig)
	}
	if strings.TrimSpace(c.Secret) == "" {
		return fmt.Errorf("%w: SESSION_SECRET must not be empty", ErrConfig)
	}
	return nil
}
