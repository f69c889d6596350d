package password

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

// maxBcryptBytes is the input length bcrypt actually hashes.
const maxBcryptBytes = 72

// Policy controls password validation.
type Policy struct {
	MinLength int
	MaxBytes  int
	// If true, enable an extra, minimal weak-pattern rejection.
	RejectVeryWeak bool
}

// Config is the single configuration surface for this package.
type Config struct {
	Cost   int
	Policy Policy
}

// DefaultConfig returns the baseline used when no env overrides are present.
func DefaultConfig() Config {
	return Config{
		Cost: bcrypt.DefaultCost,
		Policy: Policy{
			MinLength:      6,
			MaxBytes:       maxBcryptBytes,
			RejectVeryWeak: false,
		},
	}
}

type envConfig struct {
	MinLength      *int  `env:"PASSWORD_MIN_LEN"`
	MaxBytes       *int  `env:"PASSWORD_MAX_BYTES"`
	Cost           *int  `env:"PASSWORD_BCRYPT_COST"`
	RejectVeryWeak *bool `env:"PASSWORD_REJECT_VERY_WEAK"`
}

// FromEnv loads config from environment variables.
//
// Env surface:
// - PASSWORD_MIN_LEN
// - PASSWORD_MAX_BYTES (at most 72)
// - PASSWORD_BCRYPT_COST
// - PASSWORD_REJECT_VERY_WEAK (true/false)
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return Config{}, fmt.Errorf("password config: %w", err)
	}

	if ec.MinLength != nil {
		if *ec.MinLength < 1 || *ec.MinLength > maxBcryptBytes {
			return Config{}, fmt.Errorf("PASSWORD_MIN_LEN: out of range [1..%d]", maxBcryptBytes)
		}
		cfg.Policy.MinLength = *ec.MinLength
	}
	if ec.MaxBytes != nil {
		if *ec.MaxBytes < 1 || *ec.MaxBytes > maxBcryptBytes {
			return Config{}, fmt.Errorf("PASSWORD_MAX_BYTES: out of range [1..%d]", maxBcryptBytes)
		}
		cfg.Policy.MaxBytes = *ec.MaxBytes
	}
	if ec.Cost != nil {
		if *ec.Cost < bcrypt.MinCost || *ec.Cost > bcrypt.MaxCost {
			return Config{}, fmt.Errorf("PASSWORD_BCRYPT_COST: out of range [%d..%d]", bcrypt.MinCost, bcrypt.MaxCost)
		}
		cfg.Cost = *ec.Cost
	}
	if ec.RejectVeryWeak != nil {
		cfg.Policy.RejectVeryWeak = *ec.RejectVeryWeak
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxBytes {
		return Config{}, fmt.Errorf(
			"password policy invalid: min_len(%d) > max_bytes(%d)",
			cfg.Policy.MinLength,
			cfg.Policy.MaxBytes,
		)
	}

	return cfg, nil
}
