package scram

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Derivation bounds. The defaults match what PostgreSQL itself generates
// (scram_iterations=4096, 16-byte salt) so existing verifiers stay reproducible.
const (
	DefaultIterations = 4096
	DefaultSaltLength = 16

	MinIterations = 4096
	MaxIterations = 10_000_000
	MinSaltLength = 16
	MaxSaltLength = 64
)

// Params controls SCRAM-SHA-256 derivation cost and salt size.
type Params struct {
	Iterations int
	SaltLength int
}

// Policy controls password validation and anti-DoS boundaries.
type Policy struct {
	MinLength int
	MaxLength int
	// If true, enable an extra, minimal weak-pattern rejection.
	RejectVeryWeak bool
}

// Config is the single configuration surface for this package.
type Config struct {
	Params Params
	Policy Policy
	// Normalize applies SASLprep to the password before derivation.
	Normalize bool
}

// DefaultParams returns the baseline derivation parameters.
func DefaultParams() Params {
	return Params{
		Iterations: DefaultIterations,
		SaltLength: DefaultSaltLength,
	}
}

// DefaultConfig returns the baseline configuration: 4096 iterations, 16-byte salt,
// raw UTF-8 password bytes and a policy that only rejects empty or oversized input.
func DefaultConfig() Config {
	return Config{
		Params: DefaultParams(),
		Policy: Policy{
			MinLength:      1,
			MaxLength:      1024,
			RejectVeryWeak: false,
		},
		Normalize: false,
	}
}

// Validate checks derivation parameters and policy bounds.
// It runs before any cryptographic work.
func (c Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if c.Policy.MinLength < 1 {
		return fmt.Errorf("%w: min_len(%d) < 1", ErrInvalidParams, c.Policy.MinLength)
	}
	if c.Policy.MinLength > c.Policy.MaxLength {
		return fmt.Errorf(
			"%w: min_len(%d) > max_len(%d)",
			ErrInvalidParams,
			c.Policy.MinLength,
			c.Policy.MaxLength,
		)
	}
	return nil
}

// Validate checks that p is within the generation bounds.
func (p Params) Validate() error {
	if p.Iterations < MinIterations || p.Iterations > MaxIterations {
		return fmt.Errorf("%w: iterations %d out of range [%d..%d]",
			ErrInvalidParams, p.Iterations, MinIterations, MaxIterations)
	}
	if p.SaltLength < MinSaltLength || p.SaltLength > MaxSaltLength {
		return fmt.Errorf("%w: salt length %d out of range [%d..%d]",
			ErrInvalidParams, p.SaltLength, MinSaltLength, MaxSaltLength)
	}
	return nil
}

// FromEnv loads config from environment variables.
//
// Env surface:
// - SCRAMGEN_ITERATIONS
// - SCRAMGEN_SALT_LEN
// - SCRAMGEN_NORMALIZE (true/false)
// - SCRAMGEN_PASSWORD_MIN_LEN
// - SCRAMGEN_PASSWORD_MAX_LEN
// - SCRAMGEN_PASSWORD_REJECT_VERY_WEAK (true/false)
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v, ok := lookupEnv("SCRAMGEN_ITERATIONS"); ok {
		n, err := atoiBounded(v, MinIterations, MaxIterations)
		if err != nil {
			return Config{}, fmt.Errorf("SCRAMGEN_ITERATIONS: %w", err)
		}
		cfg.Params.Iterations = n
	}

	if v, ok := lookupEnv("SCRAMGEN_SALT_LEN"); ok {
		n, err := atoiBounded(v, MinSaltLength, MaxSaltLength)
		if err != nil {
			return Config{}, fmt.Errorf("SCRAMGEN_SALT_LEN: %w", err)
		}
		cfg.Params.SaltLength = n
	}

	if v, ok := lookupEnv("SCRAMGEN_NORMALIZE"); ok {
		b, err := parseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("SCRAMGEN_NORMALIZE: %w", err)
		}
		cfg.Normalize = b
	}

	if v, ok := lookupEnv("SCRAMGEN_PASSWORD_MIN_LEN"); ok {
		n, err := atoiBounded(v, 1, 1024)
		if err != nil {
			return Config{}, fmt.Errorf("SCRAMGEN_PASSWORD_MIN_LEN: %w", err)
		}
		cfg.Policy.MinLength = n
	}

	if v, ok := lookupEnv("SCRAMGEN_PASSWORD_MAX_LEN"); ok {
		n, err := atoiBounded(v, 1, 4096)
		if err != nil {
			return Config{}, fmt.Errorf("SCRAMGEN_PASSWORD_MAX_LEN: %w", err)
		}
		cfg.Policy.MaxLength = n
	}

	if v, ok := lookupEnv("SCRAMGEN_PASSWORD_REJECT_VERY_WEAK"); ok {
		b, err := parseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("SCRAMGEN_PASSWORD_REJECT_VERY_WEAK: %w", err)
		}
		cfg.Policy.RejectVeryWeak = b
	}

	// Final sanity.
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// lookupEnv treats a blank variable as unset.
func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func atoiBounded(s string, minVal, maxVal int) (int, error) {
	s = strings.TrimSpace(s)
	i64, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}

	if i64 < int64(minVal) || i64 > int64(maxVal) {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return int(i64), nil
}

func parseBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes", "on", "ON", "On":
		return true, nil
	case "0", "false", "FALSE", "False", "no", "NO", "No", "off", "OFF", "Off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean")
	}
}
