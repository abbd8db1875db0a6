package app

import (
	"time"

	"scramgen/cmd/internal/provision"
)

// Config contains the runtime configuration loaded from environment variables.
// Derivation parameters live in scram.FromEnv; flags override both.
type Config struct {
	LogLevel  string
	LogFormat string
	LogColor  bool

	DatabaseURL      string
	DBMaxConns       int32
	DBConnectTimeout time.Duration
	RequireTLS       bool

	// If set, Prometheus metrics are written here when the command exits
	// (node_exporter textfile collector format).
	MetricsTextfile string

	Workers int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() (Config, error) {
	return loadConfig(nil)
}

func loadConfig(lookup func(string) (string, bool)) (Config, error) {
	env := newEnvReader(lookup)

	cfg := Config{
		LogLevel:  env.String("SCRAMGEN_LOG_LEVEL", "info"),
		LogFormat: env.String("SCRAMGEN_LOG_FORMAT", "pretty"),
		LogColor:  env.Bool("SCRAMGEN_LOG_COLOR", false),

		DatabaseURL:      env.String("SCRAMGEN_DATABASE_URL", ""),
		DBMaxConns:       env.Int32("SCRAMGEN_DB_MAX_CONNS", 4, 1, 64),
		DBConnectTimeout: env.Duration("SCRAMGEN_DB_CONNECT_TIMEOUT", 5*time.Second),
		RequireTLS:       env.Bool("SCRAMGEN_REQUIRE_TLS", false),

		MetricsTextfile: env.String("SCRAMGEN_METRICS_TEXTFILE", ""),

		Workers: env.Int("SCRAMGEN_WORKERS", provision.DefaultWorkers(), 1, 256),
	}

	if err := env.Err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
