package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"scramgen/cmd/internal/provision"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig(mapLookup(nil))
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "pretty", cfg.LogFormat)
	require.False(t, cfg.LogColor)
	require.Empty(t, cfg.DatabaseURL)
	require.Equal(t, int32(4), cfg.DBMaxConns)
	require.Equal(t, 5*time.Second, cfg.DBConnectTimeout)
	require.False(t, cfg.RequireTLS)
	require.Equal(t, provision.DefaultWorkers(), cfg.Workers)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig(mapLookup(map[string]string{
		"SCRAMGEN_LOG_LEVEL":          "debug",
		"SCRAMGEN_LOG_FORMAT":         "json",
		"SCRAMGEN_DATABASE_URL":       "postgres://localhost/postgres",
		"SCRAMGEN_DB_MAX_CONNS":       "2",
		"SCRAMGEN_DB_CONNECT_TIMEOUT": "750ms",
		"SCRAMGEN_REQUIRE_TLS":        "true",
		"SCRAMGEN_METRICS_TEXTFILE":   "/tmp/scramgen.prom",
		"SCRAMGEN_WORKERS":            " 3 ",
	}))
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, "postgres://localhost/postgres", cfg.DatabaseURL)
	require.Equal(t, int32(2), cfg.DBMaxConns)
	require.Equal(t, 750*time.Millisecond, cfg.DBConnectTimeout)
	require.True(t, cfg.RequireTLS)
	require.Equal(t, "/tmp/scramgen.prom", cfg.MetricsTextfile)
	require.Equal(t, 3, cfg.Workers)
}

func TestLoadConfig_ReportsEveryMalformedValue(t *testing.T) {
	t.Parallel()

	_, err := loadConfig(mapLookup(map[string]string{
		"SCRAMGEN_LOG_COLOR":          "maybe",
		"SCRAMGEN_DB_MAX_CONNS":       "0",
		"SCRAMGEN_DB_CONNECT_TIMEOUT": "-1s",
		"SCRAMGEN_WORKERS":            "lots",
	}))
	require.Error(t, err)

	msg := err.Error()
	require.Contains(t, msg, `SCRAMGEN_LOG_COLOR="maybe": invalid boolean`)
	require.Contains(t, msg, `SCRAMGEN_DB_MAX_CONNS="0": out of range [1..64]`)
	require.Contains(t, msg, `SCRAMGEN_DB_CONNECT_TIMEOUT="-1s": invalid positive duration`)
	require.Contains(t, msg, `SCRAMGEN_WORKERS="lots": not an integer`)
}

func TestLoadConfig_BlankMeansDefault(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig(mapLookup(map[string]string{
		"SCRAMGEN_LOG_LEVEL": "   ",
		"SCRAMGEN_WORKERS":   "",
	}))
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, provision.DefaultWorkers(), cfg.Workers)
}
