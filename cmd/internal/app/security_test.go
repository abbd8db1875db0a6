package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequireTLS(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		url  string
		ok   bool
	}{
		{name: "verify-full", url: "postgres://admin@db.internal/postgres?sslmode=verify-full", ok: true},
		{name: "require", url: "postgres://admin@db.internal/postgres?sslmode=require", ok: true},
		{name: "prefer falls back", url: "postgres://admin@db.internal/postgres?sslmode=prefer", ok: false},
		{name: "disable", url: "postgres://admin@db.internal/postgres?sslmode=disable", ok: false},
		{name: "unix socket", url: "host=/var/run/postgresql user=postgres sslmode=disable", ok: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := requireTLS(tc.url)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInsecureTransport)
		})
	}
}

func TestRequireTLS_DoesNotEchoDSN(t *testing.T) {
	t.Parallel()

	err := requireTLS("postgres://admin:topsecret@db:notaport/postgres")
	require.Error(t, err)
	require.NotContains(t, err.Error(), "topsecret")
}

func TestValidateSecurityConfig(t *testing.T) {
	t.Setenv("SCRAMGEN_ITERATIONS", "")

	require.NoError(t, ValidateSecurityConfig(Config{}))
	require.NoError(t, ValidateSecurityConfig(Config{RequireTLS: true}))
	require.ErrorIs(t, ValidateSecurityConfig(Config{
		RequireTLS:  true,
		DatabaseURL: "postgres://db/postgres?sslmode=disable",
	}), ErrInsecureTransport)

	t.Setenv("SCRAMGEN_ITERATIONS", "12")
	require.Error(t, ValidateSecurityConfig(Config{}))
}
