package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"scramgen/cmd/security/scram"
)

// ErrInsecureTransport is returned when SCRAMGEN_REQUIRE_TLS is set and the
// database URL allows a plaintext connection.
var ErrInsecureTransport = errors.New("database connection may fall back to plaintext")

// ValidateSecurityConfig enforces the startup policy before any command runs.
//
// Derivation parameters from SCRAMGEN_* are checked here so a bad environment fails
// every command, not only the ones that derive.
func ValidateSecurityConfig(cfg Config) error {
	if _, err := scram.FromEnv(); err != nil {
		return fmt.Errorf("security policy: %w", err)
	}

	if !cfg.RequireTLS || cfg.DatabaseURL == "" {
		return nil
	}
	return requireTLS(cfg.DatabaseURL)
}

// requireTLS rejects URLs where libpq fallback (sslmode=prefer/allow/disable) could
// send the verifier in cleartext. Unix sockets are local and always allowed.
func requireTLS(databaseURL string) error {
	cc, err := pgconn.ParseConfig(databaseURL)
	if err != nil {
		// Do not echo the DSN: it may carry credentials.
		return errors.New("security policy: invalid database url")
	}

	if !tlsOrLocal(cc.Host, cc.TLSConfig != nil) {
		return fmt.Errorf("security policy: SCRAMGEN_REQUIRE_TLS=true but %w (host %s)", ErrInsecureTransport, cc.Host)
	}
	for _, fb := range cc.Fallbacks {
		if !tlsOrLocal(fb.Host, fb.TLSConfig != nil) {
			return fmt.Errorf("security policy: SCRAMGEN_REQUIRE_TLS=true but %w (host %s)", ErrInsecureTransport, fb.Host)
		}
	}
	return nil
}

func tlsOrLocal(host string, tls bool) bool {
	return tls || strings.HasPrefix(host, "/")
}
