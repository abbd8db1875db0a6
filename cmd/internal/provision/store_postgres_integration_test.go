package provision

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"

	"scramgen/cmd/security/scram"
)

// Integration tests are opt-in and require SCRAMGEN_DATABASE_URL pointing at a superuser
// (or CREATEROLE) connection. In non-CI runs, unreachable Postgres skips these tests.

func TestPostgresRoleStore_LoginWithDerivedVerifier(t *testing.T) {
	t.Parallel()

	pool := mustOpenTestPool(t)
	defer pool.Close()

	role := "scramgen_it_" + strings.ToLower(ulid.Make().String())
	t.Cleanup(func() { mustExec(t, pool, "DROP ROLE IF EXISTS "+pgx.Identifier{role}.Sanitize()) })

	d, err := scram.NewDeriver(scram.DefaultConfig())
	require.NoError(t, err)

	p, err := New(d, WithStore(mustStore(t, pool)))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	res, err := p.Derive(ctx, []Role{{Name: role, Password: "correct horse battery staple", Create: true}})
	require.NoError(t, err)

	n, err := p.Apply(ctx, res)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	var stored string
	err = pool.QueryRow(ctx, "SELECT rolpassword FROM pg_authid WHERE rolname = $1", role).Scan(&stored)
	require.NoError(t, err)
	require.Equal(t, res[0].Verifier, stored)

	// The server must accept the cleartext through a real SCRAM exchange.
	cfg, err := pgx.ParseConfig(os.Getenv("SCRAMGEN_DATABASE_URL"))
	require.NoError(t, err)
	cfg.User = role
	cfg.Password = "correct horse battery staple"

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil && strings.Contains(err.Error(), "pg_hba.conf") {
		t.Skipf("integration login skipped: server does not allow password login for test roles: %v", err)
	}
	require.NoError(t, err)
	defer func() { _ = conn.Close(context.Background()) }()

	var who string
	require.NoError(t, conn.QueryRow(ctx, "SELECT current_user").Scan(&who))
	require.Equal(t, role, who)
}

func TestPostgresRoleStore_SetPassword_UnknownRole(t *testing.T) {
	t.Parallel()

	pool := mustOpenTestPool(t)
	defer pool.Close()

	s := mustStore(t, pool)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.SetPassword(ctx, "scramgen_missing_"+strings.ToLower(ulid.Make().String()), knownVerifier)
	require.True(t, IsRoleNotFound(err), "got %v", err)
}

func mustStore(t *testing.T, pool *pgxpool.Pool) *PostgresRoleStore {
	t.Helper()
	s, err := NewPostgresRoleStore(pool)
	require.NoError(t, err)
	return s
}

func mustOpenTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv("SCRAMGEN_DATABASE_URL"))
	if raw == "" {
		t.Skip("integration test skipped: SCRAMGEN_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse SCRAMGEN_DATABASE_URL: %v", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}

	// Validate acquire quickly (fast fail).
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer pingCancel()

	c, err := pool.Acquire(pingCtx)
	if err != nil {
		pool.Close()
		if shouldSkipIntegration(err) {
			t.Skipf("integration test skipped: Postgres unreachable (SCRAMGEN_DATABASE_URL set): %v", err)
		}
		t.Fatalf("acquire: %v", err)
	}
	c.Release()

	return pool
}

func shouldSkipIntegration(err error) bool {
	if err == nil {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "no such host") {
		return true
	}
	return false
}

func mustExec(t *testing.T, pool *pgxpool.Pool, sql string, args ...any) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := pool.Exec(ctx, sql, args...); err != nil {
		t.Fatalf("exec: %v", err)
	}
}
