// Package main provides a CI-friendly PostgreSQL smoke test for scramgen verifiers.
//
// It validates:
//   - CREATE ROLE ... PASSWORD '<verifier>' is accepted and stored verbatim
//   - the role can log in through a real SCRAM-SHA-256 exchange
//   - rotating to a new verifier invalidates the old password
//   - a wrong password is rejected
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"

	"scramgen/cmd/security/scram"
)

func main() {
	var (
		dbURL      = flag.String("url", os.Getenv("SCRAMGEN_DATABASE_URL"), "Admin connection string (CREATEROLE or superuser)")
		iterations = flag.Int("iterations", scram.DefaultIterations, "PBKDF2 iteration count")
		timeout    = flag.Duration("timeout", 10*time.Second, "Per-step timeout")
		keep       = flag.Bool("keep", false, "Keep the smoke role instead of dropping it")
		verbose    = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if strings.TrimSpace(*dbURL) == "" {
		fatalf("missing -url (or SCRAMGEN_DATABASE_URL)")
	}

	cfg := scram.DefaultConfig()
	cfg.Params.Iterations = *iterations
	d, err := scram.NewDeriver(cfg)
	if err != nil {
		fatalf("deriver: %v", err)
	}

	root := context.Background()

	admin := mustConnect(root, *dbURL, "", "", *timeout)
	defer func() { _ = admin.Close(context.Background()) }()

	role := "scramgen_smoke_" + strings.ToLower(ulid.Make().String())
	if !*keep {
		defer mustExec(root, admin, "DROP ROLE IF EXISTS "+pgx.Identifier{role}.Sanitize(), *timeout)
	}

	first := randomPassword()
	v1 := mustDerive(root, d, first, *timeout)
	mustExec(root, admin, "CREATE ROLE "+pgx.Identifier{role}.Sanitize()+" WITH LOGIN PASSWORD "+quoteLiteral(v1), *timeout)
	mustAssertStored(root, admin, role, v1, *timeout, *verbose)

	mustLogin(root, *dbURL, role, first, *timeout)
	if *verbose {
		fmt.Printf("login ok: role=%s iterations=%d\n", role, *iterations)
	}

	second := randomPassword()
	v2 := mustDerive(root, d, second, *timeout)
	if v2 == v1 {
		fatalf("rotate: verifier did not change")
	}
	mustExec(root, admin, "ALTER ROLE "+pgx.Identifier{role}.Sanitize()+" WITH PASSWORD "+quoteLiteral(v2), *timeout)

	mustLogin(root, *dbURL, role, second, *timeout)
	mustRejectLogin(root, *dbURL, role, first, *timeout)
	mustRejectLogin(root, *dbURL, role, second+"x", *timeout)

	fmt.Printf("OK: role=%s verifier=%s\n", role, v2[:strings.IndexByte(v2, '$')+1]+"...")
}

func mustConnect(parent context.Context, dbURL, user, password string, stepTimeout time.Duration) *pgx.Conn {
	cc, err := pgx.ParseConfig(dbURL)
	if err != nil {
		fatalf("parse -url: invalid connection string")
	}
	if user != "" {
		cc.User = user
		cc.Password = password
	}

	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	conn, err := pgx.ConnectConfig(ctx, cc)
	if err != nil {
		fatalf("connect as %q: %v", cc.User, err)
	}
	return conn
}

func mustDerive(parent context.Context, d *scram.Deriver, password string, stepTimeout time.Duration) string {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	v, err := d.Derive(ctx, password)
	if err != nil {
		fatalf("derive: %v", err)
	}
	return v
}

func mustExec(parent context.Context, conn *pgx.Conn, sql string, stepTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	if _, err := conn.Exec(ctx, sql); err != nil {
		fatalf("exec: %v", err)
	}
}

// mustAssertStored compares pg_authid with the verifier. pg_authid needs superuser;
// a CREATEROLE-only admin skips the check.
func mustAssertStored(parent context.Context, conn *pgx.Conn, role, want string, stepTimeout time.Duration, verbose bool) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	var got string
	err := conn.QueryRow(ctx, "SELECT rolpassword FROM pg_authid WHERE rolname = $1", role).Scan(&got)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42501" {
		if verbose {
			fmt.Println("pg_authid not readable; stored verifier check skipped")
		}
		return
	}
	if err != nil {
		fatalf("read pg_authid: %v", err)
	}
	if got != want {
		fatalf("stored verifier mismatch:\n got  %s\n want %s", got, want)
	}
}

func mustLogin(parent context.Context, dbURL, role, password string, stepTimeout time.Duration) {
	conn := mustConnect(parent, dbURL, role, password, stepTimeout)
	defer func() { _ = conn.Close(context.Background()) }()

	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	var who string
	if err := conn.QueryRow(ctx, "SELECT current_user").Scan(&who); err != nil {
		fatalf("login as %q: %v", role, err)
	}
	if who != role {
		fatalf("login: current_user=%q want %q", who, role)
	}
}

func mustRejectLogin(parent context.Context, dbURL, role, password string, stepTimeout time.Duration) {
	cc, err := pgx.ParseConfig(dbURL)
	if err != nil {
		fatalf("parse -url: invalid connection string")
	}
	cc.User = role
	cc.Password = password

	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	conn, err := pgx.ConnectConfig(ctx, cc)
	if err == nil {
		_ = conn.Close(context.Background())
		fatalf("login as %q with a wrong password succeeded", role)
	}

	// 28P01 invalid_password
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "28P01" {
		fatalf("login as %q: want invalid_password, got %v", role, err)
	}
}

func randomPassword() string {
	var b [18]byte
	if _, err := rand.Read(b[:]); err != nil {
		fatalf("random: %v", err)
	}
	return hex.EncodeToString(b[:])
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
