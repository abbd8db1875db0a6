package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"scramgen/cmd/security/scram"
)

// Execer is the subset of *pgxpool.Pool (and pgx.Conn, pgx.Tx) the store needs.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresRoleStore implements RoleStore over PostgreSQL.
//
// Design notes:
// - The pool is owned by the caller; this store must NOT close it.
// - Role names are validated and quoted with pgx.Identifier.
// - DDL cannot take bind parameters, so the verifier is validated by scram.ParseVerifier
// and then embedded as a quoted literal. Only verifiers are ever sent, never passwords.
type PostgresRoleStore struct {
	db Execer
}

// NewPostgresRoleStore constructs a PostgresRoleStore.
func NewPostgresRoleStore(db Execer) (*PostgresRoleStore, error) {
	if db == nil {
		return nil, fmt.Errorf("provision: nil db")
	}
	return &PostgresRoleStore{db: db}, nil
}

// SetPassword runs ALTER ROLE ... WITH PASSWORD '<verifier>'.
func (s *PostgresRoleStore) SetPassword(ctx context.Context, role, verifier string) error {
	const op = "provision.SetPassword"

	q, err := alterRoleSQL(op, role, verifier)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, q); err != nil {
		return mapPgError(op, role, err)
	}
	return nil
}

// CreateRole runs CREATE ROLE ... WITH LOGIN PASSWORD '<verifier>'.
func (s *PostgresRoleStore) CreateRole(ctx context.Context, role, verifier string) error {
	const op = "provision.CreateRole"

	q, err := createRoleSQL(op, role, verifier)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, q); err != nil {
		return mapPgError(op, role, err)
	}
	return nil
}

func alterRoleSQL(op, role, verifier string) (string, error) {
	ident, lit, err := roleAndVerifier(op, role, verifier)
	if err != nil {
		return "", err
	}
	return "ALTER ROLE " + ident + " WITH PASSWORD " + lit, nil
}

func createRoleSQL(op, role, verifier string) (string, error) {
	ident, lit, err := roleAndVerifier(op, role, verifier)
	if err != nil {
		return "", err
	}
	return "CREATE ROLE " + ident + " WITH LOGIN PASSWORD " + lit, nil
}

func roleAndVerifier(op, role, verifier string) (string, string, error) {
	if !ValidRoleName(role) {
		return "", "", invalidInput(op, "invalid role name %q", role)
	}
	if _, err := scram.ParseVerifier(verifier); err != nil {
		return "", "", invalidInput(op, "%v", err)
	}
	return pgx.Identifier{role}.Sanitize(), quoteLiteral(verifier), nil
}

// quoteLiteral renders s as a standard-conforming SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func mapPgError(op, role string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42704": // undefined_object
			return OpError{Op: op, Kind: ErrRoleNotFound, Msg: role}
		case "42710": // duplicate_object
			return OpError{Op: op, Kind: ErrRoleExists, Msg: role}
		case "42501": // insufficient_privilege
			return OpError{Op: op, Kind: ErrPermissionDenied, Msg: role}
		}
		// The server echoes the statement in some errors; keep only code and message.
		return fmt.Errorf("%s: postgres %s: %s", op, pgErr.Code, pgErr.Message)
	}
	return fmt.Errorf("%s: %w", op, err)
}
