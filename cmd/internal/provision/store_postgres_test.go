package provision

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type fakeExecer struct {
	sql []string
	err error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.sql = append(f.sql, sql)
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	return pgconn.NewCommandTag("ALTER ROLE"), nil
}

func TestPostgresRoleStore_SetPassword_SQL(t *testing.T) {
	t.Parallel()

	db := &fakeExecer{}
	s, err := NewPostgresRoleStore(db)
	require.NoError(t, err)

	require.NoError(t, s.SetPassword(context.Background(), "App_RW", knownVerifier))
	require.Equal(t, []string{`ALTER ROLE "App_RW" WITH PASSWORD '` + knownVerifier + `'`}, db.sql)
}

func TestPostgresRoleStore_CreateRole_SQL(t *testing.T) {
	t.Parallel()

	db := &fakeExecer{}
	s, err := NewPostgresRoleStore(db)
	require.NoError(t, err)

	require.NoError(t, s.CreateRole(context.Background(), "report_ro", knownVerifier))
	require.Equal(t, []string{`CREATE ROLE "report_ro" WITH LOGIN PASSWORD '` + knownVerifier + `'`}, db.sql)
}

func TestPostgresRoleStore_RejectsBadInputBeforeSQL(t *testing.T) {
	t.Parallel()

	db := &fakeExecer{}
	s, err := NewPostgresRoleStore(db)
	require.NoError(t, err)

	cases := []struct {
		role     string
		verifier string
	}{
		{role: `evil"; DROP ROLE postgres; --`, verifier: knownVerifier},
		{role: "", verifier: knownVerifier},
		{role: "1role", verifier: knownVerifier},
		{role: "app", verifier: "plaintext-password"},
		{role: "app", verifier: knownVerifier + "'; DROP TABLE x; --"},
	}

	for _, tc := range cases {
		err := s.SetPassword(context.Background(), tc.role, tc.verifier)
		require.True(t, IsInvalidInput(err), "role=%q err=%v", tc.role, err)
		require.NotContains(t, err.Error(), "plaintext-password")
	}
	require.Empty(t, db.sql)
}

func TestPostgresRoleStore_MapsPgErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code string
		kind error
	}{
		{code: "42704", kind: ErrRoleNotFound},
		{code: "42710", kind: ErrRoleExists},
		{code: "42501", kind: ErrPermissionDenied},
	}

	for _, tc := range cases {
		db := &fakeExecer{err: &pgconn.PgError{Code: tc.code, Message: "boom"}}
		s, err := NewPostgresRoleStore(db)
		require.NoError(t, err)

		err = s.SetPassword(context.Background(), "app", knownVerifier)
		require.ErrorIs(t, err, tc.kind, tc.code)

		var opErr OpError
		require.ErrorAs(t, err, &opErr)
		require.Equal(t, "provision.SetPassword", opErr.Op)
	}
}

func TestPostgresRoleStore_OtherErrorsDoNotEchoStatement(t *testing.T) {
	t.Parallel()

	db := &fakeExecer{err: &pgconn.PgError{Code: "XX000", Message: "internal", Where: knownVerifier}}
	s, err := NewPostgresRoleStore(db)
	require.NoError(t, err)

	err = s.SetPassword(context.Background(), "app", knownVerifier)
	require.Error(t, err)
	require.NotContains(t, err.Error(), knownVerifier)
	require.Contains(t, err.Error(), "XX000")

	db.err = errors.New("conn closed")
	err = s.SetPassword(context.Background(), "app", knownVerifier)
	require.ErrorContains(t, err, "conn closed")
}

func TestNewPostgresRoleStore_NilDB(t *testing.T) {
	t.Parallel()

	_, err := NewPostgresRoleStore(nil)
	require.Error(t, err)
}

func TestValidRoleName(t *testing.T) {
	t.Parallel()

	require.True(t, ValidRoleName("app_rw"))
	require.True(t, ValidRoleName("_x$1"))
	require.False(t, ValidRoleName(""))
	require.False(t, ValidRoleName("9lives"))
	require.False(t, ValidRoleName("has space"))
	require.False(t, ValidRoleName(string(make([]byte, 64))))
}
