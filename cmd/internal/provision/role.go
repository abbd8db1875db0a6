package provision

import (
	"log/slog"
	"regexp"

	"scramgen/cmd/security/scram"
)

// maxRoleNameLen is PostgreSQL's NAMEDATALEN-1.
const maxRoleNameLen = 63

var roleNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_$]*$`)

// Role is one manifest entry. Names are used verbatim and quoted, so they are case-sensitive.
type Role struct {
	Name         string `yaml:"name"`
	Password     string `yaml:"password,omitempty"`
	PasswordFile string `yaml:"password_file,omitempty"`
	Create       bool   `yaml:"create,omitempty"`
}

// Source returns the password source for r.
func (r Role) Source() scram.Source {
	return scram.Source{Password: r.Password, File: r.PasswordFile}
}

// ValidRoleName reports whether name is a legal, unquoted-safe PostgreSQL role name.
func ValidRoleName(name string) bool {
	return len(name) <= maxRoleNameLen && roleNameRe.MatchString(name)
}

// String returns the role name only, so a Role can be printed without leaking its password.
func (r Role) String() string { return r.Name }

// LogValue implements slog.LogValuer with the same redaction as String.
func (r Role) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", r.Name),
		slog.Bool("from_file", r.Password == "" && r.PasswordFile != ""),
		slog.Bool("create", r.Create),
	)
}
