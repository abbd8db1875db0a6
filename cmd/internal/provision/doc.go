// Package provision applies SCRAM-SHA-256 verifiers to PostgreSQL roles.
//
// It is the collaborator side of cmd/security/scram:
// - Manifest loads a YAML list of roles and their password sources
// - Provisioner derives verifiers for many roles on a bounded worker pool
// - PostgresRoleStore installs verifiers with ALTER/CREATE ROLE so cleartext never reaches SQL
package provision
