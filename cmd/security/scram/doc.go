// Package scram derives SCRAM-SHA-256 password verifiers for database roles.
//
// It produces the textual verifier PostgreSQL stores in pg_authid.rolpassword:
//
//	SCRAM-SHA-256$<iterations>:<salt>$<stored_key>:<server_key>
//
// and includes:
// - Bounded derivation parameters (via environment variables)
// - Password policy validation
// - A password source that reads either a literal value or the first line of a file
// - A strict verifier decoder used before a verifier is handed to a database
//
// Security notes:
// - The password, the salted password and the client key never leave this package.
// - Derivation hooks (logger, tracer) only observe parameters and outcomes.
// - This package does not run the SCRAM handshake and cannot check a password against a verifier.
package scram
