package provision

import "context"

// RoleStore installs verifiers on database roles.
// Implementations receive verifiers only, never cleartext passwords.
type RoleStore interface {
	// SetPassword replaces the password verifier of an existing role.
	SetPassword(ctx context.Context, role, verifier string) error
	// CreateRole creates a login role with the given verifier.
	// It returns ErrRoleExists if the role already exists.
	CreateRole(ctx context.Context, role, verifier string) error
}
