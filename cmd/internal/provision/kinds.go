package provision

import "errors"

// Sentinel error kinds (stable for errors.Is and for mapping to exit codes).
var (
	ErrInvalidInput     = errors.New("invalid_input")
	ErrRoleNotFound     = errors.New("role_not_found")
	ErrRoleExists       = errors.New("role_exists")
	ErrPermissionDenied = errors.New("permission_denied")
)
