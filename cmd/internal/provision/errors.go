package provision

import (
	"errors"
	"fmt"
)

// OpError is a typed operation error with a stable Op + Kind contract for callers/tests.
// Msg may include human-readable context; it never includes passwords or verifiers.
type OpError struct {
	Op   string
	Kind error
	Msg  string
}

func (e OpError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

func (e OpError) Unwrap() error { return e.Kind }

// RoleError attaches the role name to a failure while provisioning that role.
type RoleError struct {
	Role string
	Err  error
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("role %q: %v", e.Role, e.Err)
}

func (e *RoleError) Unwrap() error { return e.Err }

func invalidInput(op, format string, args ...any) error {
	return OpError{Op: op, Kind: ErrInvalidInput, Msg: fmt.Sprintf(format, args...)}
}

// IsInvalidInput reports whether err represents ErrInvalidInput.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsRoleNotFound reports whether err represents ErrRoleNotFound.
func IsRoleNotFound(err error) bool { return errors.Is(err, ErrRoleNotFound) }

// IsPermissionDenied reports whether err represents ErrPermissionDenied.
func IsPermissionDenied(err error) bool { return errors.Is(err, ErrPermissionDenied) }
