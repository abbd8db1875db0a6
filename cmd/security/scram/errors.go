package scram

import (
	"errors"
	"fmt"
)

// Public, stable errors for callers.
var (
	ErrNoPassword           = errors.New("no password source")
	ErrEmptyPassword        = errors.New("empty password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrPasswordTooLong      = errors.New("password too long")
	ErrWeakPassword         = errors.New("weak password")
	ErrPasswordContainsRole = errors.New("password contains role name")
	ErrPasswordFile         = errors.New("password file")
	ErrInvalidParams        = errors.New("invalid scram parameters")
	ErrRandom               = errors.New("random source failure")
	ErrInvalidVerifier      = errors.New("invalid scram verifier")
)

// SourceError reports a failure reading a password file.
// It names the file and never carries any part of its content.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%v %q: %v", ErrPasswordFile, e.Path, e.Err)
}

func (e *SourceError) Unwrap() []error { return []error{ErrPasswordFile, e.Err} }
