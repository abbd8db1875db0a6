package scram

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// commonPasswords are rejected by RejectVeryWeak even when they mix character classes.
var commonPasswords = map[string]struct{}{
	"password1":   {},
	"password123": {},
	"passw0rd":    {},
	"p@ssw0rd":    {},
	"qwerty123":   {},
	"letmein1":    {},
	"welcome1":    {},
	"changeme1":   {},
	"postgres1":   {},
	"admin123":    {},
}

// ValidatePassword applies the password policy before anything is derived.
//
// role is the PostgreSQL role the verifier is for, or "" when unknown. Like the
// passwordcheck module, a password that contains its role name is always refused
// (compared case-insensitively). Length is counted in characters.
func (c Config) ValidatePassword(role, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}

	switch n := utf8.RuneCountInString(password); {
	case n < c.Policy.MinLength:
		return fmt.Errorf("%w: %d characters, minimum %d", ErrPasswordTooShort, n, c.Policy.MinLength)
	case n > c.Policy.MaxLength:
		return fmt.Errorf("%w: %d characters, maximum %d", ErrPasswordTooLong, n, c.Policy.MaxLength)
	}

	if role != "" && strings.Contains(strings.ToLower(password), strings.ToLower(role)) {
		return fmt.Errorf("%w %q", ErrPasswordContainsRole, role)
	}

	if c.Policy.RejectVeryWeak && tooSimple(password) {
		return ErrWeakPassword
	}
	return nil
}

// tooSimple mirrors passwordcheck: a password needs both letters and non-letters.
// A short list of common mixed passwords is refused as well.
func tooSimple(pw string) bool {
	var letters, others bool
	for _, r := range pw {
		if unicode.IsLetter(r) {
			letters = true
		} else {
			others = true
		}
	}
	if !letters || !others {
		return true
	}

	_, common := commonPasswords[strings.ToLower(pw)]
	return common
}
