package scram

import "github.com/xdg-go/stringprep"

// prepare applies SASLprep (RFC 4013) to password.
// Like PostgreSQL, a password that SASLprep rejects or maps to nothing is used as-is.
func prepare(password string) string {
	p, err := stringprep.SASLprep.Prepare(password)
	if err != nil || p == "" {
		return password
	}
	return p
}
