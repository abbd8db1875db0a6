package scram

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// Verifier is the persisted, non-secret-equivalent form of a SCRAM-SHA-256 password.
type Verifier struct {
	Iterations int
	Salt       []byte
	StoredKey  []byte
	ServerKey  []byte
}

// String renders the canonical verifier:
// SCRAM-SHA-256$<iterations>:<salt_b64>$<stored_key_b64>:<server_key_b64>
func (v Verifier) String() string {
	b64 := base64.StdEncoding

	var b strings.Builder
	b.Grow(len(Mechanism) + 8 + b64.EncodedLen(len(v.Salt)) + 2*b64.EncodedLen(KeyLength) + 3)
	b.WriteString(Mechanism)
	b.WriteByte('$')
	b.WriteString(strconv.Itoa(v.Iterations))
	b.WriteByte(':')
	b.WriteString(b64.EncodeToString(v.Salt))
	b.WriteByte('$')
	b.WriteString(b64.EncodeToString(v.StoredKey))
	b.WriteByte(':')
	b.WriteString(b64.EncodeToString(v.ServerKey))
	return b.String()
}

// ParseVerifier strictly decodes a verifier string.
// It checks shape only; it cannot tell whether the verifier matches any password.
func ParseVerifier(s string) (Verifier, error) {
	// Expected:
	// SCRAM-SHA-256$4096:<salt>$<stored>:<server>
	parts := strings.Split(s, "$")
	if len(parts) != 3 || parts[0] != Mechanism {
		return Verifier{}, ErrInvalidVerifier
	}

	iterStr, saltB64, ok := strings.Cut(parts[1], ":")
	if !ok {
		return Verifier{}, ErrInvalidVerifier
	}
	storedB64, serverB64, ok := strings.Cut(parts[2], ":")
	if !ok || strings.Contains(serverB64, ":") || strings.Contains(saltB64, ":") {
		return Verifier{}, ErrInvalidVerifier
	}

	iterations, ok := parseDecimal(iterStr)
	if !ok || iterations <= 0 || iterations > MaxIterations {
		return Verifier{}, ErrInvalidVerifier
	}

	b64 := base64.StdEncoding.Strict()
	salt, err := b64.DecodeString(saltB64)
	if err != nil || len(salt) == 0 || len(salt) > MaxSaltLength {
		return Verifier{}, ErrInvalidVerifier
	}
	stored, err := b64.DecodeString(storedB64)
	if err != nil || len(stored) != KeyLength {
		return Verifier{}, ErrInvalidVerifier
	}
	server, err := b64.DecodeString(serverB64)
	if err != nil || len(server) != KeyLength {
		return Verifier{}, ErrInvalidVerifier
	}

	return Verifier{
		Iterations: iterations,
		Salt:       salt,
		StoredKey:  stored,
		ServerKey:  server,
	}, nil
}

// parseDecimal accepts ASCII digits only (no sign, no spaces).
func parseDecimal(s string) (int, bool) {
	if s == "" || len(s) > 9 {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
