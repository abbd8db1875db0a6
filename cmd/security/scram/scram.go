package scram

import (
	"crypto/hmac"
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Mechanism is the algorithm tag that prefixes every verifier.
	Mechanism = "SCRAM-SHA-256"

	// KeyLength is the size of every derived key (SHA-256 output).
	KeyLength = sha256.Size

	clientKeyLabel = "Client Key"
	serverKeyLabel = "Server Key"
)

// keys is the transient key hierarchy of one derivation.
// digest and client are secret-equivalent and are wiped once the verifier is built.
type keys struct {
	digest []byte
	client []byte
	stored []byte
	server []byte
}

// deriveKeys runs the deterministic part of the derivation.
// Callers validate inputs and call wipe when done.
func deriveKeys(password, salt []byte, iterations int) keys {
	digest := pbkdf2.Key(password, salt, iterations, KeyLength, sha256.New)
	client := hmacSHA256(digest, clientKeyLabel)
	stored := sha256.Sum256(client)
	server := hmacSHA256(digest, serverKeyLabel)

	return keys{
		digest: digest,
		client: client,
		stored: stored[:],
		server: server,
	}
}

func (k *keys) wipe() {
	clear(k.digest)
	clear(k.client)
}

func hmacSHA256(key []byte, label string) []byte {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(label))
	return m.Sum(nil)
}

// DeriveWithSalt derives the verifier for password under a caller-supplied salt.
//
// The result is a pure function of (password, salt, iterations). Production callers
// must use Derive or a Deriver, which draw a fresh salt per call; this entry point exists
// for reproducing known verifiers.
func DeriveWithSalt(password string, salt []byte, iterations int) (Verifier, error) {
	if password == "" {
		return Verifier{}, ErrEmptyPassword
	}
	if iterations <= 0 || iterations > MaxIterations {
		return Verifier{}, ErrInvalidParams
	}
	if len(salt) == 0 || len(salt) > MaxSaltLength {
		return Verifier{}, ErrInvalidParams
	}

	k := deriveKeys([]byte(password), salt, iterations)
	defer k.wipe()

	return Verifier{
		Iterations: iterations,
		Salt:       append([]byte(nil), salt...),
		StoredKey:  k.stored,
		ServerKey:  k.server,
	}, nil
}
