package scram

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxPasswordFileLine bounds how much of a password file is read.
const maxPasswordFileLine = 64 << 10

// Source names where a password comes from: a literal value or a file.
// When both are set, Password is authoritative and File is ignored.
type Source struct {
	Password string
	File     string
}

// Empty reports whether no source was supplied at all.
func (s Source) Empty() bool {
	return s.Password == "" && strings.TrimSpace(s.File) == ""
}

// Resolve returns the password named by s.
// It fails with ErrNoPassword when s is empty and with a *SourceError when the file
// cannot be read or holds no password.
func (s Source) Resolve() (string, error) {
	switch {
	case s.Password != "":
		return s.Password, nil
	case strings.TrimSpace(s.File) != "":
		return ReadPasswordFile(s.File)
	default:
		return "", ErrNoPassword
	}
}

// ReadPasswordFile returns the first line of the file at path with trailing
// whitespace removed. An empty first line is an error, never an empty password.
func ReadPasswordFile(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- the operator names the password file explicitly.
	if err != nil {
		return "", &SourceError{Path: path, Err: unwrapPathError(err)}
	}
	defer func() { _ = f.Close() }()

	// One byte past the limit tells a line of exactly maxPasswordFileLine from a longer one.
	r := bufio.NewReader(io.LimitReader(f, maxPasswordFileLine+1))
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", &SourceError{Path: path, Err: unwrapPathError(err)}
	}
	if content := strings.TrimSuffix(line, "\n"); len(content) > maxPasswordFileLine {
		return "", &SourceError{
			Path: path,
			Err:  fmt.Errorf("%w: first line exceeds %d bytes", ErrPasswordTooLong, maxPasswordFileLine),
		}
	}

	pw := strings.TrimRight(line, " \t\r\n\v\f")
	if pw == "" {
		return "", &SourceError{Path: path, Err: ErrEmptyPassword}
	}
	return pw, nil
}

// unwrapPathError drops the *os.PathError layer so the path is not repeated in messages.
func unwrapPathError(err error) error {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
