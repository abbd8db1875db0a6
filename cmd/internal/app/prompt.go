package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"scramgen/cmd/security/scram"
)

var errPasswordMismatch = errors.New("passwords do not match")

// readPassword reads a password from in.
// On a terminal, echo is disabled and the password is asked twice.
// Otherwise (piped stdin) the first line is used with the same trimming as a password file.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) { // #nosec G115 -- fd fits in int.
		return readTerminalPassword(int(f.Fd()), prompt) // #nosec G115 -- fd fits in int.
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	pw := strings.TrimRight(line, " \t\r\n\v\f")
	if pw == "" {
		return "", scram.ErrEmptyPassword
	}
	return pw, nil
}

func readTerminalPassword(fd int, prompt io.Writer) (string, error) {
	_, _ = fmt.Fprint(prompt, "Password: ")
	first, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(first) == 0 {
		return "", scram.ErrEmptyPassword
	}

	_, _ = fmt.Fprint(prompt, "Confirm password: ")
	second, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", errPasswordMismatch
	}
	return string(first), nil
}
