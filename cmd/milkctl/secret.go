package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// secretSource resolves the gateway signing secret from a flag, then an
// environment variable, then an interactive prompt on the controlling
// terminal.
type secretSource struct {
	flagValue string
	envVar    string
	prompt    io.Writer

	// isTerminal and readPassword are swapped in tests.
	isTerminal   func(fd int) bool
	readPassword func(fd int) ([]byte, error)
}

func newSecretSource(flagValue, envVar string) *secretSource {
	return &secretSource{
		flagValue:    strings.TrimSpace(flagValue),
		envVar:       strings.TrimSpace(envVar),
		prompt:       os.Stderr,
		isTerminal:   term.IsTerminal,
		readPassword: term.ReadPassword,
	}
}

func (s *secretSource) Get() (string, error) {
	if s.flagValue != "" {
		return s.flagValue, nil
	}
	if s.envVar != "" {
		if value, ok := os.LookupEnv(s.envVar); ok {
			if strings.TrimSpace(value) == "" {
				return "", fmt.Errorf("%s is set but empty", s.envVar)
			}
			return strings.TrimSpace(value), nil
		}
	}
	fd := int(os.Stdin.Fd())
	if !s.isTerminal(fd) {
		if s.envVar != "" {
			return "", fmt.Errorf("secret required; pass -secret, set %s or run interactively", s.envVar)
		}
		return "", errors.New("secret required and no terminal available")
	}
	fmt.Fprint(s.prompt, "Gateway signing secret: ")
	raw, err := s.readPassword(fd)
	fmt.Fprintln(s.prompt)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	secret := strings.TrimSpace(string(raw))
	if secret == "" {
		return "", errors.New("secret cannot be empty")
	}
	return secret, nil
}
