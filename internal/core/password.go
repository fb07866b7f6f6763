package core

import (
	"fmt"
	"os"

	"github.com/illarion/sealsheet/internal/crypto"
	"golang.org/x/term"
)

// EnvPassword names the variable checked before prompting
const EnvPassword = "SEALSHEET_PASSWORD"

// ReadPassword reads a password from the terminal without echoing.
// The prompt goes to stderr so decrypted output on stdout stays clean.
func ReadPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)

	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

// ReadPasswordConfirm reads a password twice and ensures they match
func ReadPasswordConfirm() ([]byte, error) {
	password1, err := ReadPassword("Enter password: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password1)

	password2, err := ReadPassword("Confirm password: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password2)

	if !crypto.ConstantTimeCompare(password1, password2) {
		return nil, fmt.Errorf("passwords do not match")
	}

	result := make([]byte, len(password1))
	copy(result, password1)
	return result, nil
}

// GetPasswordFromEnv reads the password from SEALSHEET_PASSWORD
func GetPasswordFromEnv() []byte {
	password, ok := os.LookupEnv(EnvPassword)
	if !ok || password == "" {
		return nil
	}
	return []byte(password)
}

// IsTerminal reports whether stdin can be prompted
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
