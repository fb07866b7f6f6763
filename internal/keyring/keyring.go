package keyring

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// DefaultService is the keyring service name sealsheet entries live under
const DefaultService = "sealsheet"

// ErrNotFound is returned when no password is stored for an archive
var ErrNotFound = keyring.ErrNotFound

// Store reads and writes archive passwords in the OS keyring.
// Entries are keyed by archive id so several archives can coexist.
type Store struct {
	service string
}

// New returns a Store for service, falling back to DefaultService
func New(service string) *Store {
	if service == "" {
		service = DefaultService
	}
	return &Store{service: service}
}

// Service returns the keyring service name
func (s *Store) Service() string {
	return s.service
}

// SavePassword stores a password in the OS keyring
func (s *Store) SavePassword(vaultID, password string) error {
	return keyring.Set(s.service, vaultID, password)
}

// GetPassword retrieves a password from the OS keyring
func (s *Store) GetPassword(vaultID string) (string, error) {
	return keyring.Get(s.service, vaultID)
}

// DeletePassword removes a password from the OS keyring.
// Deleting a missing entry is not an error.
func (s *Store) DeletePassword(vaultID string) error {
	err := keyring.Delete(s.service, vaultID)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// HasPassword checks if a password is stored for the archive
func (s *Store) HasPassword(vaultID string) bool {
	_, err := keyring.Get(s.service, vaultID)
	return err == nil
}
