package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// Salt is the 8-byte PBKDF2 salt carried in every frame
type Salt [SaltSize]byte

// NewSalt reads a fresh salt from r, which must be a secure random source
func NewSalt(r io.Reader) (Salt, error) {
	var s Salt
	if _, err := io.ReadFull(r, s[:]); err != nil {
		return Salt{}, fmt.Errorf("%w: %v", ErrRandomSource, err)
	}
	return s, nil
}

// SaltFromBytes copies b into a Salt. b must be exactly SaltSize bytes long.
func SaltFromBytes(b []byte) (Salt, error) {
	var s Salt
	if len(b) != SaltSize {
		return Salt{}, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrFrame, SaltSize, len(b))
	}
	copy(s[:], b)
	return s, nil
}

// Bytes returns the salt as a slice
func (s Salt) Bytes() []byte {
	return s[:]
}

// KeyMaterial holds the AES key and CBC IV derived from a password
type KeyMaterial struct {
	key [KeySize]byte
	iv  [IVSize]byte
}

// NewKeyMaterial splits 48 bytes of derived output into key and IV, in that order
func NewKeyMaterial(derived []byte) (*KeyMaterial, error) {
	if len(derived) != KeySize+IVSize {
		return nil, fmt.Errorf("derived material must be %d bytes, got %d", KeySize+IVSize, len(derived))
	}
	m := &KeyMaterial{}
	copy(m.key[:], derived[:KeySize])
	copy(m.iv[:], derived[KeySize:])
	return m, nil
}

// Key returns the 32-byte cipher key
func (m *KeyMaterial) Key() []byte {
	return m.key[:]
}

// IV returns the 16-byte initialization vector
func (m *KeyMaterial) IV() []byte {
	return m.iv[:]
}

// Destroy zeroes the key and IV
func (m *KeyMaterial) Destroy() {
	ClearBytes(m.key[:])
	ClearBytes(m.iv[:])
}

// DeriveFunc turns a password and salt into key material.
// Implementations must be deterministic and safe for concurrent use.
type DeriveFunc func(password []byte, salt Salt, iterations int) (*KeyMaterial, error)

// PBKDF2SHA256 is the derivation used by openssl enc -pbkdf2
func PBKDF2SHA256(password []byte, salt Salt, iterations int) (*KeyMaterial, error) {
	if err := ValidateIterations(iterations); err != nil {
		return nil, err
	}
	derived := pbkdf2.Key(password, salt[:], iterations, KeySize+IVSize, sha256.New)
	defer ClearBytes(derived)
	return NewKeyMaterial(derived)
}

// Derive derives key material with PBKDF2-HMAC-SHA256
func Derive(password []byte, salt Salt, iterations int) (*KeyMaterial, error) {
	return PBKDF2SHA256(password, salt, iterations)
}
