package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
)

const (
	MagicHeader       = "Salted__" // OpenSSL salted frame marker
	MagicSize         = 8
	SaltSize          = 8     // OpenSSL enc salt size
	KeySize           = 32    // AES-256 key size
	IVSize            = 16    // CBC IV size
	BlockSize         = 16    // AES block size
	HeaderSize        = MagicSize + SaltSize
	DefaultIterations = 10000 // PBKDF2 iterations used when none are configured
)

var (
	ErrInvalidIterationCount = errors.New("invalid iteration count")
	ErrDecode                = errors.New("decode error")
	ErrFrame                 = errors.New("invalid frame")
	ErrPadding               = errors.New("bad decrypt")
	ErrRandomSource          = errors.New("random source unavailable")
)

// ValidateIterations rejects iteration counts PBKDF2 cannot use
func ValidateIterations(iterations int) error {
	if iterations <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIterationCount, iterations)
	}
	return nil
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandomSource, err)
	}
	return b, nil
}
