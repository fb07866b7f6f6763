package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// BlockFunc builds a block cipher for a derived key
type BlockFunc func(key []byte) (cipher.Block, error)

// Codec encrypts and decrypts openssl-compatible salted frames.
// A Codec holds no per-call state and is safe for concurrent use as long as
// its random source is.
type Codec struct {
	random io.Reader
	derive DeriveFunc
	block  BlockFunc
}

// Option configures a Codec
type Option func(*Codec)

// WithRandom sets the salt source. It must be cryptographically secure.
func WithRandom(r io.Reader) Option {
	return func(c *Codec) {
		c.random = r
	}
}

// WithDerive replaces the key derivation step
func WithDerive(f DeriveFunc) Option {
	return func(c *Codec) {
		c.derive = f
	}
}

// WithBlock replaces the block cipher constructor
func WithBlock(f BlockFunc) Option {
	return func(c *Codec) {
		c.block = f
	}
}

// NewCodec creates a codec using crypto/rand, PBKDF2-HMAC-SHA256 and AES
// unless overridden by opts.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		random: rand.Reader,
		derive: PBKDF2SHA256,
		block:  aes.NewCipher,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encrypt seals plaintext under password and returns the base64 frame.
// Every call draws a new salt, so identical inputs give different outputs.
func (c *Codec) Encrypt(plaintext, password []byte, iterations int) (string, error) {
	if err := ValidateIterations(iterations); err != nil {
		return "", err
	}

	salt, err := NewSalt(c.random)
	if err != nil {
		return "", err
	}

	material, err := c.derive(password, salt, iterations)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}
	defer material.Destroy()

	block, err := c.block(material.Key())
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	defer ClearBytes(padded)

	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, material.IV()).CryptBlocks(ciphertext, padded)

	frame := Frame{Salt: salt, Ciphertext: ciphertext}
	return frame.Encode(), nil
}

// Decrypt opens a base64 frame produced by Encrypt or openssl enc.
// The iteration count must match the one used to encrypt; it is not stored
// in the frame.
func (c *Codec) Decrypt(encoded string, password []byte, iterations int) ([]byte, error) {
	if err := ValidateIterations(iterations); err != nil {
		return nil, err
	}

	frame, err := DecodeFrame(encoded)
	if err != nil {
		return nil, err
	}

	material, err := c.derive(password, frame.Salt, iterations)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer material.Destroy()

	block, err := c.block(material.Key())
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(frame.Ciphertext)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not a whole number of blocks", ErrFrame)
	}

	decrypted := make([]byte, len(frame.Ciphertext))
	cipher.NewCBCDecrypter(block, material.IV()).CryptBlocks(decrypted, frame.Ciphertext)

	plaintext, err := pkcs7Unpad(decrypted, block.BlockSize())
	if err != nil {
		ClearBytes(decrypted)
		return nil, err
	}
	return plaintext, nil
}

// EncryptText encrypts the UTF-8 bytes of plaintext
func (c *Codec) EncryptText(plaintext string, password []byte, iterations int) (string, error) {
	return c.Encrypt([]byte(plaintext), password, iterations)
}

// DecryptText decrypts and requires the plaintext to be valid UTF-8
func (c *Codec) DecryptText(encoded string, password []byte, iterations int) (string, error) {
	plaintext, err := c.Decrypt(encoded, password, iterations)
	if err != nil {
		return "", err
	}
	if _, _, err := transform.Bytes(encoding.UTF8Validator, plaintext); err != nil {
		ClearBytes(plaintext)
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", ErrDecode)
	}
	return string(plaintext), nil
}

var defaultCodec = NewCodec()

// Encrypt seals plaintext with the default codec
func Encrypt(plaintext, password []byte, iterations int) (string, error) {
	return defaultCodec.Encrypt(plaintext, password, iterations)
}

// Decrypt opens a frame with the default codec
func Decrypt(encoded string, password []byte, iterations int) ([]byte, error) {
	return defaultCodec.Decrypt(encoded, password, iterations)
}

// DecryptText opens a frame with the default codec and validates UTF-8
func DecryptText(encoded string, password []byte, iterations int) (string, error) {
	return defaultCodec.DecryptText(encoded, password, iterations)
}
