// Package crypto implements the password-based codec used by sealsheet.
//
// The codec is wire compatible with
//
//	openssl enc -aes-256-cbc -e|-d -pbkdf2 -iter N -base64 -A -k PASSWORD
//
// Key derivation uses PBKDF2-HMAC-SHA256 with:
//   - 8-byte random salt, stored in the frame after the "Salted__" marker
//   - caller supplied iteration count (not stored anywhere)
//   - 48 bytes of output: 32-byte AES-256 key followed by a 16-byte IV
//
// Encryption uses AES-256-CBC with PKCS#7 padding. The frame
//
//	"Salted__" | salt (8) | ciphertext (n*16)
//
// is encoded as standard base64 on a single line.
//
// CBC with PKCS#7 is unauthenticated: a wrong password or iteration count is
// normally reported as ErrPadding, but the cipher layer cannot tell a wrong
// key apart from corrupted ciphertext.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - KeyMaterial.Destroy() zeroes derived key and IV
package crypto
