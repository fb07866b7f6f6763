package crypto

import (
	"bytes"
	"fmt"
)

// pkcs7Pad appends 1..blockSize bytes, each holding the pad length.
// Aligned input gets a full block of padding.
func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	copy(padded[len(data):], bytes.Repeat([]byte{byte(n)}, n))
	return padded
}

// pkcs7Unpad validates and strips PKCS#7 padding
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("%w: length %d is not a positive multiple of %d", ErrPadding, len(data), blockSize)
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("%w: pad length %d out of range", ErrPadding, n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: inconsistent pad bytes", ErrPadding)
		}
	}
	return data[:len(data)-n], nil
}
