package crypto

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Frame is the decoded wire layout: "Salted__" | salt | ciphertext
type Frame struct {
	Salt       Salt
	Ciphertext []byte
}

// MarshalBinary lays out marker, salt and ciphertext
func (f *Frame) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, HeaderSize+len(f.Ciphertext))
	out = append(out, MagicHeader...)
	out = append(out, f.Salt[:]...)
	out = append(out, f.Ciphertext...)
	return out, nil
}

// UnmarshalBinary parses a frame, validating the marker and the ciphertext
// block alignment. The ciphertext is copied out of data.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: %d bytes is shorter than the %d-byte header", ErrFrame, len(data), HeaderSize)
	}
	if string(data[:MagicSize]) != MagicHeader {
		return fmt.Errorf("%w: missing %q marker", ErrFrame, MagicHeader)
	}

	salt, err := SaltFromBytes(data[MagicSize:HeaderSize])
	if err != nil {
		return err
	}

	body := data[HeaderSize:]
	if len(body) == 0 || len(body)%BlockSize != 0 {
		return fmt.Errorf("%w: ciphertext length %d is not a positive multiple of %d", ErrFrame, len(body), BlockSize)
	}

	f.Salt = salt
	f.Ciphertext = append([]byte(nil), body...)
	return nil
}

// Encode returns the frame as single-line standard base64
func (f *Frame) Encode() string {
	raw, _ := f.MarshalBinary()
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeFrame decodes base64 text into a Frame.
// Surrounding whitespace and embedded line breaks are ignored so that both
// -A and wrapped openssl output are accepted.
func DecodeFrame(encoded string) (*Frame, error) {
	cleaned := strings.NewReplacer("\r", "", "\n", "").Replace(strings.TrimSpace(encoded))

	raw, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	f := &Frame{}
	if err := f.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return f, nil
}
