package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSalt(t *testing.T, h string) Salt {
	t.Helper()
	raw, err := hex.DecodeString(h)
	require.NoError(t, err)
	salt, err := SaltFromBytes(raw)
	require.NoError(t, err)
	return salt
}

func TestDerive_OpenSSLVectors(t *testing.T) {
	for _, v := range opensslVectors {
		t.Run(v.name, func(t *testing.T) {
			material, err := Derive([]byte(v.password), mustSalt(t, v.salt), v.iterations)
			require.NoError(t, err)
			assert.Equal(t, v.key, hex.EncodeToString(material.Key()))
			assert.Equal(t, v.iv, hex.EncodeToString(material.IV()))
		})
	}
}

func TestDerive_Deterministic(t *testing.T) {
	salt := Salt{8, 7, 6, 5, 4, 3, 2, 1}
	a, err := Derive([]byte("password"), salt, 100)
	require.NoError(t, err)
	b, err := Derive([]byte("password"), salt, 100)
	require.NoError(t, err)
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, a.IV(), b.IV())

	c, err := Derive([]byte("password"), salt, 101)
	require.NoError(t, err)
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestDerive_InvalidIterations(t *testing.T) {
	for _, iter := range []int{0, -1, -10000} {
		_, err := Derive([]byte("password"), Salt{}, iter)
		assert.ErrorIs(t, err, ErrInvalidIterationCount)
	}
}

func TestKeyMaterial(t *testing.T) {
	derived := make([]byte, KeySize+IVSize)
	for i := range derived {
		derived[i] = byte(i)
	}
	m, err := NewKeyMaterial(derived)
	require.NoError(t, err)
	assert.Equal(t, derived[:KeySize], m.Key())
	assert.Equal(t, derived[KeySize:], m.IV())

	m.Destroy()
	assert.Equal(t, make([]byte, KeySize), m.Key())
	assert.Equal(t, make([]byte, IVSize), m.IV())

	_, err = NewKeyMaterial(derived[:KeySize])
	assert.Error(t, err)
}

func TestSalt(t *testing.T) {
	s, err := NewSalt(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9}))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, s.Bytes())

	_, err = NewSalt(bytes.NewReader([]byte{1, 2, 3}))
	assert.ErrorIs(t, err, ErrRandomSource)

	_, err = SaltFromBytes([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrFrame)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy pool closed")
}
