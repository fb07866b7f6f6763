package keyring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestStore(t *testing.T) {
	keyring.MockInit()
	s := New("")
	assert.Equal(t, DefaultService, s.Service())

	assert.False(t, s.HasPassword("vault-1"))
	_, err := s.GetPassword("vault-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SavePassword("vault-1", "secret"))
	assert.True(t, s.HasPassword("vault-1"))

	got, err := s.GetPassword("vault-1")
	require.NoError(t, err)
	assert.Equal(t, "secret", got)

	require.NoError(t, s.DeletePassword("vault-1"))
	assert.False(t, s.HasPassword("vault-1"))
	assert.NoError(t, s.DeletePassword("vault-1"))
}

func TestStoreServicesAreSeparate(t *testing.T) {
	keyring.MockInit()
	a := New("sealsheet-a")
	b := New("sealsheet-b")

	require.NoError(t, a.SavePassword("vault", "one"))
	assert.False(t, b.HasPassword("vault"))
}

func TestStoreBackendError(t *testing.T) {
	boom := errors.New("keyring locked")
	keyring.MockInitWithError(boom)
	t.Cleanup(keyring.MockInit)

	s := New("sealsheet")
	assert.ErrorIs(t, s.SavePassword("vault", "pw"), boom)
	assert.ErrorIs(t, s.DeletePassword("vault"), boom)
	assert.False(t, s.HasPassword("vault"))
}
