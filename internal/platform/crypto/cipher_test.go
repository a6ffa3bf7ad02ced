package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	s, err := New("0123456789abcdef0123456789abcdef", "google-token")
	require.NoError(t, err)
	require.True(t, s.Configured())

	sealed, err := s.Seal([]byte("refresh-token"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "refresh-token")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "refresh-token", string(plain))
}

func TestPurposeSeparatesKeys(t *testing.T) {
	a, err := New("0123456789abcdef0123456789abcdef", "a")
	require.NoError(t, err)
	b, err := New("0123456789abcdef0123456789abcdef", "b")
	require.NoError(t, err)

	sealed, err := a.Seal([]byte("secret"))
	require.NoError(t, err)
	_, err = b.Open(sealed)
	assert.Error(t, err)
}

func TestUnconfiguredPassesThrough(t *testing.T) {
	s, err := New("", "google-token")
	require.NoError(t, err)
	assert.False(t, s.Configured())

	sealed, err := s.Seal([]byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain", string(sealed))
}

func TestShortSecretRejected(t *testing.T) {
	_, err := New("short", "x")
	assert.Error(t, err)
}

func TestOpenTruncated(t *testing.T) {
	s, err := New("0123456789abcdef0123456789abcdef", "x")
	require.NoError(t, err)
	_, err = s.Open([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrCiphertext)
}
