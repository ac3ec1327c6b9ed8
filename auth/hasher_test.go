package auth

import (
	"strings"
	"testing"

	"github.com/poiesic/dataport/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}

	hash, err := h.Hash("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)

	ok, err := h.Verify(hash, "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(hash, "Secret")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Verify("not-bcrypt", "secret")
	assert.ErrorIs(t, err, ErrMalformedHash)
}

func TestBlake2bHasher(t *testing.T) {
	h := Blake2bHasher{}

	first, err := h.Hash("secret")
	require.NoError(t, err)
	second, err := h.Hash("secret")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first, "blake2b$"))
	assert.NotEqual(t, first, second, "salts differ")

	for _, hash := range []string{first, second} {
		ok, err := h.Verify(hash, "secret")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = h.Verify(hash, "secrets")
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestBlake2bHasher_Malformed(t *testing.T) {
	h := Blake2bHasher{}
	for _, hash := range []string{
		"",
		"plaintext",
		"bcrypt$00$00",
		"blake2b$zz$" + strings.Repeat("00", 32),
		"blake2b$$" + strings.Repeat("00", 32),
		"blake2b$0011$0011",
		"blake2b$" + strings.Repeat("00", 65) + "$" + strings.Repeat("00", 32),
	} {
		_, err := h.Verify(hash, "secret")
		assert.ErrorIs(t, err, ErrMalformedHash, hash)
	}
}

func TestNewHasher(t *testing.T) {
	h, err := NewHasher(config.HasherConfig{Algorithm: config.HasherBcrypt, Cost: 5})
	require.NoError(t, err)
	assert.Equal(t, BcryptHasher{Cost: 5}, h)

	h, err = NewHasher(config.HasherConfig{Algorithm: config.HasherBlake2b})
	require.NoError(t, err)
	assert.IsType(t, Blake2bHasher{}, h)

	_, err = NewHasher(config.HasherConfig{Algorithm: "md5"})
	assert.ErrorIs(t, err, config.ErrHasherUnknown)
}
