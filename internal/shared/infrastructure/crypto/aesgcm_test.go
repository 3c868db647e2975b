package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() string {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return base64.StdEncoding.EncodeToString(key)
}

func TestNewAESFieldCipher(t *testing.T) {
	t.Run("valid key", func(t *testing.T) {
		c, err := NewAESFieldCipher(testKey())
		require.NoError(t, err)
		assert.NotNil(t, c)
	})

	t.Run("empty key", func(t *testing.T) {
		_, err := NewAESFieldCipher("")
		assert.ErrorIs(t, err, ErrEmptyKey)
	})

	t.Run("bad base64", func(t *testing.T) {
		_, err := NewAESFieldCipher("not-valid-base64!!!")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("short key", func(t *testing.T) {
		_, err := NewAESFieldCipher(base64.StdEncoding.EncodeToString([]byte("short")))
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}

func TestAESFieldCipher_RoundTrip(t *testing.T) {
	c, err := NewAESFieldCipher(testKey())
	require.NoError(t, err)

	sealed, err := c.Seal("client prefers morning sessions")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, sealedPrefix))
	assert.NotContains(t, sealed, "morning")

	again, err := c.Seal("client prefers morning sessions")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again)

	opened, err := c.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "client prefers morning sessions", opened)
}

func TestAESFieldCipher_EdgeCases(t *testing.T) {
	c, err := NewAESFieldCipher(testKey())
	require.NoError(t, err)

	t.Run("empty stays empty", func(t *testing.T) {
		sealed, err := c.Seal("")
		require.NoError(t, err)
		assert.Empty(t, sealed)
	})

	t.Run("legacy plaintext passes through", func(t *testing.T) {
		opened, err := c.Open("written before encryption")
		require.NoError(t, err)
		assert.Equal(t, "written before encryption", opened)
	})

	t.Run("tampered value", func(t *testing.T) {
		sealed, err := c.Seal("note")
		require.NoError(t, err)
		raw, _ := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, sealedPrefix))
		raw[len(raw)-1] ^= 0xff
		_, err = c.Open(sealedPrefix + base64.StdEncoding.EncodeToString(raw))
		assert.ErrorIs(t, err, ErrCorruptedSealed)
	})

	t.Run("truncated value", func(t *testing.T) {
		_, err := c.Open(sealedPrefix + base64.StdEncoding.EncodeToString([]byte("x")))
		assert.ErrorIs(t, err, ErrCorruptedSealed)
	})
}

func TestFromKey(t *testing.T) {
	c, err := FromKey("")
	require.NoError(t, err)
	assert.IsType(t, Plaintext{}, c)

	c, err = FromKey(testKey())
	require.NoError(t, err)
	assert.IsType(t, &AESFieldCipher{}, c)
}
