// Package crypto seals sensitive text columns such as clinical notes.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// sealedPrefix marks values written by AESFieldCipher.
const sealedPrefix = "gcm1:"

var (
	ErrEmptyKey        = errors.New("encryption key is empty")
	ErrInvalidKey      = errors.New("encryption key must be 32 bytes of base64")
	ErrCorruptedSealed = errors.New("sealed value is corrupted")
)

// FieldCipher converts between a plaintext field and its stored form.
type FieldCipher interface {
	Seal(plaintext string) (string, error)
	Open(stored string) (string, error)
}

// Plaintext stores values unchanged. It is used when no key is configured.
type Plaintext struct{}

func (Plaintext) Seal(plaintext string) (string, error) { return plaintext, nil }
func (Plaintext) Open(stored string) (string, error)    { return stored, nil }

// AESFieldCipher seals with AES-256-GCM and a random nonce per value.
type AESFieldCipher struct {
	aead cipher.AEAD
}

// NewAESFieldCipher builds a cipher from a base64-encoded 32-byte key.
func NewAESFieldCipher(encodedKey string) (*AESFieldCipher, error) {
	if encodedKey == "" {
		return nil, ErrEmptyKey
	}
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil || len(key) != 32 {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &AESFieldCipher{aead: aead}, nil
}

// FromKey returns an AES cipher when encodedKey is set and Plaintext otherwise.
func FromKey(encodedKey string) (FieldCipher, error) {
	if encodedKey == "" {
		return Plaintext{}, nil
	}
	return NewAESFieldCipher(encodedKey)
}

// Seal encrypts plaintext. Empty values stay empty.
func (c *AESFieldCipher) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a sealed value. Values without the prefix predate encryption
// and are returned as stored.
func (c *AESFieldCipher) Open(stored string) (string, error) {
	if !strings.HasPrefix(stored, sealedPrefix) {
		return stored, nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil {
		return "", ErrCorruptedSealed
	}
	n := c.aead.NonceSize()
	if len(raw) < n {
		return "", ErrCorruptedSealed
	}
	plain, err := c.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptedSealed, err)
	}
	return string(plain), nil
}
