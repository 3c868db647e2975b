package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"
)

// Clock returns the current instant. Tests inject fixed clocks.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time { return time.Now() }

// Locker serialises booking writes per key. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// ProviderLockKey is the lock key guarding a provider's calendar.
func ProviderLockKey(providerID string) string {
	return "solace:booking:provider:" + providerID
}

// CodeGenerator produces confirmation codes.
type CodeGenerator func() (string, error)

// codeAlphabet omits 0, O, 1, I and L.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// ConfirmationCodeLength is the length of generated codes.
const ConfirmationCodeLength = 10

// NewConfirmationCode returns a random code from codeAlphabet.
func NewConfirmationCode() (string, error) {
	buf := make([]byte, ConfirmationCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate confirmation code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
