// Package otp generates and checks the numeric one-time codes that gate
// attempt creation. Only the hash of a code is ever persisted.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"time"
)

const (
	// Digits is the code length.
	Digits = 6
	// TTL is how long an issued code stays valid.
	TTL = 15 * time.Minute
)

var space = big.NewInt(1_000_000)

// Generate returns a uniformly distributed, zero-padded 6-digit code.
func Generate() (string, error) {
	return generate(rand.Reader)
}

func generate(r io.Reader) (string, error) {
	n, err := rand.Int(r, space)
	if err != nil {
		return "", fmt.Errorf("draw otp: %w", err)
	}
	return fmt.Sprintf("%0*d", Digits, n.Int64()), nil
}

// Hash returns the hex sha256 of code.
func Hash(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// Matches compares candidate against a stored hash in constant time.
func Matches(storedHash, candidate string) bool {
	got := Hash(candidate)
	return subtle.ConstantTimeCompare([]byte(got), []byte(storedHash)) == 1
}

// ExpiresAt returns the expiry for a code issued at now.
func ExpiresAt(now time.Time) time.Time {
	return now.Add(TTL)
}
