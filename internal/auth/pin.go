// Package auth holds PIN hashing and token generation for gallery access.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

const (
	// bcryptCost matches the cost the stored gallery hashes were created with.
	bcryptCost = 12

	tokenBytes = 32
	// TokenLength is the length of access and session tokens in hex characters.
	TokenLength = 2 * tokenBytes
)

var (
	tokenPattern  = regexp.MustCompile(`^[a-f0-9]{64}$`)
	pinPattern    = regexp.MustCompile(`^\d{4,8}$`)
	submitPattern = regexp.MustCompile(`^\d{4,12}$`)
)

// HashPin hashes a PIN for storage.
func HashPin(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pin: %w", err)
	}
	return string(hash), nil
}

// VerifyPin compares a submitted PIN against a stored bcrypt hash.
func VerifyPin(pin, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

// NewToken generates a 256-bit random token rendered as 64 lowercase hex
// characters. Used for both gallery access tokens and session tokens.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ValidToken reports whether s has the exact access/session token format.
// Callers reject malformed tokens before any database lookup.
func ValidToken(s string) bool {
	return tokenPattern.MatchString(s)
}

// ValidPin reports whether s is an acceptable PIN to set (4-8 digits).
func ValidPin(s string) bool {
	return pinPattern.MatchString(s)
}

// ValidPinSubmission reports whether s is acceptable as a submitted PIN.
// Slightly wider than ValidPin so rotated-away longer PINs still reach the
// hash comparison instead of failing with a format error.
func ValidPinSubmission(s string) bool {
	return submitPattern.MatchString(s)
}
