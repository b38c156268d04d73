// Package security derives and verifies the salted PIN credential
// stored in place of a plaintext PIN. The blob layout is
// hex(salt || key): a 16-byte random salt followed by a 32-byte
// PBKDF2-HMAC-SHA256 key at 100,000 iterations.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength = 16
	keyLength  = 32
	iterations = 100_000
)

// HashPIN derives a fresh credential blob for the given PIN. Two calls
// with the same PIN produce different blobs (distinct salts) that both
// verify.
func HashPIN(pin string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := pbkdf2.Key([]byte(pin), salt, iterations, keyLength, sha256.New)
	return hex.EncodeToString(append(salt, key...)), nil
}

// VerifyPIN reports whether pin matches the stored credential blob.
// A malformed blob (bad hex, wrong length) verifies false; it never
// panics and never returns an error to the caller.
func VerifyPIN(pin, blob string) bool {
	raw, err := hex.DecodeString(blob)
	if err != nil || len(raw) != saltLength+keyLength {
		return false
	}

	salt, expected := raw[:saltLength], raw[saltLength:]
	key := pbkdf2.Key([]byte(pin), salt, iterations, keyLength, sha256.New)
	return subtle.ConstantTimeCompare(key, expected) == 1
}
