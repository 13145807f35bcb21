package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const keyPrefix = "cn_live_"

// GenerateAPIKey creates a random API key and the SHA256 hash we store.
// The raw key is shown to the user exactly once.
func GenerateAPIKey() (realKey, keyHash string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	realKey = keyPrefix + hex.EncodeToString(bytes)
	return realKey, HashKey(realKey), nil
}

// HashKey returns the hex SHA256 of a raw API key.
func HashKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// ValidateKey checks a raw key against a stored hash in constant time.
func ValidateKey(providedKey, storedHash string) bool {
	computed := HashKey(providedKey)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
