package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashEmail creates a consistent hash for logging without exposing PII
func HashEmail(email string) string {
	hash := sha256.Sum256([]byte(email))
	return hex.EncodeToString(hash[:])[:12]
}

// HashUsername creates a consistent hash for username logging
func HashUsername(username string) string {
	hash := sha256.Sum256([]byte(username))
	return hex.EncodeToString(hash[:])[:8]
}

// NormalizeEmail is the canonical wire form of an email: trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
