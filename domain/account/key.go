package account

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Key format: "sk_live_" followed by 32 lowercase hex characters.
const (
	KeyScheme       = "sk_live_"
	keyRandomBytes  = 16
	KeyLength       = len(KeyScheme) + keyRandomBytes*2
	KeyPrefixLength = 12
)

// GenerateKey creates a new raw API key plus the bcrypt hash and lookup
// prefix stored in its place. The raw key is shown to the caller once
// and never persisted.
func GenerateKey() (raw, prefix, hash string, err error) {
	buf := make([]byte, keyRandomBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", "", fmt.Errorf("generate key: %w", err)
	}
	raw = KeyScheme + hex.EncodeToString(buf)

	h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", "", "", fmt.Errorf("hash key: %w", err)
	}
	return raw, raw[:KeyPrefixLength], string(h), nil
}

// ValidKeyFormat reports whether raw looks like a key this service
// issued. Checked before any store lookup so malformed tokens never
// reach the database.
func ValidKeyFormat(raw string) bool {
	if len(raw) != KeyLength || !strings.HasPrefix(raw, KeyScheme) {
		return false
	}
	for _, c := range raw[len(KeyScheme):] {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// LookupPrefix returns the index prefix for a raw key. Callers must
// validate the format first.
func LookupPrefix(raw string) string {
	if len(raw) < KeyPrefixLength {
		return raw
	}
	return raw[:KeyPrefixLength]
}

// VerifyKey reports whether raw matches the stored bcrypt hash.
func VerifyKey(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
