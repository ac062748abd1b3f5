package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewSessionToken returns a 256-bit random hex token for test sessions.
func NewSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
