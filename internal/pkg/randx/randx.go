/*
Package randx provides functions for generating cryptographically secure random
tokens and unique identifiers.

It is primarily used to generate opaque session tokens and per-connection IDs
for the real-time relay.
*/
package randx

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// SessionTokenBytes is the number of random bytes in a session token.
// The token string is twice this length after hex encoding.
const SessionTokenBytes = 64

// SessionToken generates an opaque session token using a cryptographically
// secure random number generator (crypto/rand). It returns the hex-encoded
// token string and any error encountered.
func SessionToken() (string, error) {
	raw := make([]byte, SessionTokenBytes)

	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random bytes for session token: %v", err)
	}

	return hex.EncodeToString(raw), nil
}

// ConnectionID generates a standard UUID v4 string to serve as a unique
// identifier for a relay connection.
func ConnectionID() string {
	return uuid.New().String()
}
