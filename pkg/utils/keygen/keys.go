package keygen

import (
	"crypto/rand"
	"encoding/hex"
)

// IDBytes is the entropy of agent and task identifiers; ids are twice as
// many hex characters.
const IDBytes = 8

// GenerateHexID returns n random bytes hex encoded.
func GenerateHexID(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewID generates a 16 character identifier for agents and tasks.
func NewID() (string, error) {
	return GenerateHexID(IDBytes)
}
