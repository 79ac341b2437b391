package pkg

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	roomIDDigits = 6
	roomIDSpace  = 1_000_000
)

// GenerateSessionID - generates a unique identifier for a connection.
func GenerateSessionID() string {
	return uuid.NewString()
}

// GenerateRoomID - generates a zero-padded 6-digit room identifier.
func GenerateRoomID() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(roomIDSpace))
	if err != nil {
		return "", fmt.Errorf("failed to generate room id: %w", err)
	}

	return fmt.Sprintf("%0*d", roomIDDigits, n.Int64()), nil
}
