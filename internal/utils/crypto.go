// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

func GenerateRandomString(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}

// GenerateContractNumber derives the short display token for a
// contract from the response id and creation instant. Twelve hex chars
// of a SHA-256 digest: collision-improbable at this cardinality, not
// cryptographically unique.
func GenerateContractNumber(responseID uuid.UUID, createdAt time.Time) string {
	hasher := sha256.New()
	hasher.Write([]byte(fmt.Sprintf("%s:%d", responseID, createdAt.UnixNano())))
	digest := hex.EncodeToString(hasher.Sum(nil))
	return strings.ToUpper(digest[:12])
}

func HashString(input string) string {
	hasher := sha256.New()
	hasher.Write([]byte(input))
	return hex.EncodeToString(hasher.Sum(nil))
}
