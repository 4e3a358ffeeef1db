// internal/utils/crypto_test.go
package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateContractNumber(t *testing.T) {
	responseID := uuid.New()
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	number := GenerateContractNumber(responseID, createdAt)
	assert.Len(t, number, 12)
	assert.Equal(t, number, GenerateContractNumber(responseID, createdAt))
	for _, r := range number {
		assert.True(t, (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F'), "char=%c", r)
	}

	// Different inputs give different tokens.
	assert.NotEqual(t, number, GenerateContractNumber(uuid.New(), createdAt))
	assert.NotEqual(t, number, GenerateContractNumber(responseID, createdAt.Add(time.Nanosecond)))
}

func TestGenerateRandomString(t *testing.T) {
	s, err := GenerateRandomString(32)
	require.NoError(t, err)
	assert.Len(t, s, 32)

	other, err := GenerateRandomString(32)
	require.NoError(t, err)
	assert.NotEqual(t, s, other)
}
