// internal/utils/telegram_test.go
package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "1234567:test-bot-token"

func TestValidateInitDataRoundTrip(t *testing.T) {
	user := TelegramUser{
		ID:           987654321,
		FirstName:    "Alice",
		Username:     "alice",
		LanguageCode: "ru",
	}

	initData, err := SignInitData(user, testBotToken, time.Now())
	require.NoError(t, err)

	got, err := ValidateInitData(initData, testBotToken, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "ru", got.LanguageCode)
}

func TestValidateInitDataWrongToken(t *testing.T) {
	initData, err := SignInitData(TelegramUser{ID: 1}, testBotToken, time.Now())
	require.NoError(t, err)

	_, err = ValidateInitData(initData, "another-token", time.Hour)
	assert.ErrorIs(t, err, ErrInitDataInvalid)
}

func TestValidateInitDataExpired(t *testing.T) {
	initData, err := SignInitData(TelegramUser{ID: 1}, testBotToken, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = ValidateInitData(initData, testBotToken, time.Hour)
	assert.ErrorIs(t, err, ErrInitDataExpired)

	// With no max age the stale payload is still accepted.
	_, err = ValidateInitData(initData, testBotToken, 0)
	assert.NoError(t, err)
}

func TestValidateInitDataTampered(t *testing.T) {
	initData, err := SignInitData(TelegramUser{ID: 42, Username: "alice"}, testBotToken, time.Now())
	require.NoError(t, err)

	tampered := strings.Replace(initData, "alice", "eve00", 1)
	require.NotEqual(t, initData, tampered)

	_, err = ValidateInitData(tampered, testBotToken, time.Hour)
	assert.ErrorIs(t, err, ErrInitDataInvalid)
}

func TestValidateInitDataMissingHash(t *testing.T) {
	_, err := ValidateInitData("user=%7B%22id%22%3A1%7D&auth_date=123", testBotToken, time.Hour)
	assert.ErrorIs(t, err, ErrInitDataInvalid)
}
