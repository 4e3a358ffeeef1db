// internal/utils/posturl_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePostURLPublicChannel(t *testing.T) {
	ref, err := ParsePostURL("https://t.me/some_channel/1234")
	require.NoError(t, err)
	assert.Equal(t, "some_channel", ref.ChannelUsername)
	assert.EqualValues(t, 1234, ref.MessageID)
	assert.Equal(t, "some_channel", ref.ChannelIdentifier())
}

func TestParsePostURLPrivateChannel(t *testing.T) {
	ref, err := ParsePostURL("https://t.me/c/1234567890/42")
	require.NoError(t, err)
	assert.Empty(t, ref.ChannelUsername)
	assert.EqualValues(t, 1234567890, ref.ChannelInternalID)
	assert.EqualValues(t, 42, ref.MessageID)
	assert.Equal(t, "1234567890", ref.ChannelIdentifier())
}

func TestParsePostURLAcceptsTelegramMeAndWhitespace(t *testing.T) {
	ref, err := ParsePostURL("  https://telegram.me/some_channel/7 ")
	require.NoError(t, err)
	assert.Equal(t, "some_channel", ref.ChannelUsername)
	assert.EqualValues(t, 7, ref.MessageID)
}

func TestParsePostURLRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"not a url",
		"ftp://t.me/chan/1",
		"https://example.com/chan/1",
		"https://t.me/some_channel",
		"https://t.me/some_channel/0",
		"https://t.me/some_channel/-5",
		"https://t.me/some_channel/abc",
		"https://t.me/c/notanumber/5",
		"https://t.me/c/123",
		"https://t.me/ab/5",
		"https://t.me/bad name/5",
		"https://t.me/c/123/5/extra",
	}
	for _, raw := range bad {
		_, err := ParsePostURL(raw)
		assert.ErrorIs(t, err, ErrInvalidPostURL, "url=%q", raw)
	}
}
