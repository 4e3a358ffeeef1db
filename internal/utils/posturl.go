// internal/utils/posturl.go
package utils

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

var ErrInvalidPostURL = errors.New("invalid post URL format")

// PostRef identifies a published Telegram post. For public channels
// ChannelUsername is set; for private channels ChannelInternalID
// carries the numeric id from the /c/ form.
type PostRef struct {
	ChannelUsername   string
	ChannelInternalID int64
	MessageID         int64
}

func (r PostRef) ChannelIdentifier() string {
	if r.ChannelUsername != "" {
		return r.ChannelUsername
	}
	return strconv.FormatInt(r.ChannelInternalID, 10)
}

// ParsePostURL accepts the two shapes Telegram uses for post links:
// https://t.me/<channel>/<message_id> and
// https://t.me/c/<internal_id>/<message_id>.
func ParsePostURL(raw string) (PostRef, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return PostRef{}, ErrInvalidPostURL
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return PostRef{}, ErrInvalidPostURL
	}

	host := strings.ToLower(u.Hostname())
	if host != "t.me" && host != "telegram.me" {
		return PostRef{}, ErrInvalidPostURL
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch len(parts) {
	case 2:
		// t.me/<channel>/<id>
		channel := parts[0]
		if channel == "" || channel == "c" || !isValidChannelName(channel) {
			return PostRef{}, ErrInvalidPostURL
		}
		messageID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || messageID <= 0 {
			return PostRef{}, ErrInvalidPostURL
		}
		return PostRef{ChannelUsername: channel, MessageID: messageID}, nil

	case 3:
		// t.me/c/<internal_id>/<id>
		if parts[0] != "c" {
			return PostRef{}, ErrInvalidPostURL
		}
		internalID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || internalID <= 0 {
			return PostRef{}, ErrInvalidPostURL
		}
		messageID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || messageID <= 0 {
			return PostRef{}, ErrInvalidPostURL
		}
		return PostRef{ChannelInternalID: internalID, MessageID: messageID}, nil
	}

	return PostRef{}, ErrInvalidPostURL
}

func isValidChannelName(name string) bool {
	if len(name) < 3 || len(name) > 64 {
		return false
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}
