// internal/utils/telegram.go
package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TelegramUser is the user payload embedded in Mini App init data.
type TelegramUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
}

var (
	ErrInitDataInvalid = errors.New("init data signature mismatch")
	ErrInitDataExpired = errors.New("init data is too old")
)

// ValidateInitData checks the HMAC signature of Telegram WebApp init
// data against the bot token, per the Mini Apps documentation, and
// returns the embedded user on success.
func ValidateInitData(initData, botToken string, maxAge time.Duration) (*TelegramUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("malformed init data: %w", err)
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return nil, ErrInitDataInvalid
	}
	values.Del("hash")

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}
	dataCheckString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(dataCheckString))
	wantHash := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(wantHash), []byte(gotHash)) {
		return nil, ErrInitDataInvalid
	}

	if maxAge > 0 {
		authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil {
			return nil, ErrInitDataInvalid
		}
		if time.Since(time.Unix(authDate, 0)) > maxAge {
			return nil, ErrInitDataExpired
		}
	}

	var user TelegramUser
	if raw := values.Get("user"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return nil, fmt.Errorf("malformed user payload: %w", err)
		}
	}
	if user.ID == 0 {
		return nil, ErrInitDataInvalid
	}

	return &user, nil
}

// SignInitData produces valid init data for the given user. Used by
// tests and local tooling; the production flow receives init data from
// the Telegram client.
func SignInitData(user TelegramUser, botToken string, authDate time.Time) (string, error) {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return "", err
	}

	values := url.Values{}
	values.Set("user", string(userJSON))
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode(), nil
}
