// internal/services/verification_service_test.go
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adspoint/adspoint-backend/internal/config"
	"github.com/adspoint/adspoint-backend/internal/utils"
)

func TestMatchPercent(t *testing.T) {
	cases := []struct {
		name     string
		expected string
		actual   string
		want     float64
	}{
		{"full match", "Promote our productivity application launch", "We promote our productivity application at launch", 100},
		{"case insensitive", "PROMOTE productivity LAUNCH", "promote Productivity launch", 100},
		{"partial match", "promote productivity application launch discount", "promote productivity post", 40},
		{"no significant words passes", "a an of to", "anything at all", 100},
		{"cyrillic keywords", "скидка запуск приложение", "большая скидка на запуск приложение", 100},
		{"no overlap", "promote productivity application", "cats and dogs", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, MatchPercent(tc.expected, tc.actual), 0.01)
		})
	}
}

func TestVerifyPostOutcomes(t *testing.T) {
	fetcher := newFakeFetcher()
	svc := NewVerificationService(fetcher)
	ref := utils.PostRef{ChannelUsername: "somechannel", MessageID: 7}

	// Matching content passes.
	fetcher.setPost(ref, &FetchedPost{
		Reachable: true,
		Content:   "Promote our productivity application, launch discount inside",
		Views:     500,
	})
	result, err := svc.VerifyPost(context.Background(), ref, "Promote our productivity application launch discount")
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Equal(t, 500, result.Views)

	// Unrelated content fails with a reason.
	fetcher.setPost(ref, &FetchedPost{Reachable: true, Content: "weather report"})
	result, err = svc.VerifyPost(context.Background(), ref, "Promote our productivity application launch discount")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.NotEmpty(t, result.Reason)

	// An unreachable post fails and carries the fetch reason.
	fetcher.setPost(ref, &FetchedPost{Reachable: false, Reason: "post was deleted"})
	result, err = svc.VerifyPost(context.Background(), ref, "anything")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Equal(t, "post was deleted", result.Reason)

	// An empty expected content auto-passes any live post.
	fetcher.setPost(ref, &FetchedPost{Reachable: true, Content: "whatever"})
	result, err = svc.VerifyPost(context.Background(), ref, "   ")
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.InDelta(t, 100.0, result.MatchPercent, 0.001)
}

func TestCheckAvailabilityPropagatesTransportErrors(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.err = context.DeadlineExceeded
	svc := NewVerificationService(fetcher)

	_, err := svc.CheckAvailability(context.Background(), utils.PostRef{ChannelUsername: "x", MessageID: 1})
	require.Error(t, err)
}

func embedPage(text, views string) string {
	page := `<html><body><div class="tgme_widget_message_text js-message_text" dir="auto">` +
		text + `</div>`
	if views != "" {
		page += `<span class="tgme_widget_message_views">` + views + `</span>`
	}
	return page + `</body></html>`
}

func TestTelegramPostFetcher(t *testing.T) {
	pages := map[string]string{
		"/mychannel/10?embed=1": embedPage("Hello <b>world</b> from the channel", "12.3K"),
		"/mychannel/11?embed=1": `<div class="tgme_widget_message_error">Post not found</div>`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path+"?"+r.URL.RawQuery]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, page)
	}))
	defer server.Close()

	fetcher := NewTelegramPostFetcher(config.TelegramConfig{
		PostFetchHost: server.URL,
		FetchTimeout:  5,
	})

	post, err := fetcher.FetchPost(context.Background(), utils.PostRef{ChannelUsername: "mychannel", MessageID: 10})
	require.NoError(t, err)
	assert.True(t, post.Reachable)
	assert.Equal(t, "Hello world from the channel", post.Content)
	assert.Equal(t, 12300, post.Views)

	post, err = fetcher.FetchPost(context.Background(), utils.PostRef{ChannelUsername: "mychannel", MessageID: 11})
	require.NoError(t, err)
	assert.False(t, post.Reachable)

	post, err = fetcher.FetchPost(context.Background(), utils.PostRef{ChannelUsername: "missing", MessageID: 1})
	require.NoError(t, err)
	assert.False(t, post.Reachable)

	// Private channel references have no public page to scrape.
	post, err = fetcher.FetchPost(context.Background(), utils.PostRef{ChannelInternalID: 123456, MessageID: 5})
	require.NoError(t, err)
	assert.False(t, post.Reachable)
}

func TestParseViewCount(t *testing.T) {
	cases := map[string]int{
		"123":   123,
		"1,234": 1234,
		"12.3K": 12300,
		"4K":    4000,
		"1.2M":  1200000,
		"junk":  0,
	}
	for raw, want := range cases {
		assert.Equal(t, want, parseViewCount(raw), "raw=%s", raw)
	}
}
