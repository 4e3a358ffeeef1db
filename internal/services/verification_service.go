// internal/services/verification_service.go
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adspoint/adspoint-backend/internal/config"
	"github.com/adspoint/adspoint-backend/internal/utils"
)

// FetchedPost is the result of fetching a public post page. Reachable
// is false when the channel or message does not exist (or was
// deleted); a transport failure is reported as an error instead.
type FetchedPost struct {
	Reachable bool
	Content   string
	Views     int
	Reason    string
}

// PostFetcher is the pluggable boundary to Telegram's public post
// pages. The production implementation scrapes t.me embeds; tests
// substitute fakes.
type PostFetcher interface {
	FetchPost(ctx context.Context, ref utils.PostRef) (*FetchedPost, error)
}

// TelegramPostFetcher fetches the ?embed=1 rendering of a public post.
type TelegramPostFetcher struct {
	client  *http.Client
	baseURL string
}

func NewTelegramPostFetcher(cfg config.TelegramConfig) *TelegramPostFetcher {
	return &TelegramPostFetcher{
		client: &http.Client{
			Timeout: time.Duration(cfg.FetchTimeout) * time.Second,
		},
		baseURL: strings.TrimSuffix(cfg.PostFetchHost, "/"),
	}
}

var (
	messageTextRe  = regexp.MustCompile(`(?s)tgme_widget_message_text[^>]*>(.*?)</div>`)
	messageViewsRe = regexp.MustCompile(`tgme_widget_message_views[^>]*>([\d.,KM]+)<`)
	tagRe          = regexp.MustCompile(`<[^>]+>`)
)

func (f *TelegramPostFetcher) FetchPost(ctx context.Context, ref utils.PostRef) (*FetchedPost, error) {
	if ref.ChannelUsername == "" {
		// Private channels have no public embed page.
		return &FetchedPost{Reachable: false, Reason: "private channel posts cannot be fetched"}, nil
	}

	url := fmt.Sprintf("%s/%s/%d?embed=1", f.baseURL, ref.ChannelUsername, ref.MessageID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build post request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; adspoint-verifier/1.0)")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch post page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &FetchedPost{Reachable: false, Reason: "channel or post not found"}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching post page", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read post page: %w", err)
	}

	html := string(body)
	if strings.Contains(html, "tgme_widget_message_error") {
		return &FetchedPost{Reachable: false, Reason: "post was deleted or is not available"}, nil
	}

	match := messageTextRe.FindStringSubmatch(html)
	if match == nil {
		return &FetchedPost{Reachable: false, Reason: "post has no readable content"}, nil
	}

	content := tagRe.ReplaceAllString(match[1], " ")
	content = strings.Join(strings.Fields(content), " ")

	post := &FetchedPost{Reachable: true, Content: content}
	if viewsMatch := messageViewsRe.FindStringSubmatch(html); viewsMatch != nil {
		post.Views = parseViewCount(viewsMatch[1])
	}

	return post, nil
}

func parseViewCount(raw string) int {
	raw = strings.ReplaceAll(raw, ",", "")
	multiplier := 1.0
	if strings.HasSuffix(raw, "K") {
		multiplier = 1000
		raw = strings.TrimSuffix(raw, "K")
	} else if strings.HasSuffix(raw, "M") {
		multiplier = 1000000
		raw = strings.TrimSuffix(raw, "M")
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return int(value * multiplier)
}

// VerificationService scores a fetched post against the offer
// description. The match rule is a keyword-overlap heuristic: at least
// half of the first five significant description words must appear in
// the post.
type VerificationService struct {
	fetcher PostFetcher
}

type VerificationResult struct {
	Passed       bool
	MatchPercent float64
	Reason       string
	Views        int
}

func NewVerificationService(fetcher PostFetcher) *VerificationService {
	return &VerificationService{fetcher: fetcher}
}

const (
	matchThresholdPercent = 50.0
	significantWordCount  = 5
	significantWordMinLen = 4
)

func (s *VerificationService) VerifyPost(ctx context.Context, ref utils.PostRef, expectedContent string) (*VerificationResult, error) {
	post, err := s.fetcher.FetchPost(ctx, ref)
	if err != nil {
		return nil, err
	}

	if !post.Reachable {
		return &VerificationResult{Passed: false, Reason: post.Reason}, nil
	}

	if strings.TrimSpace(expectedContent) == "" {
		return &VerificationResult{Passed: true, MatchPercent: 100, Views: post.Views}, nil
	}

	percent := MatchPercent(expectedContent, post.Content)
	result := &VerificationResult{
		MatchPercent: percent,
		Views:        post.Views,
	}

	if percent >= matchThresholdPercent {
		result.Passed = true
	} else {
		result.Reason = fmt.Sprintf("content match %.0f%% is below the %.0f%% threshold", percent, matchThresholdPercent)
	}

	return result, nil
}

// CheckAvailability probes whether the post is still live. Transport
// failures are returned as errors so the sweep can retry later instead
// of penalizing the publisher for our own connectivity.
func (s *VerificationService) CheckAvailability(ctx context.Context, ref utils.PostRef) (bool, error) {
	post, err := s.fetcher.FetchPost(ctx, ref)
	if err != nil {
		return false, err
	}
	if !post.Reachable {
		logrus.WithFields(logrus.Fields{
			"channel": ref.ChannelIdentifier(),
			"message": ref.MessageID,
			"reason":  post.Reason,
		}).Info("Post availability probe: post not reachable")
	}
	return post.Reachable, nil
}

// MatchPercent computes the keyword-overlap score between the expected
// description and the published content.
func MatchPercent(expected, actual string) float64 {
	keywords := significantWords(expected)
	if len(keywords) == 0 {
		return 100
	}

	haystack := strings.ToLower(actual)
	matched := 0
	for _, word := range keywords {
		if strings.Contains(haystack, word) {
			matched++
		}
	}

	return float64(matched) / float64(len(keywords)) * 100
}

func significantWords(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})

	significant := make([]string, 0, significantWordCount)
	for _, w := range words {
		if len([]rune(w)) >= significantWordMinLen {
			significant = append(significant, w)
			if len(significant) == significantWordCount {
				break
			}
		}
	}
	return significant
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || (r >= 'а' && r <= 'я') || (r >= 'А' && r <= 'Я') || r == 'ё' || r == 'Ё'
}
