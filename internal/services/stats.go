// internal/services/stats.go
package services

import (
	"context"

	"github.com/adspoint/adspoint-backend/internal/models"
	"github.com/adspoint/adspoint-backend/internal/utils"
)

// StatsCollector supplies the final counters at contract finalization.
// Clicks and reactions come from external trackers in production;
// tests inject fixed numbers.
type StatsCollector interface {
	CollectStats(ctx context.Context, contract *models.Contract) (PostStats, error)
}

// fetcherStatsCollector reads the view counter off the public post
// page. Clicks and reactions are zero unless a tracker integration
// fills them in, which keeps the rating conservative.
type fetcherStatsCollector struct {
	fetcher PostFetcher
}

func NewStatsCollector(fetcher PostFetcher) StatsCollector {
	return &fetcherStatsCollector{fetcher: fetcher}
}

func (c *fetcherStatsCollector) CollectStats(ctx context.Context, contract *models.Contract) (PostStats, error) {
	ref, err := utils.ParsePostURL(contract.PostURL)
	if err != nil {
		return PostStats{}, err
	}

	post, err := c.fetcher.FetchPost(ctx, ref)
	if err != nil {
		return PostStats{}, err
	}
	if !post.Reachable {
		return PostStats{}, nil
	}

	return PostStats{Views: post.Views}, nil
}
