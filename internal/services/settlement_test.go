// internal/services/settlement_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adspoint/adspoint-backend/internal/models"
)

func TestComputePerformanceRatingThresholds(t *testing.T) {
	cases := []struct {
		name   string
		views  int
		clicks int
		want   models.PerformanceRating
	}{
		{"above two percent is excellent", 1000, 25, models.PerformanceRatingExcellent},
		{"exactly two percent is good, not excellent", 1000, 20, models.PerformanceRatingGood},
		{"above one percent is good", 1000, 15, models.PerformanceRatingGood},
		{"exactly one percent is average", 1000, 10, models.PerformanceRatingAverage},
		{"above half percent is average", 1000, 6, models.PerformanceRatingAverage},
		{"exactly half percent is poor", 1000, 5, models.PerformanceRatingPoor},
		{"zero views is poor", 0, 0, models.PerformanceRatingPoor},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := ComputePerformance(PostStats{Views: tc.views, Clicks: tc.clicks}, 100)
			assert.Equal(t, tc.want, p.Rating)
		})
	}
}

func TestComputePerformanceMetrics(t *testing.T) {
	p := ComputePerformance(PostStats{Views: 2000, Clicks: 50, Reactions: 100}, 500)

	assert.InDelta(t, 2.5, p.CTR, 0.001)
	assert.InDelta(t, 5.0, p.Engagement, 0.001)
	assert.InDelta(t, 10.0, p.CostPerClick, 0.001)
	assert.Equal(t, models.PerformanceRatingExcellent, p.Rating)
}

func TestComputeSettlementArithmetic(t *testing.T) {
	cfg := testConfig().Contract

	for _, rating := range []models.PerformanceRating{
		models.PerformanceRatingExcellent,
		models.PerformanceRatingGood,
		models.PerformanceRatingAverage,
		models.PerformanceRatingPoor,
	} {
		t.Run(string(rating), func(t *testing.T) {
			s := ComputeSettlement(10000, rating, cfg)

			// net_payout + commission == base_amount + bonus
			assert.InDelta(t, s.BaseAmount+s.Bonus, s.NetPayout+s.Commission, 0.01)
			assert.InDelta(t, 500.0, s.Commission, 0.001)
		})
	}

	excellent := ComputeSettlement(10000, models.PerformanceRatingExcellent, cfg)
	assert.InDelta(t, 200.0, excellent.Bonus, 0.001)
	assert.InDelta(t, 9700.0, excellent.NetPayout, 0.001)

	good := ComputeSettlement(10000, models.PerformanceRatingGood, cfg)
	assert.InDelta(t, 100.0, good.Bonus, 0.001)

	poor := ComputeSettlement(10000, models.PerformanceRatingPoor, cfg)
	assert.Zero(t, poor.Bonus)
	assert.InDelta(t, 9500.0, poor.NetPayout, 0.001)
}

func TestComputeEarlyDeletionPenaltyBounds(t *testing.T) {
	cfg := testConfig().Contract

	// The rate must stay within [0.20, 0.50] no matter how early or
	// late the deletion happened.
	for _, hours := range []float64{-5, 0, 1, 6, 7.2, 12, 24, 100} {
		_, rate := ComputeEarlyDeletionPenalty(10000, hours, cfg)
		assert.GreaterOrEqual(t, rate, 0.20, "hours=%v", hours)
		assert.LessOrEqual(t, rate, 0.50, "hours=%v", hours)
	}

	amount, rate := ComputeEarlyDeletionPenalty(10000, 0, cfg)
	assert.InDelta(t, 0.20, rate, 0.001)
	assert.InDelta(t, 2000.0, amount, 0.001)

	amount, rate = ComputeEarlyDeletionPenalty(10000, 6, cfg)
	assert.InDelta(t, 0.45, rate, 0.001)
	assert.InDelta(t, 4500.0, amount, 0.001)

	amount, rate = ComputeEarlyDeletionPenalty(10000, 24, cfg)
	assert.InDelta(t, 0.50, rate, 0.001)
	assert.InDelta(t, 5000.0, amount, 0.001)
}
