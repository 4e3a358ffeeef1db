// internal/services/settlement.go
package services

import (
	"math"

	"github.com/adspoint/adspoint-backend/internal/config"
	"github.com/adspoint/adspoint-backend/internal/models"
)

// PostStats are the raw counters collected at finalization.
type PostStats struct {
	Views     int `json:"views"`
	Clicks    int `json:"clicks"`
	Reactions int `json:"reactions"`
}

// Performance holds the derived metrics and the categorical rating.
type Performance struct {
	CTR          float64                  `json:"ctr"`
	Engagement   float64                  `json:"engagement"`
	CostPerClick float64                  `json:"cost_per_click"`
	Rating       models.PerformanceRating `json:"rating"`
}

// Settlement is the payout breakdown for a completed contract.
// NetPayout + Commission always equals BaseAmount + Bonus.
type Settlement struct {
	BaseAmount float64 `json:"base_amount"`
	Commission float64 `json:"commission"`
	Bonus      float64 `json:"bonus"`
	NetPayout  float64 `json:"net_payout"`
}

// ComputePerformance derives CTR, engagement and cost per click from
// the collected counters. Rating thresholds are strict: a CTR of
// exactly 2.0 is "good", not "excellent".
func ComputePerformance(stats PostStats, cost float64) Performance {
	p := Performance{Rating: models.PerformanceRatingPoor}

	if stats.Views > 0 {
		p.CTR = float64(stats.Clicks) / float64(stats.Views) * 100
		p.Engagement = float64(stats.Reactions) / float64(stats.Views) * 100
	}
	if stats.Clicks > 0 {
		p.CostPerClick = cost / float64(stats.Clicks)
	}

	switch {
	case p.CTR > 2.0:
		p.Rating = models.PerformanceRatingExcellent
	case p.CTR > 1.0:
		p.Rating = models.PerformanceRatingGood
	case p.CTR > 0.5:
		p.Rating = models.PerformanceRatingAverage
	}

	return p
}

// ComputeSettlement splits the base amount into commission, bonus and
// the publisher's net payout.
func ComputeSettlement(baseAmount float64, rating models.PerformanceRating, cfg config.ContractConfig) Settlement {
	s := Settlement{BaseAmount: baseAmount}

	s.Commission = roundMoney(baseAmount * cfg.CommissionPercent / 100)

	switch rating {
	case models.PerformanceRatingExcellent:
		s.Bonus = roundMoney(baseAmount * cfg.ExcellentBonusPercent / 100)
	case models.PerformanceRatingGood:
		s.Bonus = roundMoney(baseAmount * cfg.GoodBonusPercent / 100)
	}

	s.NetPayout = roundMoney(baseAmount - s.Commission + s.Bonus)
	return s
}

// ComputeEarlyDeletionPenalty returns the penalty amount and the rate
// it was computed at. The rate grows with how much of the placement
// window was still outstanding when the post disappeared, clamped to
// [PenaltyBaseRate, PenaltyCapRate].
func ComputeEarlyDeletionPenalty(fundsReserved, hoursRemaining float64, cfg config.ContractConfig) (amount, rate float64) {
	if hoursRemaining < 0 {
		hoursRemaining = 0
	}

	rate = cfg.PenaltyBaseRate + hoursRemaining/24
	if rate > cfg.PenaltyCapRate {
		rate = cfg.PenaltyCapRate
	}
	if rate < cfg.PenaltyBaseRate {
		rate = cfg.PenaltyBaseRate
	}

	return roundMoney(fundsReserved * rate), rate
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
