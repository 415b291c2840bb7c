// internal/core/domain/stocking.go
package domain

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Stocking recommendation texts
const (
	StockingNoData      = "No usage data available"
	StockingUnavailable = "Unable to calculate stocking score"
	StockingCritical    = "Critical — stock immediately"
	StockingHighValue   = "High value"
	StockingModerate    = "Moderate"
	StockingLowPriority = "Low priority"
	StockingDoNotStock  = "Rarely used — don't stock"
)

// Band maps a lower bound to points. Bands are evaluated highest bound first.
type Band struct {
	Min    float64 `mapstructure:"min" yaml:"min"`
	Points float64 `mapstructure:"points" yaml:"points"`
}

// RecencyBand awards points when the last use was fewer than MaxDays ago
type RecencyBand struct {
	MaxDays int     `mapstructure:"max_days" yaml:"max_days"`
	Points  float64 `mapstructure:"points" yaml:"points"`
}

// RecommendationBand maps a minimum score to a recommendation label
type RecommendationBand struct {
	MinScore float64 `mapstructure:"min_score" yaml:"min_score"`
	Label    string  `mapstructure:"label" yaml:"label"`
}

// ScoringPolicy holds every weight and threshold of the stocking score
type ScoringPolicy struct {
	FrequencyBands      []Band               `mapstructure:"frequency_bands" yaml:"frequency_bands"`
	RecencyBands        []RecencyBand        `mapstructure:"recency_bands" yaml:"recency_bands"`
	CallbackDivisor     float64              `mapstructure:"callback_divisor" yaml:"callback_divisor"`
	CallbackCap         float64              `mapstructure:"callback_cap" yaml:"callback_cap"`
	CostThreshold       float64              `mapstructure:"cost_threshold" yaml:"cost_threshold"`
	LowCostPoints       float64              `mapstructure:"low_cost_points" yaml:"low_cost_points"`
	HighCostPoints      float64              `mapstructure:"high_cost_points" yaml:"high_cost_points"`
	RecommendationBands []RecommendationBand `mapstructure:"recommendation_bands" yaml:"recommendation_bands"`
	FallbackLabel       string               `mapstructure:"fallback_label" yaml:"fallback_label"`
	MaxScore            float64              `mapstructure:"max_score" yaml:"max_score"`
}

// DefaultScoringPolicy returns the production defaults (4/2/3/1 point budget)
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		FrequencyBands: []Band{
			{Min: 4, Points: 4},
			{Min: 2, Points: 3},
			{Min: 1, Points: 2},
			{Min: 0.5, Points: 1},
		},
		RecencyBands: []RecencyBand{
			{MaxDays: 7, Points: 2},
			{MaxDays: 30, Points: 1.5},
			{MaxDays: 90, Points: 1},
		},
		CallbackDivisor: 2,
		CallbackCap:     3,
		CostThreshold:   50,
		LowCostPoints:   1,
		HighCostPoints:  0.5,
		RecommendationBands: []RecommendationBand{
			{MinScore: 9, Label: StockingCritical},
			{MinScore: 7, Label: StockingHighValue},
			{MinScore: 5, Label: StockingModerate},
			{MinScore: 3, Label: StockingLowPriority},
		},
		FallbackLabel: StockingDoNotStock,
		MaxScore:      10,
	}
}

// StockingInput is the per-part data the score is computed from
type StockingInput struct {
	TimesUsed     int
	FirstUsedAt   *time.Time
	LastUsedAt    *time.Time
	AvgCost       decimal.Decimal
	CallbackCount int
}

// StockingInputFromProfile adapts a usage profile
func StockingInputFromProfile(p PartUsageProfile) StockingInput {
	return StockingInput{
		TimesUsed:     p.TimesUsed,
		FirstUsedAt:   p.FirstUsedAt,
		LastUsedAt:    p.LastUsedAt,
		AvgCost:       p.AvgCost,
		CallbackCount: p.CallbackLinkedJobCount,
	}
}

// ScoreBreakdown holds the points earned by each component
type ScoreBreakdown struct {
	Frequency float64 `json:"frequency"`
	Recency   float64 `json:"recency"`
	FCCImpact float64 `json:"fcc_impact"`
	Cost      float64 `json:"cost"`
}

// StockingScoreResult is the composite stocking score for a part
type StockingScoreResult struct {
	Score          float64        `json:"score"`
	Breakdown      ScoreBreakdown `json:"breakdown"`
	Recommendation string         `json:"recommendation"`
}

// NoDataStockingScore is the result for a part that has never been used
func NoDataStockingScore() StockingScoreResult {
	return StockingScoreResult{Recommendation: StockingNoData}
}

// UnavailableStockingScore is the result when usage data could not be read
func UnavailableStockingScore() StockingScoreResult {
	return StockingScoreResult{Recommendation: StockingUnavailable}
}

// ScoreStocking computes the stocking score as of now
func ScoreStocking(in StockingInput, p ScoringPolicy, now time.Time) StockingScoreResult {
	if in.TimesUsed <= 0 || in.FirstUsedAt == nil {
		return NoDataStockingScore()
	}

	var b ScoreBreakdown

	daysSinceFirstUse := math.Max(1, math.Floor(now.Sub(*in.FirstUsedAt).Hours()/24))
	usesPerMonth := float64(in.TimesUsed) / daysSinceFirstUse * 30
	b.Frequency = frequencyPoints(usesPerMonth, p.FrequencyBands)

	if in.LastUsedAt != nil {
		daysSinceLastUse := int(now.Sub(*in.LastUsedAt).Hours() / 24)
		b.Recency = recencyPoints(daysSinceLastUse, p.RecencyBands)
	}

	if p.CallbackDivisor > 0 {
		b.FCCImpact = math.Min(float64(in.CallbackCount)/p.CallbackDivisor, p.CallbackCap)
	}

	if in.AvgCost.LessThan(decimal.NewFromFloat(p.CostThreshold)) {
		b.Cost = p.LowCostPoints
	} else {
		b.Cost = p.HighCostPoints
	}

	score := b.Frequency + b.Recency + b.FCCImpact + b.Cost
	if p.MaxScore > 0 {
		score = math.Min(score, p.MaxScore)
	}

	return StockingScoreResult{
		Score:          score,
		Breakdown:      b,
		Recommendation: recommendationFor(score, p),
	}
}

func frequencyPoints(usesPerMonth float64, bands []Band) float64 {
	sorted := append([]Band(nil), bands...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min > sorted[j].Min })
	for _, band := range sorted {
		if usesPerMonth >= band.Min {
			return band.Points
		}
	}
	return 0
}

func recencyPoints(days int, bands []RecencyBand) float64 {
	sorted := append([]RecencyBand(nil), bands...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MaxDays < sorted[j].MaxDays })
	for _, band := range sorted {
		if days < band.MaxDays {
			return band.Points
		}
	}
	return 0
}

func recommendationFor(score float64, p ScoringPolicy) string {
	sorted := append([]RecommendationBand(nil), p.RecommendationBands...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinScore > sorted[j].MinScore })
	for _, band := range sorted {
		if score >= band.MinScore {
			return band.Label
		}
	}
	return p.FallbackLabel
}
