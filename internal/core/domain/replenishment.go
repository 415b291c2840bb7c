// internal/core/domain/replenishment.go
package domain

import (
	"github.com/shopspring/decimal"
)

// Confidence grades how much usage data backs a recommendation
type Confidence string

// Confidence constants
const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// ReplenishmentPolicy holds the tunables of the min-stock recommender
type ReplenishmentPolicy struct {
	WindowDays               int     `mapstructure:"window_days" yaml:"window_days"`
	ReorderCycleDays         int     `mapstructure:"reorder_cycle_days" yaml:"reorder_cycle_days"`
	DefaultLeadTimeDays      int     `mapstructure:"default_lead_time_days" yaml:"default_lead_time_days"`
	CallbackThreshold        int     `mapstructure:"callback_threshold" yaml:"callback_threshold"`
	HighCallbackMultiplier   float64 `mapstructure:"high_callback_multiplier" yaml:"high_callback_multiplier"`
	BaseCallbackMultiplier   float64 `mapstructure:"base_callback_multiplier" yaml:"base_callback_multiplier"`
	HighConfidenceMinUsage   int     `mapstructure:"high_confidence_min_usage" yaml:"high_confidence_min_usage"`
	MediumConfidenceMinUsage int     `mapstructure:"medium_confidence_min_usage" yaml:"medium_confidence_min_usage"`
}

// DefaultReplenishmentPolicy returns the production defaults
func DefaultReplenishmentPolicy() ReplenishmentPolicy {
	return ReplenishmentPolicy{
		WindowDays:               90,
		ReorderCycleDays:         7,
		DefaultLeadTimeDays:      3,
		CallbackThreshold:        2,
		HighCallbackMultiplier:   1.5,
		BaseCallbackMultiplier:   1.2,
		HighConfidenceMinUsage:   10,
		MediumConfidenceMinUsage: 3,
	}
}

// MinStockInput is the data the recommender needs for one part
type MinStockInput struct {
	UsageCount    int
	LeadTimeDays  *int
	CallbackCount int
}

// MinStockReasoning explains how a recommendation was derived
type MinStockReasoning struct {
	UsageRate  float64 `json:"usage_rate"`
	LeadTime   int     `json:"lead_time"`
	OrderCycle int     `json:"order_cycle"`
	FCCImpact  float64 `json:"fcc_impact"`
	DataPoints int     `json:"data_points"`
}

// MinStockRecommendation is the safety stock suggestion for a part
type MinStockRecommendation struct {
	Value      int               `json:"value"`
	Confidence Confidence        `json:"confidence"`
	Reasoning  MinStockReasoning `json:"reasoning"`
}

// AutoApplicable reports whether the recommendation is trusted enough to persist
func (r MinStockRecommendation) AutoApplicable() bool {
	return r.Confidence == ConfidenceHigh || r.Confidence == ConfidenceMedium
}

// FallbackMinStock is returned when usage data could not be read
func FallbackMinStock() MinStockRecommendation {
	return MinStockRecommendation{Value: 1, Confidence: ConfidenceLow}
}

// RecommendMinStock computes a min stock level from usage over the policy window
func RecommendMinStock(in MinStockInput, p ReplenishmentPolicy) MinStockRecommendation {
	window := p.WindowDays
	if window <= 0 {
		window = 1
	}

	leadTime := p.DefaultLeadTimeDays
	if in.LeadTimeDays != nil {
		leadTime = *in.LeadTimeDays
	}
	cycleDays := leadTime + p.ReorderCycleDays

	multiplier := p.BaseCallbackMultiplier
	if in.CallbackCount > p.CallbackThreshold {
		multiplier = p.HighCallbackMultiplier
	}

	// usage/window*30 per month, /30*cycle per cycle; folded into one division
	// so whole-number results do not pick up float error before the ceiling.
	usage := decimal.NewFromInt(int64(in.UsageCount))
	days := decimal.NewFromInt(int64(window))
	avgUsesPerMonth, _ := usage.Mul(decimal.NewFromInt(30)).Div(days).Float64()
	expected := usage.
		Mul(decimal.NewFromInt(int64(cycleDays))).
		Mul(decimal.NewFromFloat(multiplier)).
		Div(days)

	value := int(expected.Ceil().IntPart())
	if value < 1 {
		value = 1
	}

	confidence := ConfidenceLow
	switch {
	case in.UsageCount > p.HighConfidenceMinUsage:
		confidence = ConfidenceHigh
	case in.UsageCount > p.MediumConfidenceMinUsage:
		confidence = ConfidenceMedium
	}

	return MinStockRecommendation{
		Value:      value,
		Confidence: confidence,
		Reasoning: MinStockReasoning{
			UsageRate:  avgUsesPerMonth,
			LeadTime:   leadTime,
			OrderCycle: p.ReorderCycleDays,
			FCCImpact:  multiplier,
			DataPoints: in.UsageCount,
		},
	}
}
