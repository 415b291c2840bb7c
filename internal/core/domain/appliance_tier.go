// internal/core/domain/appliance_tier.go
package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ApplianceTier represents a brand-based labor pricing class
type ApplianceTier string

// Tier constants
const (
	TierStandard ApplianceTier = "Standard"
	TierPremium  ApplianceTier = "Premium"
	TierLuxury   ApplianceTier = "Luxury"
)

// tierMultipliers is the single source for labor multipliers
var tierMultipliers = map[ApplianceTier]decimal.Decimal{
	TierStandard: decimal.NewFromInt(1),
	TierPremium:  decimal.RequireFromString("1.25"),
	TierLuxury:   decimal.RequireFromString("1.35"),
}

// Brand lists are matched in order; the first list containing a match wins.
var (
	luxuryBrands = []string{
		"sub-zero", "wolf", "miele", "thermador", "viking",
		"gaggenau", "liebherr", "bertazzoni", "smeg",
	}
	premiumBrands = []string{
		"kitchenaid", "bosch", "samsung", "lg", "electrolux",
		"fisher & paykel", "jenn-air",
	}
)

// Multiplier returns the labor multiplier for the tier
func (t ApplianceTier) Multiplier() (decimal.Decimal, error) {
	m, ok := tierMultipliers[t]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownTier, t)
	}
	return m, nil
}

// ParseApplianceTier parses a tier label case-insensitively
func ParseApplianceTier(label string) (ApplianceTier, error) {
	for tier := range tierMultipliers {
		if strings.EqualFold(strings.TrimSpace(label), string(tier)) {
			return tier, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTier, label)
}

// TierClassification is the result of classifying an appliance brand
type TierClassification struct {
	Tier       ApplianceTier   `json:"tier"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// GetApplianceTier classifies a brand into a pricing tier. Every input maps to
// exactly one tier; unknown and empty brands are Standard.
func GetApplianceTier(brand string) TierClassification {
	normalized := strings.ToLower(strings.TrimSpace(brand))

	tier := TierStandard
	switch {
	case normalized == "":
	case containsAny(normalized, luxuryBrands):
		tier = TierLuxury
	case containsAny(normalized, premiumBrands):
		tier = TierPremium
	}

	return TierClassification{Tier: tier, Multiplier: tierMultipliers[tier]}
}

// GetLaborRate scales a base labor rate by the multiplier of the named tier
func GetLaborRate(baseRate decimal.Decimal, tierLabel string) (decimal.Decimal, error) {
	if baseRate.IsNegative() {
		return decimal.Zero, fmt.Errorf("base rate: %w", ErrNegativeAmount)
	}
	tier, err := ParseApplianceTier(tierLabel)
	if err != nil {
		return decimal.Zero, err
	}
	m, err := tier.Multiplier()
	if err != nil {
		return decimal.Zero, err
	}
	return baseRate.Mul(m), nil
}

// ApplyTierToLabor returns a copy of items with labor prices scaled by the tier
// multiplier. Non-labor items are copied unchanged.
func ApplyTierToLabor(items []LineItem, tier ApplianceTier) ([]LineItem, error) {
	m, err := tier.Multiplier()
	if err != nil {
		return nil, err
	}

	out := cloneLineItems(items)
	if m.Equal(decimal.NewFromInt(1)) {
		return out, nil
	}

	for i := range out {
		if out[i].Type != LineItemLabor {
			continue
		}
		out[i].UnitPrice = out[i].UnitPrice.Mul(m)
		out[i].Subtotal = out[i].Subtotal.Mul(m)
		if out[i].LaborRate != nil {
			rate := out[i].LaborRate.Mul(m)
			out[i].LaborRate = &rate
		}
	}
	return out, nil
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
