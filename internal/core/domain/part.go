// internal/core/domain/part.go
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrPartNotFound is returned when a part number has no record
var ErrPartNotFound = errors.New("part not found")

// Part is an inventory record for a stocked or orderable part
type Part struct {
	PartNumber             string          `json:"part_number"`
	Description            string          `json:"description"`
	AvgCost                decimal.Decimal `json:"avg_cost"`
	QuantityOnHand         int             `json:"quantity_on_hand"`
	MinStock               int             `json:"min_stock"`
	ManualMinStock         *int            `json:"manual_min_stock,omitempty"`
	AutoReplenish          bool            `json:"auto_replenish"`
	StockingScore          *float64        `json:"stocking_score,omitempty"`
	StockingRecommendation string          `json:"stocking_recommendation,omitempty"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// HasManualOverride reports whether a technician pinned the min stock level
func (p *Part) HasManualOverride() bool {
	return p.ManualMinStock != nil
}

// Validate performs domain validation on the part
func (p *Part) Validate() error {
	if p.PartNumber == "" {
		return fmt.Errorf("part_number is required")
	}
	if p.AvgCost.IsNegative() {
		return fmt.Errorf("avg_cost: %w", ErrNegativeAmount)
	}
	if p.MinStock < 0 {
		return fmt.Errorf("min_stock: %w", ErrNegativeAmount)
	}
	if p.ManualMinStock != nil && *p.ManualMinStock < 0 {
		return fmt.Errorf("manual_min_stock: %w", ErrNegativeAmount)
	}
	return nil
}

// UsageTransaction records a part consumed on a job
type UsageTransaction struct {
	ID         uuid.UUID       `json:"id"`
	PartNumber string          `json:"part_number"`
	JobID      string          `json:"job_id"`
	Quantity   int             `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	UsedAt     time.Time       `json:"used_at"`
}

// PartUsageProfile summarizes a part's usage history for the recommenders.
// The usage window is owned by whoever builds the profile.
type PartUsageProfile struct {
	PartNumber                    string          `json:"part_number"`
	UsageCountInWindow            int             `json:"usage_count_in_window"`
	FirstUsedAt                   *time.Time      `json:"first_used_at,omitempty"`
	LastUsedAt                    *time.Time      `json:"last_used_at,omitempty"`
	TimesUsed                     int             `json:"times_used"`
	AvgCost                       decimal.Decimal `json:"avg_cost"`
	PreferredSupplierLeadTimeDays *int            `json:"preferred_supplier_lead_time_days,omitempty"`
	CallbackLinkedJobCount        int             `json:"callback_linked_job_count"`
}

// BuildUsageProfile folds a part record and its transactions into a profile.
// Each transaction counts as one use regardless of quantity.
func BuildUsageProfile(part *Part, txs []UsageTransaction, leadTimeDays *int, callbackCount int) PartUsageProfile {
	profile := PartUsageProfile{
		UsageCountInWindow:            len(txs),
		TimesUsed:                     len(txs),
		PreferredSupplierLeadTimeDays: leadTimeDays,
		CallbackLinkedJobCount:        callbackCount,
	}
	if part != nil {
		profile.PartNumber = part.PartNumber
		profile.AvgCost = part.AvgCost
	}

	for i := range txs {
		used := txs[i].UsedAt
		if profile.FirstUsedAt == nil || used.Before(*profile.FirstUsedAt) {
			t := used
			profile.FirstUsedAt = &t
		}
		if profile.LastUsedAt == nil || used.After(*profile.LastUsedAt) {
			t := used
			profile.LastUsedAt = &t
		}
		if profile.PartNumber == "" {
			profile.PartNumber = txs[i].PartNumber
		}
	}
	return profile
}

// PartSupplier links a part to a supplier and its quoted lead time
type PartSupplier struct {
	PartNumber   string `json:"part_number"`
	SupplierName string `json:"supplier_name"`
	LeadTimeDays int    `json:"lead_time_days"`
	IsPreferred  bool   `json:"is_preferred"`
}

// Job is the minimal view of a service job the usage history references
type Job struct {
	ID             string         `json:"id"`
	IsCallback     bool           `json:"is_callback"`
	CallbackReason CallbackReason `json:"callback_reason,omitempty"`
	ApplianceBrand string         `json:"appliance_brand,omitempty"`
	CompletedAt    time.Time      `json:"completed_at"`
}
