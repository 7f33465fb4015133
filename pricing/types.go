/*
Package pricing computes NDIS Specialist Disability Accommodation (SDA)
funding and the participant's Maximum Reasonable Rent Contribution (MRRC).

PURPOSE:
  Both calculators are pure functions over a published rate table. Amounts in
  and out of this package are dollars held as decimal.Decimal, rounded to two
  decimal places at each step exactly where the published formulas round.

KEY CONCEPTS:
  - BuildingType x DesignCategory selects a base annual rate
  - Supplements (OOA, breakout room, fire sprinklers) add to the base
  - Location factor scales the subtotal for regional cost
  - MRRC = 25% DSP + 25% Pension Supplement + 100% CRA, per fortnight

SEE ALSO:
  - tables.go: 2025-26 rate table and MRRC rates
  - loader.go: JSON rate-table overrides
  - claims/generator.go: main consumer
*/
package pricing

import "github.com/shopspring/decimal"

// =============================================================================
// ENUMS
// =============================================================================

// BuildingType is the SDA dwelling type.
type BuildingType string

const (
	House2Residents BuildingType = "house_2_residents"
	House3Residents BuildingType = "house_3_residents"
	Villa1Resident  BuildingType = "villa_1_resident"
	Villa2Residents BuildingType = "villa_2_residents"
)

// DesignCategory is the SDA design standard of a dwelling.
type DesignCategory string

const (
	Basic               DesignCategory = "basic"
	ImprovedLiveability DesignCategory = "improved_liveability"
	FullyAccessible     DesignCategory = "fully_accessible"
	Robust              DesignCategory = "robust"
	HighPhysicalSupport DesignCategory = "high_physical_support"
)

// BuildingTypeInfo describes a building type for display and validation.
type BuildingTypeInfo struct {
	Label        string `json:"label"`
	MaxResidents int    `json:"max_residents"`
}

// DesignCategoryInfo describes a design category.
type DesignCategoryInfo struct {
	Label               string `json:"label"`
	Description         string `json:"description"`
	BreakoutRoomAllowed bool   `json:"breakout_room_allowed"`
}

// =============================================================================
// SDA
// =============================================================================

// SDAInput is the pricing configuration of a single dwelling.
type SDAInput struct {
	BuildingType      BuildingType    `json:"building_type"`
	DesignCategory    DesignCategory  `json:"design_category"`
	LocationFactor    decimal.Decimal `json:"location_factor"`
	HasOOA            bool            `json:"has_ooa"`
	HasBreakoutRoom   bool            `json:"has_breakout_room"`
	HasFireSprinklers bool            `json:"has_fire_sprinklers"`

	// FinancialYear selects a rate table, e.g. "2025-26". Empty means the
	// calculator's current table.
	FinancialYear string `json:"financial_year,omitempty"`
}

// SDAResult is the SDA funding for a dwelling. All amounts are dollars.
type SDAResult struct {
	FinancialYear           string          `json:"financial_year"`
	BaseAnnualRate          decimal.Decimal `json:"base_annual_rate"`
	OOASupplement           decimal.Decimal `json:"ooa_supplement"`
	BreakoutSupplement      decimal.Decimal `json:"breakout_supplement"`
	FireSprinklerSupplement decimal.Decimal `json:"fire_sprinkler_supplement"`
	SubtotalBeforeLocation  decimal.Decimal `json:"subtotal_before_location"`
	LocationFactor          decimal.Decimal `json:"location_factor"`
	AnnualSDAAmount         decimal.Decimal `json:"annual_sda_amount"`
	MonthlySDAAmount        decimal.Decimal `json:"monthly_sda_amount"`
	DailySDAAmount          decimal.Decimal `json:"daily_sda_amount"`
}

// =============================================================================
// MRRC
// =============================================================================

// MRRCInput holds the three fortnightly income-support rates.
type MRRCInput struct {
	DSPBasicFortnight    decimal.Decimal `json:"dsp_basic_fortnight"`
	PensionSuppFortnight decimal.Decimal `json:"pension_supp_fortnight"`
	CRAMaxFortnight      decimal.Decimal `json:"cra_max_fortnight"`
}

// MRRCResult is the participant's rent contribution. All amounts are dollars.
type MRRCResult struct {
	DSPComponent     decimal.Decimal `json:"dsp_component"`
	PensionComponent decimal.Decimal `json:"pension_component"`
	CRAComponent     decimal.Decimal `json:"cra_component"`
	TotalFortnightly decimal.Decimal `json:"total_fortnightly"`
	TotalAnnual      decimal.Decimal `json:"total_annual"`
	TotalMonthly     decimal.Decimal `json:"total_monthly"`
}
