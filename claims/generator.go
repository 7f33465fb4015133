/*
Package claims builds monthly SDA claim drafts and checks them before they are
persisted.

PURPOSE:
  A claim draft combines a property's SDA pricing, a participant's plan
  management type and the occupancy for one month. Drafts are pure values:
  nothing here talks to NDIA or Xero.

FLOW:
  1. Price the property (pricing.Calculator)
  2. Pro-rate the monthly amount when the month was partly occupied
  3. Add the participant's rent contribution (MRRC) when supplied
  4. Pick the claim pathway from the plan management type
  5. Stamp a deterministic claim reference

SEE ALSO:
  - validator.go: draft checks
  - strategy.go: submission pathways (not yet wired)
  - pricing/sda.go: SDA amounts
*/
package claims

import (
	"time"

	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/money"
	"github.com/propertyfriends/pf-engine/period"
	"github.com/propertyfriends/pf-engine/pricing"
)

// SDAItemNumber is the NDIS support item claimed for SDA.
const SDAItemNumber = "01_012_0107_5_1"

// GenerateInput is everything needed to draft one month's claim.
type GenerateInput struct {
	Property    domain.Property
	Participant domain.Participant
	Period      period.Period

	// OccupiedDays defaults to the whole period when nil.
	OccupiedDays *int

	// MRRCFortnightly is the participant's fortnightly rent contribution.
	// Nil or zero means no MRRC component.
	MRRCFortnightly *money.Cents
}

// Draft is an unsaved claim.
type Draft struct {
	ClaimReference string              `json:"claim_reference"`
	PropertyID     string              `json:"property_id"`
	ParticipantID  string              `json:"participant_id"`
	ClaimPathway   domain.ClaimPathway `json:"claim_pathway"`
	PeriodStart    time.Time           `json:"period_start"`
	PeriodEnd      time.Time           `json:"period_end"`
	SdaAmount      money.Cents         `json:"sda_amount"`
	MrrcAmount     *money.Cents        `json:"mrrc_amount,omitempty"`
	TotalAmount    money.Cents         `json:"total_amount"`
	NDISItemNumber string              `json:"ndis_item_number"`
}

// Generator drafts claims against a pricing calculator.
type Generator struct {
	Pricing *pricing.Calculator
}

// NewGenerator creates a generator. A nil calculator uses the default
// 2025-26 rate table.
func NewGenerator(calc *pricing.Calculator) *Generator {
	if calc == nil {
		calc = pricing.NewCalculator()
	}
	return &Generator{Pricing: calc}
}

// Generate drafts a claim. It fails only when the property's configuration
// has no published rate.
func (g *Generator) Generate(in GenerateInput) (Draft, error) {
	sda, err := g.Pricing.CalculateSDA(in.Property.SDAInput())
	if err != nil {
		return Draft{}, err
	}

	totalDays := in.Period.Days()
	occupiedDays := totalDays
	if in.OccupiedDays != nil {
		occupiedDays = *in.OccupiedDays
	}

	var sdaAmount money.Cents
	if occupiedDays < totalDays {
		sdaAmount = money.FromDollars(pricing.ProRataAmount(sda.MonthlySDAAmount, occupiedDays, in.Period))
	} else {
		sdaAmount = money.FromDollars(sda.MonthlySDAAmount)
	}

	var mrrcAmount *money.Cents
	if in.MRRCFortnightly != nil && *in.MRRCFortnightly != 0 {
		monthly := MRRCMonthly(*in.MRRCFortnightly)
		mrrcAmount = &monthly
	}

	total := sdaAmount
	if mrrcAmount != nil {
		total += *mrrcAmount
	}

	return Draft{
		ClaimReference: GenerateReference(in.Period, in.Property.Label(), in.Participant.LastName),
		PropertyID:     in.Property.ID,
		ParticipantID:  in.Participant.ID,
		ClaimPathway:   domain.PathwayFor(in.Participant.PlanManagementType),
		PeriodStart:    in.Period.Start(),
		PeriodEnd:      in.Period.End(),
		SdaAmount:      sdaAmount,
		MrrcAmount:     mrrcAmount,
		TotalAmount:    total,
		NDISItemNumber: SDAItemNumber,
	}, nil
}

// MRRCMonthly converts a fortnightly contribution to a monthly one:
// round(fortnightly × 26 / 12).
func MRRCMonthly(fortnightly money.Cents) money.Cents {
	return money.DivRound(fortnightly*26, 12)
}

var defaultGenerator = NewGenerator(nil)

// GenerateClaim drafts a claim with the default rate table.
func GenerateClaim(in GenerateInput) (Draft, error) {
	return defaultGenerator.Generate(in)
}
