package pricing

import "github.com/shopspring/decimal"

// MRRC formula constants.
var (
	DSPPercentage         = decimal.RequireFromString("0.25")
	PensionSuppPercentage = decimal.RequireFromString("0.25")
	CRAPercentage         = decimal.NewFromInt(1)

	FortnightsPerYear = decimal.NewFromInt(26)
)

// CalculateMRRC computes the Maximum Reasonable Rent Contribution.
//
// Each component is rounded to cents on its own before summing. The annual
// figure is fortnightly × 26 and the monthly figure is annual / 12, each
// rounded once.
func CalculateMRRC(in MRRCInput) MRRCResult {
	dsp := in.DSPBasicFortnight.Mul(DSPPercentage).Round(2)
	pension := in.PensionSuppFortnight.Mul(PensionSuppPercentage).Round(2)
	cra := in.CRAMaxFortnight.Mul(CRAPercentage).Round(2)

	fortnightly := dsp.Add(pension).Add(cra).Round(2)
	annual := fortnightly.Mul(FortnightsPerYear).Round(2)

	return MRRCResult{
		DSPComponent:     dsp,
		PensionComponent: pension,
		CRAComponent:     cra,
		TotalFortnightly: fortnightly,
		TotalAnnual:      annual,
		TotalMonthly:     annual.Div(monthsPerYear).Round(2),
	}
}
