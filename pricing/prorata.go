package pricing

import (
	"github.com/propertyfriends/pf-engine/period"
	"github.com/shopspring/decimal"
)

// ProRataAmount scales a monthly dollar amount by occupied days. A full (or
// over-full) occupancy returns monthly unchanged.
func ProRataAmount(monthly decimal.Decimal, occupiedDays int, p period.Period) decimal.Decimal {
	total := p.Days()
	if occupiedDays >= total {
		return monthly
	}
	return monthly.Mul(decimal.NewFromInt(int64(occupiedDays))).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}
