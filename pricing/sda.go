package pricing

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	monthsPerYear = decimal.NewFromInt(12)
	daysPerYear   = decimal.NewFromInt(365)
)

// Calculator prices dwellings against one or more financial-year rate
// tables. The zero value is not usable; use NewCalculator.
type Calculator struct {
	mu      sync.RWMutex
	tables  map[string]*RateTable
	current string
}

// NewCalculator creates a calculator holding the default 2025-26 table.
func NewCalculator() *Calculator {
	c := &Calculator{tables: make(map[string]*RateTable)}
	c.Register(DefaultRateTable())
	return c
}

// Register adds or replaces a rate table. The most recently registered
// table becomes the current one.
func (c *Calculator) Register(t *RateTable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[t.FinancialYear] = t
	c.current = t.FinancialYear
}

// Table returns the table for a financial year, or the current one when fy
// is empty.
func (c *Calculator) Table(fy string) (*RateTable, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if fy == "" {
		fy = c.current
	}
	t, ok := c.tables[fy]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFinancialYear, fy)
	}
	return t, nil
}

// CurrentYear returns the financial year of the current table.
func (c *Calculator) CurrentYear() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// CalculateSDA computes the annual, monthly and daily SDA amount:
//
//	annual  = round((base + supplements) × locationFactor, 2)
//	monthly = round(annual / 12, 2)
//	daily   = round(annual / 365, 2)
//
// The breakout-room supplement only applies to the Robust category.
func (c *Calculator) CalculateSDA(in SDAInput) (SDAResult, error) {
	table, err := c.Table(in.FinancialYear)
	if err != nil {
		return SDAResult{}, err
	}
	base, err := table.BaseRate(in.BuildingType, in.DesignCategory)
	if err != nil {
		return SDAResult{}, err
	}

	ooa := decimal.Zero
	if in.HasOOA {
		ooa = table.OOASupplement
	}
	breakout := decimal.Zero
	if in.HasBreakoutRoom && in.DesignCategory == Robust {
		breakout = table.BreakoutRoomSupplement
	}
	sprinklers := decimal.Zero
	if in.HasFireSprinklers {
		sprinklers = table.FireSprinklerSupplement
	}

	subtotal := base.Add(ooa).Add(breakout).Add(sprinklers)
	annual := subtotal.Mul(in.LocationFactor).Round(2)

	return SDAResult{
		FinancialYear:           table.FinancialYear,
		BaseAnnualRate:          base,
		OOASupplement:           ooa,
		BreakoutSupplement:      breakout,
		FireSprinklerSupplement: sprinklers,
		SubtotalBeforeLocation:  subtotal,
		LocationFactor:          in.LocationFactor,
		AnnualSDAAmount:         annual,
		MonthlySDAAmount:        annual.Div(monthsPerYear).Round(2),
		DailySDAAmount:          annual.Div(daysPerYear).Round(2),
	}, nil
}

var defaultCalculator = NewCalculator()

// CalculateSDA prices a dwelling against the default 2025-26 table.
func CalculateSDA(in SDAInput) (SDAResult, error) {
	return defaultCalculator.CalculateSDA(in)
}
