package pricing_test

import (
	"strings"
	"testing"

	"github.com/propertyfriends/pf-engine/period"
	"github.com/propertyfriends/pf-engine/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

var allBuildingTypes = []pricing.BuildingType{
	pricing.House2Residents, pricing.House3Residents, pricing.Villa1Resident, pricing.Villa2Residents,
}

var ratedCategories = []pricing.DesignCategory{
	pricing.ImprovedLiveability, pricing.FullyAccessible, pricing.Robust, pricing.HighPhysicalSupport,
}

// =============================================================================
// SDA
// =============================================================================

func TestCalculateSDA_TownsvilleFullyAccessible(t *testing.T) {
	res, err := pricing.CalculateSDA(pricing.SDAInput{
		BuildingType:   pricing.House2Residents,
		DesignCategory: pricing.FullyAccessible,
		LocationFactor: dec("1.08"),
	})
	require.NoError(t, err)

	assertDec(t, "41400", res.BaseAnnualRate)
	assertDec(t, "44712", res.AnnualSDAAmount)
	assertDec(t, "3726", res.MonthlySDAAmount)
	assertDec(t, "122.5", res.DailySDAAmount)
	assert.Equal(t, pricing.CurrentFinancialYear, res.FinancialYear)
}

func TestCalculateSDA_NoSupplementsUnitFactorEqualsBaseRate(t *testing.T) {
	table := pricing.DefaultRateTable()
	for _, bt := range allBuildingTypes {
		for _, dc := range ratedCategories {
			res, err := pricing.CalculateSDA(pricing.SDAInput{
				BuildingType:   bt,
				DesignCategory: dc,
				LocationFactor: decimal.NewFromInt(1),
			})
			require.NoError(t, err, "%s|%s", bt, dc)

			base, _ := table.BaseRate(bt, dc)
			assert.True(t, base.Equal(res.AnnualSDAAmount), "%s|%s", bt, dc)
		}
	}
}

func TestCalculateSDA_MonthlyAndDailyDeriveFromAnnual(t *testing.T) {
	for _, lf := range []string{"1.00", "1.03", "1.08", "1.12", "1.29"} {
		res, err := pricing.CalculateSDA(pricing.SDAInput{
			BuildingType:      pricing.Villa1Resident,
			DesignCategory:    pricing.HighPhysicalSupport,
			LocationFactor:    dec(lf),
			HasOOA:            true,
			HasFireSprinklers: true,
		})
		require.NoError(t, err)
		assert.True(t, res.AnnualSDAAmount.Div(decimal.NewFromInt(12)).Round(2).Equal(res.MonthlySDAAmount), lf)
		assert.True(t, res.AnnualSDAAmount.Div(decimal.NewFromInt(365)).Round(2).Equal(res.DailySDAAmount), lf)
	}
}

func TestCalculateSDA_OOASupplement(t *testing.T) {
	in := pricing.SDAInput{
		BuildingType:   pricing.House2Residents,
		DesignCategory: pricing.FullyAccessible,
		LocationFactor: decimal.NewFromInt(1),
	}
	without, err := pricing.CalculateSDA(in)
	require.NoError(t, err)

	in.HasOOA = true
	with, err := pricing.CalculateSDA(in)
	require.NoError(t, err)

	assertDec(t, "11600", with.OOASupplement)
	assert.True(t, with.AnnualSDAAmount.GreaterThan(without.AnnualSDAAmount))
}

func TestCalculateSDA_BreakoutRoomOnlyForRobust(t *testing.T) {
	// GIVEN: both properties claim a breakout room
	robust, err := pricing.CalculateSDA(pricing.SDAInput{
		BuildingType:    pricing.House2Residents,
		DesignCategory:  pricing.Robust,
		LocationFactor:  decimal.NewFromInt(1),
		HasBreakoutRoom: true,
	})
	require.NoError(t, err)

	fa, err := pricing.CalculateSDA(pricing.SDAInput{
		BuildingType:    pricing.House2Residents,
		DesignCategory:  pricing.FullyAccessible,
		LocationFactor:  decimal.NewFromInt(1),
		HasBreakoutRoom: true,
	})
	require.NoError(t, err)

	// THEN: only the robust dwelling receives the supplement
	assertDec(t, "3680", robust.BreakoutSupplement)
	assertDec(t, "49850", robust.AnnualSDAAmount)
	assertDec(t, "4154.17", robust.MonthlySDAAmount)
	assert.True(t, fa.BreakoutSupplement.IsZero())
}

func TestCalculateSDA_MissingRateIsAnError(t *testing.T) {
	_, err := pricing.CalculateSDA(pricing.SDAInput{
		BuildingType:   pricing.House2Residents,
		DesignCategory: pricing.Basic,
		LocationFactor: decimal.NewFromInt(1),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, pricing.ErrRateNotFound)
	var rnf *pricing.RateNotFoundError
	require.ErrorAs(t, err, &rnf)
	assert.Equal(t, pricing.Basic, rnf.DesignCategory)
}

func TestCalculator_UnknownFinancialYear(t *testing.T) {
	c := pricing.NewCalculator()
	_, err := c.CalculateSDA(pricing.SDAInput{
		BuildingType:   pricing.House2Residents,
		DesignCategory: pricing.Robust,
		LocationFactor: decimal.NewFromInt(1),
		FinancialYear:  "2019-20",
	})
	assert.ErrorIs(t, err, pricing.ErrUnknownFinancialYear)
}

// =============================================================================
// MRRC
// =============================================================================

func TestCalculateMRRC_PublishedRates(t *testing.T) {
	res := pricing.CalculateMRRC(pricing.DefaultMRRCInput())

	assertDec(t, "279.08", res.DSPComponent)
	assertDec(t, "20.80", res.PensionComponent)
	assertDec(t, "188.20", res.CRAComponent)
	assertDec(t, "488.08", res.TotalFortnightly)
	assertDec(t, "12690.08", res.TotalAnnual)
	assertDec(t, "1057.51", res.TotalMonthly)
}

// =============================================================================
// PRO-RATA
// =============================================================================

func TestProRataAmount(t *testing.T) {
	feb := period.Period{Month: 2, Year: 2026}

	assertDec(t, "3726", pricing.ProRataAmount(dec("3726"), 28, feb))
	assertDec(t, "3726", pricing.ProRataAmount(dec("3726"), 31, feb))
	assertDec(t, "1863", pricing.ProRataAmount(dec("3726"), 14, feb))
	assertDec(t, "1330.71", pricing.ProRataAmount(dec("3726"), 10, feb))
}

// =============================================================================
// METADATA AND LOADER
// =============================================================================

func TestLookups(t *testing.T) {
	info, ok := pricing.LookupBuildingType(pricing.House3Residents)
	require.True(t, ok)
	assert.Equal(t, 3, info.MaxResidents)

	dc, ok := pricing.LookupDesignCategory(pricing.Robust)
	require.True(t, ok)
	assert.True(t, dc.BreakoutRoomAllowed)

	lf, ok := pricing.LookupLocationFactor("townsville")
	require.True(t, ok)
	assertDec(t, "1.08", lf.Factor)

	_, ok = pricing.LookupLocationFactor("Atlantis")
	assert.False(t, ok)
	assert.Len(t, pricing.LocationFactors(), 10)
}

func TestParseRateTable_RegistersNewYear(t *testing.T) {
	src := `{
		"financial_year": "2026-27",
		"base_rates": {"house_2_residents|robust": "48000", "villa_1_resident|fully_accessible": 55000},
		"supplements": {"ooa": "12000", "breakout_room": "3800", "fire_sprinklers": "3000"}
	}`
	table, err := pricing.ParseRateTable(strings.NewReader(src))
	require.NoError(t, err)

	c := pricing.NewCalculator()
	c.Register(table)
	assert.Equal(t, "2026-27", c.CurrentYear())

	res, err := c.CalculateSDA(pricing.SDAInput{
		BuildingType:    pricing.House2Residents,
		DesignCategory:  pricing.Robust,
		LocationFactor:  decimal.NewFromInt(1),
		HasBreakoutRoom: true,
	})
	require.NoError(t, err)
	assertDec(t, "51800", res.AnnualSDAAmount)

	// The previous year is still addressable.
	old, err := c.CalculateSDA(pricing.SDAInput{
		BuildingType:   pricing.House2Residents,
		DesignCategory: pricing.Robust,
		LocationFactor: decimal.NewFromInt(1),
		FinancialYear:  "2025-26",
	})
	require.NoError(t, err)
	assertDec(t, "46170", old.AnnualSDAAmount)
}

func TestParseRateTable_Rejects(t *testing.T) {
	tests := map[string]string{
		"bad year":      `{"financial_year": "2026", "base_rates": {"house_2_residents|robust": 1}}`,
		"no rates":      `{"financial_year": "2026-27", "base_rates": {}}`,
		"bad key":       `{"financial_year": "2026-27", "base_rates": {"house_2_residents": 1}}`,
		"unknown type":  `{"financial_year": "2026-27", "base_rates": {"castle|robust": 1}}`,
		"negative rate": `{"financial_year": "2026-27", "base_rates": {"house_2_residents|robust": -1}}`,
		"not json":      `{`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := pricing.ParseRateTable(strings.NewReader(src))
			assert.ErrorIs(t, err, pricing.ErrInvalidRateTable)
		})
	}
}
