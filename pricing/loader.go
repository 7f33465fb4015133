/*
loader.go - JSON rate-table loading

PURPOSE:
  The SDA pricing arrangements are republished every July. Rather than
  shipping a new binary, operations can drop a JSON table next to the config
  and register it with the calculator.

JSON SCHEMA:
  {
    "financial_year": "2026-27",
    "base_rates": {
      "house_2_residents|fully_accessible": "42500",
      ...
    },
    "supplements": {
      "ooa": "11900",
      "breakout_room": "3780",
      "fire_sprinklers": "3010"
    }
  }

VALIDATION:
  - financial_year must be "YYYY-YY"
  - every key must name a known building type and design category
  - rates and supplements must be non-negative

SEE ALSO:
  - tables.go: the built-in 2025-26 table
  - config/config.go: pricing.rate_table setting
*/
package pricing

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// RateTableJSON is the on-disk form of a RateTable.
type RateTableJSON struct {
	FinancialYear string                     `json:"financial_year"`
	BaseRates     map[string]decimal.Decimal `json:"base_rates"`
	Supplements   SupplementsJSON            `json:"supplements"`
}

// SupplementsJSON holds annual supplement amounts.
type SupplementsJSON struct {
	OOA            decimal.Decimal `json:"ooa"`
	BreakoutRoom   decimal.Decimal `json:"breakout_room"`
	FireSprinklers decimal.Decimal `json:"fire_sprinklers"`
}

var financialYearPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// ParseRateTable decodes and validates a JSON rate table.
func ParseRateTable(r io.Reader) (*RateTable, error) {
	var tj RateTableJSON
	if err := json.NewDecoder(r).Decode(&tj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRateTable, err)
	}
	return tj.toTable()
}

// LoadRateTableFile reads a JSON rate table from disk.
func LoadRateTableFile(path string) (*RateTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rate table: %w", err)
	}
	defer f.Close()
	return ParseRateTable(f)
}

func (tj RateTableJSON) toTable() (*RateTable, error) {
	if !financialYearPattern.MatchString(tj.FinancialYear) {
		return nil, fmt.Errorf("%w: financial_year %q", ErrInvalidRateTable, tj.FinancialYear)
	}
	if len(tj.BaseRates) == 0 {
		return nil, fmt.Errorf("%w: no base rates", ErrInvalidRateTable)
	}

	table := &RateTable{
		FinancialYear:           tj.FinancialYear,
		BaseRates:               make(map[string]decimal.Decimal, len(tj.BaseRates)),
		OOASupplement:           tj.Supplements.OOA,
		BreakoutRoomSupplement:  tj.Supplements.BreakoutRoom,
		FireSprinklerSupplement: tj.Supplements.FireSprinklers,
	}

	for key, rate := range tj.BaseRates {
		bt, dc, ok := strings.Cut(key, "|")
		if !ok {
			return nil, fmt.Errorf("%w: malformed key %q", ErrInvalidRateTable, key)
		}
		if _, known := LookupBuildingType(BuildingType(bt)); !known {
			return nil, fmt.Errorf("%w: unknown building type %q", ErrInvalidRateTable, bt)
		}
		if _, known := LookupDesignCategory(DesignCategory(dc)); !known {
			return nil, fmt.Errorf("%w: unknown design category %q", ErrInvalidRateTable, dc)
		}
		if rate.IsNegative() {
			return nil, fmt.Errorf("%w: negative rate for %q", ErrInvalidRateTable, key)
		}
		table.BaseRates[key] = rate
	}

	for name, v := range map[string]decimal.Decimal{
		"ooa":             table.OOASupplement,
		"breakout_room":   table.BreakoutRoomSupplement,
		"fire_sprinklers": table.FireSprinklerSupplement,
	} {
		if v.IsNegative() {
			return nil, fmt.Errorf("%w: negative %s supplement", ErrInvalidRateTable, name)
		}
	}

	return table, nil
}
