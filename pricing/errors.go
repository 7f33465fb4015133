package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrRateNotFound is returned when the rate table has no base rate for a
	// building type and design category. It is a data-completeness bug and
	// must never be defaulted.
	ErrRateNotFound = errors.New("sda rate not found")

	// ErrUnknownFinancialYear is returned when no rate table is loaded for
	// the requested financial year.
	ErrUnknownFinancialYear = errors.New("no rate table for financial year")

	// ErrInvalidRateTable is returned by the loader for malformed tables.
	ErrInvalidRateTable = errors.New("invalid rate table")
)

// RateNotFoundError names the missing rate key.
type RateNotFoundError struct {
	FinancialYear  string
	BuildingType   BuildingType
	DesignCategory DesignCategory
}

func (e *RateNotFoundError) Error() string {
	msg := fmt.Sprintf("no SDA rate found for building type %q and design category %q (%s)",
		e.BuildingType, e.DesignCategory, e.FinancialYear)
	if e.DesignCategory == Basic {
		msg += `: "basic" category is not available for new builds`
	}
	return msg
}

func (e *RateNotFoundError) Unwrap() error {
	return ErrRateNotFound
}
