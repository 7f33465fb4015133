package reconciliation

import (
	"fmt"

	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/money"
)

const (
	energyToleranceCents = 100
	pfFeeToleranceCents  = 10
)

// Validate runs advisory checks on a generated reconciliation. Findings are
// surfaced for review; nothing is blocked or changed.
func Validate(r Result) []domain.ValidationError {
	errs := []domain.ValidationError{}

	if r.TotalMoneyIn <= 0 {
		errs = append(errs, domain.ValidationError{
			Field:   "totalMoneyIn",
			Message: "Total money in must be greater than zero",
		})
	}

	if r.NetClientPayout < 0 {
		errs = append(errs, domain.ValidationError{
			Field:   "netClientPayout",
			Message: "Net client payout is negative, review deductions",
		})
	}

	// The tenant repays exactly what the energy retailer invoiced.
	if r.EnergyReimbursement > 0 && r.EnergyInvoiceAmount > 0 {
		diff := (r.EnergyReimbursement - r.EnergyInvoiceAmount).Abs()
		if diff > energyToleranceCents {
			errs = append(errs, domain.ValidationError{
				Field:   "energy",
				Message: fmt.Sprintf("Energy reimbursement and invoice differ by %s, should net to zero", diff.Dollars().StringFixed(2)),
			})
		}
	}

	expected := money.PercentOf(r.TotalMoneyIn, PFFeeRate)
	if (r.PFManagementFee - expected).Abs() > pfFeeToleranceCents {
		errs = append(errs, domain.ValidationError{
			Field:   "pfManagementFee",
			Message: "PF management fee does not match expected 8.8% rate",
		})
	}

	return errs
}
