package reconciliation

import (
	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/money"
)

// Generate builds the reconciliation for one property-month.
func Generate(in Input, cfg Config) Result {
	items := WithSDASubsidy(in.LineItems, in.SDASubsidyAmount)

	rent := SumByCategory(items, CategoryRent)
	subsidy := SumByCategory(items, CategorySDASubsidy)
	energyReimbursement := SumByCategory(items, CategoryEnergyReimbursement)
	energyInvoice := SumByCategory(items, CategoryEnergyInvoice).Abs()
	maintenance := SumByCategory(items, CategoryMaintenance).Abs()
	other := SumByCategory(items, CategoryOther).Abs()

	moneyIn := TotalMoneyIn(rent, subsidy)
	fees := CalculateFees(FeeInput{TotalMoneyIn: moneyIn, AgencyFeeRate: cfg.AgencyFeeRate})

	return Result{
		PropertyID:          in.PropertyID,
		Period:              in.Period,
		Status:              domain.ReconGenerated,
		StatementNumber:     in.StatementNumber,
		TotalRentReceived:   rent,
		TotalSDASubsidy:     subsidy,
		TotalMoneyIn:        moneyIn,
		AgencyManagementFee: fees.AgencyManagementFee,
		PFManagementFee:     fees.PFManagementFee,
		GSTPayable:          fees.GSTOnPFFee,
		EnergyReimbursement: energyReimbursement,
		EnergyInvoiceAmount: energyInvoice,
		MaintenanceCosts:    maintenance,
		OtherDeductions:     other,
		NetClientPayout: NetClientPayout(moneyIn, fees.AgencyManagementFee, fees.PFManagementFee,
			maintenance, other),
		LineItems: items,
	}
}

// WithSDASubsidy returns a copy of items with an SDA subsidy line appended
// when none is present and subsidy is positive.
func WithSDASubsidy(items []LineItem, subsidy money.Cents) []LineItem {
	out := make([]LineItem, len(items), len(items)+1)
	copy(out, items)

	for _, item := range out {
		if item.Category == CategorySDASubsidy {
			return out
		}
	}
	if subsidy > 0 {
		out = append(out, LineItem{
			Category:    CategorySDASubsidy,
			Description: SDASubsidyDescription,
			Amount:      subsidy,
			Source:      SourcePRODAClaim,
		})
	}
	return out
}
