package reconciliation

import (
	"github.com/propertyfriends/pf-engine/money"
	"github.com/shopspring/decimal"
)

// FeeInput is the money in and the agency's fee rate.
type FeeInput struct {
	TotalMoneyIn  money.Cents
	AgencyFeeRate decimal.Decimal
}

// Fees are the management fees charged on money in.
type Fees struct {
	AgencyManagementFee money.Cents `json:"agency_management_fee"`
	PFManagementFee     money.Cents `json:"pf_management_fee"`
	GSTOnPFFee          money.Cents `json:"gst_on_pf_fee"`
	TotalFees           money.Cents `json:"total_fees"`
}

// CalculateFees applies the agency rate and the fixed PF rate to money in.
// GST is the 1/11 component of the GST-inclusive PF fee.
func CalculateFees(in FeeInput) Fees {
	agency := money.PercentOf(in.TotalMoneyIn, in.AgencyFeeRate)
	pf := money.PercentOf(in.TotalMoneyIn, PFFeeRate)
	return Fees{
		AgencyManagementFee: agency,
		PFManagementFee:     pf,
		GSTOnPFFee:          money.GSTFromInclusive(pf),
		TotalFees:           money.Sum(agency, pf),
	}
}

// SumByCategory adds the signed amounts of every item in category.
func SumByCategory(items []LineItem, category Category) money.Cents {
	var total money.Cents
	for _, item := range items {
		if item.Category == category {
			total += item.Amount
		}
	}
	return total
}

// TotalMoneyIn is rent plus SDA subsidy.
func TotalMoneyIn(rent, sdaSubsidy money.Cents) money.Cents {
	return money.Sum(rent, sdaSubsidy)
}

// NetClientPayout subtracts fees and costs from money in. GST is not
// subtracted: it is already inside the PF fee. Energy reimbursement and
// invoice are expected to cancel and are left out.
func NetClientPayout(moneyIn, agencyFee, pfFee, maintenance, other money.Cents) money.Cents {
	return moneyIn - agencyFee - pfFee - maintenance - other
}
