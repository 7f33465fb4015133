/*
Package reconciliation produces the monthly owner statement for a property:
money in, fees, deductions and the net payout to the client.

PURPOSE:
  Replaces the spreadsheet reconciliation. Line items arrive from parsed
  rental statements, energy invoices and PRODA claims; the generator sums
  them by category, applies agency and PF fees and derives the payout.

KEY CONCEPTS:
  - Line item amounts are signed cents: positive is money in, negative out
  - Money in = rent + SDA subsidy
  - PF fee is 8.8% of money in and is GST-inclusive; GST is reported only
  - Net payout = money in - agency fee - PF fee - maintenance - other

INVARIANTS:
  - An SDA subsidy line item is synthesized at most once
  - A freshly generated reconciliation always has status "generated"
  - Inputs are never mutated

SEE ALSO:
  - calculator.go: fee and total arithmetic
  - validator.go: advisory checks before approval
  - statement/: source of rental-statement line items
*/
package reconciliation

import (
	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/money"
	"github.com/propertyfriends/pf-engine/period"
	"github.com/shopspring/decimal"
)

// Fee constants.
var (
	PFFeeRate            = decimal.RequireFromString("0.088")
	DefaultAgencyFeeRate = decimal.RequireFromString("0.044")
)

// Category classifies a line item.
type Category string

const (
	CategoryRent                Category = "rent"
	CategorySDASubsidy          Category = "sda_subsidy"
	CategoryEnergyReimbursement Category = "energy_reimbursement"
	CategoryEnergyInvoice       Category = "energy_invoice"
	CategoryMaintenance         Category = "maintenance"
	CategoryManagementFee       Category = "management_fee"
	CategoryOther               Category = "other"
)

// Source records where a line item came from.
type Source string

const (
	SourceRentalStatement Source = "rental_statement"
	SourcePRODAClaim      Source = "proda_claim"
	SourceEnergyInvoice   Source = "energy_invoice"
	SourceManual          Source = "manual"
)

// SDASubsidyDescription labels a synthesized SDA subsidy line item.
const SDASubsidyDescription = "SDA Government Subsidy (PRODA claim)"

// LineItem is one signed entry in a reconciliation.
type LineItem struct {
	Category        Category    `json:"category"`
	Description     string      `json:"description"`
	Amount          money.Cents `json:"amount"`
	Source          Source      `json:"source"`
	SourceReference string      `json:"source_reference,omitempty"`
}

// Input is a property-month's raw line items plus the SDA subsidy claimed.
type Input struct {
	PropertyID       string        `json:"property_id"`
	Period           period.Period `json:"period"`
	StatementNumber  *int          `json:"statement_number,omitempty"`
	LineItems        []LineItem    `json:"line_items"`
	SDASubsidyAmount money.Cents   `json:"sda_subsidy_amount"`
}

// Config carries per-agency settings.
type Config struct {
	AgencyFeeRate decimal.Decimal
}

// DefaultConfig uses the default agency fee rate.
func DefaultConfig() Config {
	return Config{AgencyFeeRate: DefaultAgencyFeeRate}
}

// Result is a generated reconciliation.
type Result struct {
	PropertyID      string             `json:"property_id"`
	Period          period.Period      `json:"period"`
	Status          domain.ReconStatus `json:"status"`
	StatementNumber *int               `json:"statement_number,omitempty"`

	TotalRentReceived money.Cents `json:"total_rent_received"`
	TotalSDASubsidy   money.Cents `json:"total_sda_subsidy"`
	TotalMoneyIn      money.Cents `json:"total_money_in"`

	AgencyManagementFee money.Cents `json:"agency_management_fee"`
	PFManagementFee     money.Cents `json:"pf_management_fee"`
	GSTPayable          money.Cents `json:"gst_payable"`
	EnergyReimbursement money.Cents `json:"energy_reimbursement"`
	EnergyInvoiceAmount money.Cents `json:"energy_invoice_amount"`
	MaintenanceCosts    money.Cents `json:"maintenance_costs"`
	OtherDeductions     money.Cents `json:"other_deductions"`

	NetClientPayout money.Cents `json:"net_client_payout"`

	LineItems []LineItem `json:"line_items"`
}
