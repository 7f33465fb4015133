/*
Package statement extracts structured financial data from the text of rental
agency statements.

PURPOSE:
  Each agency lays its statement out differently and none of them publish a
  machine-readable format. Adapters recognise an agency by its branding and
  pull fields out with ordered regex tables; a generic adapter does the same
  with broader patterns when no agency is recognised. Every result carries a
  confidence score for the reviewer. Nothing here is trusted for posting.

KEY CONCEPTS:
  - Adapter: Name / CanParse / Parse over normalised text
  - Resolver: picks an adapter from a hint or the text, falling back to generic
  - PatternSet: per-field regex lists tried in order, first match wins
  - Post-checks: uniform sanity checks applied after any adapter

SEE ALSO:
  - adapters.go: Century 21, Aaron Moon Realty and generic pattern tables
  - extract.go: shared extraction helpers
  - resolver.go: adapter selection
  - parser.go: entry point and post-checks
*/
package statement

import (
	"github.com/propertyfriends/pf-engine/money"
	"github.com/propertyfriends/pf-engine/reconciliation"
)

// Item is an itemised deduction found on a statement line.
type Item struct {
	Description string                  `json:"description"`
	Amount      money.Cents             `json:"amount"`
	Category    reconciliation.Category `json:"category"`
}

// Result is what an adapter could read from a statement. Amounts are
// positive cents as printed; a zero month or year means undetected.
type Result struct {
	AgencyName          string      `json:"agency_name"`
	StatementNumber     *int        `json:"statement_number,omitempty"`
	PeriodMonth         int         `json:"period_month"`
	PeriodYear          int         `json:"period_year"`
	RentReceived        money.Cents `json:"rent_received"`
	ManagementFee       money.Cents `json:"management_fee"`
	GSTOnFee            money.Cents `json:"gst_on_fee"`
	EnergyReimbursement money.Cents `json:"energy_reimbursement"`
	MaintenanceCosts    money.Cents `json:"maintenance_costs"`

	// OtherItems lists every itemised deduction: maintenance lines first,
	// then other deductions.
	OtherItems   []Item      `json:"other_items"`
	TotalMoneyIn money.Cents `json:"total_money_in"`
	RawText      string      `json:"-"`
	Confidence   float64     `json:"confidence"`
}

// Adapter parses one agency's statement layout.
type Adapter interface {
	Name() string
	CanParse(text string) bool
	Parse(text string) Result
}

// LineItems converts a parse result into reconciliation line items. Money in
// is positive, deductions negative. The management fee is left out: the
// reconciliation computes fees itself.
func (r Result) LineItems() []reconciliation.LineItem {
	ref := ""
	if r.StatementNumber != nil {
		ref = "Stmt " + itoa(*r.StatementNumber)
	}

	var items []reconciliation.LineItem
	add := func(cat reconciliation.Category, desc string, amount money.Cents) {
		items = append(items, reconciliation.LineItem{
			Category:        cat,
			Description:     desc,
			Amount:          amount,
			Source:          reconciliation.SourceRentalStatement,
			SourceReference: ref,
		})
	}

	if r.RentReceived > 0 {
		add(reconciliation.CategoryRent, "Rent received", r.RentReceived)
	}
	if r.EnergyReimbursement > 0 {
		add(reconciliation.CategoryEnergyReimbursement, "Energy reimbursement from tenant", r.EnergyReimbursement)
	}
	for _, it := range r.OtherItems {
		add(it.Category, it.Description, -it.Amount)
	}
	return items
}
