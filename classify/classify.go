/*
classify.go - Document type detection for incoming PDFs

PURPOSE:
  Routes raw text extracted from a document to the right processing
  pipeline. Classification is additive scoring over a fixed table of
  weighted signals: every signal that matches adds its weight to its
  document type and the best-scoring type wins.

SEE ALSO:
  - statement: parses documents classified as rental statements
*/
package classify

import (
	"math"
	"regexp"
	"strings"
)

// DocumentType is the pipeline a document is routed to.
type DocumentType string

const (
	RentalStatement    DocumentType = "rental_statement"
	EnergyInvoice      DocumentType = "energy_invoice"
	MaintenanceInvoice DocumentType = "maintenance_invoice"
	Other              DocumentType = "other"
)

// Threshold is the minimum score for a document to be given a type.
const Threshold = 0.2

// Result is a classification with the labels of every signal that matched.
type Result struct {
	DocumentType DocumentType `json:"document_type"`
	Confidence   float64      `json:"confidence"`
	Signals      []string     `json:"signals"`
}

// Signal is one weighted pattern.
type Signal struct {
	Pattern *regexp.Regexp
	Type    DocumentType
	Weight  float64
	Label   string
}

func signal(pattern string, t DocumentType, weight float64, label string) Signal {
	return Signal{Pattern: regexp.MustCompile(`(?i)` + pattern), Type: t, Weight: weight, Label: label}
}

// Signals is the fixed signal table.
var Signals = []Signal{
	signal(`rental\s*statement`, RentalStatement, 0.4, `Contains "rental statement"`),
	signal(`owner\s*(?:'?s?\s+)?statement`, RentalStatement, 0.35, `Contains "owner statement"`),
	signal(`rent\s+(?:received|collected)`, RentalStatement, 0.3, `Contains "rent received/collected"`),
	signal(`management\s*fee`, RentalStatement, 0.25, `Contains "management fee"`),
	signal(`(?:agency|agent)\s*fee`, RentalStatement, 0.2, `Contains "agency fee"`),
	signal(`landlord`, RentalStatement, 0.15, `Contains "landlord"`),
	signal(`(?:tenant|lessee)`, RentalStatement, 0.1, `Contains "tenant/lessee"`),
	signal(`property\s*management`, RentalStatement, 0.15, `Contains "property management"`),
	signal(`disbursement`, RentalStatement, 0.1, `Contains "disbursement"`),

	signal(`energy\s*(?:invoice|bill|account)`, EnergyInvoice, 0.4, `Contains "energy invoice/bill"`),
	signal(`electricity\s*(?:invoice|bill|charge|account)`, EnergyInvoice, 0.35, `Contains "electricity invoice/bill"`),
	signal(`gas\s*(?:invoice|bill|account)`, EnergyInvoice, 0.3, `Contains "gas invoice/bill"`),
	signal(`(?:kwh|kilowatt)`, EnergyInvoice, 0.3, `Contains energy unit (kWh)`),
	signal(`meter\s*(?:read|number)`, EnergyInvoice, 0.2, `Contains "meter read/number"`),
	signal(`(?:supply|usage)\s*charge`, EnergyInvoice, 0.2, `Contains "supply/usage charge"`),
	signal(`(?:agl|origin\s*energy|energy\s*australia|alinta|ergon|synergy)`, EnergyInvoice, 0.25, `Contains known energy retailer name`),
	signal(`nmi\s*(?:number|:)`, EnergyInvoice, 0.2, `Contains NMI reference`),

	signal(`(?:tax\s+)?invoice`, MaintenanceInvoice, 0.15, `Contains "invoice"`),
	signal(`(?:plumb|electr(?:ical|ician)|locksmith|handyman|pest\s*control|cleaning\s*service)`, MaintenanceInvoice, 0.3, `Contains trade/service keyword`),
	signal(`(?:labour|labor|materials|parts|callout)`, MaintenanceInvoice, 0.25, `Contains "labour/materials/callout"`),
	signal(`work\s*(?:order|performed|completed)`, MaintenanceInvoice, 0.25, `Contains "work order/performed"`),
	signal(`(?:quote|quotation)\s*(?:#|no|number)?`, MaintenanceInvoice, 0.15, `Contains "quote/quotation"`),
	signal(`abn\s*[:\s]?\d`, MaintenanceInvoice, 0.1, `Contains ABN`),
}

// scoreOrder breaks ties: the first type to reach the best score wins.
var scoreOrder = []DocumentType{RentalStatement, EnergyInvoice, MaintenanceInvoice, Other}

// Classify scores text against Signals.
func Classify(text string) Result {
	return ClassifyWith(Signals, text)
}

// ClassifyWith scores text against a custom signal table.
func ClassifyWith(signals []Signal, text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{DocumentType: Other, Signals: []string{"Empty document"}}
	}

	scores := make(map[DocumentType]float64, len(scoreOrder))
	matched := []string{}
	for _, s := range signals {
		if s.Pattern.MatchString(text) {
			scores[s.Type] += s.Weight
			matched = append(matched, s.Label)
		}
	}

	best, bestScore := Other, 0.0
	for _, t := range scoreOrder {
		if scores[t] > bestScore {
			best, bestScore = t, scores[t]
		}
	}

	if bestScore < Threshold {
		if len(matched) == 0 {
			matched = []string{"No recognisable document patterns found"}
		}
		return Result{DocumentType: Other, Signals: matched}
	}

	return Result{
		DocumentType: best,
		Confidence:   math.Min(math.Round(bestScore*100)/100, 1),
		Signals:      matched,
	}
}
