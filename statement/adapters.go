package statement

import (
	"regexp"
	"strings"

	"github.com/propertyfriends/pf-engine/money"
	"github.com/propertyfriends/pf-engine/reconciliation"
)

// =============================================================================
// PATTERN TABLES
// =============================================================================

// amt is the capture shared by every amount pattern.
const amt = `\$?([\d,]+\.?\d*)`

func re(pattern string) *regexp.Regexp { return regexp.MustCompile(`(?i)` + pattern) }

func res(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = re(p)
	}
	return out
}

// weights is the confidence contributed by each extracted field.
type weights struct {
	StatementNumber float64
	Period          float64
	Rent            float64
	Fee             float64
	GST             float64
	Energy          float64
	Maintenance     float64
	Identity        float64
	Cap             float64
}

var agencyWeights = weights{
	StatementNumber: 0.1,
	Period:          0.15,
	Rent:            0.2,
	Fee:             0.15,
	GST:             0.1,
	Energy:          0.1,
	Maintenance:     0.1,
	Identity:        0.1,
	Cap:             1.0,
}

var genericWeights = weights{
	StatementNumber: 0.05,
	Period:          0.1,
	Rent:            0.15,
	Fee:             0.1,
	GST:             0.05,
	Energy:          0.05,
	Maintenance:     0.05,
	Cap:             0.7,
}

var (
	energyPattern = re(`(?:energy|electricity|water|gas|utilit(?:y|ies))\s*(?:charge|reimbursement|cost)?[^$\d\n]*` + amt)

	totalPatterns = res(
		`total\s+(?:money\s+)?(?:in|received|income)[^$\d\n]*`+amt,
		`(?:gross|total)\s+rent[^$\d\n]*`+amt,
	)

	maintenanceKeywords = re(`(?:maintenance|repair|plumb|electr(?:ical|ician)|locksmith|cleaning|handyman|garden|pest|paint|replace|fix|service\s+call|callout|trades)`)
	otherKeywords       = re(`(?:advertising|letting\s+fee|lease\s+renewal|inspection|insurance|postage|sundry|tribunal|strata|body\s+corp)`)
	otherKeywordsAdmin  = re(`(?:advertising|letting\s+fee|lease\s+renewal|inspection|insurance|postage|sundry|tribunal|strata|body\s+corp|admin)`)

	agencyNameLine = re(`(?:real\s*estate|realty|property|group|pty|ltd)`)
	multiSpace     = regexp.MustCompile(`\s{2,}`)
)

// patternSet describes one statement layout.
type patternSet struct {
	name            string
	identity        []*regexp.Regexp
	statementNumber []*regexp.Regexp
	rent            []*regexp.Regexp
	fee             []*regexp.Regexp
	gst             []*regexp.Regexp
	maintenance     *regexp.Regexp
	other           *regexp.Regexp
	weights         weights

	// skipMaintenance drops maintenance lines that are section headers or
	// section totals.
	skipMaintenance *regexp.Regexp

	// keepZeroGST keeps an explicit GST line of zero. Otherwise a zero GST
	// is derived from the GST-inclusive fee.
	keepZeroGST bool

	// detectName reads the agency name from the letterhead instead of
	// reporting name.
	detectName bool
}

var century21Patterns = patternSet{
	name:            "Century 21",
	identity:        res(`century\s*21`, `c21`),
	statementNumber: res(`(?:statement|stm?t)\s*(?:#|no\.?|number)?\s*[:\s]?\s*(\d+)`),
	rent: res(
		`(?:total\s+)?rent\s+(?:received|collected|paid)[:\s]*`+amt,
		`rent\s*[:\s]+`+amt,
	),
	fee: res(
		`(?:management|mgmt|mgt)\s*fee[^$\d\n]*`+amt,
		`(?:commission|agent(?:'?s)?\s+fee)[^$\d\n]*`+amt,
	),
	gst:         res(`gst\s*(?:on\s+(?:management\s+)?fee)?[^$\d\n]*` + amt),
	maintenance: maintenanceKeywords,
	other:       otherKeywords,
	weights:     agencyWeights,
}

var aaronMoonPatterns = patternSet{
	name:            "Aaron Moon Realty",
	identity:        res(`aaron\s*moon`, `a\.?\s*moon\s*realty`),
	statementNumber: res(`(?:statement|stm?t|reference|ref)\s*(?:#|no\.?|number)?\s*[:\s]?\s*(\d+)`),
	rent: res(
		`(?:rental?\s+)?income\s+(?:received)?[:\s]*`+amt,
		`(?:total\s+)?rent\s+(?:received|collected)?[:\s]*`+amt,
		`rent[:\s]+`+amt,
	),
	fee: res(
		`(?:agency|management|mgmt)\s*fee[^$\d\n]*`+amt,
		`(?:commission)[^$\d\n]*`+amt,
	),
	gst: res(
		`gst\s*(?:on\s+(?:agency\s+|management\s+)?fee)?[^$\d\n]*`+amt,
		`goods\s*(?:&|and)\s*services\s*tax[^$\d\n]*`+amt,
	),
	maintenance: re(`(?:maintenance|repair|plumb|electr(?:ical|ician)|locksmith|cleaning|handyman|garden|pest|paint|replace|fix|service\s+call|callout|trades|disbursement)`),
	other:       otherKeywordsAdmin,
	weights:     agencyWeights,

	skipMaintenance: re(`^(?:total\s+)?disbursement`),
}

var genericPatterns = patternSet{
	name:            "Unknown Agency",
	statementNumber: res(`(?:statement|stm?t|invoice|ref(?:erence)?)\s*(?:#|no\.?|number)?\s*[:\s]?\s*(\d+)`),
	rent: res(
		`(?:total\s+)?rent\s+(?:received|collected|paid|income)[:\s]*`+amt,
		`(?:rental?\s+)?income[:\s]*`+amt,
		`rent[:\s]+`+amt,
	),
	fee: res(
		`(?:management|mgmt|mgt|agency)\s*fee[^$\d\n]*`+amt,
		`commission[^$\d\n]*`+amt,
		`agent(?:'?s)?\s+fee[^$\d\n]*`+amt,
	),
	gst:         res(`gst[^$\d\n]*` + amt),
	maintenance: maintenanceKeywords,
	other:       otherKeywordsAdmin,
	weights:     genericWeights,
	detectName:  true,
	keepZeroGST: true,
}

// =============================================================================
// ADAPTERS
// =============================================================================

type patternAdapter struct {
	set     patternSet
	generic bool
}

// Century21 parses Century 21 statements.
func Century21() Adapter { return &patternAdapter{set: century21Patterns} }

// AaronMoon parses Aaron Moon Realty statements.
func AaronMoon() Adapter { return &patternAdapter{set: aaronMoonPatterns} }

// Generic parses any statement with broad patterns and capped confidence.
func Generic() Adapter { return &patternAdapter{set: genericPatterns, generic: true} }

func (a *patternAdapter) Name() string { return a.set.name }

func (a *patternAdapter) CanParse(text string) bool {
	if a.generic {
		return true
	}
	for _, id := range a.set.identity {
		if id.MatchString(text) {
			return true
		}
	}
	return false
}

func (a *patternAdapter) Parse(text string) Result {
	set := a.set
	w := set.weights
	r := Result{AgencyName: set.name, RawText: text, OtherItems: []Item{}}
	var confidence float64

	if set.detectName {
		if name := detectAgencyName(text); name != "" {
			r.AgencyName = name
		}
	}

	for _, p := range set.statementNumber {
		if m := p.FindStringSubmatch(text); m != nil {
			n := atoi(m[1])
			r.StatementNumber = &n
			confidence += w.StatementNumber
			break
		}
	}

	if month, year, ok := ExtractPeriod(text); ok {
		r.PeriodMonth, r.PeriodYear = month, year
		confidence += w.Period
	}

	if rent, ok := firstAmount(text, set.rent); ok {
		r.RentReceived = rent
		confidence += w.Rent
	}
	if fee, ok := firstAmount(text, set.fee); ok {
		r.ManagementFee = fee
		confidence += w.Fee
	}
	gst, gstFound := firstAmount(text, set.gst)
	if gstFound {
		r.GSTOnFee = gst
		confidence += w.GST
	}
	if r.GSTOnFee == 0 && r.ManagementFee > 0 && !(gstFound && set.keepZeroGST) {
		r.GSTOnFee = money.GSTFromInclusive(r.ManagementFee)
	}

	r.EnergyReimbursement = sumAmounts(text, energyPattern)
	if r.EnergyReimbursement > 0 {
		confidence += w.Energy
	}

	lines := splitLines(text)
	maintenance := lineItems(lines, set.maintenance, set.skipMaintenance, reconciliation.CategoryMaintenance)
	other := lineItems(lines, set.other, nil, reconciliation.CategoryOther)
	r.MaintenanceCosts = sumItems(maintenance)
	if r.MaintenanceCosts > 0 {
		confidence += w.Maintenance
	}
	r.OtherItems = append(append(r.OtherItems, maintenance...), other...)

	if total, ok := firstAmount(text, totalPatterns); ok {
		r.TotalMoneyIn = total
	} else {
		r.TotalMoneyIn = r.RentReceived
	}

	if !a.generic && a.CanParse(text) {
		confidence += w.Identity
	}
	if confidence > w.Cap {
		confidence = w.Cap
	}
	r.Confidence = confidence
	return r
}

// detectAgencyName returns the first letterhead line that looks like a
// business name.
func detectAgencyName(text string) string {
	lines := splitLines(text)
	if len(lines) > 10 {
		lines = lines[:10]
	}
	for _, line := range lines {
		if line == "" || !agencyNameLine.MatchString(line) {
			continue
		}
		name := multiSpace.ReplaceAllString(line, " ")
		if len(name) > 60 {
			name = strings.TrimSpace(name[:60])
		}
		return name
	}
	return ""
}
