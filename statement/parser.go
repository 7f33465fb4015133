package statement

import (
	"math"
	"strings"

	"github.com/propertyfriends/pf-engine/money"
	"github.com/sirupsen/logrus"
)

// Parser runs adapters and applies the shared post-checks.
type Parser struct {
	Resolver *Resolver
	Logger   logrus.FieldLogger
}

// NewParser creates a parser. A nil resolver uses DefaultResolver and a nil
// logger uses the logrus standard logger.
func NewParser(resolver *Resolver, logger logrus.FieldLogger) *Parser {
	if resolver == nil {
		resolver = DefaultResolver()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Parser{Resolver: resolver, Logger: logger}
}

// Parse extracts statement data from text. An explicit adapter wins over
// the hint; with neither the adapter is chosen from the text.
func (p *Parser) Parse(text string, adapter Adapter, hint string) Result {
	text = normalise(text)
	if strings.TrimSpace(text) == "" {
		return Result{AgencyName: "Unknown", RawText: text, OtherItems: []Item{}}
	}

	if adapter == nil {
		adapter = p.Resolver.Resolve(text, hint)
	}
	r := adapter.Parse(text)
	applyPostChecks(&r)

	p.Logger.WithFields(logrus.Fields{
		"adapter":    adapter.Name(),
		"month":      r.PeriodMonth,
		"year":       r.PeriodYear,
		"confidence": r.Confidence,
	}).Debug("statement parsed")
	return r
}

// ParseStatement parses with the default adapters.
func ParseStatement(text, hint string) Result {
	return NewParser(nil, nil).Parse(text, nil, hint)
}

func normalise(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.ReplaceAll(text, "\t", "  ")
}

// applyPostChecks fixes obvious gaps and lowers confidence for values that
// look wrong.
func applyPostChecks(r *Result) {
	if r.TotalMoneyIn == 0 && r.RentReceived > 0 {
		r.TotalMoneyIn = r.RentReceived
	}

	if r.RentReceived > 0 && r.ManagementFee > r.RentReceived {
		r.Confidence -= 0.2
	}

	if r.GSTOnFee > 0 && r.ManagementFee > 0 {
		expected := float64(r.ManagementFee) / money.GSTDivisor
		ratio := float64(r.GSTOnFee) / expected
		if ratio < 0.5 || ratio > 2 {
			r.Confidence -= 0.1
		}
	}

	if r.PeriodMonth < 1 || r.PeriodMonth > 12 {
		r.PeriodMonth = 0
		r.Confidence -= 0.1
	}
	if r.PeriodYear > 0 && !validYear(r.PeriodYear) {
		r.PeriodYear = 0
		r.Confidence -= 0.1
	}

	r.Confidence = math.Round(math.Max(r.Confidence, 0)*100) / 100
}
