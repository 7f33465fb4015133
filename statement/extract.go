package statement

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/propertyfriends/pf-engine/money"
	"github.com/propertyfriends/pf-engine/reconciliation"
	"github.com/shopspring/decimal"
)

// Items larger than this are treated as mis-reads (a total, a BSB, a date).
var maxItemAmount = money.Cents(50000 * 100)

var monthNames = map[string]int{
	"january": 1, "jan": 1,
	"february": 2, "feb": 2,
	"march": 3, "mar": 3,
	"april": 4, "apr": 4,
	"may":  5,
	"june": 6, "jun": 6,
	"july": 7, "jul": 7,
	"august": 8, "aug": 8,
	"september": 9, "sep": 9, "sept": 9,
	"october": 10, "oct": 10,
	"november": 11, "nov": 11,
	"december": 12, "dec": 12,
}

var (
	keywordMonthYear    = regexp.MustCompile(`(?i)(?:period|month|for|statement|date)[:\s]*(?:the\s+month\s+of\s+)?(?:\d{1,2}\s+)?(\w+)\s+(20\d{2})`)
	standaloneMonthYear = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\s+(20\d{2})\b`)
	numericMonthYear    = regexp.MustCompile(`\b(\d{1,2})/(20\d{2})\b`)
	numericDate         = regexp.MustCompile(`\b\d{1,2}/(\d{1,2})/(20\d{2})\b`)

	trailingAmount = regexp.MustCompile(`\$?([\d,]+\.?\d*)\s*$`)
)

// periodHeaderLen bounds the standalone month-name search to the header.
const periodHeaderLen = 500

// ParseDollar reads an Australian dollar string such as "3,200.00" or
// "3200" into cents. Unreadable input is zero.
func ParseDollar(raw string) money.Cents {
	cleaned := strings.TrimSuffix(strings.TrimSpace(strings.ReplaceAll(raw, ",", "")), ".")
	if cleaned == "" {
		return 0
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0
	}
	return money.FromDollars(d)
}

// ExtractPeriod finds the statement month and year. Patterns are tried in
// order: keyword + month name + year, a bare month name + year in the header,
// MM/YYYY, then the month of a DD/MM/YYYY date.
func ExtractPeriod(text string) (month, year int, ok bool) {
	if m := keywordMonthYear.FindStringSubmatch(text); m != nil {
		if mo, found := monthNames[strings.ToLower(m[1])]; found {
			if y := atoi(m[2]); validYear(y) {
				return mo, y, true
			}
		}
	}

	header := text
	if len(header) > periodHeaderLen {
		header = header[:periodHeaderLen]
	}
	if m := standaloneMonthYear.FindStringSubmatch(header); m != nil {
		if mo, found := monthNames[strings.ToLower(m[1])]; found {
			if y := atoi(m[2]); validYear(y) {
				return mo, y, true
			}
		}
	}

	for _, re := range []*regexp.Regexp{numericMonthYear, numericDate} {
		if m := re.FindStringSubmatch(text); m != nil {
			mo, y := atoi(m[1]), atoi(m[2])
			if mo >= 1 && mo <= 12 && validYear(y) {
				return mo, y, true
			}
		}
	}
	return 0, 0, false
}

// firstAmount returns the captured amount of the first pattern that matches.
func firstAmount(text string, patterns []*regexp.Regexp) (money.Cents, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return ParseDollar(m[1]), true
		}
	}
	return 0, false
}

// sumAmounts adds the captured amount of every match of re.
func sumAmounts(text string, re *regexp.Regexp) money.Cents {
	var total money.Cents
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		total += ParseDollar(m[1])
	}
	return total
}

// lineItems scans lines matching keywords for a trailing amount. Lines
// matching skip are ignored.
func lineItems(lines []string, keywords, skip *regexp.Regexp, category reconciliation.Category) []Item {
	var items []Item
	for _, line := range lines {
		if !keywords.MatchString(line) {
			continue
		}
		loc := trailingAmount.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		amount := ParseDollar(line[loc[2]:loc[3]])
		if amount <= 0 || amount >= maxItemAmount {
			continue
		}
		if skip != nil && skip.MatchString(line) {
			continue
		}
		items = append(items, Item{
			Description: strings.TrimSpace(line[:loc[0]]),
			Amount:      amount,
			Category:    category,
		})
	}
	return items
}

func sumItems(items []Item) money.Cents {
	var total money.Cents
	for _, it := range items {
		total += it.Amount
	}
	return total
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}

func validYear(y int) bool { return y >= 2000 && y <= 2100 }

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func itoa(n int) string { return strconv.Itoa(n) }
