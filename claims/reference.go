package claims

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/propertyfriends/pf-engine/period"
)

// ReferencePrefix starts every claim reference.
const ReferencePrefix = "PF-"

// GenerateReference builds PF-{YYYY}-{MM}-{PROPCODE}-{PARTCODE}. PROPCODE is
// the alphanumeric characters of the property code, at most 8, upper-cased.
// PARTCODE is the letters of the participant code, at most 6, upper-cased.
func GenerateReference(p period.Period, propertyCode, participantCode string) string {
	prop := shortCode(propertyCode, 8, isASCIIAlnum)
	part := shortCode(participantCode, 6, isASCIIAlpha)
	return fmt.Sprintf("%s%s-%s-%s", ReferencePrefix, p.String(), prop, part)
}

func shortCode(s string, max int, keep func(rune) bool) string {
	var b strings.Builder
	n := 0
	for _, r := range s {
		if n == max {
			break
		}
		if keep(r) {
			b.WriteRune(unicode.ToUpper(r))
			n++
		}
	}
	return b.String()
}

func isASCIIAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isASCIIAlnum(r rune) bool {
	return isASCIIAlpha(r) || (r >= '0' && r <= '9')
}
