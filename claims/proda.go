package claims

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/period"
	"github.com/shopspring/decimal"
)

// MaxProdaRows is the most claims one bulk upload file may carry.
const MaxProdaRows = 500

// ProdaHeader is the column row of a PRODA bulk payment request file.
var ProdaHeader = []string{
	"RegistrationNumber", "NDISNumber", "ParticipantFirstName", "ParticipantLastName",
	"ParticipantDateOfBirth", "SupportItemNumber", "ClaimReference",
	"FromDate", "ToDate", "Quantity", "Hours", "UnitPrice", "GSTCode",
	"ClaimType", "CancellationReason",
}

const (
	prodaGSTFree  = "P1"
	prodaNewClaim = "1"
)

// ProdaLine is one claim with the participant it is made for.
type ProdaLine struct {
	Claim       domain.Claim
	Participant domain.Participant
}

// Record returns the CSV row for l. Quantity is the inclusive number of days
// in the claim period and the unit price is the total divided by those
// days, in dollars to two places.
func (l ProdaLine) Record(registrationNumber string) []string {
	days := period.DaysBetween(l.Claim.PeriodStart, l.Claim.PeriodEnd) + 1
	if days < 1 {
		days = 1
	}
	unit := decimal.NewFromInt(int64(l.Claim.TotalAmount)).
		Div(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(days)))

	dob := ""
	if l.Participant.DateOfBirth != nil {
		dob = period.FormatPRODA(*l.Participant.DateOfBirth)
	}

	return []string{
		registrationNumber,
		l.Participant.NDISNumber,
		l.Participant.FirstName,
		l.Participant.LastName,
		dob,
		l.Claim.NDISItemNumber,
		l.Claim.ClaimReference,
		period.FormatPRODA(l.Claim.PeriodStart),
		period.FormatPRODA(l.Claim.PeriodEnd),
		fmt.Sprint(days),
		"",
		unit.StringFixed(2),
		prodaGSTFree,
		prodaNewClaim,
		"",
	}
}

// WriteProdaCSV writes the header and one row per line.
func WriteProdaCSV(w io.Writer, registrationNumber string, lines []ProdaLine) error {
	if len(lines) == 0 || len(lines) > MaxProdaRows {
		return fmt.Errorf("proda export takes 1 to %d claims, got %d", MaxProdaRows, len(lines))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ProdaHeader); err != nil {
		return err
	}
	for _, l := range lines {
		if err := cw.Write(l.Record(registrationNumber)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ProdaFilename names an export made on day now.
func ProdaFilename(now time.Time) string {
	return "proda-claims-" + now.Format("2006-01-02") + ".csv"
}
