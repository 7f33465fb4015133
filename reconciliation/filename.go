package reconciliation

import (
	"fmt"
	"time"

	"github.com/propertyfriends/pf-engine/period"
)

// Filename is the document title for a reconciliation,
// e.g. "Reconciliation Stmt 13 for February 2026".
func Filename(statementNumber int, p period.Period) string {
	return fmt.Sprintf("Reconciliation Stmt %d for %s %d", statementNumber, time.Month(p.Month), p.Year)
}

// StatementPath is the storage key of a property-month's rental statement.
func StatementPath(propertyID string, p period.Period) string {
	return fmt.Sprintf("%s/%d/%02d/statement.pdf", propertyID, p.Year, p.Month)
}

// ReportPath is the storage key of a property-month's reconciliation PDF.
func ReportPath(propertyID string, p period.Period) string {
	return fmt.Sprintf("%s/%d/%02d/reconciliation.pdf", propertyID, p.Year, p.Month)
}
