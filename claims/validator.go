package claims

import (
	"fmt"
	"strings"

	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/money"
)

// Booking is the optional service-booking balance a draft is checked
// against. Nil fields are not checked.
type Booking struct {
	Allocated *money.Cents
	Remaining *money.Cents
}

// ValidateDraft checks a draft before it is saved. It never fails; the
// returned findings are empty when the draft is valid.
func ValidateDraft(d Draft, booking Booking) []domain.ValidationError {
	errs := []domain.ValidationError{}

	if d.TotalAmount <= 0 {
		errs = append(errs, domain.ValidationError{Field: "totalAmount", Message: "Total claim amount must be positive"})
	}
	if d.SdaAmount <= 0 {
		errs = append(errs, domain.ValidationError{Field: "sdaAmount", Message: "SDA amount must be positive"})
	}
	if !d.PeriodEnd.After(d.PeriodStart) {
		errs = append(errs, domain.ValidationError{Field: "periodEnd", Message: "Period end must be after period start"})
	}
	if !strings.HasPrefix(d.ClaimReference, ReferencePrefix) {
		errs = append(errs, domain.ValidationError{Field: "claimReference", Message: "Claim reference must start with PF-"})
	}
	if booking.Remaining != nil && d.SdaAmount > *booking.Remaining {
		errs = append(errs, domain.ValidationError{
			Field:   "sdaAmount",
			Message: fmt.Sprintf("SDA amount exceeds booking remaining amount (%d)", *booking.Remaining),
		})
	}

	return errs
}
