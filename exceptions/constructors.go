package exceptions

import (
	"fmt"

	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/money"
	"github.com/propertyfriends/pf-engine/period"
)

// FromClaimRejection raises a critical exception for a claim NDIA or a plan
// manager rejected.
func FromClaimRejection(claim domain.Claim, reason string) NewException {
	return NewException{
		Type:          TypeClaimRejection,
		Severity:      SeverityCritical,
		Title:         fmt.Sprintf("Claim %s rejected", claim.ClaimReference),
		Description:   "Reason: " + reason,
		PropertyID:    claim.PropertyID,
		ParticipantID: claim.ParticipantID,
		ClaimID:       claim.ID,
		Metadata:      Metadata{"rejection_reason": reason},
	}
}

// FromPlanExpiry raises a warning for a participant whose plan is ending.
func FromPlanExpiry(participant domain.Participant, property domain.Property) NewException {
	end := "unknown"
	if participant.PlanEndDate != nil {
		end = period.FormatAU(*participant.PlanEndDate)
	}
	return NewException{
		Type:     TypePlanExpiry,
		Severity: SeverityWarning,
		Title:    "Plan expiring for " + participant.FullName(),
		Description: fmt.Sprintf("NDIS plan for %s at %s expires %s",
			participant.FullName(), property.Label(), end),
		PropertyID:    property.ID,
		ParticipantID: participant.ID,
	}
}

// FromMissingStatement raises a warning for a property with no rental
// statement for p. The period is stored as month/year metadata, which is
// what dedup lookups match on.
func FromMissingStatement(property domain.Property, p period.Period) NewException {
	return NewException{
		Type:        TypeMissingStatement,
		Severity:    SeverityWarning,
		Title:       "Missing rental statement for " + property.Label(),
		Description: "No rental statement received for " + p.Display(),
		PropertyID:  property.ID,
		Metadata:    Metadata{"month": p.Month, "year": p.Year},
	}
}

// FromBookingExpiry raises a warning for a service booking about to end.
func FromBookingExpiry(booking domain.ServiceBooking, participant domain.Participant) NewException {
	return NewException{
		Type:          TypeBookingExpiry,
		Severity:      SeverityWarning,
		Title:         "Service booking expiring for " + participant.FullName(),
		Description:   fmt.Sprintf("Booking %s ends %s", booking.Reference(), period.FormatAU(booking.EndDate)),
		ParticipantID: participant.ID,
		PropertyID:    booking.PropertyID,
		Metadata:      Metadata{"booking_id": booking.ID},
	}
}

// FromInsufficientFunds raises a critical exception when a claim exceeds
// what is left on the booking.
func FromInsufficientFunds(booking domain.ServiceBooking, claimAmount money.Cents) NewException {
	return NewException{
		Type:     TypeInsufficientFunds,
		Severity: SeverityCritical,
		Title:    "Insufficient booking funds",
		Description: fmt.Sprintf("Claim amount %s exceeds remaining booking balance %s",
			money.FormatAUD(claimAmount), money.FormatAUD(booking.RemainingAmount)),
		ParticipantID: booking.ParticipantID,
		PropertyID:    booking.PropertyID,
		Metadata: Metadata{
			"booking_id":   booking.ID,
			"claim_amount": int64(claimAmount),
			"remaining":    int64(booking.RemainingAmount),
		},
	}
}
