package claims

import (
	"errors"
	"fmt"
	"time"

	"github.com/propertyfriends/pf-engine/domain"
)

var (
	// ErrInvalidStatus is returned for a claim status change the lifecycle
	// does not allow, such as paying a claim that was never approved.
	ErrInvalidStatus = errors.New("invalid claim status change")

	// ErrReasonRequired is returned when rejecting without a reason.
	ErrReasonRequired = errors.New("rejection reason is required")
)

// claimFlow lists the statuses each status may move to. A rejected claim
// can be corrected and submitted again.
var claimFlow = map[domain.ClaimStatus][]domain.ClaimStatus{
	domain.ClaimDraft:     {domain.ClaimValidated, domain.ClaimSubmitted},
	domain.ClaimValidated: {domain.ClaimSubmitted},
	domain.ClaimSubmitted: {domain.ClaimApproved, domain.ClaimRejected},
	domain.ClaimApproved:  {domain.ClaimPaid, domain.ClaimRejected},
	domain.ClaimRejected:  {domain.ClaimSubmitted},
}

// CanMove reports whether a claim in from may move to to.
func CanMove(from, to domain.ClaimStatus) bool {
	for _, next := range claimFlow[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdateStatus moves c to status and stamps the matching timestamp:
// submitted_at, approved_at or paid_at. Rejecting records the reason.
// On error c is left unchanged.
func UpdateStatus(c *domain.Claim, status domain.ClaimStatus, reason string, now time.Time) error {
	if !CanMove(c.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, c.Status, status)
	}
	if status == domain.ClaimRejected && reason == "" {
		return ErrReasonRequired
	}

	switch status {
	case domain.ClaimSubmitted:
		c.SubmittedAt = &now
		c.RejectionReason = ""
	case domain.ClaimApproved:
		c.ApprovedAt = &now
	case domain.ClaimPaid:
		c.PaidAt = &now
	case domain.ClaimRejected:
		c.RejectionReason = reason
	}
	c.Status = status
	return nil
}
