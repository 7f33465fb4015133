package reconciliation

import (
	"errors"
	"fmt"
	"time"

	"github.com/propertyfriends/pf-engine/domain"
)

// ErrInvalidStatus is returned for a status change the review workflow
// does not allow, such as publishing an unapproved statement.
var ErrInvalidStatus = errors.New("invalid reconciliation status change")

// reviewFlow is pending -> generated -> reviewed -> approved -> published.
// A reviewer may send a statement back for regeneration.
var reviewFlow = map[domain.ReconStatus][]domain.ReconStatus{
	domain.ReconPending:   {domain.ReconGenerated},
	domain.ReconGenerated: {domain.ReconReviewed},
	domain.ReconReviewed:  {domain.ReconApproved, domain.ReconGenerated},
	domain.ReconApproved:  {domain.ReconPublished},
}

// UpdateStatus moves r to status. Approving records the actor and time;
// publishing records the time. Non-empty notes replace the record's notes.
// On error r is left unchanged.
func UpdateStatus(r *domain.ReconciliationRecord, status domain.ReconStatus, actor, notes string, now time.Time) error {
	allowed := false
	for _, next := range reviewFlow[r.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, r.Status, status)
	}

	switch status {
	case domain.ReconApproved:
		r.ApprovedBy = actor
		r.ApprovedAt = &now
	case domain.ReconPublished:
		r.PublishedAt = &now
	}
	if notes != "" {
		r.Notes = notes
	}
	r.Status = status
	return nil
}
