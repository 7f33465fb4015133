package exceptions

import (
	"context"
	"time"

	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/period"
)

// Source is what the detection rules read.
//
//go:generate mockgen -destination=mocks/mock_interfaces.go -source=interfaces.go
type Source interface {
	// ExpiringPlans returns participants whose plan ends between now and
	// now + withinDays.
	ExpiringPlans(ctx context.Context, now time.Time, withinDays int) ([]domain.Participant, error)
	// ExpiringBookings returns service bookings ending between now and
	// now + withinDays, each with its participant.
	ExpiringBookings(ctx context.Context, now time.Time, withinDays int) ([]ExpiringBooking, error)
	// EnrolledProperties returns properties with SDA enrolment status enrolled.
	EnrolledProperties(ctx context.Context) ([]domain.Property, error)
	// ReconciledPropertyIDs returns the ids of properties that have a
	// reconciliation row for p.
	ReconciledPropertyIDs(ctx context.Context, p period.Period) (map[string]bool, error)
	// SubmittedClaimsBefore returns claims in status submitted whose
	// submission time is at or before cutoff, oldest first.
	SubmittedClaimsBefore(ctx context.Context, cutoff time.Time) ([]domain.Claim, error)
	// FindOpenException returns the open or acknowledged exception of type t
	// linked to ref, or nil. With a period, only exceptions whose month/year
	// metadata match are considered.
	FindOpenException(ctx context.Context, ref EntityRef, t Type, p *period.Period) (*Exception, error)
}

// ExpiringBooking is a service booking with the participant it funds.
type ExpiringBooking struct {
	Booking     domain.ServiceBooking
	Participant domain.Participant
}

// Sink is what the detection rules write.
type Sink interface {
	CreateException(ctx context.Context, in NewException) (*Exception, error)
	UpdateException(ctx context.Context, id string, u Update) error
}

// Notifier is told about critical exceptions as they are raised.
type Notifier interface {
	Notify(ctx context.Context, e Exception) error
}
