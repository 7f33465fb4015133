/*
Package store defines the persistence surface of the engine.

PURPOSE:
  The calculators are pure; everything that reads or writes records goes
  through Store. The detection engine and the monthly cycle only see the
  narrow interfaces they declare (exceptions.Source, exceptions.Sink,
  cycle.Store); Store is the union the HTTP layer and CLI work with.

IMPLEMENTATIONS:
  memory:   in-process maps, for tests and local runs
  sqlstore: database/sql over SQLite or PostgreSQL

SEE ALSO:
  - exceptions/interfaces.go: detection Source and Sink
  - cycle/cycle.go: cycle Store
*/
package store

import (
	"context"
	"errors"
	"time"

	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/exceptions"
	"github.com/propertyfriends/pf-engine/period"
)

var (
	// ErrNotFound aliases domain.ErrNotFound so callers can match either.
	ErrNotFound = domain.ErrNotFound

	// ErrConflict is returned when creating a record that already exists.
	ErrConflict = errors.New("record already exists")
)

// ClaimFilter narrows a claim listing. Empty fields match everything.
type ClaimFilter struct {
	Status     domain.ClaimStatus
	PropertyID string
}

// Keep reports whether c passes the filter.
func (f ClaimFilter) Keep(c domain.Claim) bool {
	return (f.Status == "" || c.Status == f.Status) &&
		(f.PropertyID == "" || c.PropertyID == f.PropertyID)
}

// Store is every persistence operation the engine uses.
type Store interface {
	exceptions.Source
	exceptions.Sink

	SaveProperty(ctx context.Context, p domain.Property) error
	GetProperty(ctx context.Context, id string) (*domain.Property, error)
	ListProperties(ctx context.Context) ([]domain.Property, error)

	SaveParticipant(ctx context.Context, p domain.Participant) error
	GetParticipant(ctx context.Context, id string) (*domain.Participant, error)

	SaveRentalAgency(ctx context.Context, a domain.RentalAgency) error
	GetRentalAgency(ctx context.Context, id string) (*domain.RentalAgency, error)

	SaveServiceBooking(ctx context.Context, b domain.ServiceBooking) error
	GetServiceBooking(ctx context.Context, id string) (*domain.ServiceBooking, error)

	SaveClaim(ctx context.Context, c domain.Claim) error
	GetClaim(ctx context.Context, id string) (*domain.Claim, error)
	ListClaims(ctx context.Context, f ClaimFilter) ([]domain.Claim, error)

	GetReconciliation(ctx context.Context, id string) (*domain.ReconciliationRecord, error)
	// FindReconciliation returns nil when the property has no row for p.
	FindReconciliation(ctx context.Context, propertyID string, p period.Period) (*domain.ReconciliationRecord, error)
	// CreateReconciliation inserts a new row and fails with ErrConflict when
	// one exists for the same property and period.
	CreateReconciliation(ctx context.Context, r domain.ReconciliationRecord) error
	// SaveReconciliation inserts or replaces the row for the property and period.
	SaveReconciliation(ctx context.Context, r domain.ReconciliationRecord) error
	ListReconciliations(ctx context.Context, propertyID string) ([]domain.ReconciliationRecord, error)

	GetException(ctx context.Context, id string) (*exceptions.Exception, error)
	ListExceptions(ctx context.Context, f exceptions.Filter) ([]exceptions.Exception, error)
	OpenExceptionCounts(ctx context.Context) (exceptions.Counts, error)

	Close() error
}

// EndsWithin returns whether an end date falls in [now, now+withinDays].
// Both stores use it so they select the same plans and bookings.
func EndsWithin(end *time.Time, now time.Time, withinDays int) bool {
	if end == nil {
		return false
	}
	limit := now.AddDate(0, 0, withinDays)
	return !end.Before(now) && !end.After(limit)
}
