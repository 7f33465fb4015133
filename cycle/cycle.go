/*
cycle.go - Monthly reconciliation cycle

PURPOSE:
  On the first of each month every SDA-enrolled property gets a pending
  reconciliation row for the month just ended. Rows that already exist are
  left alone, so the cycle can be re-run after a failure.

SEE ALSO:
  - exceptions/detector.go: the missing-statement rule reads these rows
  - api/scheduler.go: runs the cycle on a cron schedule
*/
package cycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/period"
	"github.com/propertyfriends/pf-engine/store"
	"github.com/sirupsen/logrus"
)

// Store is what the cycle reads and writes.
type Store interface {
	EnrolledProperties(ctx context.Context) ([]domain.Property, error)
	// FindReconciliation returns nil when no row exists.
	FindReconciliation(ctx context.Context, propertyID string, p period.Period) (*domain.ReconciliationRecord, error)
	CreateReconciliation(ctx context.Context, r domain.ReconciliationRecord) error
}

// PropertyError is a failure on one property.
type PropertyError struct {
	PropertyID string `json:"property_id"`
	Error      string `json:"error"`
}

// Summary is the outcome of a cycle run.
type Summary struct {
	Period                 period.Period   `json:"period"`
	PropertiesChecked      int             `json:"properties_checked"`
	ReconciliationsCreated int             `json:"reconciliations_created"`
	Skipped                int             `json:"skipped"`
	Errors                 []PropertyError `json:"errors"`
}

// Runner creates the monthly pending reconciliations.
type Runner struct {
	store  Store
	logger logrus.FieldLogger
}

// NewRunner creates a runner. A nil logger uses the logrus standard logger.
func NewRunner(s Store, logger logrus.FieldLogger) *Runner {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Runner{store: s, logger: logger}
}

// Run creates a pending reconciliation for p on every enrolled property
// that lacks one. Only a failure to list properties aborts the run;
// per-property failures are collected in the summary.
func (r *Runner) Run(ctx context.Context, p period.Period) (Summary, error) {
	s := Summary{Period: p, Errors: []PropertyError{}}
	if !p.Valid() {
		return s, fmt.Errorf("%w: %d/%d", period.ErrInvalidPeriod, p.Month, p.Year)
	}

	properties, err := r.store.EnrolledProperties(ctx)
	if err != nil {
		return s, fmt.Errorf("load enrolled properties: %w", err)
	}
	s.PropertiesChecked = len(properties)

	for _, prop := range properties {
		created, err := r.ensure(ctx, prop.ID, p)
		switch {
		case err != nil:
			s.Errors = append(s.Errors, PropertyError{PropertyID: prop.ID, Error: err.Error()})
			r.logger.WithError(err).WithField("property_id", prop.ID).Error("reconciliation cycle failed for property")
		case created:
			s.ReconciliationsCreated++
		default:
			s.Skipped++
		}
	}

	r.logger.WithFields(logrus.Fields{
		"period":  p.String(),
		"checked": s.PropertiesChecked,
		"created": s.ReconciliationsCreated,
		"skipped": s.Skipped,
		"errors":  len(s.Errors),
	}).Info("reconciliation cycle complete")
	return s, nil
}

// RunPrevious runs the cycle for the month before the one containing now.
func (r *Runner) RunPrevious(ctx context.Context, now period.Period) (Summary, error) {
	return r.Run(ctx, now.Previous())
}

func (r *Runner) ensure(ctx context.Context, propertyID string, p period.Period) (bool, error) {
	existing, err := r.store.FindReconciliation(ctx, propertyID, p)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	err = r.store.CreateReconciliation(ctx, domain.ReconciliationRecord{
		PropertyID: propertyID,
		Period:     p,
		Status:     domain.ReconPending,
	})
	if errors.Is(err, store.ErrConflict) {
		// Created by a concurrent run between the lookup and the insert.
		return false, nil
	}
	return err == nil, err
}
