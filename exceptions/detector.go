package exceptions

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/period"
	"github.com/sirupsen/logrus"
)

// Rule names, used in logs and entity errors.
const (
	RulePlanExpiry       = "plan_expiry"
	RuleMissingStatement = "missing_statement"
	RuleOverdueInvoice   = "overdue_invoice"
	RuleBookingExpiry    = "booking_expiry"
)

// Config holds the detection windows.
type Config struct {
	// PlanExpiryDays is how far ahead plan end dates are checked.
	PlanExpiryDays int
	// PlanCriticalDays is the remaining-days threshold for a critical plan expiry.
	PlanCriticalDays int
	// GraceDay is the day of the following month after which a missing
	// statement is flagged.
	GraceDay int
	// OverdueWarningDays and OverdueCriticalDays grade submitted, unpaid claims.
	OverdueWarningDays  int
	OverdueCriticalDays int
	// BookingExpiryDays is how far ahead service booking end dates are checked.
	BookingExpiryDays int
}

// DefaultConfig returns the standard windows.
func DefaultConfig() Config {
	return Config{
		PlanExpiryDays:      30,
		PlanCriticalDays:    7,
		GraceDay:            5,
		OverdueWarningDays:  14,
		OverdueCriticalDays: 30,
		BookingExpiryDays:   30,
	}
}

// EntityError records a failure on one entity. The rule carries on with the
// next entity.
type EntityError struct {
	Rule     string
	EntityID string
	Err      error
}

func (e EntityError) Error() string {
	if e.EntityID == "" {
		return fmt.Sprintf("%s: %v", e.Rule, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Rule, e.EntityID, e.Err)
}

func (e EntityError) Unwrap() error { return e.Err }

// MarshalText lets summaries carry the message in JSON.
func (e EntityError) MarshalText() ([]byte, error) { return []byte(e.Error()), nil }

// RuleResult is the outcome of one rule run.
type RuleResult struct {
	Created   int           `json:"created"`
	Escalated int           `json:"escalated"`
	Errors    []EntityError `json:"errors,omitempty"`
}

// Count is the units of work done: created plus escalated.
func (r RuleResult) Count() int { return r.Created + r.Escalated }

// Summary is the outcome of RunAll.
type Summary struct {
	Period            period.Period `json:"period"`
	PlanExpiries      int           `json:"plan_expiries"`
	MissingStatements int           `json:"missing_statements"`
	OverdueInvoices   int           `json:"overdue_invoices"`
	BookingExpiries   int           `json:"booking_expiries"`
	Total             int           `json:"total"`
	Errors            []EntityError `json:"errors,omitempty"`
}

// Option configures a Detector.
type Option func(*Detector)

// WithNotifier routes critical creations and escalations to n.
func WithNotifier(n Notifier) Option {
	return func(d *Detector) { d.notifier = n }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// Detector runs the detection rules. It holds no state between runs: every
// dedup decision is a lookup through Source, so re-running is safe. Runs
// must not overlap; the lookups are check-then-act.
type Detector struct {
	source   Source
	sink     Sink
	cfg      Config
	logger   logrus.FieldLogger
	notifier Notifier
	now      func() time.Time
}

// NewDetector creates a detector. A nil logger uses the logrus standard logger.
func NewDetector(source Source, sink Sink, cfg Config, logger logrus.FieldLogger, opts ...Option) *Detector {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	d := &Detector{source: source, sink: sink, cfg: cfg, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// =============================================================================
// AGGREGATE
// =============================================================================

// RunAll runs the four rules in sequence, checking statements for the
// month before now. A rule that cannot load its entities is recorded and
// the next rule still runs; the returned error joins those failures.
func (d *Detector) RunAll(ctx context.Context) (Summary, error) {
	prev := period.Of(d.now()).Previous()
	s := Summary{Period: prev}
	var errs []error

	plans, err := d.DetectExpiringPlans(ctx, d.cfg.PlanExpiryDays)
	s.PlanExpiries = plans.Count()
	s.Errors = append(s.Errors, plans.Errors...)
	errs = append(errs, err)

	missing, err := d.DetectMissingStatements(ctx, prev)
	s.MissingStatements = missing.Count()
	s.Errors = append(s.Errors, missing.Errors...)
	errs = append(errs, err)

	overdue, err := d.DetectOverdueInvoices(ctx)
	s.OverdueInvoices = overdue.Count()
	s.Errors = append(s.Errors, overdue.Errors...)
	errs = append(errs, err)

	bookings, err := d.DetectExpiringBookings(ctx, d.cfg.BookingExpiryDays)
	s.BookingExpiries = bookings.Count()
	s.Errors = append(s.Errors, bookings.Errors...)
	errs = append(errs, err)

	s.Total = s.PlanExpiries + s.MissingStatements + s.OverdueInvoices + s.BookingExpiries
	d.logger.WithFields(logrus.Fields{
		"period":             prev.String(),
		"plan_expiries":      s.PlanExpiries,
		"missing_statements": s.MissingStatements,
		"overdue_invoices":   s.OverdueInvoices,
		"booking_expiries":   s.BookingExpiries,
		"errors":             len(s.Errors),
	}).Info("exception detection complete")
	return s, errors.Join(errs...)
}

// =============================================================================
// RULES
// =============================================================================

// DetectExpiringPlans flags participants whose plan ends within withinDays.
// Plans with PlanCriticalDays or fewer remaining are critical.
func (d *Detector) DetectExpiringPlans(ctx context.Context, withinDays int) (RuleResult, error) {
	var res RuleResult
	now := d.now()

	participants, err := d.source.ExpiringPlans(ctx, now, withinDays)
	if err != nil {
		return res, d.ruleFailed(&res, RulePlanExpiry, fmt.Errorf("load expiring plans: %w", err))
	}

	for _, p := range participants {
		existing, err := d.source.FindOpenException(ctx, ParticipantRef(p.ID), TypePlanExpiry, nil)
		if err != nil {
			d.entityFailed(&res, RulePlanExpiry, p.ID, err)
			continue
		}
		if existing != nil {
			continue
		}

		days, end := 0, "unknown"
		meta := Metadata{"ndis_number": p.NDISNumber}
		if p.PlanEndDate != nil {
			days = period.DaysUntilCeil(now, *p.PlanEndDate)
			end = p.PlanEndDate.Format("2006-01-02")
			meta["plan_end_date"] = p.PlanEndDate.UTC().Format(time.RFC3339)
		}
		meta["days_until_expiry"] = days

		severity := SeverityWarning
		if days <= d.cfg.PlanCriticalDays {
			severity = SeverityCritical
		}

		in := NewException{
			Type:     TypePlanExpiry,
			Severity: severity,
			Title:    "Plan expiring for " + p.FullName(),
			Description: fmt.Sprintf("NDIS plan for participant %s expires on %s (%d days remaining). "+
				"Action required to ensure continuity of SDA funding.", p.NDISNumber, end, days),
			ParticipantID: p.ID,
			Metadata:      meta,
		}
		if d.create(ctx, &res, RulePlanExpiry, p.ID, in) {
			res.Created++
		}
	}
	return res, nil
}

// DetectMissingStatements flags enrolled properties with no reconciliation
// for p. Nothing is flagged until GraceDay of the month after p.
func (d *Detector) DetectMissingStatements(ctx context.Context, p period.Period) (RuleResult, error) {
	var res RuleResult
	now := d.now()

	next := p.Next()
	checkFrom := time.Date(next.Year, time.Month(next.Month), d.cfg.GraceDay, 0, 0, 0, 0, now.Location())
	if now.Before(checkFrom) {
		d.logger.WithFields(logrus.Fields{
			"rule":       RuleMissingStatement,
			"period":     p.String(),
			"check_from": checkFrom.Format("2006-01-02"),
		}).Debug("inside statement grace period")
		return res, nil
	}

	properties, err := d.source.EnrolledProperties(ctx)
	if err != nil {
		return res, d.ruleFailed(&res, RuleMissingStatement, fmt.Errorf("load enrolled properties: %w", err))
	}
	if len(properties) == 0 {
		return res, nil
	}
	reconciled, err := d.source.ReconciledPropertyIDs(ctx, p)
	if err != nil {
		return res, d.ruleFailed(&res, RuleMissingStatement, fmt.Errorf("load reconciliations for %s: %w", p, err))
	}

	for _, prop := range properties {
		if reconciled[prop.ID] {
			continue
		}
		existing, err := d.source.FindOpenException(ctx, PropertyRef(prop.ID), TypeMissingStatement, &p)
		if err != nil {
			d.entityFailed(&res, RuleMissingStatement, prop.ID, err)
			continue
		}
		if existing != nil {
			continue
		}

		label := prop.PropertyLabel
		if label == "" {
			label = prop.AddressLine1
		}
		in := NewException{
			Type:     TypeMissingStatement,
			Severity: SeverityWarning,
			Title:    "Missing rental statement for " + label,
			Description: fmt.Sprintf("No rental statement has been received for %s (%s) for %s. "+
				"Please follow up with the rental agency.", label, prop.Suburb, p),
			PropertyID: prop.ID,
			Metadata:   Metadata{"month": p.Month, "year": p.Year, "property_label": label},
		}
		if d.create(ctx, &res, RuleMissingStatement, prop.ID, in) {
			res.Created++
		}
	}
	return res, nil
}

// DetectOverdueInvoices flags submitted claims unpaid for
// OverdueWarningDays or more. A warning already raised for a claim is
// escalated in place once it passes OverdueCriticalDays.
func (d *Detector) DetectOverdueInvoices(ctx context.Context) (RuleResult, error) {
	var res RuleResult
	now := d.now()

	claims, err := d.source.SubmittedClaimsBefore(ctx, now.AddDate(0, 0, -d.cfg.OverdueWarningDays))
	if err != nil {
		return res, d.ruleFailed(&res, RuleOverdueInvoice, fmt.Errorf("load submitted claims: %w", err))
	}

	for _, c := range claims {
		if c.SubmittedAt == nil {
			continue
		}
		days := int(math.Floor(now.Sub(*c.SubmittedAt).Hours() / 24))
		severity := SeverityWarning
		if days >= d.cfg.OverdueCriticalDays {
			severity = SeverityCritical
		}

		existing, err := d.source.FindOpenException(ctx, ClaimRef(c.ID), TypePaymentOverdue, nil)
		if err != nil {
			d.entityFailed(&res, RuleOverdueInvoice, c.ID, err)
			continue
		}
		if existing != nil {
			if existing.Severity == SeverityWarning && severity == SeverityCritical {
				if d.escalate(ctx, &res, *existing, c, days, now) {
					res.Escalated++
				}
			}
			continue
		}

		in := NewException{
			Type:          TypePaymentOverdue,
			Severity:      severity,
			Title:         "Overdue payment: " + c.ClaimReference,
			Description:   overdueDescription(c, days, severity),
			ClaimID:       c.ID,
			PropertyID:    c.PropertyID,
			ParticipantID: c.ParticipantID,
			Metadata: Metadata{
				"claim_reference": c.ClaimReference,
				"claim_pathway":   string(c.ClaimPathway),
				"submitted_at":    c.SubmittedAt.UTC().Format(time.RFC3339),
				"days_overdue":    days,
			},
		}
		if d.create(ctx, &res, RuleOverdueInvoice, c.ID, in) {
			res.Created++
		}
	}
	return res, nil
}

// DetectExpiringBookings flags service bookings ending within withinDays.
// A participant carries at most one open booking-expiry exception.
func (d *Detector) DetectExpiringBookings(ctx context.Context, withinDays int) (RuleResult, error) {
	var res RuleResult
	now := d.now()

	bookings, err := d.source.ExpiringBookings(ctx, now, withinDays)
	if err != nil {
		return res, d.ruleFailed(&res, RuleBookingExpiry, fmt.Errorf("load expiring bookings: %w", err))
	}

	for _, b := range bookings {
		existing, err := d.source.FindOpenException(ctx, ParticipantRef(b.Participant.ID), TypeBookingExpiry, nil)
		if err != nil {
			d.entityFailed(&res, RuleBookingExpiry, b.Booking.ID, err)
			continue
		}
		if existing != nil {
			continue
		}

		in := FromBookingExpiry(b.Booking, b.Participant)
		in.Metadata = in.Metadata.Merge(Metadata{
			"end_date":          b.Booking.EndDate.Format("2006-01-02"),
			"days_until_expiry": period.DaysUntilCeil(now, b.Booking.EndDate),
			"remaining":         int64(b.Booking.RemainingAmount),
		})
		if d.create(ctx, &res, RuleBookingExpiry, b.Booking.ID, in) {
			res.Created++
		}
	}
	return res, nil
}

func overdueDescription(c domain.Claim, days int, severity Severity) string {
	action := "Follow-up recommended."
	if severity == SeverityCritical {
		action = "Immediate follow-up required."
	}
	return fmt.Sprintf("Claim %s (%s) was submitted %d days ago and has not been paid. %s",
		c.ClaimReference, c.ClaimPathway, days, action)
}

// =============================================================================
// HELPERS
// =============================================================================

func (d *Detector) create(ctx context.Context, res *RuleResult, rule, entityID string, in NewException) bool {
	e, err := d.sink.CreateException(ctx, in)
	if err != nil {
		d.entityFailed(res, rule, entityID, fmt.Errorf("create exception: %w", err))
		return false
	}
	d.logger.WithFields(logrus.Fields{
		"rule":      rule,
		"entity_id": entityID,
		"severity":  in.Severity,
	}).Info("exception created")
	if e != nil && e.Severity == SeverityCritical {
		d.notify(ctx, *e)
	}
	return true
}

func (d *Detector) escalate(ctx context.Context, res *RuleResult, existing Exception, c domain.Claim, days int, now time.Time) bool {
	severity := SeverityCritical
	desc := fmt.Sprintf("Claim %s has been submitted for %d days without payment. Immediate follow-up required.",
		c.ClaimReference, days)
	meta := existing.Metadata.Merge(Metadata{
		"days_overdue": days,
		"escalated_at": now.UTC().Format(time.RFC3339),
	})

	u := Update{Severity: &severity, Description: &desc, Metadata: meta}
	if err := d.sink.UpdateException(ctx, existing.ID, u); err != nil {
		d.entityFailed(res, RuleOverdueInvoice, c.ID, fmt.Errorf("escalate exception %s: %w", existing.ID, err))
		return false
	}
	d.logger.WithFields(logrus.Fields{
		"rule":         RuleOverdueInvoice,
		"entity_id":    c.ID,
		"exception_id": existing.ID,
		"days_overdue": days,
	}).Warn("exception escalated")

	u.Apply(&existing, now)
	d.notify(ctx, existing)
	return true
}

func (d *Detector) notify(ctx context.Context, e Exception) {
	if d.notifier == nil {
		return
	}
	if err := d.notifier.Notify(ctx, e); err != nil {
		d.logger.WithError(err).WithField("exception_id", e.ID).Warn("exception notification failed")
	}
}

func (d *Detector) entityFailed(res *RuleResult, rule, entityID string, err error) {
	res.Errors = append(res.Errors, EntityError{Rule: rule, EntityID: entityID, Err: err})
	d.logger.WithError(err).WithFields(logrus.Fields{
		"rule":      rule,
		"entity_id": entityID,
	}).Error("exception detection failed for entity")
}

func (d *Detector) ruleFailed(res *RuleResult, rule string, err error) error {
	res.Errors = append(res.Errors, EntityError{Rule: rule, Err: err})
	d.logger.WithError(err).WithField("rule", rule).Error("exception rule aborted")
	return err
}
