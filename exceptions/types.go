/*
Package exceptions models operational exceptions and detects them.

PURPOSE:
  An exception is a business risk a person needs to look at: a plan about
  to expire, a rental statement that never arrived, a claim NDIA has not
  paid. Exceptions are created by the detection rules or by other
  components (claim rejection, insufficient booking funds), then worked
  through open -> acknowledged -> resolved, or dismissed.

KEY CONCEPTS:
  - Exception: the persisted record, with a metadata bag used for dedup keys
  - NewException: what a rule or constructor asks the store to create
  - Detector: the three scheduled rules over injected Source and Sink

SEE ALSO:
  - detector.go: detection rules
  - constructors.go: exceptions raised by other components
  - store/memory, store/sqlstore: Source and Sink implementations
*/
package exceptions

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// ENUMS
// =============================================================================

// Type is the kind of exception.
type Type string

const (
	TypeClaimRejection    Type = "claim_rejection"
	TypePlanExpiry        Type = "plan_expiry"
	TypeInsufficientFunds Type = "insufficient_funds"
	TypeMissingStatement  Type = "missing_statement"
	TypePaymentOverdue    Type = "payment_overdue"
	TypeBookingExpiry     Type = "booking_expiry"
	TypePACETransition    Type = "pace_transition"
)

// Severity grades how urgent an exception is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Status tracks an exception through review.
type Status string

const (
	StatusOpen         Status = "open"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
	StatusDismissed    Status = "dismissed"
)

// Active reports whether the exception still needs attention. Only active
// exceptions suppress new ones of the same kind.
func (s Status) Active() bool {
	return s == StatusOpen || s == StatusAcknowledged
}

// EntityType names the column an exception is linked through.
type EntityType string

const (
	EntityProperty    EntityType = "property"
	EntityParticipant EntityType = "participant"
	EntityClaim       EntityType = "claim"
)

// EntityRef identifies the entity an exception is about.
type EntityRef struct {
	Type EntityType
	ID   string
}

func PropertyRef(id string) EntityRef    { return EntityRef{Type: EntityProperty, ID: id} }
func ParticipantRef(id string) EntityRef { return EntityRef{Type: EntityParticipant, ID: id} }
func ClaimRef(id string) EntityRef       { return EntityRef{Type: EntityClaim, ID: id} }

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned when an exception id does not exist.
	ErrNotFound = errors.New("exception not found")

	// ErrInvalidTransition is returned for a status change the workflow does
	// not allow, such as resolving a dismissed exception.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// =============================================================================
// RECORDS
// =============================================================================

// Metadata is the free-form bag stored with an exception.
type Metadata map[string]any

// Int reads a numeric metadata value. Values read back from JSON arrive as
// float64, values set in process as int.
func (m Metadata) Int(key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	default:
		return 0, false
	}
}

// Merge returns a copy of m with extra applied on top.
func (m Metadata) Merge(extra Metadata) Metadata {
	out := make(Metadata, len(m)+len(extra))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Exception is a persisted exception.
type Exception struct {
	ID               string     `json:"id"`
	Type             Type       `json:"type"`
	Severity         Severity   `json:"severity"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	PropertyID       string     `json:"property_id,omitempty"`
	ParticipantID    string     `json:"participant_id,omitempty"`
	ClaimID          string     `json:"claim_id,omitempty"`
	ReconciliationID string     `json:"reconciliation_id,omitempty"`
	Status           Status     `json:"status"`
	AssignedTo       string     `json:"assigned_to,omitempty"`
	ResolvedBy       string     `json:"resolved_by,omitempty"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	ResolutionNotes  string     `json:"resolution_notes,omitempty"`
	Metadata         Metadata   `json:"metadata,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Matches reports whether the exception is linked to ref.
func (e Exception) Matches(ref EntityRef) bool {
	switch ref.Type {
	case EntityProperty:
		return e.PropertyID == ref.ID
	case EntityParticipant:
		return e.ParticipantID == ref.ID
	case EntityClaim:
		return e.ClaimID == ref.ID
	}
	return false
}

// NewException is a request to create an exception. New exceptions are
// always open.
type NewException struct {
	Type             Type     `json:"type"`
	Severity         Severity `json:"severity"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	PropertyID       string   `json:"property_id,omitempty"`
	ParticipantID    string   `json:"participant_id,omitempty"`
	ClaimID          string   `json:"claim_id,omitempty"`
	ReconciliationID string   `json:"reconciliation_id,omitempty"`
	Metadata         Metadata `json:"metadata,omitempty"`
}

// Update is a partial update. Nil fields are left unchanged; a non-nil
// Metadata replaces the stored bag.
type Update struct {
	Severity        *Severity
	Description     *string
	Metadata        Metadata
	Status          *Status
	AssignedTo      *string
	ResolvedBy      *string
	ResolvedAt      *time.Time
	ResolutionNotes *string
}

// Apply writes the update onto e and stamps UpdatedAt.
func (u Update) Apply(e *Exception, now time.Time) {
	if u.Severity != nil {
		e.Severity = *u.Severity
	}
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.Metadata != nil {
		e.Metadata = u.Metadata
	}
	if u.Status != nil {
		e.Status = *u.Status
	}
	if u.AssignedTo != nil {
		e.AssignedTo = *u.AssignedTo
	}
	if u.ResolvedBy != nil {
		e.ResolvedBy = *u.ResolvedBy
	}
	if u.ResolvedAt != nil {
		t := *u.ResolvedAt
		e.ResolvedAt = &t
	}
	if u.ResolutionNotes != nil {
		e.ResolutionNotes = *u.ResolutionNotes
	}
	e.UpdatedAt = now
}

// Counts is the number of open exceptions per severity.
type Counts struct {
	Info     int `json:"info"`
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
}

// Add counts one exception of severity s.
func (c *Counts) Add(s Severity) {
	switch s {
	case SeverityInfo:
		c.Info++
	case SeverityWarning:
		c.Warning++
	case SeverityCritical:
		c.Critical++
	}
}

// Filter narrows an exception listing. Empty fields match everything.
type Filter struct {
	Status   Status
	Severity Severity
	Type     Type
}

// Keep reports whether e passes the filter.
func (f Filter) Keep(e Exception) bool {
	return (f.Status == "" || e.Status == f.Status) &&
		(f.Severity == "" || e.Severity == f.Severity) &&
		(f.Type == "" || e.Type == f.Type)
}

// =============================================================================
// WORKFLOW
// =============================================================================

// Transition builds the update moving an exception from current to target.
// Acknowledging records the actor as assignee; resolving and dismissing
// record who closed it, when, and why.
func Transition(current, target Status, actor, notes string, now time.Time) (Update, error) {
	allowed := false
	switch target {
	case StatusAcknowledged:
		allowed = current == StatusOpen
	case StatusResolved, StatusDismissed:
		allowed = current.Active()
	}
	if !allowed {
		return Update{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
	}

	u := Update{Status: &target}
	if target == StatusAcknowledged {
		u.AssignedTo = &actor
		return u, nil
	}
	u.ResolvedBy = &actor
	u.ResolvedAt = &now
	u.ResolutionNotes = &notes
	return u, nil
}
