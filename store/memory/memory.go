// Package memory provides an in-memory Store (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/exceptions"
	"github.com/propertyfriends/pf-engine/period"
	"github.com/propertyfriends/pf-engine/store"
)

var _ store.Store = (*Memory)(nil)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu              sync.RWMutex
	properties      map[string]domain.Property
	participants    map[string]domain.Participant
	agencies        map[string]domain.RentalAgency
	bookings        map[string]domain.ServiceBooking
	claims          map[string]domain.Claim
	reconciliations map[reconKey]domain.ReconciliationRecord
	exceptions      map[string]exceptions.Exception
	seq             []string // exception ids in creation order
	now             func() time.Time
}

type reconKey struct {
	PropertyID string
	Period     period.Period
}

// Option configures a Memory store.
type Option func(*Memory)

// WithClock overrides the time used for created/updated stamps.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

func New(opts ...Option) *Memory {
	m := &Memory{
		properties:      make(map[string]domain.Property),
		participants:    make(map[string]domain.Participant),
		agencies:        make(map[string]domain.RentalAgency),
		bookings:        make(map[string]domain.ServiceBooking),
		claims:          make(map[string]domain.Claim),
		reconciliations: make(map[reconKey]domain.ReconciliationRecord),
		exceptions:      make(map[string]exceptions.Exception),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Close() error { return nil }

// =============================================================================
// ENTITIES
// =============================================================================

func (m *Memory) SaveProperty(_ context.Context, p domain.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.properties[p.ID] = p
	return nil
}

func (m *Memory) GetProperty(_ context.Context, id string) (*domain.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.properties[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) ListProperties(_ context.Context) ([]domain.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedProperties(func(domain.Property) bool { return true }), nil
}

func (m *Memory) EnrolledProperties(_ context.Context) ([]domain.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedProperties(func(p domain.Property) bool {
		return p.SdaEnrolmentStatus == domain.EnrolmentEnrolled
	}), nil
}

func (m *Memory) sortedProperties(keep func(domain.Property) bool) []domain.Property {
	result := []domain.Property{}
	for _, p := range m.properties {
		if keep(p) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *Memory) SaveParticipant(_ context.Context, p domain.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants[p.ID] = p
	return nil
}

func (m *Memory) GetParticipant(_ context.Context, id string) (*domain.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.participants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) ExpiringPlans(_ context.Context, now time.Time, withinDays int) ([]domain.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := []domain.Participant{}
	for _, p := range m.participants {
		if store.EndsWithin(p.PlanEndDate, now, withinDays) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PlanEndDate.Before(*result[j].PlanEndDate) })
	return result, nil
}

func (m *Memory) SaveRentalAgency(_ context.Context, a domain.RentalAgency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agencies[a.ID] = a
	return nil
}

// ExpiringBookings pairs each booking ending in the window with its
// participant. Bookings whose participant is unknown are skipped.
func (m *Memory) ExpiringBookings(_ context.Context, now time.Time, withinDays int) ([]exceptions.ExpiringBooking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := []exceptions.ExpiringBooking{}
	for _, b := range m.bookings {
		if !store.EndsWithin(&b.EndDate, now, withinDays) {
			continue
		}
		p, ok := m.participants[b.ParticipantID]
		if !ok {
			continue
		}
		result = append(result, exceptions.ExpiringBooking{Booking: b, Participant: p})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Booking.EndDate.Before(result[j].Booking.EndDate) })
	return result, nil
}

func (m *Memory) GetRentalAgency(_ context.Context, id string) (*domain.RentalAgency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.agencies[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (m *Memory) SaveServiceBooking(_ context.Context, b domain.ServiceBooking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = b
	return nil
}

func (m *Memory) GetServiceBooking(_ context.Context, id string) (*domain.ServiceBooking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

// =============================================================================
// CLAIMS
// =============================================================================

func (m *Memory) SaveClaim(_ context.Context, c domain.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = m.now()
	}
	m.claims[c.ID] = c
	return nil
}

func (m *Memory) GetClaim(_ context.Context, id string) (*domain.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.claims[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (m *Memory) ListClaims(_ context.Context, f store.ClaimFilter) ([]domain.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := []domain.Claim{}
	for _, c := range m.claims {
		if f.Keep(c) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *Memory) SubmittedClaimsBefore(_ context.Context, cutoff time.Time) ([]domain.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := []domain.Claim{}
	for _, c := range m.claims {
		if c.Status == domain.ClaimSubmitted && c.SubmittedAt != nil && !c.SubmittedAt.After(cutoff) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SubmittedAt.Before(*result[j].SubmittedAt) })
	return result, nil
}

// =============================================================================
// RECONCILIATIONS
// =============================================================================

func (m *Memory) GetReconciliation(_ context.Context, id string) (*domain.ReconciliationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.reconciliations {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) FindReconciliation(_ context.Context, propertyID string, p period.Period) (*domain.ReconciliationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reconciliations[reconKey{propertyID, p}]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Memory) CreateReconciliation(_ context.Context, r domain.ReconciliationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := reconKey{r.PropertyID, r.Period}
	if _, exists := m.reconciliations[k]; exists {
		return store.ErrConflict
	}
	m.putReconciliationLocked(k, r)
	return nil
}

func (m *Memory) SaveReconciliation(_ context.Context, r domain.ReconciliationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := reconKey{r.PropertyID, r.Period}
	if existing, ok := m.reconciliations[k]; ok {
		r.ID, r.CreatedAt = existing.ID, existing.CreatedAt
	}
	m.putReconciliationLocked(k, r)
	return nil
}

func (m *Memory) putReconciliationLocked(k reconKey, r domain.ReconciliationRecord) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.now()
	}
	m.reconciliations[k] = r
}

func (m *Memory) ListReconciliations(_ context.Context, propertyID string) ([]domain.ReconciliationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := []domain.ReconciliationRecord{}
	for k, r := range m.reconciliations {
		if propertyID == "" || k.PropertyID == propertyID {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if c := result[i].Period.Compare(result[j].Period); c != 0 {
			return c > 0
		}
		return result[i].PropertyID < result[j].PropertyID
	})
	return result, nil
}

func (m *Memory) ReconciledPropertyIDs(_ context.Context, p period.Period) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make(map[string]bool)
	for k := range m.reconciliations {
		if k.Period == p {
			ids[k.PropertyID] = true
		}
	}
	return ids, nil
}

// =============================================================================
// EXCEPTIONS
// =============================================================================

func (m *Memory) CreateException(_ context.Context, in exceptions.NewException) (*exceptions.Exception, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	e := exceptions.Exception{
		ID:               uuid.NewString(),
		Type:             in.Type,
		Severity:         in.Severity,
		Title:            in.Title,
		Description:      in.Description,
		PropertyID:       in.PropertyID,
		ParticipantID:    in.ParticipantID,
		ClaimID:          in.ClaimID,
		ReconciliationID: in.ReconciliationID,
		Status:           exceptions.StatusOpen,
		Metadata:         exceptions.Metadata{}.Merge(in.Metadata),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	m.exceptions[e.ID] = e
	m.seq = append(m.seq, e.ID)
	return &e, nil
}

func (m *Memory) UpdateException(_ context.Context, id string, u exceptions.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exceptions[id]
	if !ok {
		return exceptions.ErrNotFound
	}
	u.Apply(&e, m.now())
	m.exceptions[id] = e
	return nil
}

func (m *Memory) GetException(_ context.Context, id string) (*exceptions.Exception, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exceptions[id]
	if !ok {
		return nil, exceptions.ErrNotFound
	}
	return &e, nil
}

func (m *Memory) FindOpenException(_ context.Context, ref exceptions.EntityRef, t exceptions.Type, p *period.Period) (*exceptions.Exception, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.seq {
		e := m.exceptions[id]
		if e.Type != t || !e.Status.Active() || !e.Matches(ref) {
			continue
		}
		if p != nil {
			month, okM := e.Metadata.Int("month")
			year, okY := e.Metadata.Int("year")
			if !okM || !okY || month != p.Month || year != p.Year {
				continue
			}
		}
		return &e, nil
	}
	return nil, nil
}

// ListExceptions returns matching exceptions, newest first.
func (m *Memory) ListExceptions(_ context.Context, f exceptions.Filter) ([]exceptions.Exception, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := []exceptions.Exception{}
	for i := len(m.seq) - 1; i >= 0; i-- {
		if e := m.exceptions[m.seq[i]]; f.Keep(e) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *Memory) OpenExceptionCounts(_ context.Context) (exceptions.Counts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var c exceptions.Counts
	for _, e := range m.exceptions {
		if e.Status == exceptions.StatusOpen {
			c.Add(e.Severity)
		}
	}
	return c, nil
}
