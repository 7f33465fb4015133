package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/exceptions"
	"github.com/propertyfriends/pf-engine/money"
	"github.com/propertyfriends/pf-engine/period"
	"github.com/propertyfriends/pf-engine/pricing"
	"github.com/propertyfriends/pf-engine/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newTestStore(t *testing.T) (*Store, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	logger, _ := test.NewNullLogger()
	s, err := New(":memory:", logger, WithClock(c.Now))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, c
}

func TestRebind(t *testing.T) {
	s := &Store{dialect: dialectPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b IN ($2, $3)",
		s.rebind("SELECT * FROM t WHERE a = ? AND b IN (?, ?)"))

	s.dialect = dialectSQLite
	assert.Equal(t, "a = ?", s.rebind("a = ?"))
}

func TestSQLiteSource(t *testing.T) {
	assert.Equal(t, ":memory:", sqliteSource(":memory:"))
	assert.Equal(t, "pf.db?_foreign_keys=on&_journal_mode=WAL", sqliteSource(""))
	assert.Equal(t, "x.db?cache=shared", sqliteSource("x.db?cache=shared"))
}

func TestTimeFormatSortsLexically(t *testing.T) {
	a := formatTime(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	b := formatTime(time.Date(2026, 3, 1, 9, 0, 0, 500000, time.UTC))
	assert.Less(t, a, b)
	assert.Len(t, a, len(b))

	brisbane := time.FixedZone("AEST", 10*3600)
	local := time.Date(2026, 3, 1, 19, 0, 0, 0, brisbane)
	assert.True(t, parseTime(formatTime(local)).Equal(local))
}

// =============================================================================
// RECORDS
// =============================================================================

func TestStore_PropertyRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	// GIVEN an enrolled property and a pending one
	p := domain.Property{
		ID: "prop-1", AddressLine1: "12 Wattle St", Suburb: "Logan", State: "QLD", Postcode: "4114",
		BuildingType: pricing.House3Residents, DesignCategory: pricing.HighPhysicalSupport,
		HasOOA: true, HasFireSprinklers: true, LocationFactor: decimal.RequireFromString("1.05"),
		SdaEnrolmentStatus: domain.EnrolmentEnrolled, RentalAgencyID: "agency-1",
	}
	require.NoError(t, s.SaveProperty(ctx, p))
	require.NoError(t, s.SaveProperty(ctx, domain.Property{ID: "prop-2", SdaEnrolmentStatus: domain.EnrolmentPending}))

	// WHEN it is read back
	got, err := s.GetProperty(ctx, "prop-1")
	require.NoError(t, err)

	// THEN every field survives
	assert.Equal(t, p.AddressLine1, got.AddressLine1)
	assert.Equal(t, p.BuildingType, got.BuildingType)
	assert.True(t, got.HasOOA)
	assert.False(t, got.HasBreakoutRoom)
	assert.True(t, got.LocationFactor.Equal(p.LocationFactor))

	enrolled, err := s.EnrolledProperties(ctx)
	require.NoError(t, err)
	require.Len(t, enrolled, 1)
	assert.Equal(t, "prop-1", enrolled[0].ID)

	all, _ := s.ListProperties(ctx)
	assert.Len(t, all, 2)

	// AND saving again updates in place
	p.Suburb = "Beenleigh"
	require.NoError(t, s.SaveProperty(ctx, p))
	got, _ = s.GetProperty(ctx, "prop-1")
	assert.Equal(t, "Beenleigh", got.Suburb)
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.GetProperty(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetParticipant(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetRentalAgency(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetServiceBooking(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetClaim(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetException(ctx, "missing")
	assert.ErrorIs(t, err, exceptions.ErrNotFound)
	assert.ErrorIs(t, s.UpdateException(ctx, "missing", exceptions.Update{}), exceptions.ErrNotFound)
}

func TestStore_AgencyAndBooking(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.SaveRentalAgency(ctx, domain.RentalAgency{
		ID: "agency-1", Name: "Century 21", ManagementFeeRate: decimal.RequireFromString("0.044"),
	}))
	a, err := s.GetRentalAgency(ctx, "agency-1")
	require.NoError(t, err)
	assert.Equal(t, "0.044", a.ManagementFeeRate.String())

	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveServiceBooking(ctx, domain.ServiceBooking{
		ID: "sb-1", ParticipantID: "part-1", NDIABookingID: "SB-991",
		AllocatedAmount: 5000000, RemainingAmount: 125000, EndDate: end,
	}))
	b, err := s.GetServiceBooking(ctx, "sb-1")
	require.NoError(t, err)
	assert.Equal(t, money.Cents(125000), b.RemainingAmount)
	assert.True(t, b.EndDate.Equal(end))
}

func TestStore_ExpiringPlansWindow(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)
	now := c.Now()
	in := now.AddDate(0, 0, 10)
	past := now.AddDate(0, 0, -1)
	far := now.AddDate(0, 0, 45)

	require.NoError(t, s.SaveParticipant(ctx, domain.Participant{ID: "in", PlanEndDate: &in}))
	require.NoError(t, s.SaveParticipant(ctx, domain.Participant{ID: "past", PlanEndDate: &past}))
	require.NoError(t, s.SaveParticipant(ctx, domain.Participant{ID: "far", PlanEndDate: &far}))
	require.NoError(t, s.SaveParticipant(ctx, domain.Participant{ID: "none"}))

	got, err := s.ExpiringPlans(ctx, now, 30)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "in", got[0].ID)
	assert.True(t, got[0].PlanEndDate.Equal(in))
	assert.Nil(t, got[0].PlanStartDate)
}

func TestStore_Claims(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)
	submitted := c.Now().AddDate(0, 0, -20)
	recent := c.Now().AddDate(0, 0, -2)
	mrrc := money.Cents(42000)

	// GIVEN an old submitted claim, a recent one and a paid one
	require.NoError(t, s.SaveClaim(ctx, domain.Claim{
		ID: "old", ClaimReference: "PF-0001", PropertyID: "prop-1", ClaimPathway: domain.PathwayNDIA,
		SdaAmount: 300000, MrrcAmount: &mrrc, TotalAmount: 342000, Status: domain.ClaimSubmitted, SubmittedAt: &submitted,
	}))
	require.NoError(t, s.SaveClaim(ctx, domain.Claim{
		ID: "recent", ClaimReference: "PF-0002", PropertyID: "prop-1", Status: domain.ClaimSubmitted, SubmittedAt: &recent,
	}))
	require.NoError(t, s.SaveClaim(ctx, domain.Claim{
		ClaimReference: "PF-0003", PropertyID: "prop-2", Status: domain.ClaimPaid, SubmittedAt: &submitted,
	}))

	// WHEN submitted claims older than 14 days are requested
	due, err := s.SubmittedClaimsBefore(ctx, c.Now().AddDate(0, 0, -14))
	require.NoError(t, err)

	// THEN only the old unpaid claim is returned, with its amounts intact
	require.Len(t, due, 1)
	assert.Equal(t, "old", due[0].ID)
	require.NotNil(t, due[0].MrrcAmount)
	assert.Equal(t, mrrc, *due[0].MrrcAmount)
	assert.True(t, due[0].SubmittedAt.Equal(submitted))

	byProperty, err := s.ListClaims(ctx, store.ClaimFilter{PropertyID: "prop-2"})
	require.NoError(t, err)
	require.Len(t, byProperty, 1)
	assert.NotEmpty(t, byProperty[0].ID)
	assert.Nil(t, byProperty[0].MrrcAmount)
}

func TestStore_Reconciliations(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	feb := period.Period{Month: 2, Year: 2026}

	found, err := s.FindReconciliation(ctx, "a", feb)
	require.NoError(t, err)
	assert.Nil(t, found)

	require.NoError(t, s.CreateReconciliation(ctx, domain.ReconciliationRecord{
		PropertyID: "a", Period: feb, Status: domain.ReconPending,
	}))
	err = s.CreateReconciliation(ctx, domain.ReconciliationRecord{PropertyID: "a", Period: feb})
	assert.ErrorIs(t, err, store.ErrConflict)

	first, err := s.FindReconciliation(ctx, "a", feb)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Nil(t, first.StatementNumber)

	// Save replaces the row for the period and keeps its id.
	n := 42
	require.NoError(t, s.SaveReconciliation(ctx, domain.ReconciliationRecord{
		PropertyID: "a", Period: feb, StatementNumber: &n, Status: domain.ReconGenerated,
		TotalMoneyIn: 430000, NetClientPayout: 398750,
	}))
	second, _ := s.FindReconciliation(ctx, "a", feb)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.ReconGenerated, second.Status)
	assert.Equal(t, money.Cents(398750), second.NetClientPayout)
	require.NotNil(t, second.StatementNumber)
	assert.Equal(t, 42, *second.StatementNumber)

	ids, err := s.ReconciledPropertyIDs(ctx, feb)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true}, ids)

	list, _ := s.ListReconciliations(ctx, "a")
	assert.Len(t, list, 1)
}

func TestStore_ClaimStatusTimestamps(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)
	submitted := c.Now().AddDate(0, 0, -30)
	approved := c.Now().AddDate(0, 0, -10)
	paid := c.Now()

	// GIVEN a claim saved with every status timestamp
	require.NoError(t, s.SaveClaim(ctx, domain.Claim{
		ID: "c-1", ClaimReference: "PF-0001", Status: domain.ClaimPaid,
		SubmittedAt: &submitted, ApprovedAt: &approved, PaidAt: &paid,
	}))

	// WHEN it is read back
	got, err := s.GetClaim(ctx, "c-1")
	require.NoError(t, err)

	// THEN the timestamps survive
	require.NotNil(t, got.ApprovedAt)
	require.NotNil(t, got.PaidAt)
	assert.True(t, got.SubmittedAt.Equal(submitted))
	assert.True(t, got.ApprovedAt.Equal(approved))
	assert.True(t, got.PaidAt.Equal(paid))
}

func TestStore_ReconciliationReviewFields(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)
	feb := period.Period{Month: 2, Year: 2026}

	require.NoError(t, s.CreateReconciliation(ctx, domain.ReconciliationRecord{
		PropertyID: "a", Period: feb, Status: domain.ReconPending,
	}))
	row, err := s.FindReconciliation(ctx, "a", feb)
	require.NoError(t, err)

	// GIVEN the row is approved with notes
	now := c.Now()
	row.Status = domain.ReconApproved
	row.Notes = "Energy checked"
	row.ApprovedBy = "sam"
	row.ApprovedAt = &now
	require.NoError(t, s.SaveReconciliation(ctx, *row))

	// WHEN it is read back by id
	got, err := s.GetReconciliation(ctx, row.ID)
	require.NoError(t, err)

	// THEN the review fields are kept
	assert.Equal(t, domain.ReconApproved, got.Status)
	assert.Equal(t, "Energy checked", got.Notes)
	assert.Equal(t, "sam", got.ApprovedBy)
	require.NotNil(t, got.ApprovedAt)
	assert.True(t, got.ApprovedAt.Equal(now))
	assert.Nil(t, got.PublishedAt)

	_, err = s.GetReconciliation(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_ExpiringBookings(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)
	now := c.Now()
	dob := time.Date(1988, 6, 14, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveParticipant(ctx, domain.Participant{
		ID: "part-1", FirstName: "John", LastName: "Smith", DateOfBirth: &dob,
	}))
	require.NoError(t, s.SaveServiceBooking(ctx, domain.ServiceBooking{
		ID: "soon", ParticipantID: "part-1", RemainingAmount: 125000, EndDate: now.AddDate(0, 0, 12),
	}))
	require.NoError(t, s.SaveServiceBooking(ctx, domain.ServiceBooking{
		ID: "later", ParticipantID: "part-1", EndDate: now.AddDate(0, 0, 60),
	}))
	require.NoError(t, s.SaveServiceBooking(ctx, domain.ServiceBooking{
		ID: "orphan", ParticipantID: "ghost", EndDate: now.AddDate(0, 0, 3),
	}))

	got, err := s.ExpiringBookings(ctx, now, 30)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "soon", got[0].Booking.ID)
	assert.Equal(t, money.Cents(125000), got[0].Booking.RemainingAmount)
	assert.Equal(t, "Smith", got[0].Participant.LastName)
	require.NotNil(t, got[0].Participant.DateOfBirth)
	assert.True(t, got[0].Participant.DateOfBirth.Equal(dob))
}

// =============================================================================
// EXCEPTIONS
// =============================================================================

func TestStore_ExceptionLifecycle(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)

	// GIVEN a missing-statement exception for February
	created, err := s.CreateException(ctx, exceptions.NewException{
		Type: exceptions.TypeMissingStatement, Severity: exceptions.SeverityWarning,
		Title: "Missing statement", PropertyID: "a",
		Metadata: exceptions.Metadata{"month": 2, "year": 2026},
	})
	require.NoError(t, err)
	assert.Equal(t, exceptions.StatusOpen, created.Status)

	feb := period.Period{Month: 2, Year: 2026}
	mar := period.Period{Month: 3, Year: 2026}

	// WHEN it is looked up by period
	found, err := s.FindOpenException(ctx, exceptions.PropertyRef("a"), exceptions.TypeMissingStatement, &feb)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	// THEN metadata decoded from JSON still reads as ints
	month, ok := found.Metadata.Int("month")
	assert.True(t, ok)
	assert.Equal(t, 2, month)

	found, err = s.FindOpenException(ctx, exceptions.PropertyRef("a"), exceptions.TypeMissingStatement, &mar)
	require.NoError(t, err)
	assert.Nil(t, found)

	// AND resolving it removes it from dedup lookups
	c.t = c.t.Add(time.Hour)
	u, err := exceptions.Transition(created.Status, exceptions.StatusResolved, "ops@pf", "received", c.Now())
	require.NoError(t, err)
	require.NoError(t, s.UpdateException(ctx, created.ID, u))

	got, err := s.GetException(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, exceptions.StatusResolved, got.Status)
	assert.Equal(t, "ops@pf", got.ResolvedBy)
	require.NotNil(t, got.ResolvedAt)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	found, _ = s.FindOpenException(ctx, exceptions.PropertyRef("a"), exceptions.TypeMissingStatement, &feb)
	assert.Nil(t, found)
}

func TestStore_ListAndCountExceptions(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)

	for _, sev := range []exceptions.Severity{exceptions.SeverityWarning, exceptions.SeverityWarning, exceptions.SeverityCritical} {
		c.t = c.t.Add(time.Minute)
		_, err := s.CreateException(ctx, exceptions.NewException{
			Type: exceptions.TypePlanExpiry, Severity: sev, Title: string(sev),
		})
		require.NoError(t, err)
	}

	counts, err := s.OpenExceptionCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, exceptions.Counts{Warning: 2, Critical: 1}, counts)

	list, err := s.ListExceptions(ctx, exceptions.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, exceptions.SeverityCritical, list[0].Severity, "newest first")

	critical, _ := s.ListExceptions(ctx, exceptions.Filter{Severity: exceptions.SeverityCritical})
	assert.Len(t, critical, 1)
}

func TestStore_DetectorEscalatesOverdueClaim(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)
	logger, _ := test.NewNullLogger()
	d := exceptions.NewDetector(s, s, exceptions.DefaultConfig(), logger, exceptions.WithClock(c.Now))

	// GIVEN a claim submitted 20 days ago
	submitted := c.Now().AddDate(0, 0, -20)
	require.NoError(t, s.SaveClaim(ctx, domain.Claim{
		ID: "claim-1", ClaimReference: "PF-0001", PropertyID: "a",
		Status: domain.ClaimSubmitted, SubmittedAt: &submitted,
	}))

	// WHEN detection runs now and again 15 days later
	res, err := d.DetectOverdueInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	c.t = c.t.AddDate(0, 0, 15)
	res, err = d.DetectOverdueInvoices(ctx)
	require.NoError(t, err)

	// THEN the same exception is escalated rather than duplicated
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Escalated)
	list, _ := s.ListExceptions(ctx, exceptions.Filter{Type: exceptions.TypePaymentOverdue})
	require.Len(t, list, 1)
	assert.Equal(t, exceptions.SeverityCritical, list[0].Severity)
	days, _ := list[0].Metadata.Int("days_overdue")
	assert.Equal(t, 35, days)
	assert.Equal(t, "PF-0001", list[0].Metadata["claim_reference"])
}
