package claims_test

import (
	"testing"

	"github.com/propertyfriends/pf-engine/claims"
	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/money"
	"github.com/propertyfriends/pf-engine/period"
	"github.com/propertyfriends/pf-engine/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// FIXTURES
// =============================================================================

func championDrive() domain.Property {
	return domain.Property{
		ID:                 "prop-1",
		AddressLine1:       "50 Champion Drive",
		Suburb:             "Rosslea",
		State:              "QLD",
		Postcode:           "4812",
		PropertyLabel:      "Champion Drive",
		BuildingType:       pricing.House3Residents,
		DesignCategory:     pricing.HighPhysicalSupport,
		HasOOA:             true,
		LocationFactor:     decimal.RequireFromString("1.08"),
		SdaEnrolmentStatus: domain.EnrolmentEnrolled,
	}
}

func johnSmith(t domain.PlanManagementType) domain.Participant {
	return domain.Participant{
		ID:                 "part-1",
		NDISNumber:         "123456789",
		FirstName:          "John",
		LastName:           "Smith",
		PlanManagementType: t,
	}
}

var feb2026 = period.Period{Month: 2, Year: 2026}

func intPtr(v int) *int                    { return &v }
func centsPtr(v money.Cents) *money.Cents { return &v }

// =============================================================================
// GENERATOR
// =============================================================================

func TestGenerateClaim_FullMonth(t *testing.T) {
	draft, err := claims.GenerateClaim(claims.GenerateInput{
		Property:    championDrive(),
		Participant: johnSmith(domain.NDIAManaged),
		Period:      feb2026,
	})
	require.NoError(t, err)

	// (40660 + 11600) × 1.08 = 56440.80 per year, 4703.40 per month
	assert.Equal(t, "PF-2026-02-CHAMPION-SMITH", draft.ClaimReference)
	assert.Equal(t, "prop-1", draft.PropertyID)
	assert.Equal(t, "part-1", draft.ParticipantID)
	assert.Equal(t, domain.PathwayNDIA, draft.ClaimPathway)
	assert.Equal(t, money.Cents(470340), draft.SdaAmount)
	assert.Nil(t, draft.MrrcAmount)
	assert.Equal(t, draft.SdaAmount, draft.TotalAmount)
	assert.Equal(t, claims.SDAItemNumber, draft.NDISItemNumber)
	assert.Equal(t, feb2026.Start(), draft.PeriodStart)
	assert.Equal(t, feb2026.End(), draft.PeriodEnd)
}

func TestGenerateClaim_AgencyPathwayForPlanAndSelfManaged(t *testing.T) {
	for _, pm := range []domain.PlanManagementType{domain.PlanManaged, domain.SelfManaged} {
		draft, err := claims.GenerateClaim(claims.GenerateInput{
			Property:    championDrive(),
			Participant: johnSmith(pm),
			Period:      feb2026,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PathwayAgency, draft.ClaimPathway, pm)
	}
}

func TestGenerateClaim_ProRatesPartialMonth(t *testing.T) {
	in := claims.GenerateInput{
		Property:    championDrive(),
		Participant: johnSmith(domain.NDIAManaged),
		Period:      feb2026,
	}
	full, err := claims.GenerateClaim(in)
	require.NoError(t, err)

	in.OccupiedDays = intPtr(14)
	partial, err := claims.GenerateClaim(in)
	require.NoError(t, err)

	assert.Less(t, int64(partial.SdaAmount), int64(full.SdaAmount))
	assert.Equal(t, money.Cents(235170), partial.SdaAmount)
}

func TestGenerateClaim_FullOccupancyPathsAgree(t *testing.T) {
	in := claims.GenerateInput{
		Property:    championDrive(),
		Participant: johnSmith(domain.NDIAManaged),
		Period:      feb2026,
	}
	implicit, err := claims.GenerateClaim(in)
	require.NoError(t, err)

	in.OccupiedDays = intPtr(feb2026.Days())
	explicit, err := claims.GenerateClaim(in)
	require.NoError(t, err)

	assert.Equal(t, implicit.SdaAmount, explicit.SdaAmount)
}

func TestGenerateClaim_AddsMonthlyMRRC(t *testing.T) {
	draft, err := claims.GenerateClaim(claims.GenerateInput{
		Property:        championDrive(),
		Participant:     johnSmith(domain.PlanManaged),
		Period:          feb2026,
		MRRCFortnightly: centsPtr(48808),
	})
	require.NoError(t, err)

	// 48808 × 26 / 12 = 105750.67
	require.NotNil(t, draft.MrrcAmount)
	assert.Equal(t, money.Cents(105751), *draft.MrrcAmount)
	assert.Equal(t, draft.SdaAmount+105751, draft.TotalAmount)
}

func TestGenerateClaim_ZeroMRRCIsAbsent(t *testing.T) {
	draft, err := claims.GenerateClaim(claims.GenerateInput{
		Property:        championDrive(),
		Participant:     johnSmith(domain.PlanManaged),
		Period:          feb2026,
		MRRCFortnightly: centsPtr(0),
	})
	require.NoError(t, err)
	assert.Nil(t, draft.MrrcAmount)
}

func TestGenerateClaim_UnpricedPropertyFails(t *testing.T) {
	prop := championDrive()
	prop.DesignCategory = pricing.Basic

	_, err := claims.GenerateClaim(claims.GenerateInput{
		Property:    prop,
		Participant: johnSmith(domain.NDIAManaged),
		Period:      feb2026,
	})
	assert.ErrorIs(t, err, pricing.ErrRateNotFound)
}

func TestGenerateClaim_ReferenceFallsBackToSuburb(t *testing.T) {
	prop := championDrive()
	prop.PropertyLabel = ""

	draft, err := claims.GenerateClaim(claims.GenerateInput{
		Property:    prop,
		Participant: johnSmith(domain.NDIAManaged),
		Period:      feb2026,
	})
	require.NoError(t, err)
	assert.Equal(t, "PF-2026-02-ROSSLEA-SMITH", draft.ClaimReference)
}

// =============================================================================
// REFERENCE
// =============================================================================

func TestGenerateReference(t *testing.T) {
	tests := []struct {
		prop, part, want string
	}{
		{"Champion Dr", "Smith", "PF-2026-02-CHAMPION-SMITH"},
		{"12/4 Long-Street Rd", "O'Brien-Jones", "PF-2026-02-124LONGS-OBRIEN"},
		{"", "", "PF-2026-02--"},
		{"Unit 7", "Nguyen3", "PF-2026-02-UNIT7-NGUYEN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, claims.GenerateReference(feb2026, tt.prop, tt.part))
	}
}

// =============================================================================
// VALIDATOR
// =============================================================================

func TestValidateDraft_ValidDraftHasNoFindings(t *testing.T) {
	draft, err := claims.GenerateClaim(claims.GenerateInput{
		Property:    championDrive(),
		Participant: johnSmith(domain.NDIAManaged),
		Period:      feb2026,
	})
	require.NoError(t, err)

	errs := claims.ValidateDraft(draft, claims.Booking{})
	assert.Empty(t, errs)
	assert.NotNil(t, errs)
}

func TestValidateDraft_Findings(t *testing.T) {
	draft := claims.Draft{
		ClaimReference: "XX-2026-02-TEST-TEST",
		PeriodStart:    feb2026.End(),
		PeriodEnd:      feb2026.Start(),
		SdaAmount:      -100,
		TotalAmount:    -100,
	}

	errs := claims.ValidateDraft(draft, claims.Booking{})

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"totalAmount", "sdaAmount", "periodEnd", "claimReference"}, fields)
}

func TestValidateDraft_BookingRemaining(t *testing.T) {
	draft, err := claims.GenerateClaim(claims.GenerateInput{
		Property:    championDrive(),
		Participant: johnSmith(domain.NDIAManaged),
		Period:      feb2026,
	})
	require.NoError(t, err)

	// GIVEN: less remains on the booking than the claim asks for
	errs := claims.ValidateDraft(draft, claims.Booking{Remaining: centsPtr(100000)})
	require.Len(t, errs, 1)
	assert.Equal(t, "sdaAmount", errs[0].Field)
	assert.Contains(t, errs[0].Message, "100000")

	// GIVEN: exactly enough remains
	assert.Empty(t, claims.ValidateDraft(draft, claims.Booking{Remaining: centsPtr(draft.SdaAmount)}))
}

// =============================================================================
// STRATEGY
// =============================================================================

func TestStrategyFor_NeitherPathwayCanSubmit(t *testing.T) {
	for _, p := range []domain.ClaimPathway{domain.PathwayNDIA, domain.PathwayAgency} {
		s, err := claims.StrategyFor(p)
		require.NoError(t, err)
		assert.Equal(t, p, s.Pathway())
		assert.False(t, s.CanSubmit())
		assert.NotEmpty(t, s.Description())
	}

	_, err := claims.StrategyFor("carrier_pigeon")
	assert.Error(t, err)
}
