/*
handlers_test.go - HTTP tests for the API handlers

Tests run the full router against the in-memory store with a fixed clock
of 10 March 2026, 09:00 Brisbane time.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/propertyfriends/pf-engine/claims"
	"github.com/propertyfriends/pf-engine/cycle"
	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/exceptions"
	"github.com/propertyfriends/pf-engine/money"
	"github.com/propertyfriends/pf-engine/period"
	"github.com/propertyfriends/pf-engine/pricing"
	"github.com/propertyfriends/pf-engine/reconciliation"
	"github.com/propertyfriends/pf-engine/store"
	"github.com/propertyfriends/pf-engine/store/memory"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)

type testEnv struct {
	handler *Handler
	store   *memory.Memory
	router  http.Handler
}

func newTestEnv(t *testing.T, opts RouterOptions) *testEnv {
	t.Helper()
	now := func() time.Time { return testNow }
	logger, _ := test.NewNullLogger()
	mem := memory.New(memory.WithClock(now))
	h := NewHandler(Deps{Store: mem, Logger: logger, Now: now})
	return &testEnv{handler: h, store: mem, router: NewRouter(h, opts)}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) load(t *testing.T, scenario string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: scenario})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func claimsDraft(p period.Period, amount money.Cents) claims.Draft {
	return claims.Draft{
		ClaimReference: "PF-2026-02-CHAMPION-SMITH",
		PropertyID:     "prop-champion",
		ParticipantID:  "part-smith",
		ClaimPathway:   domain.PathwayNDIA,
		PeriodStart:    p.Start(),
		PeriodEnd:      p.End(),
		SdaAmount:      amount,
		TotalAmount:    amount,
		NDISItemNumber: claims.SDAItemNumber,
	}
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

// =============================================================================
// CALCULATORS
// =============================================================================

func TestCalculateSDA(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})

	rec := env.do(t, http.MethodPost, "/api/calc/sda", pricing.SDAInput{
		BuildingType:   pricing.House2Residents,
		DesignCategory: pricing.FullyAccessible,
		LocationFactor: decimal.RequireFromString("1.08"),
	})

	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeBody[pricing.SDAResult](t, rec)
	assert.True(t, res.AnnualSDAAmount.Equal(decimal.NewFromInt(44712)))
	assert.True(t, res.MonthlySDAAmount.Equal(decimal.NewFromInt(3726)))
}

func TestCalculateSDA_Errors(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})

	// Basic has no published rate.
	rec := env.do(t, http.MethodPost, "/api/calc/sda", pricing.SDAInput{
		BuildingType: pricing.House2Residents, DesignCategory: pricing.Basic,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rec).Details, "not available for new builds")

	req := httptest.NewRequest(http.MethodPost, "/api/calc/sda", bytes.NewBufferString("{"))
	bad := httptest.NewRecorder()
	env.router.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestCalculateMRRC_Defaults(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})

	req := httptest.NewRequest(http.MethodPost, "/api/calc/mrrc", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeBody[pricing.MRRCResult](t, rec)
	assert.Equal(t, "488.08", res.TotalFortnightly.StringFixed(2))
}

// =============================================================================
// CLAIMS
// =============================================================================

func TestGenerateClaim_SavesValidDraft(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	env.load(t, "champion-drive")

	// GIVEN a booking with enough left for the month
	// WHEN a February claim is generated and saved
	rec := env.do(t, http.MethodPost, "/api/claims/generate", GenerateClaimRequest{
		PropertyID: "prop-champion", ParticipantID: "part-smith", Period: "2026-02",
		ServiceBookingID: "sb-smith", Save: true,
	})

	// THEN the draft is priced at (30140 + 11600) × 1.08 / 12 = 3756.60
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[GenerateClaimResponse](t, rec)
	assert.Equal(t, money.Cents(375660), resp.Draft.SdaAmount)
	assert.Equal(t, "PF-2026-02-CHAMPION-SMITH", resp.Draft.ClaimReference)
	assert.Empty(t, resp.ValidationErrors)
	assert.Nil(t, resp.Exception)
	assert.Equal(t, domain.PathwayNDIA, resp.Strategy.Pathway)
	assert.False(t, resp.Strategy.CanSubmit)

	// AND it is stored as validated
	require.NotNil(t, resp.Claim)
	stored, err := env.store.ListClaims(context.Background(), store.ClaimFilter{Status: domain.ClaimValidated})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, money.Cents(375660), stored[0].TotalAmount)
}

func TestGenerateClaim_BookingShortfall(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, RouterOptions{})
	env.load(t, "champion-drive")

	// GIVEN a booking with only $1,000 left
	sb, err := env.store.GetServiceBooking(ctx, "sb-smith")
	require.NoError(t, err)
	sb.RemainingAmount = 100000
	require.NoError(t, env.store.SaveServiceBooking(ctx, *sb))

	// WHEN a claim is generated with save requested
	rec := env.do(t, http.MethodPost, "/api/claims/generate", GenerateClaimRequest{
		PropertyID: "prop-champion", ParticipantID: "part-smith", Period: "2026-02",
		ServiceBookingID: "sb-smith", Save: true,
	})

	// THEN an insufficient-funds exception is raised and nothing is saved
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[GenerateClaimResponse](t, rec)
	require.NotNil(t, resp.Exception)
	assert.Equal(t, exceptions.TypeInsufficientFunds, resp.Exception.Type)
	assert.Equal(t, exceptions.SeverityCritical, resp.Exception.Severity)
	assert.Contains(t, resp.Exception.Description, "$3,756.60")
	require.Len(t, resp.ValidationErrors, 1)
	assert.Equal(t, "sdaAmount", resp.ValidationErrors[0].Field)
	assert.Nil(t, resp.Claim)

	stored, _ := env.store.ListClaims(ctx, store.ClaimFilter{})
	assert.Empty(t, stored)
}

func TestGenerateClaim_BookingCoversSDAOnly(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, RouterOptions{})
	env.load(t, "champion-drive")

	// GIVEN a booking that covers the SDA amount but not SDA plus MRRC
	sb, err := env.store.GetServiceBooking(ctx, "sb-smith")
	require.NoError(t, err)
	sb.RemainingAmount = 380000
	require.NoError(t, env.store.SaveServiceBooking(ctx, *sb))

	// WHEN a claim with a rent contribution is generated and saved
	mrrc := money.Cents(48808)
	rec := env.do(t, http.MethodPost, "/api/claims/generate", GenerateClaimRequest{
		PropertyID: "prop-champion", ParticipantID: "part-smith", Period: "2026-02",
		MRRCFortnightly: &mrrc, ServiceBookingID: "sb-smith", Save: true,
	})

	// THEN the total exceeds the booking but no exception is raised
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[GenerateClaimResponse](t, rec)
	assert.Equal(t, money.Cents(375660), resp.Draft.SdaAmount)
	require.NotNil(t, resp.Draft.MrrcAmount)
	assert.Greater(t, int64(resp.Draft.TotalAmount), int64(380000))
	assert.Nil(t, resp.Exception)
	assert.Empty(t, resp.ValidationErrors)

	// AND the claim is stored
	require.NotNil(t, resp.Claim)
	stored, err := env.store.ListClaims(ctx, store.ClaimFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	open, err := env.store.ListExceptions(ctx, exceptions.Filter{Type: exceptions.TypeInsufficientFunds})
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestGenerateClaim_ShortfallWithMRRCNotSaved(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, RouterOptions{})
	env.load(t, "champion-drive")

	// GIVEN a booking short of the SDA amount
	sb, err := env.store.GetServiceBooking(ctx, "sb-smith")
	require.NoError(t, err)
	sb.RemainingAmount = 300000
	require.NoError(t, env.store.SaveServiceBooking(ctx, *sb))

	// WHEN a claim with a rent contribution is generated and saved
	mrrc := money.Cents(48808)
	rec := env.do(t, http.MethodPost, "/api/claims/generate", GenerateClaimRequest{
		PropertyID: "prop-champion", ParticipantID: "part-smith", Period: "2026-02",
		MRRCFortnightly: &mrrc, ServiceBookingID: "sb-smith", Save: true,
	})

	// THEN the exception names the SDA amount and nothing is stored
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[GenerateClaimResponse](t, rec)
	require.NotNil(t, resp.Exception)
	assert.Contains(t, resp.Exception.Description, "$3,756.60")
	assert.Nil(t, resp.Claim)

	stored, err := env.store.ListClaims(ctx, store.ClaimFilter{})
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestGenerateClaim_BadInput(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	env.load(t, "champion-drive")

	rec := env.do(t, http.MethodPost, "/api/claims/generate", GenerateClaimRequest{
		PropertyID: "prop-champion", ParticipantID: "part-smith", Period: "2026-13",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/claims/generate", GenerateClaimRequest{
		PropertyID: "missing", ParticipantID: "part-smith", Period: "2026-02",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidateClaim(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	p := period.Period{Month: 2, Year: 2026}
	remaining := money.Cents(1000)

	rec := env.do(t, http.MethodPost, "/api/claims/validate", ValidateClaimRequest{
		Draft: claimsDraft(p, 375660), BookingRemaining: &remaining,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[ValidationResponse](t, rec)
	assert.False(t, resp.Valid)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "sdaAmount", resp.Errors[0].Field)
}

func TestRejectClaim(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	env.load(t, "overdue-claims")

	rec := env.do(t, http.MethodPost, "/api/claims/claim-overdue-20/reject", RejectClaimRequest{Reason: "Plan ended"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	exc := decodeBody[exceptions.Exception](t, rec)
	assert.Equal(t, exceptions.TypeClaimRejection, exc.Type)
	assert.Equal(t, "claim-overdue-20", exc.ClaimID)

	c, err := env.store.GetClaim(context.Background(), "claim-overdue-20")
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimRejected, c.Status)
	assert.Equal(t, "Plan ended", c.RejectionReason)

	rec = env.do(t, http.MethodPost, "/api/claims/claim-overdue-20/reject", RejectClaimRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateClaimStatus_Lifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, RouterOptions{})
	env.load(t, "champion-drive")

	// GIVEN a saved February claim
	rec := env.do(t, http.MethodPost, "/api/claims/generate", GenerateClaimRequest{
		PropertyID: "prop-champion", ParticipantID: "part-smith", Period: "2026-02", Save: true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id := decodeBody[GenerateClaimResponse](t, rec).Claim.ID
	require.NotEmpty(t, id)

	// WHEN it is submitted
	rec = env.do(t, http.MethodPost, "/api/claims/"+id+"/status", ClaimStatusRequest{Status: domain.ClaimSubmitted})

	// THEN the submission time is stamped and the overdue rule can see it
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[ClaimStatusResponse](t, rec)
	assert.Equal(t, domain.ClaimSubmitted, resp.Claim.Status)
	require.NotNil(t, resp.Claim.SubmittedAt)
	assert.True(t, resp.Claim.SubmittedAt.Equal(testNow))
	assert.Nil(t, resp.Exception)

	due, err := env.store.SubmittedClaimsBefore(ctx, testNow)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, id, due[0].ID)

	// AND paying before approval is a conflict
	rec = env.do(t, http.MethodPost, "/api/claims/"+id+"/status", ClaimStatusRequest{Status: domain.ClaimPaid})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// AND approval then payment stamp their times
	rec = env.do(t, http.MethodPost, "/api/claims/"+id+"/status", ClaimStatusRequest{Status: domain.ClaimApproved})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/claims/"+id+"/status", ClaimStatusRequest{Status: domain.ClaimPaid})
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := env.store.GetClaim(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimPaid, stored.Status)
	require.NotNil(t, stored.ApprovedAt)
	require.NotNil(t, stored.PaidAt)
}

func TestUpdateClaimStatus_RejectionRaisesException(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	env.load(t, "overdue-claims")

	rec := env.do(t, http.MethodPost, "/api/claims/claim-overdue-40/status", ClaimStatusRequest{Status: domain.ClaimRejected})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/claims/claim-overdue-40/status", ClaimStatusRequest{
		Status: domain.ClaimRejected, Reason: "Item not in plan",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[ClaimStatusResponse](t, rec)
	assert.Equal(t, "Item not in plan", resp.Claim.RejectionReason)
	require.NotNil(t, resp.Exception)
	assert.Equal(t, exceptions.TypeClaimRejection, resp.Exception.Type)

	rec = env.do(t, http.MethodPost, "/api/claims/claim-paid/reject", RejectClaimRequest{Reason: "late"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/claims/missing/status", ClaimStatusRequest{Status: domain.ClaimSubmitted})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportProdaCSV(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	env.load(t, "overdue-claims")
	env.handler.Registration = "4050012345"

	rec := env.do(t, http.MethodPost, "/api/claims/proda-export", ProdaExportRequest{
		ClaimIDs: []string{"claim-overdue-20", "claim-overdue-40"},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "proda-claims-2026-03-09.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "RegistrationNumber,NDISNumber,"))
	assert.True(t, strings.HasPrefix(lines[1], "4050012345,430111222,John,Smith,1988/06/14,01_012_0107_5_1,PF-2026-01-CHAMPION-SMITH,"))
	assert.Contains(t, lines[2], "PF-2025-12-CHAMPION-SMITH")
}

func TestExportProdaCSV_Errors(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	env.load(t, "overdue-claims")

	rec := env.do(t, http.MethodPost, "/api/claims/proda-export", ProdaExportRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/claims/proda-export", ProdaExportRequest{
		ClaimIDs: []string{"claim-overdue-20", "missing"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// RECONCILIATIONS
// =============================================================================

func TestGenerateReconciliation_UsesAgencyRate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, RouterOptions{})
	env.load(t, "champion-drive")

	// GIVEN the property's agency charges 5%
	require.NoError(t, env.store.SaveRentalAgency(ctx, domain.RentalAgency{
		ID: "agency-c21", Name: "Century 21", ManagementFeeRate: decimal.RequireFromString("0.05"),
	}))

	// WHEN February is reconciled with $3,200 rent and the SDA subsidy
	n := 42
	rec := env.do(t, http.MethodPost, "/api/reconciliations/generate", GenerateReconciliationRequest{
		PropertyID: "prop-champion", Period: "2026-02", StatementNumber: &n,
		LineItems: []reconciliation.LineItem{{
			Category:    reconciliation.CategoryRent,
			Description: "Rent received",
			Amount:      320000,
			Source:      reconciliation.SourceRentalStatement,
		}},
		SDASubsidyAmount: 375660,
		Save:             true,
	})

	// THEN fees come from the agency rate and the fixed 8.8% PF rate
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[GenerateReconciliationResponse](t, rec)
	r := resp.Reconciliation
	assert.Equal(t, money.Cents(695660), r.TotalMoneyIn)
	assert.Equal(t, money.Cents(34783), r.AgencyManagementFee)
	assert.Equal(t, money.Cents(61218), r.PFManagementFee)
	assert.Equal(t, money.Cents(599659), r.NetClientPayout)
	assert.Empty(t, resp.ValidationErrors)
	assert.Equal(t, "Reconciliation Stmt 42 for February 2026", resp.Filename)
	assert.Equal(t, "prop-champion/2026/02/reconciliation.pdf", resp.ReportPath)

	// AND the row is stored
	found, err := env.store.FindReconciliation(ctx, "prop-champion", period.Period{Month: 2, Year: 2026})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, money.Cents(599659), found.NetClientPayout)
}

func TestGenerateReconciliation_FromStatementText(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	env.load(t, "champion-drive")

	text := "CENTURY 21 Property Management\nStatement No: 7\nStatement period: February 2026\n" +
		"Rent received  $3,200.00\nManagement fee  $140.80\n"
	rec := env.do(t, http.MethodPost, "/api/reconciliations/generate", GenerateReconciliationRequest{
		PropertyID: "prop-champion", Period: "2026-02", StatementText: text,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[GenerateReconciliationResponse](t, rec)
	require.NotNil(t, resp.Statement)
	assert.Equal(t, money.Cents(320000), resp.Reconciliation.TotalRentReceived)
	require.NotNil(t, resp.Reconciliation.StatementNumber)
	assert.Equal(t, 7, *resp.Reconciliation.StatementNumber)
}

func TestValidateReconciliation(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})

	rec := env.do(t, http.MethodPost, "/api/reconciliations/validate", map[string]any{
		"total_money_in": 0, "net_client_payout": -100,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[ValidationResponse](t, rec)
	assert.False(t, resp.Valid)
	assert.Len(t, resp.Errors, 2)
}

func TestUpdateReconciliationStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, RouterOptions{})
	feb := period.Period{Month: 2, Year: 2026}

	// GIVEN a generated February reconciliation
	require.NoError(t, env.store.CreateReconciliation(ctx, domain.ReconciliationRecord{
		PropertyID: "prop-champion", Period: feb, Status: domain.ReconGenerated,
	}))
	row, err := env.store.FindReconciliation(ctx, "prop-champion", feb)
	require.NoError(t, err)
	path := "/api/reconciliations/" + row.ID + "/status"

	// WHEN it is published before review
	rec := env.do(t, http.MethodPost, path, ReconciliationStatusRequest{Status: domain.ReconPublished})

	// THEN the workflow refuses
	assert.Equal(t, http.StatusConflict, rec.Code)

	// AND review then approval records the approver
	rec = env.do(t, http.MethodPost, path, ReconciliationStatusRequest{Status: domain.ReconReviewed})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = env.do(t, http.MethodPost, path, ReconciliationStatusRequest{Status: domain.ReconApproved})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPost, path, ReconciliationStatusRequest{
		Status: domain.ReconApproved, Actor: "sam", Notes: "Checked against statement",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeBody[domain.ReconciliationRecord](t, rec)
	assert.Equal(t, "sam", got.ApprovedBy)
	require.NotNil(t, got.ApprovedAt)

	rec = env.do(t, http.MethodPost, path, ReconciliationStatusRequest{Status: domain.ReconPublished})
	require.Equal(t, http.StatusOK, rec.Code)
	stored, err := env.store.GetReconciliation(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReconPublished, stored.Status)
	assert.Equal(t, "Checked against statement", stored.Notes)
	require.NotNil(t, stored.PublishedAt)

	rec = env.do(t, http.MethodPost, "/api/reconciliations/missing/status",
		ReconciliationStatusRequest{Status: domain.ReconReviewed})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// DOCUMENTS
// =============================================================================

func TestParseStatement(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})

	rec := env.do(t, http.MethodPost, "/api/statements/parse", ParseStatementRequest{
		Text: "Rent received $1,000.00", Adapter: "Nope",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/statements/parse", ParseStatementRequest{
		Text: "Rent received $1,000.00\nStatement period: April 2026", AgencyHint: "century 21",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[ParseStatementResponse](t, rec)
	assert.Equal(t, "Century 21", resp.Adapter)
	assert.Equal(t, money.Cents(100000), resp.RentReceived)
	assert.Equal(t, 4, resp.PeriodMonth)
	require.NotEmpty(t, resp.LineItems)
	assert.Equal(t, money.Cents(100000), resp.LineItems[0].Amount)
}

func TestClassifyDocument(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})

	rec := env.do(t, http.MethodPost, "/api/documents/classify", ClassifyRequest{Text: ""})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Empty document")
}

// =============================================================================
// EXCEPTIONS
// =============================================================================

func TestExceptionCheck_AndWorkflow(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	env.load(t, "overdue-claims")

	// GIVEN claims 20 and 40 days overdue and no February statement
	// WHEN the exception check runs
	rec := env.do(t, http.MethodPost, "/api/cron/exception-check", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decodeBody[exceptions.Summary](t, rec)

	// THEN both claims and the missing statement are flagged
	assert.Equal(t, 2, summary.OverdueInvoices)
	assert.Equal(t, 1, summary.MissingStatements)
	assert.Equal(t, 3, summary.Total)

	rec = env.do(t, http.MethodGet, "/api/exceptions/counts", nil)
	assert.Equal(t, exceptions.Counts{Warning: 2, Critical: 1}, decodeBody[exceptions.Counts](t, rec))

	// AND re-running creates nothing new
	rec = env.do(t, http.MethodPost, "/api/cron/exception-check", nil)
	assert.Equal(t, 0, decodeBody[exceptions.Summary](t, rec).Total)

	rec = env.do(t, http.MethodGet, "/api/exceptions?severity=critical", nil)
	critical := decodeBody[[]exceptions.Exception](t, rec)
	require.Len(t, critical, 1)
	id := critical[0].ID

	// WHEN it is acknowledged then resolved
	rec = env.do(t, http.MethodPost, "/api/exceptions/"+id+"/acknowledge", TransitionRequest{Actor: "ops"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops", decodeBody[exceptions.Exception](t, rec).AssignedTo)

	rec = env.do(t, http.MethodPost, "/api/exceptions/"+id+"/resolve", TransitionRequest{Actor: "ops", Notes: "paid"})
	require.Equal(t, http.StatusOK, rec.Code)
	resolved := decodeBody[exceptions.Exception](t, rec)
	assert.Equal(t, exceptions.StatusResolved, resolved.Status)
	assert.Equal(t, "paid", resolved.ResolutionNotes)

	// THEN a further transition is a conflict
	rec = env.do(t, http.MethodPost, "/api/exceptions/"+id+"/dismiss", TransitionRequest{Actor: "ops"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTransitionException_Errors(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})

	rec := env.do(t, http.MethodPost, "/api/exceptions/x/escalate", TransitionRequest{Actor: "ops"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/exceptions/x/resolve", TransitionRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/exceptions/x/resolve", TransitionRequest{Actor: "ops"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/exceptions/x", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaymentFollowup(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	env.load(t, "overdue-claims")

	rec := env.do(t, http.MethodPost, "/api/cron/payment-followup", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeBody[exceptions.RuleResult](t, rec)
	assert.Equal(t, 2, res.Created)
}

func TestMonthlyCycle(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	env.load(t, "missing-statements")

	// GIVEN two enrolled properties, one already reconciled for February
	// WHEN the cycle runs for last month
	rec := env.do(t, http.MethodPost, "/api/cron/monthly-cycle", nil)

	// THEN only the other property gets a pending row
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decodeBody[cycle.Summary](t, rec)
	assert.Equal(t, period.Period{Month: 2, Year: 2026}, summary.Period)
	assert.Equal(t, 1, summary.ReconciliationsCreated)
	assert.Equal(t, 1, summary.Skipped)

	rec = env.do(t, http.MethodPost, "/api/cron/monthly-cycle?period=bad", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// AUTH AND MISC
// =============================================================================

func TestCronRequiresBearerToken(t *testing.T) {
	env := newTestEnv(t, RouterOptions{CronSecret: "s3cret"})

	rec := env.do(t, http.MethodPost, "/api/cron/payment-followup", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := IssueToken("s3cret", CronSubject, time.Hour, testNow)
	require.NoError(t, err)
	rec = env.do(t, http.MethodPost, "/api/cron/payment-followup", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)

	expired, err := IssueToken("s3cret", CronSubject, time.Minute, testNow.Add(-time.Hour))
	require.NoError(t, err)
	rec = env.do(t, http.MethodPost, "/api/cron/payment-followup", nil, "Authorization", "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := IssueToken("other", CronSubject, time.Hour, testNow)
	require.NoError(t, err)
	rec = env.do(t, http.MethodPost, "/api/cron/payment-followup", nil, "Authorization", "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Non-cron routes stay open.
	rec = env.do(t, http.MethodGet, "/api/exceptions/counts", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestParseToken(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	token, err := IssueToken("k", "ops", time.Hour, now)
	require.NoError(t, err)

	claims, err := ParseToken("k", token, now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)

	_, err = ParseToken("k", token, now.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = IssueToken("", "ops", time.Hour, now)
	assert.Error(t, err)
}

func TestScenariosAndIntegrations(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})

	rec := env.do(t, http.MethodGet, "/api/scenarios", nil)
	assert.Len(t, decodeBody[[]ScenarioDTO](t, rec), len(scenarios))

	rec = env.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/integrations", nil)
	resp := decodeBody[IntegrationsResponse](t, rec)
	assert.Equal(t, map[string]bool{"ndia": false, "xero": false}, resp.Integrations)
	assert.Len(t, resp.Strategies, 2)

	rec = env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
