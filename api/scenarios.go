/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Populates the store with realistic records that exercise specific
	features: claims against a booking, overdue payments, expiring plans
	and missing statements. Dates are relative to the handler's clock so a
	scenario always triggers the rules it is meant to.

AVAILABLE SCENARIOS:

	champion-drive:     Enrolled house, NDIA-managed participant, agency, booking
	overdue-claims:     Claims submitted 20 and 40 days ago, one paid
	expiring-plans:     Plans ending in 5, 20 and 60 days
	missing-statements: Two enrolled properties, one reconciled last month

HOW SCENARIOS WORK:
 1. Save agencies, properties and participants with fixed ids
 2. Save bookings, claims and reconciliations
 3. Loading twice overwrites the same rows

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "overdue-claims"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, now)
 3. Add it to the loaders map

SEE ALSO:
  - exceptions.go: runs the detection rules these scenarios feed
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/money"
	"github.com/propertyfriends/pf-engine/period"
	"github.com/propertyfriends/pf-engine/pricing"
	"github.com/shopspring/decimal"
)

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest names the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "champion-drive",
		Name:        "Champion Drive",
		Description: "Enrolled 3-resident house with an NDIA-managed participant and service booking",
		Category:    "claims",
	},
	{
		ID:          "overdue-claims",
		Name:        "Overdue Claims",
		Description: "Claims submitted 20 and 40 days ago without payment",
		Category:    "exceptions",
	},
	{
		ID:          "expiring-plans",
		Name:        "Expiring Plans",
		Description: "NDIS plans ending in 5, 20 and 60 days",
		Category:    "exceptions",
	},
	{
		ID:          "missing-statements",
		Name:        "Missing Statements",
		Description: "Two enrolled properties, only one reconciled for last month",
		Category:    "reconciliation",
	},
}

func (h *Handler) scenarioLoaders() map[string]func(context.Context, time.Time) error {
	return map[string]func(context.Context, time.Time) error{
		"champion-drive":     h.loadChampionDriveScenario,
		"overdue-claims":     h.loadOverdueClaimsScenario,
		"expiring-plans":     h.loadExpiringPlansScenario,
		"missing-statements": h.loadMissingStatementsScenario,
	}
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decode(w, r, &req) {
		return
	}

	load, ok := h.scenarioLoaders()[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}
	if err := load(r.Context(), h.now()); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.Logger.WithField("scenario", req.ScenarioID).Info("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadChampionDriveScenario(ctx context.Context, now time.Time) error {
	if err := h.Store.SaveRentalAgency(ctx, domain.RentalAgency{
		ID: "agency-c21", Name: "Century 21", ManagementFeeRate: decimal.RequireFromString("0.044"),
	}); err != nil {
		return err
	}

	prop := championDrive()
	if err := h.Store.SaveProperty(ctx, prop); err != nil {
		return err
	}

	start := now.AddDate(-1, 0, 0)
	end := now.AddDate(0, 6, 0)
	dob := time.Date(1988, time.June, 14, 0, 0, 0, 0, time.UTC)
	if err := h.Store.SaveParticipant(ctx, domain.Participant{
		ID: "part-smith", NDISNumber: "430111222", FirstName: "John", LastName: "Smith",
		DateOfBirth:        &dob,
		PlanManagementType: domain.NDIAManaged, PlanStartDate: &start, PlanEndDate: &end,
	}); err != nil {
		return err
	}

	// Enough for about two months of claims.
	return h.Store.SaveServiceBooking(ctx, domain.ServiceBooking{
		ID: "sb-smith", ParticipantID: "part-smith", PropertyID: prop.ID, NDIABookingID: "SB-991",
		AllocatedAmount: money.Cents(9000000), RemainingAmount: money.Cents(800000),
		EndDate: end,
	})
}

func (h *Handler) loadOverdueClaimsScenario(ctx context.Context, now time.Time) error {
	if err := h.loadChampionDriveScenario(ctx, now); err != nil {
		return err
	}

	claims := []struct {
		id, ref string
		age     int
		status  domain.ClaimStatus
	}{
		{"claim-overdue-20", "PF-2026-01-CHAMPION-SMITH", 20, domain.ClaimSubmitted},
		{"claim-overdue-40", "PF-2025-12-CHAMPION-SMITH", 40, domain.ClaimSubmitted},
		{"claim-paid", "PF-2025-11-CHAMPION-SMITH", 70, domain.ClaimPaid},
	}
	for _, c := range claims {
		submitted := now.AddDate(0, 0, -c.age)
		p := period.Of(submitted).Previous()
		if err := h.Store.SaveClaim(ctx, domain.Claim{
			ID:             c.id,
			ClaimReference: c.ref,
			PropertyID:     "prop-champion",
			ParticipantID:  "part-smith",
			ClaimPathway:   domain.PathwayNDIA,
			PeriodStart:    p.Start(),
			PeriodEnd:      p.End(),
			SdaAmount:      money.Cents(1095000),
			TotalAmount:    money.Cents(1095000),
			NDISItemNumber: "01_012_0107_5_1",
			Status:         c.status,
			SubmittedAt:    &submitted,
			CreatedAt:      submitted,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadExpiringPlansScenario(ctx context.Context, now time.Time) error {
	participants := []struct {
		id, first, last string
		days            int
	}{
		{"part-lee", "Sam", "Lee", 5},
		{"part-ng", "Alex", "Ng", 20},
		{"part-brown", "Jo", "Brown", 60},
	}
	for i, p := range participants {
		end := now.AddDate(0, 0, p.days)
		if err := h.Store.SaveParticipant(ctx, domain.Participant{
			ID: p.id, NDISNumber: fmt.Sprintf("43000000%d", i+1), FirstName: p.first, LastName: p.last,
			PlanManagementType: domain.PlanManaged, PlanEndDate: &end,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadMissingStatementsScenario(ctx context.Context, now time.Time) error {
	reconciled := championDrive()
	missing := championDrive()
	missing.ID = "prop-wattle"
	missing.AddressLine1 = "4 Wattle Street"
	missing.PropertyLabel = "Wattle"

	for _, p := range []domain.Property{reconciled, missing} {
		if err := h.Store.SaveProperty(ctx, p); err != nil {
			return err
		}
	}

	last := period.Of(now).Previous()
	n := 42
	return h.Store.SaveReconciliation(ctx, domain.ReconciliationRecord{
		PropertyID:      reconciled.ID,
		Period:          last,
		StatementNumber: &n,
		Status:          domain.ReconGenerated,
		TotalMoneyIn:    money.Cents(1415000),
		NetClientPayout: money.Cents(1229110),
		CreatedAt:       now,
	})
}

func championDrive() domain.Property {
	return domain.Property{
		ID:                 "prop-champion",
		AddressLine1:       "12 Champion Drive",
		Suburb:             "Kirwan",
		State:              "QLD",
		Postcode:           "4817",
		PropertyLabel:      "Champion",
		BuildingType:       pricing.House3Residents,
		DesignCategory:     pricing.FullyAccessible,
		HasOOA:             true,
		LocationFactor:     decimal.RequireFromString("1.08"),
		SdaEnrolmentStatus: domain.EnrolmentEnrolled,
		RentalAgencyID:     "agency-c21",
	}
}
