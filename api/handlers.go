/*
handlers.go - HTTP API handlers for the financial engine

PURPOSE:
  Exposes the calculators, claim and reconciliation builders, document
  parsing and the exception workflow over REST. Handles HTTP request and
  response, JSON serialization, and delegates to the domain packages.

ENDPOINTS:
  Calculators:
    POST   /api/calc/sda                    SDA funding for a dwelling
    POST   /api/calc/mrrc                   Rent contribution (defaults if empty)
    GET    /api/pricing/location-factors    Regional location factors

  Claims:
    GET    /api/claims                      List (status, property_id filters)
    POST   /api/claims/generate             Draft, validate, optionally save
    POST   /api/claims/validate             Validate a draft
    POST   /api/claims/{id}/reject          Record a rejection
    POST   /api/claims/{id}/status          submitted, approved, paid, rejected
    POST   /api/claims/proda-export         PRODA bulk upload CSV

  Reconciliations:
    GET    /api/reconciliations             List (property_id filter)
    POST   /api/reconciliations/generate    Build, validate, optionally save
    POST   /api/reconciliations/validate    Validate a result
    POST   /api/reconciliations/{id}/status Review workflow step

  Documents:
    POST   /api/statements/parse            Parse rental statement text
    POST   /api/documents/classify          Classify document text
    GET    /api/integrations                Configured integrations, strategies

  Scenarios (scenarios.go):
    GET    /api/scenarios                   Demo scenarios
    POST   /api/scenarios/load              Seed the store with one

  Exceptions (exceptions.go):
    GET    /api/exceptions                  List (status, severity, type)
    GET    /api/exceptions/counts           Open counts by severity
    GET    /api/exceptions/{id}             Get
    POST   /api/exceptions/{id}/{action}    acknowledge, resolve, dismiss

  Scheduled jobs (bearer token, exceptions.go):
    POST   /api/cron/exception-check        All detection rules
    POST   /api/cron/payment-followup       Overdue invoice rule only
    POST   /api/cron/monthly-cycle          Pending reconciliations

ERROR HANDLING:
  Errors are returned as JSON {error, details}:
  - 400: Invalid input
  - 401: Missing or bad bearer token
  - 404: Record not found
  - 409: Invalid workflow transition
  - 422: Configuration with no published rate
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - auth.go: Bearer token checks
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/propertyfriends/pf-engine/claims"
	"github.com/propertyfriends/pf-engine/classify"
	"github.com/propertyfriends/pf-engine/cycle"
	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/exceptions"
	"github.com/propertyfriends/pf-engine/integrations"
	"github.com/propertyfriends/pf-engine/period"
	"github.com/propertyfriends/pf-engine/pricing"
	"github.com/propertyfriends/pf-engine/reconciliation"
	"github.com/propertyfriends/pf-engine/statement"
	"github.com/propertyfriends/pf-engine/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store        store.Store
	Pricing      *pricing.Calculator
	Claims       *claims.Generator
	Parser       *statement.Parser
	Detector     *exceptions.Detector
	Cycle        *cycle.Runner
	Integrations *integrations.Factory

	// AgencyRate is used when a property has no rental agency on file.
	AgencyRate decimal.Decimal
	// Registration is the provider's NDIS registration number.
	Registration string

	Logger logrus.FieldLogger
	now    func() time.Time

	// jobs serialises detection and cycle runs, whether started over HTTP
	// or by the scheduler. Detection dedup is check-then-act.
	jobs sync.Mutex
}

// Deps configures NewHandler. Zero fields get defaults built on Store.
type Deps struct {
	Store        store.Store
	Pricing      *pricing.Calculator
	Detector     *exceptions.Detector
	Integrations *integrations.Factory
	AgencyRate   decimal.Decimal
	Registration string
	Logger       logrus.FieldLogger
	Now          func() time.Time
}

// NewHandler creates a handler.
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	if d.Pricing == nil {
		d.Pricing = pricing.NewCalculator()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.AgencyRate.IsZero() {
		d.AgencyRate = reconciliation.DefaultAgencyFeeRate
	}
	if d.Detector == nil {
		d.Detector = exceptions.NewDetector(d.Store, d.Store, exceptions.DefaultConfig(), d.Logger,
			exceptions.WithClock(d.Now))
	}
	if d.Integrations == nil {
		d.Integrations = integrations.NewFactory(nil)
	}
	return &Handler{
		Store:        d.Store,
		Pricing:      d.Pricing,
		Claims:       claims.NewGenerator(d.Pricing),
		Parser:       statement.NewParser(statement.DefaultResolver(), d.Logger),
		Detector:     d.Detector,
		Cycle:        cycle.NewRunner(d.Store, d.Logger),
		Integrations: d.Integrations,
		AgencyRate:   d.AgencyRate,
		Registration: d.Registration,
		Logger:       d.Logger,
		now:          d.Now,
	}
}

// =============================================================================
// CALCULATORS
// =============================================================================

// CalculateSDA prices a dwelling configuration.
func (h *Handler) CalculateSDA(w http.ResponseWriter, r *http.Request) {
	var in pricing.SDAInput
	if !decode(w, r, &in) {
		return
	}
	if in.LocationFactor.IsZero() {
		in.LocationFactor = decimal.NewFromInt(1)
	}
	res, err := h.Pricing.CalculateSDA(in)
	if err != nil {
		writeDomainError(w, "Failed to calculate SDA", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CalculateMRRC computes the rent contribution. Omitted rates use the
// published defaults.
func (h *Handler) CalculateMRRC(w http.ResponseWriter, r *http.Request) {
	in := pricing.DefaultMRRCInput()
	if r.ContentLength != 0 && !decode(w, r, &in) {
		return
	}
	writeJSON(w, http.StatusOK, pricing.CalculateMRRC(in))
}

// ListLocationFactors returns the regional location factors.
func (h *Handler) ListLocationFactors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, pricing.LocationFactors())
}

// =============================================================================
// CLAIMS
// =============================================================================

// ListClaims returns stored claims.
func (h *Handler) ListClaims(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.Store.ListClaims(r.Context(), store.ClaimFilter{
		Status:     domain.ClaimStatus(q.Get("status")),
		PropertyID: q.Get("property_id"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list claims", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GenerateClaim drafts a claim for a stored property and participant. When
// a service booking is named the SDA amount is checked against its remaining
// balance; a shortfall raises an insufficient-funds exception and the draft
// is returned unsaved.
func (h *Handler) GenerateClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req GenerateClaimRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := period.Parse(req.Period)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	property, err := h.Store.GetProperty(ctx, req.PropertyID)
	if err != nil {
		writeDomainError(w, "Property not found", err)
		return
	}
	participant, err := h.Store.GetParticipant(ctx, req.ParticipantID)
	if err != nil {
		writeDomainError(w, "Participant not found", err)
		return
	}

	draft, err := h.Claims.Generate(claims.GenerateInput{
		Property:        *property,
		Participant:     *participant,
		Period:          p,
		OccupiedDays:    req.OccupiedDays,
		MRRCFortnightly: req.MRRCFortnightly,
	})
	if err != nil {
		writeDomainError(w, "Failed to generate claim", err)
		return
	}

	resp := GenerateClaimResponse{Draft: draft}
	var booking claims.Booking
	if req.ServiceBookingID != "" {
		sb, err := h.Store.GetServiceBooking(ctx, req.ServiceBookingID)
		if err != nil {
			writeDomainError(w, "Service booking not found", err)
			return
		}
		booking = claims.Booking{Allocated: &sb.AllocatedAmount, Remaining: &sb.RemainingAmount}
		// Only the SDA component is drawn from the booking; MRRC is paid by
		// the participant.
		if draft.SdaAmount > sb.RemainingAmount {
			exc, err := h.Store.CreateException(ctx, exceptions.FromInsufficientFunds(*sb, draft.SdaAmount))
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to record exception", err)
				return
			}
			resp.Exception = exc
		}
	}
	resp.ValidationErrors = claims.ValidateDraft(draft, booking)

	strategy, err := claims.StrategyFor(draft.ClaimPathway)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Unknown claim pathway", err)
		return
	}
	resp.Strategy = strategyDTO(strategy)

	if req.Save && len(resp.ValidationErrors) == 0 && resp.Exception == nil {
		c := domain.Claim{
			ID:             uuid.NewString(),
			ClaimReference: draft.ClaimReference,
			PropertyID:     draft.PropertyID,
			ParticipantID:  draft.ParticipantID,
			ClaimPathway:   draft.ClaimPathway,
			PeriodStart:    draft.PeriodStart,
			PeriodEnd:      draft.PeriodEnd,
			SdaAmount:      draft.SdaAmount,
			MrrcAmount:     draft.MrrcAmount,
			TotalAmount:    draft.TotalAmount,
			NDISItemNumber: draft.NDISItemNumber,
			Status:         domain.ClaimValidated,
			CreatedAt:      h.now(),
		}
		if err := h.Store.SaveClaim(ctx, c); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save claim", err)
			return
		}
		resp.Claim = &c
	}

	writeJSON(w, http.StatusOK, resp)
}

// ValidateClaim checks a draft.
func (h *Handler) ValidateClaim(w http.ResponseWriter, r *http.Request) {
	var req ValidateClaimRequest
	if !decode(w, r, &req) {
		return
	}
	errs := claims.ValidateDraft(req.Draft, claims.Booking{
		Allocated: req.BookingAllocated,
		Remaining: req.BookingRemaining,
	})
	writeJSON(w, http.StatusOK, ValidationResponse{Valid: len(errs) == 0, Errors: errs})
}

// RejectClaim marks a claim rejected and raises a critical exception.
func (h *Handler) RejectClaim(w http.ResponseWriter, r *http.Request) {
	var req RejectClaimRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "reason is required", nil)
		return
	}

	resp, err := h.moveClaim(r.Context(), chi.URLParam(r, "id"), domain.ClaimRejected, req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to reject claim", err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Exception)
}

// UpdateClaimStatus moves a claim along its lifecycle and stamps the
// submitted, approved or paid time.
func (h *Handler) UpdateClaimStatus(w http.ResponseWriter, r *http.Request) {
	var req ClaimStatusRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.moveClaim(r.Context(), chi.URLParam(r, "id"), req.Status, req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to update claim", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// moveClaim applies a status change and saves the claim. A rejection also
// raises a critical exception.
func (h *Handler) moveClaim(ctx context.Context, id string, status domain.ClaimStatus, reason string) (ClaimStatusResponse, error) {
	var resp ClaimStatusResponse
	c, err := h.Store.GetClaim(ctx, id)
	if err != nil {
		return resp, err
	}
	if err := claims.UpdateStatus(c, status, reason, h.now()); err != nil {
		return resp, err
	}
	if err := h.Store.SaveClaim(ctx, *c); err != nil {
		return resp, fmt.Errorf("save claim %s: %w", id, err)
	}
	resp.Claim = *c

	if status == domain.ClaimRejected {
		exc, err := h.Store.CreateException(ctx, exceptions.FromClaimRejection(*c, reason))
		if err != nil {
			return resp, fmt.Errorf("record rejection of %s: %w", id, err)
		}
		resp.Exception = exc
	}
	h.Logger.WithFields(logrus.Fields{
		"claim_id": c.ID,
		"status":   c.Status,
	}).Info("claim status updated")
	return resp, nil
}

// ExportProdaCSV writes the named claims as a PRODA bulk upload file.
func (h *Handler) ExportProdaCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ProdaExportRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.ClaimIDs) == 0 || len(req.ClaimIDs) > claims.MaxProdaRows {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("claim_ids must name 1 to %d claims", claims.MaxProdaRows), nil)
		return
	}

	lines := make([]claims.ProdaLine, 0, len(req.ClaimIDs))
	for _, id := range req.ClaimIDs {
		c, err := h.Store.GetClaim(ctx, id)
		if err != nil {
			writeDomainError(w, "Claim not found: "+id, err)
			return
		}
		p, err := h.Store.GetParticipant(ctx, c.ParticipantID)
		if err != nil {
			writeDomainError(w, "Participant not found for claim "+id, err)
			return
		}
		lines = append(lines, claims.ProdaLine{Claim: *c, Participant: *p})
	}

	var buf bytes.Buffer
	if err := claims.WriteProdaCSV(&buf, h.Registration, lines); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to write CSV", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", claims.ProdaFilename(h.now())))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func strategyDTO(s claims.SubmissionStrategy) StrategyDTO {
	return StrategyDTO{Pathway: s.Pathway(), CanSubmit: s.CanSubmit(), Description: s.Description()}
}

// =============================================================================
// RECONCILIATIONS
// =============================================================================

// ListReconciliations returns stored reconciliations, newest period first.
func (h *Handler) ListReconciliations(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListReconciliations(r.Context(), r.URL.Query().Get("property_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reconciliations", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GenerateReconciliation builds a property-month reconciliation. The agency
// fee rate comes from the property's rental agency when it has one.
func (h *Handler) GenerateReconciliation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req GenerateReconciliationRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := period.Parse(req.Period)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	property, err := h.Store.GetProperty(ctx, req.PropertyID)
	if err != nil {
		writeDomainError(w, "Property not found", err)
		return
	}
	cfg := reconciliation.Config{AgencyFeeRate: h.AgencyRate}
	if property.RentalAgencyID != "" {
		agency, err := h.Store.GetRentalAgency(ctx, property.RentalAgencyID)
		switch {
		case err == nil:
			cfg.AgencyFeeRate = agency.ManagementFeeRate
		case !errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusInternalServerError, "Failed to load rental agency", err)
			return
		}
	}

	resp := GenerateReconciliationResponse{ReportPath: reconciliation.ReportPath(property.ID, p)}
	items := append([]reconciliation.LineItem{}, req.LineItems...)
	stmtNumber := req.StatementNumber
	if req.StatementText != "" {
		parsed := h.Parser.Parse(req.StatementText, nil, req.AgencyHint)
		resp.Statement = &parsed
		items = append(items, parsed.LineItems()...)
		if stmtNumber == nil {
			stmtNumber = parsed.StatementNumber
		}
	}
	if stmtNumber != nil {
		resp.Filename = reconciliation.Filename(*stmtNumber, p)
	}

	result := reconciliation.Generate(reconciliation.Input{
		PropertyID:       property.ID,
		Period:           p,
		StatementNumber:  stmtNumber,
		LineItems:        items,
		SDASubsidyAmount: req.SDASubsidyAmount,
	}, cfg)
	resp.Reconciliation = result
	resp.ValidationErrors = reconciliation.Validate(result)

	if req.Save {
		err := h.Store.SaveReconciliation(ctx, domain.ReconciliationRecord{
			PropertyID:      property.ID,
			Period:          p,
			StatementNumber: stmtNumber,
			Status:          result.Status,
			TotalMoneyIn:    result.TotalMoneyIn,
			NetClientPayout: result.NetClientPayout,
			CreatedAt:       h.now(),
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save reconciliation", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateReconciliationStatus moves a stored reconciliation through review.
func (h *Handler) UpdateReconciliationStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ReconciliationStatusRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Status == domain.ReconApproved && req.Actor == "" {
		writeError(w, http.StatusBadRequest, "actor is required to approve", nil)
		return
	}

	rec, err := h.Store.GetReconciliation(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Reconciliation not found", err)
		return
	}
	if err := reconciliation.UpdateStatus(rec, req.Status, req.Actor, req.Notes, h.now()); err != nil {
		writeDomainError(w, "Failed to update reconciliation", err)
		return
	}
	if err := h.Store.SaveReconciliation(ctx, *rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save reconciliation", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ValidateReconciliation checks a generated reconciliation.
func (h *Handler) ValidateReconciliation(w http.ResponseWriter, r *http.Request) {
	var result reconciliation.Result
	if !decode(w, r, &result) {
		return
	}
	errs := reconciliation.Validate(result)
	writeJSON(w, http.StatusOK, ValidationResponse{Valid: len(errs) == 0, Errors: errs})
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// ParseStatement parses rental statement text. An unknown adapter name is
// a bad request; otherwise the resolver picks one.
func (h *Handler) ParseStatement(w http.ResponseWriter, r *http.Request) {
	var req ParseStatementRequest
	if !decode(w, r, &req) {
		return
	}

	var adapter statement.Adapter
	if req.Adapter != "" {
		a, ok := h.Parser.Resolver.ByName(req.Adapter)
		if !ok {
			writeError(w, http.StatusBadRequest, "Unknown adapter: "+req.Adapter, nil)
			return
		}
		adapter = a
	} else {
		adapter = h.Parser.Resolver.Resolve(req.Text, req.AgencyHint)
	}

	res := h.Parser.Parse(req.Text, adapter, req.AgencyHint)
	writeJSON(w, http.StatusOK, ParseStatementResponse{
		Result:    res,
		Adapter:   adapter.Name(),
		LineItems: res.LineItems(),
	})
}

// ClassifyDocument classifies document text.
func (h *Handler) ClassifyDocument(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, classify.Classify(req.Text))
}

// ListIntegrations reports which external systems are configured.
func (h *Handler) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	resp := IntegrationsResponse{Integrations: h.Integrations.Status()}
	for _, pw := range []domain.ClaimPathway{domain.PathwayNDIA, domain.PathwayAgency} {
		s, _ := claims.StrategyFor(pw)
		resp.Strategies = append(resp.Strategies, strategyDTO(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps sentinel errors to a status code.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, exceptions.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, exceptions.ErrInvalidTransition),
		errors.Is(err, claims.ErrInvalidStatus),
		errors.Is(err, reconciliation.ErrInvalidStatus):
		status = http.StatusConflict
	case errors.Is(err, claims.ErrReasonRequired):
		status = http.StatusBadRequest
	case errors.Is(err, pricing.ErrRateNotFound), errors.Is(err, pricing.ErrUnknownFinancialYear):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, period.ErrInvalidPeriod):
		status = http.StatusBadRequest
	}
	writeError(w, status, message, err)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}
