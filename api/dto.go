/*
dto.go - Request and response bodies for the HTTP API

PURPOSE:
  Keeps the wire contract separate from the domain records. Calculator
  results, drafts and reconciliation results are returned as-is since they
  already carry JSON tags; request bodies live here.

NAMING CONVENTION:
  - *Request: request bodies
  - *Response: response wrappers

VALIDATION:
  Done in handlers. Periods travel as "YYYY-MM" strings.

SEE ALSO:
  - handlers.go: uses these types
*/
package api

import (
	"github.com/propertyfriends/pf-engine/claims"
	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/exceptions"
	"github.com/propertyfriends/pf-engine/money"
	"github.com/propertyfriends/pf-engine/reconciliation"
	"github.com/propertyfriends/pf-engine/statement"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CLAIMS
// =============================================================================

// GenerateClaimRequest drafts a claim for a stored property and participant.
type GenerateClaimRequest struct {
	PropertyID       string       `json:"property_id"`
	ParticipantID    string       `json:"participant_id"`
	Period           string       `json:"period"`
	OccupiedDays     *int         `json:"occupied_days,omitempty"`
	MRRCFortnightly  *money.Cents `json:"mrrc_fortnightly,omitempty"`
	ServiceBookingID string       `json:"service_booking_id,omitempty"`
	Save             bool         `json:"save"`
}

// StrategyDTO describes how a claim would be submitted.
type StrategyDTO struct {
	Pathway     domain.ClaimPathway `json:"pathway"`
	CanSubmit   bool                `json:"can_submit"`
	Description string              `json:"description"`
}

// GenerateClaimResponse is a draft with its findings. Claim is set when the
// draft was saved; Exception when the booking could not cover it.
type GenerateClaimResponse struct {
	Draft            claims.Draft             `json:"draft"`
	ValidationErrors []domain.ValidationError `json:"validation_errors"`
	Strategy         StrategyDTO              `json:"strategy"`
	Claim            *domain.Claim            `json:"claim,omitempty"`
	Exception        *exceptions.Exception    `json:"exception,omitempty"`
}

// ValidateClaimRequest checks a draft against an optional booking balance.
type ValidateClaimRequest struct {
	Draft            claims.Draft `json:"draft"`
	BookingAllocated *money.Cents `json:"booking_allocated,omitempty"`
	BookingRemaining *money.Cents `json:"booking_remaining,omitempty"`
}

// ValidationResponse lists findings; Valid is true when there are none.
type ValidationResponse struct {
	Valid  bool                     `json:"valid"`
	Errors []domain.ValidationError `json:"errors"`
}

// RejectClaimRequest records a rejection from NDIA or a plan manager.
type RejectClaimRequest struct {
	Reason string `json:"reason"`
}

// ClaimStatusRequest moves a claim along its lifecycle. Reason is required
// when rejecting.
type ClaimStatusRequest struct {
	Status domain.ClaimStatus `json:"status"`
	Reason string             `json:"reason,omitempty"`
}

// ClaimStatusResponse is the updated claim; Exception is set on rejection.
type ClaimStatusResponse struct {
	Claim     domain.Claim          `json:"claim"`
	Exception *exceptions.Exception `json:"exception,omitempty"`
}

// ProdaExportRequest names the claims for a bulk upload file.
type ProdaExportRequest struct {
	ClaimIDs []string `json:"claim_ids"`
}

// =============================================================================
// RECONCILIATIONS
// =============================================================================

// ReconciliationStatusRequest is one review step. Actor is required when
// approving.
type ReconciliationStatusRequest struct {
	Status domain.ReconStatus `json:"status"`
	Actor  string             `json:"actor,omitempty"`
	Notes  string             `json:"notes,omitempty"`
}

// GenerateReconciliationRequest builds a reconciliation from line items,
// optionally adding those parsed from a rental statement.
type GenerateReconciliationRequest struct {
	PropertyID       string                    `json:"property_id"`
	Period           string                    `json:"period"`
	StatementNumber  *int                      `json:"statement_number,omitempty"`
	LineItems        []reconciliation.LineItem `json:"line_items"`
	SDASubsidyAmount money.Cents               `json:"sda_subsidy_amount"`
	StatementText    string                    `json:"statement_text,omitempty"`
	AgencyHint       string                    `json:"agency_hint,omitempty"`
	Save             bool                      `json:"save"`
}

// GenerateReconciliationResponse is the result with its findings.
type GenerateReconciliationResponse struct {
	Reconciliation   reconciliation.Result    `json:"reconciliation"`
	ValidationErrors []domain.ValidationError `json:"validation_errors"`
	Statement        *statement.Result        `json:"statement,omitempty"`
	Filename         string                   `json:"filename,omitempty"`
	ReportPath       string                   `json:"report_path"`
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// ParseStatementRequest is raw statement text with an optional agency hint
// or adapter name.
type ParseStatementRequest struct {
	Text       string `json:"text"`
	AgencyHint string `json:"agency_hint,omitempty"`
	Adapter    string `json:"adapter,omitempty"`
}

// ParseStatementResponse adds the reconciliation line items to the parse.
type ParseStatementResponse struct {
	statement.Result
	Adapter   string                    `json:"adapter"`
	LineItems []reconciliation.LineItem `json:"line_items"`
}

// ClassifyRequest is raw document text.
type ClassifyRequest struct {
	Text string `json:"text"`
}

// =============================================================================
// EXCEPTIONS
// =============================================================================

// TransitionRequest moves an exception through its workflow.
type TransitionRequest struct {
	Actor string `json:"actor"`
	Notes string `json:"notes,omitempty"`
}

// IntegrationsResponse reports configured integrations and submission
// strategies.
type IntegrationsResponse struct {
	Integrations map[string]bool `json:"integrations"`
	Strategies   []StrategyDTO   `json:"strategies"`
}
