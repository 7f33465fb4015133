/*
Package domain holds the plain records the financial engine exchanges with
its collaborators: properties, participants, claims and reconciliation rows.

PURPOSE:
  Identity belongs to the database. These records carry just enough of each
  row for the calculators and detection rules to work, and are shared by
  both store implementations.

KEY CONCEPTS:
  - Enums are lowercase snake_case strings, matching their stored form
  - ValidationError is a finding, never returned as an error
  - ErrNotFound is the one sentinel every store returns for missing rows

SEE ALSO:
  - claims/: consumes Property and Participant
  - exceptions/: reads claims, plans and enrolled properties
  - store/memory, store/sqlstore: persistence
*/
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/propertyfriends/pf-engine/money"
	"github.com/propertyfriends/pf-engine/period"
	"github.com/propertyfriends/pf-engine/pricing"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// =============================================================================
// ENUMS
// =============================================================================

// SdaEnrolmentStatus is a property's NDIA SDA enrolment state.
type SdaEnrolmentStatus string

const (
	EnrolmentPending   SdaEnrolmentStatus = "pending"
	EnrolmentEnrolled  SdaEnrolmentStatus = "enrolled"
	EnrolmentCancelled SdaEnrolmentStatus = "cancelled"
)

// PlanManagementType is how a participant's NDIS plan is administered.
type PlanManagementType string

const (
	NDIAManaged PlanManagementType = "ndia_managed"
	PlanManaged PlanManagementType = "plan_managed"
	SelfManaged PlanManagementType = "self_managed"
)

// ClaimPathway is where a claim is sent for payment.
type ClaimPathway string

const (
	PathwayNDIA   ClaimPathway = "ndia_managed"
	PathwayAgency ClaimPathway = "agency_managed"
)

// PathwayFor maps a plan management type to its claim pathway. Plan-managed
// and self-managed participants are both invoiced through an agency.
func PathwayFor(t PlanManagementType) ClaimPathway {
	if t == NDIAManaged {
		return PathwayNDIA
	}
	return PathwayAgency
}

// ClaimStatus is the lifecycle state of a persisted claim.
type ClaimStatus string

const (
	ClaimDraft     ClaimStatus = "draft"
	ClaimValidated ClaimStatus = "validated"
	ClaimSubmitted ClaimStatus = "submitted"
	ClaimApproved  ClaimStatus = "approved"
	ClaimRejected  ClaimStatus = "rejected"
	ClaimPaid      ClaimStatus = "paid"
)

// ReconStatus is the lifecycle state of a monthly reconciliation.
type ReconStatus string

const (
	ReconPending   ReconStatus = "pending"
	ReconGenerated ReconStatus = "generated"
	ReconReviewed  ReconStatus = "reviewed"
	ReconApproved  ReconStatus = "approved"
	ReconPublished ReconStatus = "published"
)

// =============================================================================
// RECORDS
// =============================================================================

// Property is an SDA dwelling.
type Property struct {
	ID                 string                 `json:"id"`
	AddressLine1       string                 `json:"address_line1"`
	Suburb             string                 `json:"suburb"`
	State              string                 `json:"state"`
	Postcode           string                 `json:"postcode"`
	PropertyLabel      string                 `json:"property_label,omitempty"`
	BuildingType       pricing.BuildingType   `json:"building_type"`
	DesignCategory     pricing.DesignCategory `json:"design_category"`
	HasOOA             bool                   `json:"has_ooa"`
	HasBreakoutRoom    bool                   `json:"has_breakout_room"`
	HasFireSprinklers  bool                   `json:"has_fire_sprinklers"`
	LocationFactor     decimal.Decimal        `json:"location_factor"`
	SdaEnrolmentStatus SdaEnrolmentStatus     `json:"sda_enrolment_status"`
	RentalAgencyID     string                 `json:"rental_agency_id,omitempty"`
}

// Label returns the property label, falling back to the suburb.
func (p Property) Label() string {
	if strings.TrimSpace(p.PropertyLabel) != "" {
		return p.PropertyLabel
	}
	return p.Suburb
}

// SDAInput returns the pricing configuration of the property.
func (p Property) SDAInput() pricing.SDAInput {
	return pricing.SDAInput{
		BuildingType:      p.BuildingType,
		DesignCategory:    p.DesignCategory,
		LocationFactor:    p.LocationFactor,
		HasOOA:            p.HasOOA,
		HasBreakoutRoom:   p.HasBreakoutRoom,
		HasFireSprinklers: p.HasFireSprinklers,
	}
}

// RentalAgency manages the tenancy of a property and charges a management
// fee on money in.
type RentalAgency struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	ManagementFeeRate decimal.Decimal `json:"management_fee_rate"`
}

// Participant is an NDIS participant living in a property.
type Participant struct {
	ID                 string             `json:"id"`
	NDISNumber         string             `json:"ndis_number"`
	FirstName          string             `json:"first_name"`
	LastName           string             `json:"last_name"`
	Email              string             `json:"email,omitempty"`
	DateOfBirth        *time.Time         `json:"date_of_birth,omitempty"`
	PlanManagementType PlanManagementType `json:"plan_management_type"`
	PlanStartDate      *time.Time         `json:"plan_start_date,omitempty"`
	PlanEndDate        *time.Time         `json:"plan_end_date,omitempty"`
}

// FullName joins first and last name.
func (p Participant) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Claim is a persisted claim. The status timestamps are stamped by
// claims.UpdateStatus.
type Claim struct {
	ID              string       `json:"id"`
	ClaimReference  string       `json:"claim_reference"`
	PropertyID      string       `json:"property_id"`
	ParticipantID   string       `json:"participant_id"`
	ClaimPathway    ClaimPathway `json:"claim_pathway"`
	PeriodStart     time.Time    `json:"period_start"`
	PeriodEnd       time.Time    `json:"period_end"`
	SdaAmount       money.Cents  `json:"sda_amount"`
	MrrcAmount      *money.Cents `json:"mrrc_amount,omitempty"`
	TotalAmount     money.Cents  `json:"total_amount"`
	NDISItemNumber  string       `json:"ndis_item_number"`
	Status          ClaimStatus  `json:"status"`
	RejectionReason string       `json:"rejection_reason,omitempty"`
	SubmittedAt     *time.Time   `json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time   `json:"approved_at,omitempty"`
	PaidAt          *time.Time   `json:"paid_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// ReconciliationRecord is the persisted row for one property-month.
type ReconciliationRecord struct {
	ID              string        `json:"id"`
	PropertyID      string        `json:"property_id"`
	Period          period.Period `json:"period"`
	StatementNumber *int          `json:"statement_number,omitempty"`
	Status          ReconStatus   `json:"status"`
	TotalMoneyIn    money.Cents   `json:"total_money_in"`
	NetClientPayout money.Cents   `json:"net_client_payout"`
	Notes           string        `json:"notes,omitempty"`
	ApprovedBy      string        `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time    `json:"approved_at,omitempty"`
	PublishedAt     *time.Time    `json:"published_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// ServiceBooking is the funding allocation an NDIA-managed claim draws on.
type ServiceBooking struct {
	ID              string      `json:"id"`
	ParticipantID   string      `json:"participant_id"`
	PropertyID      string      `json:"property_id,omitempty"`
	NDIABookingID   string      `json:"ndia_booking_id,omitempty"`
	AllocatedAmount money.Cents `json:"allocated_amount"`
	RemainingAmount money.Cents `json:"remaining_amount"`
	EndDate         time.Time   `json:"end_date"`
}

// =============================================================================
// VALIDATION FINDINGS
// =============================================================================

// ValidationError is a single field-level finding. Validators return a slice
// of these; an empty slice means the subject passed.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// Reference returns the NDIA booking id when known.
func (b ServiceBooking) Reference() string {
	if b.NDIABookingID != "" {
		return b.NDIABookingID
	}
	return b.ID
}
