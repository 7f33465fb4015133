package claims

import (
	"fmt"

	"github.com/propertyfriends/pf-engine/domain"
)

// SubmissionStrategy describes how a claim on a pathway is submitted.
// Neither pathway is wired to an external system yet, so CanSubmit is false
// for both and claims are lodged manually.
type SubmissionStrategy interface {
	Pathway() domain.ClaimPathway
	CanSubmit() bool
	Description() string
}

type ndiaStrategy struct{}

func (ndiaStrategy) Pathway() domain.ClaimPathway { return domain.PathwayNDIA }
func (ndiaStrategy) CanSubmit() bool              { return false }
func (ndiaStrategy) Description() string          { return "Submit directly to NDIA via PRODA/API" }

type agencyStrategy struct{}

func (agencyStrategy) Pathway() domain.ClaimPathway { return domain.PathwayAgency }
func (agencyStrategy) CanSubmit() bool              { return false }
func (agencyStrategy) Description() string          { return "Generate Xero invoice to plan manager" }

// StrategyFor returns the submission strategy for a pathway.
func StrategyFor(p domain.ClaimPathway) (SubmissionStrategy, error) {
	switch p {
	case domain.PathwayNDIA:
		return ndiaStrategy{}, nil
	case domain.PathwayAgency:
		return agencyStrategy{}, nil
	}
	return nil, fmt.Errorf("unknown claim pathway %q", p)
}
