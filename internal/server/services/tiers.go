package services

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/dmitrijs2005/tiergate/internal/common"
	"github.com/dmitrijs2005/tiergate/internal/logging"
	"github.com/dmitrijs2005/tiergate/internal/server/events"
	"github.com/dmitrijs2005/tiergate/internal/server/models"
	"github.com/dmitrijs2005/tiergate/internal/server/policy"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/repomanager"
)

// Outcome of a tier change request.
type Outcome string

const (
	// OutcomeApplied means the requested tier was written.
	OutcomeApplied Outcome = "applied"
	// OutcomeNoOp means the user already holds the requested tier.
	OutcomeNoOp Outcome = "noop"
	// OutcomeRejected means the request would lower the tier; nothing was written.
	OutcomeRejected Outcome = "rejected"
)

// TierChange reports the tier before and after a request.
type TierChange struct {
	Email        string
	PreviousTier models.Tier
	NewTier      models.Tier
	Outcome      Outcome
}

// Applied reports whether the change was written.
func (c *TierChange) Applied() bool { return c.Outcome == OutcomeApplied }

// Err maps a non-applied outcome to common.ErrConflict for transports that
// report it as an error.
func (c *TierChange) Err() error {
	if c.Applied() {
		return nil
	}
	return fmt.Errorf("%w: %s %s -> %s", common.ErrConflict, c.Outcome, c.PreviousTier, c.NewTier)
}

// TierChangeOptions carries provenance for a change.
type TierChangeOptions struct {
	// Source is stored when the request creates the record.
	Source string
	// Details are attached to the tier.changed event.
	Details map[string]string
}

// TierService applies monotonic tier transitions.
type TierService struct {
	repomanager repomanager.RepositoryManager
	policy      *policy.Policy
	publisher   events.Publisher
	log         logging.Logger
}

func NewTierService(m repomanager.RepositoryManager, p *policy.Policy, pub events.Publisher, log logging.Logger) *TierService {
	return &TierService{
		repomanager: m,
		policy:      p,
		publisher:   pub,
		log:         log.With("module", "tiers"),
	}
}

// RequestTierChange moves email to requested when that is an upgrade. A
// missing record counts as below tier1 and is created. Equal or lower
// requests write nothing and are reported through the outcome.
func (s *TierService) RequestTierChange(ctx context.Context, email string, requested models.Tier, opts TierChangeOptions) (*TierChange, error) {
	email = models.NormalizeEmail(email)
	if !models.ValidEmail(email) {
		return nil, fmt.Errorf("%w: email", common.ErrValidation)
	}
	if !requested.Known() {
		return nil, fmt.Errorf("%w: tier %q", common.ErrValidation, string(requested))
	}
	if opts.Source == "" {
		opts.Source = models.SourceInbound
	}

	current, err := s.currentTier(ctx, email)
	if err != nil {
		return nil, err
	}

	change := &TierChange{Email: email, PreviousTier: current, NewTier: current}
	switch s.policy.Classify(current, requested) {
	case policy.TransitionSame:
		change.Outcome = OutcomeNoOp
		return change, nil
	case policy.TransitionDowngrade:
		change.Outcome = OutcomeRejected
		s.log.Info(ctx, "tier downgrade rejected", "email", email, "current", current.String(), "requested", requested.String())
		return change, nil
	}

	written, err := s.repomanager.Tiers().Upgrade(ctx, email, requested, opts.Source)
	if err != nil {
		return nil, fmt.Errorf("upgrade tier: %w", err)
	}
	if !written {
		// a concurrent writer got there first; report against what it left
		current, err = s.currentTier(ctx, email)
		if err != nil {
			return nil, err
		}
		change.PreviousTier, change.NewTier = current, current
		switch s.policy.Classify(current, requested) {
		case policy.TransitionSame:
			change.Outcome = OutcomeNoOp
		case policy.TransitionDowngrade:
			change.Outcome = OutcomeRejected
		default:
			return nil, fmt.Errorf("%w: tier write for %s not applied", common.ErrConflict, email)
		}
		return change, nil
	}

	change.NewTier = requested
	change.Outcome = OutcomeApplied
	s.log.Info(ctx, "tier changed", "email", email, "from", change.PreviousTier.String(), "to", requested.String())

	details := map[string]string{
		models.DetailPreviousTier: change.PreviousTier.String(),
		models.DetailNewTier:      string(requested),
		models.DetailSource:       opts.Source,
	}
	maps.Copy(details, opts.Details)
	s.publisher.Publish(ctx, events.New(models.EventTierChanged, email, details))
	return change, nil
}

func (s *TierService) currentTier(ctx context.Context, email string) (models.Tier, error) {
	rec, err := s.repomanager.Tiers().Get(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return models.TierNone, nil
		}
		return models.TierNone, fmt.Errorf("get tier: %w", err)
	}
	return rec.Tier, nil
}
