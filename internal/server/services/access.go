// Package services contains the tiergate business logic: the access gate, tier
// transitions, magic-link issuance/verification and the invite flows built on
// top of them. Services hold no authoritative state; every call re-reads the
// store.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tiergate/internal/common"
	"github.com/dmitrijs2005/tiergate/internal/logging"
	"github.com/dmitrijs2005/tiergate/internal/server/events"
	"github.com/dmitrijs2005/tiergate/internal/server/models"
	"github.com/dmitrijs2005/tiergate/internal/server/policy"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/repomanager"
)

// AccessService decides whether a user may open a content item and consumes
// the tier's unlock quota when a new item is opened.
type AccessService struct {
	repomanager repomanager.RepositoryManager
	policy      *policy.Policy
	publisher   events.Publisher
	log         logging.Logger
}

func NewAccessService(m repomanager.RepositoryManager, p *policy.Policy, pub events.Publisher, log logging.Logger) *AccessService {
	return &AccessService{
		repomanager: m,
		policy:      p,
		publisher:   pub,
		log:         log.With("module", "access"),
	}
}

// EvaluateAccess returns the decision for (email, contentID). Users without a
// tier record get common.ErrNotAllowed; denials are decisions, not errors.
func (s *AccessService) EvaluateAccess(ctx context.Context, email, contentID string) (*models.Decision, error) {
	email = models.NormalizeEmail(email)
	contentID = strings.TrimSpace(contentID)
	if !models.ValidEmail(email) {
		return nil, fmt.Errorf("%w: email", common.ErrValidation)
	}
	if contentID == "" {
		return nil, fmt.Errorf("%w: content id", common.ErrValidation)
	}

	rec, err := s.repomanager.Tiers().Get(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNotAllowed
		}
		return nil, fmt.Errorf("get tier: %w", err)
	}

	if rec.Tier == models.TierVIP {
		return &models.Decision{Granted: true, Reason: models.ReasonVIP, Tier: rec.Tier}, nil
	}

	exists, err := s.repomanager.Unlocks().Exists(ctx, email, contentID)
	if err != nil {
		return nil, fmt.Errorf("check unlock: %w", err)
	}
	if exists {
		return &models.Decision{Granted: true, Reason: models.ReasonAlreadyUnlocked, Tier: rec.Tier}, nil
	}

	if _, ok := s.policy.QuotaFor(rec.Tier); !ok {
		s.log.Warn(ctx, "unknown tier", "email", email, "tier", string(rec.Tier))
		return &models.Decision{Granted: false, Reason: models.ReasonUnknownStatus, Tier: rec.Tier}, nil
	}

	var decision *models.Decision
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, m repomanager.RepositoryManager) error {
		var err error
		decision, err = s.grant(ctx, m, email, contentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if decision.Reason == models.ReasonNewlyUnlocked {
		s.log.Info(ctx, "content unlocked", "email", email, "content_id", contentID, "tier", string(decision.Tier))
		s.publisher.Publish(ctx, events.New(models.EventUnlockGranted, email, map[string]string{
			models.DetailContentID: contentID,
			models.DetailNewTier:   string(decision.Tier),
		}))
	}
	return decision, nil
}

// grant runs with the tier record locked, so the count it reads cannot change
// before the insert.
func (s *AccessService) grant(ctx context.Context, m repomanager.RepositoryManager, email, contentID string) (*models.Decision, error) {
	rec, err := m.Tiers().GetForUpdate(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNotAllowed
		}
		return nil, fmt.Errorf("lock tier: %w", err)
	}

	// the tier may have changed since the unlocked read
	if rec.Tier == models.TierVIP {
		return &models.Decision{Granted: true, Reason: models.ReasonVIP, Tier: rec.Tier}, nil
	}

	exists, err := m.Unlocks().Exists(ctx, email, contentID)
	if err != nil {
		return nil, fmt.Errorf("check unlock: %w", err)
	}
	if exists {
		return &models.Decision{Granted: true, Reason: models.ReasonAlreadyUnlocked, Tier: rec.Tier}, nil
	}

	quota, ok := s.policy.QuotaFor(rec.Tier)
	if !ok {
		return &models.Decision{Granted: false, Reason: models.ReasonUnknownStatus, Tier: rec.Tier}, nil
	}

	count, err := m.Unlocks().CountByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("count unlocks: %w", err)
	}
	if !quota.Allows(count) {
		return &models.Decision{Granted: false, Reason: models.LimitReason(rec.Tier), Tier: rec.Tier}, nil
	}

	inserted, err := m.Unlocks().Insert(ctx, &models.UnlockGrant{Email: email, ContentID: contentID})
	if err != nil {
		return nil, fmt.Errorf("insert unlock: %w", err)
	}
	if !inserted {
		return &models.Decision{Granted: true, Reason: models.ReasonAlreadyUnlocked, Tier: rec.Tier}, nil
	}

	if err := m.Tiers().IncrementUnlocks(ctx, email); err != nil {
		return nil, fmt.Errorf("increment unlocks: %w", err)
	}
	return &models.Decision{Granted: true, Reason: models.ReasonNewlyUnlocked, Tier: rec.Tier}, nil
}
