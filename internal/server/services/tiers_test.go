package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/tiergate/internal/common"
	"github.com/dmitrijs2005/tiergate/internal/logging"
	"github.com/dmitrijs2005/tiergate/internal/server/models"
	"github.com/dmitrijs2005/tiergate/internal/server/policy"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/memory"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/tiers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestTierChange_CreatesMissingRecord(t *testing.T) {
	f := newFixture(policy.Limits{})
	ctx := context.Background()

	change, err := f.tiers.RequestTierChange(ctx, " New@B.c", models.Tier1, TierChangeOptions{Source: models.SourceAdmin})
	require.NoError(t, err)
	assert.Equal(t, &TierChange{Email: "new@b.c", PreviousTier: models.TierNone, NewTier: models.Tier1, Outcome: OutcomeApplied}, change)
	assert.NoError(t, change.Err())

	rec, err := f.store.Tiers().Get(ctx, "new@b.c")
	require.NoError(t, err)
	assert.Equal(t, models.Tier1, rec.Tier)
	assert.Equal(t, models.SourceAdmin, rec.Source)

	evs := f.pub.ofType(models.EventTierChanged)
	require.Len(t, evs, 1)
	assert.Equal(t, "none", evs[0].Details[models.DetailPreviousTier])
	assert.Equal(t, "tier1", evs[0].Details[models.DetailNewTier])
}

func TestRequestTierChange_DowngradeRejected(t *testing.T) {
	f := newFixture(policy.Limits{})
	ctx := context.Background()
	f.seed("a@b.c", models.Tier2)

	change, err := f.tiers.RequestTierChange(ctx, "a@b.c", models.Tier1, TierChangeOptions{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, change.Outcome)
	assert.Equal(t, models.Tier2, change.PreviousTier)
	assert.Equal(t, models.Tier2, change.NewTier)
	assert.ErrorIs(t, change.Err(), common.ErrConflict)

	rec, _ := f.store.Tiers().Get(ctx, "a@b.c")
	assert.Equal(t, models.Tier2, rec.Tier)
	assert.Empty(t, f.pub.ofType(models.EventTierChanged))
}

func TestRequestTierChange_SameIsNoOp(t *testing.T) {
	f := newFixture(policy.Limits{})
	f.seed("a@b.c", models.TierVIP)

	change, err := f.tiers.RequestTierChange(context.Background(), "a@b.c", models.TierVIP, TierChangeOptions{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoOp, change.Outcome)
	assert.False(t, change.Applied())
}

func TestRequestTierChange_KeepsUnlockHistory(t *testing.T) {
	f := newFixture(policy.Limits{Tier1: 1})
	ctx := context.Background()
	f.seed("a@b.c", models.Tier1)
	_, err := f.access.EvaluateAccess(ctx, "a@b.c", "post")
	require.NoError(t, err)

	change, err := f.tiers.RequestTierChange(ctx, "a@b.c", models.TierVIP, TierChangeOptions{
		Details: map[string]string{"campaign": "spring"},
	})
	require.NoError(t, err)
	assert.True(t, change.Applied())

	rec, _ := f.store.Tiers().Get(ctx, "a@b.c")
	assert.EqualValues(t, 1, rec.UnlocksCount)
	ok, _ := f.store.Unlocks().Exists(ctx, "a@b.c", "post")
	assert.True(t, ok)

	evs := f.pub.ofType(models.EventTierChanged)
	require.Len(t, evs, 1)
	assert.Equal(t, "spring", evs[0].Details["campaign"])
}

func TestRequestTierChange_Validation(t *testing.T) {
	f := newFixture(policy.Limits{})

	_, err := f.tiers.RequestTierChange(context.Background(), "not-an-email", models.Tier1, TierChangeOptions{})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.tiers.RequestTierChange(context.Background(), "a@b.c", models.Tier("gold"), TierChangeOptions{})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.tiers.RequestTierChange(context.Background(), "a@b.c", models.TierNone, TierChangeOptions{})
	assert.ErrorIs(t, err, common.ErrValidation)
}

// racingTiers simulates a concurrent writer landing vip between the read and
// the conditional write.
type racingTiers struct {
	tiers.Repository
	raced bool
}

func (r *racingTiers) Upgrade(ctx context.Context, email string, tier models.Tier, source string) (bool, error) {
	if !r.raced {
		r.raced = true
		_, _ = r.Repository.Upgrade(ctx, email, models.TierVIP, source)
	}
	return r.Repository.Upgrade(ctx, email, tier, source)
}

type racingManager struct {
	*memory.Store
	tiers *racingTiers
}

func (m racingManager) Tiers() tiers.Repository { return m.tiers }

func TestRequestTierChange_LostRaceRecomputes(t *testing.T) {
	store := memory.NewStore()
	_, _ = store.Tiers().Upgrade(context.Background(), "a@b.c", models.Tier1, models.SourceInbound)
	m := racingManager{Store: store, tiers: &racingTiers{Repository: store.Tiers()}}

	pub := &recordingPublisher{}
	svc := NewTierService(m, policy.New(policy.Limits{}), pub, logging.Nop{})

	change, err := svc.RequestTierChange(context.Background(), "a@b.c", models.Tier2, TierChangeOptions{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, change.Outcome)
	assert.Equal(t, models.TierVIP, change.PreviousTier)
	assert.Equal(t, models.TierVIP, change.NewTier)
	assert.Empty(t, pub.ofType(models.EventTierChanged))
}

func TestRequestTierChange_StorageUnavailable(t *testing.T) {
	f := newFixture(policy.Limits{})
	svc := NewTierService(brokenManager{f.store}, f.policy, f.pub, logging.Nop{})

	_, err := svc.RequestTierChange(context.Background(), "a@b.c", models.Tier2, TierChangeOptions{})
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
}
