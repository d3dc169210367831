package policy

import (
	"testing"

	"github.com/dmitrijs2005/tiergate/internal/server/models"
	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	p := New(Limits{})
	assert.Equal(t, Limits{Tier1: 1, Tier2: 3}, p.Limits())

	p = New(Limits{Tier1: -4, Tier2: 10})
	assert.Equal(t, Limits{Tier1: 1, Tier2: 10}, p.Limits())
}

func TestQuotaFor(t *testing.T) {
	p := New(Limits{Tier1: 2, Tier2: 5})

	q, ok := p.QuotaFor(models.Tier1)
	assert.True(t, ok)
	assert.Equal(t, Quota{Limit: 2}, q)

	q, ok = p.QuotaFor(models.Tier2)
	assert.True(t, ok)
	assert.Equal(t, Quota{Limit: 5}, q)

	q, ok = p.QuotaFor(models.TierVIP)
	assert.True(t, ok)
	assert.True(t, q.Unlimited)

	_, ok = p.QuotaFor(models.Tier("gold"))
	assert.False(t, ok)

	_, ok = p.QuotaFor(models.TierNone)
	assert.False(t, ok)
}

func TestQuotaAllows(t *testing.T) {
	q := Quota{Limit: 1}
	assert.True(t, q.Allows(0))
	assert.False(t, q.Allows(1))
	assert.False(t, q.Allows(7))

	vip := Quota{Unlimited: true}
	assert.True(t, vip.Allows(1_000_000))
}

func TestCanUpgrade_TotalOrder(t *testing.T) {
	p := New(Limits{})
	ordered := []models.Tier{models.Tier1, models.Tier2, models.TierVIP}

	for i, lower := range ordered {
		for _, higher := range ordered[i+1:] {
			assert.True(t, p.CanUpgrade(lower, higher), "%s -> %s", lower, higher)
			assert.False(t, p.CanUpgrade(higher, lower), "%s -> %s", higher, lower)
			assert.Equal(t, TransitionDowngrade, p.Classify(higher, lower))
		}
		assert.False(t, p.CanUpgrade(lower, lower))
		assert.Equal(t, TransitionSame, p.Classify(lower, lower))
	}
}

func TestCanUpgrade_AbsentCurrent(t *testing.T) {
	p := New(Limits{})
	for _, tier := range []models.Tier{models.Tier1, models.Tier2, models.TierVIP} {
		assert.True(t, p.CanUpgrade(models.TierNone, tier))
	}
}

func TestCanUpgrade_UnknownCurrent(t *testing.T) {
	p := New(Limits{})
	assert.True(t, p.CanUpgrade(models.Tier("legacy"), models.Tier1))
}

func TestTransitionString(t *testing.T) {
	assert.Equal(t, "upgrade", TransitionUpgrade.String())
	assert.Equal(t, "same", TransitionSame.String())
	assert.Equal(t, "downgrade", TransitionDowngrade.String())
}
