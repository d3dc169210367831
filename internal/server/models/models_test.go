package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTierRank(t *testing.T) {
	assert.Less(t, TierNone.Rank(), Tier1.Rank())
	assert.Less(t, Tier1.Rank(), Tier2.Rank())
	assert.Less(t, Tier2.Rank(), TierVIP.Rank())
	assert.Equal(t, -1, Tier("gold").Rank())

	assert.False(t, TierNone.Known())
	assert.False(t, Tier("gold").Known())
	assert.True(t, TierVIP.Known())
}

func TestParseTier(t *testing.T) {
	tier, ok := ParseTier(" VIP ")
	assert.True(t, ok)
	assert.Equal(t, TierVIP, tier)

	_, ok = ParseTier("platinum")
	assert.False(t, ok)

	_, ok = ParseTier("")
	assert.False(t, ok)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail(" User@Example.com "))
	assert.Equal(t, NormalizeEmail("user@example.com"), NormalizeEmail("\tUSER@example.COM\n"))
}

func TestValidEmail(t *testing.T) {
	for _, ok := range []string{"a@b", "user@example.com", "x.y+z@sub.example.org"} {
		assert.True(t, ValidEmail(ok), ok)
	}
	for _, bad := range []string{"", "plain", "@example.com", "user@", "a b@c.d", "a@b@c"} {
		assert.False(t, ValidEmail(bad), bad)
	}
}

func TestLimitReason(t *testing.T) {
	assert.Equal(t, ReasonTier1Limit, LimitReason(Tier1))
	assert.Equal(t, ReasonTier2Limit, LimitReason(Tier2))
}

func TestMagicTokenExpired(t *testing.T) {
	now := time.Now()
	tok := &MagicToken{ExpiresAt: now}
	assert.False(t, tok.Expired(now))
	assert.True(t, tok.Expired(now.Add(time.Nanosecond)))
}
