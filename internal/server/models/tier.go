// Package models defines the records persisted by tiergate and the values
// exchanged between services and transports.
package models

import "strings"

// Tier is a ranked privilege level controlling the unlock quota.
type Tier string

const (
	// TierNone stands for "no tier record"; it ranks below every real tier.
	TierNone Tier = ""
	Tier1    Tier = "tier1"
	Tier2    Tier = "tier2"
	TierVIP  Tier = "vip"
)

// Rank orders tiers: none < tier1 < tier2 < vip. Unknown values rank -1.
func (t Tier) Rank() int {
	switch t {
	case TierNone:
		return 0
	case Tier1:
		return 1
	case Tier2:
		return 2
	case TierVIP:
		return 3
	default:
		return -1
	}
}

// Known reports whether t is one of tier1, tier2 or vip.
func (t Tier) Known() bool {
	return t.Rank() > 0
}

func (t Tier) String() string {
	if t == TierNone {
		return "none"
	}
	return string(t)
}

// ParseTier parses a tier name case-insensitively.
func ParseTier(s string) (Tier, bool) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Known()
}
