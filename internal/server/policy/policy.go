// Package policy implements the tier policy engine: unlock quotas per tier
// and the rules for tier transitions. It performs no I/O.
package policy

import "github.com/dmitrijs2005/tiergate/internal/server/models"

// Fallback quotas used when configuration does not provide positive values.
const (
	DefaultTier1Limit = 1
	DefaultTier2Limit = 3
)

// Limits carries the configured unlock quotas.
type Limits struct {
	Tier1 int
	Tier2 int
}

// Quota is the unlock allowance of a tier. When Unlimited is set, Limit is
// meaningless and must not be compared with a ledger count.
type Quota struct {
	Limit     int
	Unlimited bool
}

// Allows reports whether a user who already holds count grants may take one more.
func (q Quota) Allows(count int) bool {
	return q.Unlimited || count < q.Limit
}

// Transition classifies a requested tier change.
type Transition int

const (
	// TransitionUpgrade raises the tier, or creates the record when absent.
	TransitionUpgrade Transition = iota
	// TransitionSame requests the tier already held.
	TransitionSame
	// TransitionDowngrade requests a lower tier and is never applied.
	TransitionDowngrade
)

func (t Transition) String() string {
	switch t {
	case TransitionUpgrade:
		return "upgrade"
	case TransitionSame:
		return "same"
	default:
		return "downgrade"
	}
}

// Policy answers quota and transition questions for a fixed set of limits.
type Policy struct {
	limits Limits
}

// New builds a Policy; non-positive limits fall back to the defaults.
func New(l Limits) *Policy {
	if l.Tier1 <= 0 {
		l.Tier1 = DefaultTier1Limit
	}
	if l.Tier2 <= 0 {
		l.Tier2 = DefaultTier2Limit
	}
	return &Policy{limits: l}
}

// Limits returns the effective limits after defaults were applied.
func (p *Policy) Limits() Limits {
	return p.limits
}

// QuotaFor returns the quota of t. ok is false for unknown tiers.
func (p *Policy) QuotaFor(t models.Tier) (q Quota, ok bool) {
	switch t {
	case models.Tier1:
		return Quota{Limit: p.limits.Tier1}, true
	case models.Tier2:
		return Quota{Limit: p.limits.Tier2}, true
	case models.TierVIP:
		return Quota{Unlimited: true}, true
	default:
		return Quota{}, false
	}
}

// CanUpgrade is true iff requested ranks strictly above current. An absent
// current tier (models.TierNone) ranks below tier1.
func (p *Policy) CanUpgrade(current, requested models.Tier) bool {
	return p.Classify(current, requested) == TransitionUpgrade
}

// Classify tells whether moving from current to requested is an upgrade,
// a no-op or a downgrade. Requested must be a known tier.
func (p *Policy) Classify(current, requested models.Tier) Transition {
	cr, rr := current.Rank(), requested.Rank()
	switch {
	case rr > cr:
		return TransitionUpgrade
	case rr == cr:
		return TransitionSame
	default:
		return TransitionDowngrade
	}
}
