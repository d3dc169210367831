package models

import "time"

// UnlockGrant records that a user may access one content item.
// At most one grant exists per (Email, ContentID).
type UnlockGrant struct {
	ID        string
	Email     string
	ContentID string
	CreatedAt time.Time
}

// Reason explains an access decision.
type Reason string

const (
	ReasonVIP             Reason = "vip"
	ReasonAlreadyUnlocked Reason = "already_unlocked"
	ReasonNewlyUnlocked   Reason = "newly_unlocked"
	ReasonTier1Limit      Reason = "tier1_limit"
	ReasonTier2Limit      Reason = "tier2_limit"
	ReasonUnknownStatus   Reason = "unknown_status"
	ReasonNotAllowed      Reason = "not_allowed"
)

// Decision is the answer of the access gate.
type Decision struct {
	Granted bool
	Reason  Reason
	Tier    Tier
}

// LimitReason returns the denial reason naming the tier whose quota is exhausted.
func LimitReason(t Tier) Reason {
	if t == Tier2 {
		return ReasonTier2Limit
	}
	return ReasonTier1Limit
}
