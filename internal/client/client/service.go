package client

import (
	"context"
	"time"
)

// AccessResult is the gate's answer for one (email, content) pair.
type AccessResult struct {
	Granted bool
	Reason  string
	Tier    string
}

// TierChangeResult reports what a tier request did.
type TierChangeResult struct {
	Applied      bool
	Outcome      string
	PreviousTier string
	NewTier      string
}

// MagicLink is a freshly issued token.
type MagicLink struct {
	Token     string
	ExpiresAt time.Time
}

// Client is the admin-facing contract of the tiergate backend.
type Client interface {
	Close() error
	Ping(ctx context.Context) error
	EvaluateAccess(ctx context.Context, email, contentID string) (*AccessResult, error)
	RequestTierChange(ctx context.Context, email, tier, source string) (*TierChangeResult, error)
	IssueMagicLink(ctx context.Context, email string) (*MagicLink, error)
	VerifyMagicLink(ctx context.Context, email, token string) (string, error)
}
