package models

import "time"

// Event types published after state changes.
const (
	EventTierChanged       = "tier.changed"
	EventUnlockGranted     = "unlock.granted"
	EventMagicLinkIssued   = "magic_link.issued"
	EventMagicLinkRedeemed = "magic_link.redeemed"
	EventUserInvited       = "user.invited"
)

// Event is a domain event relayed to external systems (CRM, archive, ...).
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Email      string            `json:"email"`
	Details    map[string]string `json:"details,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// AuditEntry is written for administrative actions.
type AuditEntry struct {
	ID              string
	AdminEmail      string
	Action          string
	TargetEmail     string
	PromoReportSlug string
	CreatedAt       time.Time
}

// Keys of Event.Details.
const (
	DetailPreviousTier = "previous_tier"
	DetailNewTier      = "new_tier"
	DetailSource       = "source"
	DetailContentID    = "content_id"
	DetailSector       = "sector_interest"
	DetailNPS          = "nps_score"
	DetailPromoSlug    = "promo_report_slug"
	DetailAdminEmail   = "admin_email"
)
