package models

import (
	"strings"
	"time"
)

// Sources of a tier record, i.e. how the user first came into contact.
const (
	SourceInbound  = "inbound"
	SourceOutbound = "outbound"
	SourceAdmin    = "admin"
	SourceWebhook  = "webhook"
)

// TierRecord is the per-email entry of the tier registry.
// UnlocksCount is informational; the unlock ledger is authoritative.
type TierRecord struct {
	Email        string
	Tier         Tier
	UnlocksCount int64
	Source       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail lower-cases and trims an e-mail address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether a normalized e-mail looks usable: non-empty,
// one "@" with something on both sides and no whitespace.
func ValidEmail(email string) bool {
	if email == "" || strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	local, domain, ok := strings.Cut(email, "@")
	return ok && local != "" && domain != "" && !strings.Contains(domain, "@")
}
