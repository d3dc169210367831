package models

import "time"

// MagicToken is the stored state of the latest magic link issued to an e-mail.
// TokenHash is a keyed digest of the secret; the secret itself is never stored.
type MagicToken struct {
	Email     string
	TokenHash string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Used      bool
	UsedAt    *time.Time
}

// Expired reports whether now is past the expiry instant.
func (t *MagicToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
