// Package tiers declares the tier registry: the persistent per-email tier and
// unlock counter.
package tiers

import (
	"context"

	"github.com/dmitrijs2005/tiergate/internal/server/models"
)

// Repository stores tier records keyed by normalized e-mail.
type Repository interface {
	// Get returns the record for email or common.ErrorNotFound.
	Get(ctx context.Context, email string) (*models.TierRecord, error)

	// GetForUpdate is Get that also locks the record until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, email string) (*models.TierRecord, error)

	// Upgrade creates the record at tier, or raises an existing record to
	// tier when it currently ranks strictly lower. It reports whether a row
	// was written; a false result means the stored tier was equal or higher.
	// source is only recorded on creation.
	Upgrade(ctx context.Context, email string, tier models.Tier, source string) (bool, error)

	// IncrementUnlocks bumps the informational unlock counter.
	IncrementUnlocks(ctx context.Context, email string) error
}
