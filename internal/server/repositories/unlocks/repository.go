// Package unlocks declares the unlock ledger: one grant per (email, content).
package unlocks

import (
	"context"

	"github.com/dmitrijs2005/tiergate/internal/server/models"
)

type Repository interface {
	Exists(ctx context.Context, email, contentID string) (bool, error)
	CountByEmail(ctx context.Context, email string) (int, error)

	// Insert adds g unless a grant for the same pair already exists, in which
	// case it returns false and no error.
	Insert(ctx context.Context, g *models.UnlockGrant) (bool, error)
}
