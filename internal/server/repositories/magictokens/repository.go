// Package magictokens stores the latest magic-link token per e-mail.
package magictokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tiergate/internal/server/models"
)

type Repository interface {
	// Upsert replaces any previous token for t.Email, resetting Used.
	Upsert(ctx context.Context, t *models.MagicToken) error

	// Get returns the token for email or common.ErrorNotFound.
	Get(ctx context.Context, email string) (*models.MagicToken, error)

	// Redeem marks the token used if it is still unused, unexpired at now and
	// its digest equals tokenHash. At most one caller observes true.
	Redeem(ctx context.Context, email, tokenHash string, now time.Time) (bool, error)
}
