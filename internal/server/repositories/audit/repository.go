// Package audit persists the log of administrative actions.
package audit

import (
	"context"

	"github.com/dmitrijs2005/tiergate/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, e *models.AuditEntry) error
}
