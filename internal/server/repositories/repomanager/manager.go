// Package repomanager groups the tiergate repositories behind one handle and
// provides transactions spanning several of them.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/tiergate/internal/server/repositories/audit"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/magictokens"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/tiers"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/unlocks"
)

// RepositoryManager vends repositories bound to one connection or transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error

	Tiers() tiers.Repository
	Unlocks() unlocks.Repository
	MagicTokens() magictokens.Repository
	Audit() audit.Repository

	// WithTx runs fn with a manager whose repositories share one transaction.
	// The transaction commits when fn returns nil. Calling WithTx on the
	// manager passed to fn runs the nested fn inside the same transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error
}
