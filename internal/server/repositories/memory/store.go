// Package memory is an in-process implementation of every tiergate
// repository. It backs tests and single-instance deployments without a
// database.
//
// Transactions are serialized: WithTx holds a store-wide lock for the whole
// callback, so a read-check-write sequence inside it is atomic with respect
// to other transactions. Writes made before fn fails are not rolled back.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/tiergate/internal/common"
	"github.com/dmitrijs2005/tiergate/internal/server/models"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/audit"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/magictokens"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/tiers"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/unlocks"
	"github.com/google/uuid"
)

type unlockKey struct {
	email     string
	contentID string
}

// Store holds all state in maps guarded by mu. txMu serializes transactions.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	now func() time.Time

	users   map[string]models.TierRecord
	unlocks map[unlockKey]models.UnlockGrant
	tokens  map[string]models.MagicToken
	audit   []models.AuditEntry
}

var _ repomanager.RepositoryManager = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		now:     time.Now,
		users:   make(map[string]models.TierRecord),
		unlocks: make(map[unlockKey]models.UnlockGrant),
		tokens:  make(map[string]models.MagicToken),
	}
}

func (s *Store) RunMigrations(context.Context) error { return nil }

func (s *Store) Tiers() tiers.Repository             { return tierRepo{s} }
func (s *Store) Unlocks() unlocks.Repository         { return unlockRepo{s} }
func (s *Store) MagicTokens() magictokens.Repository { return tokenRepo{s} }
func (s *Store) Audit() audit.Repository             { return auditRepo{s} }

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, m repomanager.RepositoryManager) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx, txView{s})
}

// AuditEntries returns a copy of the audit log.
func (s *Store) AuditEntries() []models.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AuditEntry(nil), s.audit...)
}

// txView is the manager handed to WithTx callbacks. Non-transactional
// callers never take txMu, so a plain read may interleave with a transaction;
// transactional callers are serialized among themselves.
type txView struct {
	s *Store
}

func (v txView) RunMigrations(context.Context) error { return nil }
func (v txView) Tiers() tiers.Repository             { return tierRepo{v.s} }
func (v txView) Unlocks() unlocks.Repository         { return unlockRepo{v.s} }
func (v txView) MagicTokens() magictokens.Repository { return tokenRepo{v.s} }
func (v txView) Audit() audit.Repository             { return auditRepo{v.s} }

func (v txView) WithTx(ctx context.Context, fn func(ctx context.Context, m repomanager.RepositoryManager) error) error {
	return fn(ctx, v)
}

type tierRepo struct{ s *Store }

func (r tierRepo) Get(ctx context.Context, email string) (*models.TierRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.users[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rec, nil
}

// GetForUpdate equals Get; the lock is provided by WithTx.
func (r tierRepo) GetForUpdate(ctx context.Context, email string) (*models.TierRecord, error) {
	return r.Get(ctx, email)
}

func (r tierRepo) Upgrade(ctx context.Context, email string, tier models.Tier, source string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	rec, ok := r.s.users[email]
	if !ok {
		r.s.users[email] = models.TierRecord{
			Email: email, Tier: tier, Source: source, CreatedAt: now, UpdatedAt: now,
		}
		return true, nil
	}
	if rec.Tier.Rank() >= tier.Rank() {
		return false, nil
	}
	rec.Tier = tier
	rec.UpdatedAt = now
	r.s.users[email] = rec
	return true, nil
}

func (r tierRepo) IncrementUnlocks(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rec, ok := r.s.users[email]; ok {
		rec.UnlocksCount++
		rec.UpdatedAt = r.s.now()
		r.s.users[email] = rec
	}
	return nil
}

type unlockRepo struct{ s *Store }

func (r unlockRepo) Exists(ctx context.Context, email, contentID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.unlocks[unlockKey{email, contentID}]
	return ok, nil
}

func (r unlockRepo) CountByEmail(ctx context.Context, email string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for k := range r.s.unlocks {
		if k.email == email {
			n++
		}
	}
	return n, nil
}

func (r unlockRepo) Insert(ctx context.Context, g *models.UnlockGrant) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := unlockKey{g.Email, g.ContentID}
	if _, ok := r.s.unlocks[k]; ok {
		return false, nil
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.CreatedAt = r.s.now()
	r.s.unlocks[k] = *g
	return true, nil
}

type tokenRepo struct{ s *Store }

func (r tokenRepo) Upsert(ctx context.Context, t *models.MagicToken) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *t
	c.Used = false
	c.UsedAt = nil
	r.s.tokens[t.Email] = c
	return nil
}

func (r tokenRepo) Get(ctx context.Context, email string) (*models.MagicToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tokens[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r tokenRepo) Redeem(ctx context.Context, email, tokenHash string, now time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[email]
	if !ok || t.Used || t.TokenHash != tokenHash || t.Expired(now) {
		return false, nil
	}
	t.Used = true
	t.UsedAt = &now
	r.s.tokens[email] = t
	return true, nil
}

type auditRepo struct{ s *Store }

func (r auditRepo) Insert(ctx context.Context, e *models.AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = r.s.now()
	r.s.audit = append(r.s.audit, *e)
	return nil
}
