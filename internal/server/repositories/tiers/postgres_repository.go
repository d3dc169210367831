package tiers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tiergate/internal/common"
	"github.com/dmitrijs2005/tiergate/internal/dbx"
	"github.com/dmitrijs2005/tiergate/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectRecord = `
		SELECT email, tier, unlocks_count, source, created_at, updated_at
		FROM allowed_users
		WHERE email = $1`

func (r *PostgresRepository) Get(ctx context.Context, email string) (*models.TierRecord, error) {
	return r.get(ctx, selectRecord, email)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, email string) (*models.TierRecord, error) {
	return r.get(ctx, selectRecord+`
		FOR UPDATE`, email)
}

func (r *PostgresRepository) get(ctx context.Context, query string, email string) (*models.TierRecord, error) {
	rec := &models.TierRecord{}
	var tier string
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&rec.Email, &tier, &rec.UnlocksCount, &rec.Source, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	rec.Tier = models.Tier(tier)
	return rec, nil
}

func (r *PostgresRepository) Upgrade(ctx context.Context, email string, tier models.Tier, source string) (bool, error) {
	query := `
		INSERT INTO allowed_users (email, tier, tier_rank, source)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE
		SET tier = EXCLUDED.tier, tier_rank = EXCLUDED.tier_rank, updated_at = now()
		WHERE allowed_users.tier_rank < EXCLUDED.tier_rank`

	res, err := r.db.ExecContext(ctx, query, email, string(tier), tier.Rank(), source)
	if err != nil {
		return false, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	n, err := dbx.RowsAffected(res)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) IncrementUnlocks(ctx context.Context, email string) error {
	query := `
		UPDATE allowed_users
		SET unlocks_count = unlocks_count + 1, updated_at = now()
		WHERE email = $1`

	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return nil
}
