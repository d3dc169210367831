package magictokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

func (r *PostgresRepository) Upsert(ctx context.Context, t *models.MagicToken) error {
	query := `
		INSERT INTO magic_tokens (email, token_hash, issued_at, expires_at, used, used_at)
		VALUES ($1, $2, $3, $4, FALSE, NULL)
		ON CONFLICT (email) DO UPDATE
		SET token_hash = EXCLUDED.token_hash, issued_at = EXCLUDED.issued_at,
			expires_at = EXCLUDED.expires_at, used = FALSE, used_at = NULL`

	if _, err := r.db.ExecContext(ctx, query, t.Email, t.TokenHash, t.IssuedAt, t.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, email string) (*models.MagicToken, error) {
	query := `
		SELECT email, token_hash, issued_at, expires_at, used, used_at
		FROM magic_tokens
		WHERE email = $1`

	t := &models.MagicToken{}
	var usedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&t.Email, &t.TokenHash, &t.IssuedAt, &t.ExpiresAt, &t.Used, &usedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	if usedAt.Valid {
		t.UsedAt = &usedAt.Time
	}
	return t, nil
}

func (r *PostgresRepository) Redeem(ctx context.Context, email, tokenHash string, now time.Time) (bool, error) {
	query := `
		UPDATE magic_tokens
		SET used = TRUE, used_at = $3
		WHERE email = $1 AND token_hash = $2 AND used = FALSE AND expires_at >= $3`

	res, err := r.db.ExecContext(ctx, query, email, tokenHash, now)
	if err != nil {
		return false, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	n, err := dbx.RowsAffected(res)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}
