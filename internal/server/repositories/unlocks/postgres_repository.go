package unlocks

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/tiergate/internal/dbx"
	"github.com/dmitrijs2005/tiergate/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Exists(ctx context.Context, email, contentID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM user_unlocks WHERE user_email = $1 AND content_id = $2
		)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, email, contentID).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return ok, nil
}

func (r *PostgresRepository) CountByEmail(ctx context.Context, email string) (int, error) {
	query := `
		SELECT COUNT(*) FROM user_unlocks WHERE user_email = $1`

	var n int
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return n, nil
}

// Insert relies on the (user_email, content_id) unique constraint; a
// conflicting row is reported as not inserted.
func (r *PostgresRepository) Insert(ctx context.Context, g *models.UnlockGrant) (bool, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	query := `
		INSERT INTO user_unlocks (id, user_email, content_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_email, content_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, g.ID, g.Email, g.ContentID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	n, err := dbx.RowsAffected(res)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}
