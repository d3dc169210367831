package audit

import (
	"context"
	"database/sql"
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

// Insert stores e; an empty ID is filled with a fresh UUID.
func (r *PostgresRepository) Insert(ctx context.Context, e *models.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	query := `
		INSERT INTO admin_audit_log (id, admin_email, action, target_email, promo_report_slug)
		VALUES ($1, $2, $3, $4, $5)`

	slug := sql.NullString{String: e.PromoReportSlug, Valid: e.PromoReportSlug != ""}
	if _, err := r.db.ExecContext(ctx, query, e.ID, e.AdminEmail, e.Action, e.TargetEmail, slug); err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return nil
}
