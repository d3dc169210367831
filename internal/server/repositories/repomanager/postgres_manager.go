package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/tiergate/internal/dbx"
	"github.com/dmitrijs2005/tiergate/internal/server/migrations"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/audit"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/magictokens"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/tiers"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/unlocks"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories bound either
// to the pool or to an open transaction.
type PostgresRepositoryManager struct {
	db   *sql.DB
	q    dbx.DBTX
	inTx bool
}

// NewPostgresRepositoryManager wraps an already opened pool.
func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db, q: db}
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open connects to dsn with the pgx driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", dbx.Classify(err))
	}
	return db, nil
}

func (m *PostgresRepositoryManager) Tiers() tiers.Repository {
	return tiers.NewPostgresRepository(m.q)
}

func (m *PostgresRepositoryManager) Unlocks() unlocks.Repository {
	return unlocks.NewPostgresRepository(m.q)
}

func (m *PostgresRepositoryManager) MagicTokens() magictokens.Repository {
	return magictokens.NewPostgresRepository(m.q)
}

func (m *PostgresRepositoryManager) Audit() audit.Repository {
	return audit.NewPostgresRepository(m.q)
}

func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error {
	if m.inTx {
		return fn(ctx, m)
	}
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &PostgresRepositoryManager{db: m.db, q: tx, inTx: true})
	})
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded goose migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}
