// Package server wires configuration, storage, services and the gRPC and
// HTTP front ends into a runnable application with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/tiergate/internal/logging"
	"github.com/dmitrijs2005/tiergate/internal/server/auth"
	"github.com/dmitrijs2005/tiergate/internal/server/config"
	"github.com/dmitrijs2005/tiergate/internal/server/events"
	"github.com/dmitrijs2005/tiergate/internal/server/httpapi"
	"github.com/dmitrijs2005/tiergate/internal/server/mailer"
	"github.com/dmitrijs2005/tiergate/internal/server/policy"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/memory"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tiergate/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/tiergate/internal/server/grpc"
)

// openPostgres is a seam for tests.
var openPostgres = repomanager.Open

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	dispatcher *events.Dispatcher
	grpc       *gs.GRPCServer
	http       *httpapi.Server
}

// NewApp builds every component from c. With an empty DatabaseDSN the
// in-memory store is used and nothing survives a restart.
func NewApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {

	logger := logging.NewJSONLogger(logOut, c.LogLevel)
	app := &App{config: c, logger: logger}

	store, err := app.initStore(ctx)
	if err != nil {
		return nil, err
	}

	sinks, err := buildSinks(ctx, c, logger)
	if err != nil {
		app.closeDB()
		return nil, err
	}
	app.dispatcher = events.NewDispatcher(logger, c.EventBufferSize, c.EventWorkers, sinks...)

	sender, err := buildSender(c, logger)
	if err != nil {
		app.closeDB()
		return nil, err
	}

	p := policy.New(policy.Limits{Tier1: c.Tier1Limit, Tier2: c.Tier2Limit})
	sessions := auth.NewSessionIssuer(c.SecretKey, c.SessionTTL)

	access := services.NewAccessService(store, p, app.dispatcher, logger)
	tiers := services.NewTierService(store, p, app.dispatcher, logger)
	links := services.NewMagicLinkService(store, c.SecretKey, c.MagicLinkTTL, sessions, app.dispatcher, logger)
	invites := services.NewInviteService(store, tiers, links, sender, app.dispatcher, logger, services.InviteConfig{
		PublicBaseURL:      c.PublicBaseURL,
		DefaultRedirectURL: c.DefaultRedirectURL,
		AdminEmails:        c.AdminEmails,
	})

	admins := auth.NewAdminAuthenticator(c.SecretKey, invites)
	app.grpc = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, access, tiers, links, admins)
	app.http = httpapi.NewServer(c.EndpointAddrHTTP, logger, access, tiers, links, invites, admins, c.ShutdownTimeout)

	return app, nil
}

func (app *App) initStore(ctx context.Context) (repomanager.RepositoryManager, error) {
	if app.config.DatabaseDSN == "" {
		app.logger.Warn(ctx, "DATABASE_DSN not set, using in-memory store")
		return memory.NewStore(), nil
	}

	db, err := openPostgres(ctx, app.config.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	m := repomanager.NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(ctx); err != nil {
		app.closeDB()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return m, nil
}

func buildSinks(ctx context.Context, c *config.Config, logger logging.Logger) ([]events.Sink, error) {
	sinks := []events.Sink{events.NewLogSink(logger)}

	if c.HubSpotToken != "" {
		sinks = append(sinks, events.NewHubSpotSink(events.HubSpotConfig{
			BaseURL: c.HubSpotBaseURL,
			Token:   c.HubSpotToken,
		}, &http.Client{Timeout: 10 * time.Second}))
	}

	if c.S3ArchiveEnabled {
		s3sink, err := events.NewS3ArchiveSink(ctx, events.S3Config{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 archive: %w", err)
		}
		sinks = append(sinks, s3sink)
	}
	return sinks, nil
}

func buildSender(c *config.Config, logger logging.Logger) (mailer.Sender, error) {
	if c.SMTPHost == "" {
		return mailer.NewLogSender(logger), nil
	}
	r, err := mailer.NewRenderer(mailer.DefaultSubject, mailer.DefaultEmailTemplate)
	if err != nil {
		return nil, err
	}
	return mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
	}, r), nil
}

func (app *App) closeDB() {
	if app.db != nil {
		_ = app.db.Close()
		app.db = nil
	}
}

// Run serves both APIs until ctx is canceled or one of them fails, then
// drains pending events and closes the database.
func (app *App) Run(ctx context.Context) error {

	app.logger.Info(ctx, "Starting app...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.grpc.Run(gctx) })
	g.Go(func() error { return app.http.Run(gctx) })

	err := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()
	if derr := app.dispatcher.Close(shutdownCtx); derr != nil {
		app.logger.Warn(shutdownCtx, "event drain incomplete", "error", derr)
	}
	app.closeDB()

	app.logger.Info(shutdownCtx, "App stopped")
	return err
}
