// Package httpapi serves the public tiergate HTTP API: the access check used
// by the content site, invites, magic-link verification, the admin link
// generator and the survey and booking webhooks.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/tiergate/internal/logging"
	"github.com/dmitrijs2005/tiergate/internal/server/services"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// publicRateLimit bounds requests per second and client IP on the endpoints
// that mint or redeem tokens.
const publicRateLimit = rate.Limit(5)

// Authenticator resolves the session token of an administrative caller to
// the caller's e-mail.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

type Server struct {
	address         string
	logger          logging.Logger
	access          *services.AccessService
	tiers           *services.TierService
	links           *services.MagicLinkService
	invites         *services.InviteService
	authn           Authenticator
	shutdownTimeout time.Duration
	echo            *echo.Echo
}

func NewServer(addr string, l logging.Logger, access *services.AccessService, tiers *services.TierService,
	links *services.MagicLinkService, invites *services.InviteService, authn Authenticator, shutdownTimeout time.Duration) *Server {
	s := &Server{
		address:         addr,
		logger:          l.With("module", "http_server"),
		access:          access,
		tiers:           tiers,
		links:           links,
		invites:         invites,
		authn:           authn,
		shutdownTimeout: shutdownTimeout,
	}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))

	e.GET("/health", s.handleHealth)

	api := e.Group("/api/v1")
	limited := middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(publicRateLimit))

	api.POST("/access/check", s.handleCheckAccess)
	api.POST("/invite", s.handleInvite, limited)
	api.POST("/magic-link/verify", s.handleVerify, limited)
	api.POST("/admin/generate-link", s.handleAdminGenerateLink, s.adminAuth)

	hooks := api.Group("/webhooks")
	hooks.POST("/typeform", s.handleTypeform)
	hooks.GET("/vip", s.handleVIP)
	hooks.POST("/vip", s.handleVIP)

	s.echo = e
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is canceled, then shuts down within the configured
// timeout.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		res := c.Response()
		s.logger.Info(req.Context(), "http request",
			"method", req.Method,
			"uri", req.RequestURI,
			"status", res.Status,
			"size", res.Size,
			"request_id", res.Header().Get(echo.HeaderXRequestID),
			"duration", time.Since(start).String())
		return nil
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
