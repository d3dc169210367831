// Package grpc exposes the tiergate services over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/tiergate/internal/api"
	"github.com/dmitrijs2005/tiergate/internal/logging"
	"github.com/dmitrijs2005/tiergate/internal/server/services"
	"google.golang.org/grpc"
)

// Authenticator resolves the session token of an administrative caller to
// the caller's e-mail.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

type GRPCServer struct {
	address string
	logger  logging.Logger
	access  *services.AccessService
	tiers   *services.TierService
	links   *services.MagicLinkService
	authn   Authenticator
}

func NewGRPCServer(a string, l logging.Logger, access *services.AccessService, tiers *services.TierService,
	links *services.MagicLinkService, authn Authenticator) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		access:  access,
		tiers:   tiers,
		links:   links,
		authn:   authn,
	}
}

// newServer builds the grpc.Server with interceptors and the service registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.adminInterceptor))
	api.RegisterAccessServiceServer(srv, s)
	return srv
}

// Run serves until ctx is canceled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
