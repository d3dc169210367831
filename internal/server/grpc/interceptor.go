package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/tiergate/internal/api"
	"github.com/dmitrijs2005/tiergate/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const adminEmailKey ctxKey = "adminEmail"

var adminMethods = map[string]bool{
	api.MethodRequestTierChange: true,
	api.MethodIssueMagicLink:    true,
}

func (s *GRPCServer) adminInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if adminMethods[info.FullMethod] {

		var token string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(common.SessionTokenHeaderName)
			if len(values) > 0 {
				token = values[0]
			}
		}
		if len(token) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing session token")
		}
		if s.authn == nil {
			return nil, status.Error(codes.PermissionDenied, "not an admin")
		}

		admin, err := s.authn.Authenticate(token)
		if errors.Is(err, common.ErrForbidden) {
			return nil, status.Error(codes.PermissionDenied, "not an admin")
		}
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid session token")
		}

		ctx = context.WithValue(ctx, adminEmailKey, admin)
	}

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "grpc call", "method", info.FullMethod,
		"code", status.Code(err).String(), "duration", time.Since(start))
	return resp, err
}

func adminFromContext(ctx context.Context) string {
	v, _ := ctx.Value(adminEmailKey).(string)
	return v
}
