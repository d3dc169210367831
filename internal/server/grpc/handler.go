package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/tiergate/internal/api"
	"github.com/dmitrijs2005/tiergate/internal/common"
	"github.com/dmitrijs2005/tiergate/internal/server/models"
	"github.com/dmitrijs2005/tiergate/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) EvaluateAccess(ctx context.Context, req *api.EvaluateAccessRequest) (*api.EvaluateAccessResponse, error) {

	d, err := s.access.EvaluateAccess(ctx, req.Email, req.ContentID)
	if err != nil {
		if errors.Is(err, common.ErrNotAllowed) {
			return &api.EvaluateAccessResponse{Granted: false, Reason: string(models.ReasonNotAllowed)}, nil
		}
		return nil, s.toStatus(ctx, err)
	}

	return &api.EvaluateAccessResponse{Granted: d.Granted, Reason: string(d.Reason), Tier: string(d.Tier)}, nil
}

func (s *GRPCServer) RequestTierChange(ctx context.Context, req *api.RequestTierChangeRequest) (*api.RequestTierChangeResponse, error) {

	tier, ok := models.ParseTier(req.Tier)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "unknown tier")
	}

	source := req.Source
	if source == "" {
		source = models.SourceAdmin
	}
	opts := services.TierChangeOptions{
		Source:  source,
		Details: map[string]string{models.DetailAdminEmail: adminFromContext(ctx)},
	}

	c, err := s.tiers.RequestTierChange(ctx, req.Email, tier, opts)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.RequestTierChangeResponse{
		Applied:      c.Applied(),
		Outcome:      string(c.Outcome),
		PreviousTier: c.PreviousTier.String(),
		NewTier:      c.NewTier.String(),
	}, nil
}

func (s *GRPCServer) IssueMagicLink(ctx context.Context, req *api.IssueMagicLinkRequest) (*api.IssueMagicLinkResponse, error) {

	issued, err := s.links.Issue(ctx, req.Email)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "magic link issued over grpc", "admin", adminFromContext(ctx), "email", issued.Email)
	return &api.IssueMagicLinkResponse{Token: issued.Token, ExpiresAt: issued.ExpiresAt}, nil
}

func (s *GRPCServer) VerifyMagicLink(ctx context.Context, req *api.VerifyMagicLinkRequest) (*api.VerifyMagicLinkResponse, error) {

	v, err := s.links.Verify(ctx, req.Email, req.Token)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.VerifyMagicLinkResponse{Ok: true, SessionToken: v.SessionToken}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {

	return &api.PingResponse{Status: "OK"}, nil

}

// toStatus maps service errors to gRPC status codes. Internal details are
// logged, never returned.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrNotAllowed):
		return status.Error(codes.PermissionDenied, "user not allowed")
	case errors.Is(err, common.ErrForbidden):
		return status.Error(codes.PermissionDenied, "forbidden")
	case errors.Is(err, common.ErrInvalidOrExpired):
		return status.Error(codes.Unauthenticated, common.ErrInvalidOrExpired.Error())
	case errors.Is(err, common.ErrConflict):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, common.ErrStorageUnavailable):
		s.logger.Warn(ctx, "storage unavailable", "error", err)
		return status.Error(codes.Unavailable, "storage unavailable")
	default:
		s.logger.Error(ctx, "internal error", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
