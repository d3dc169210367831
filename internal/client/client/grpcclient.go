package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tiergate/internal/api"
	"github.com/dmitrijs2005/tiergate/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      api.AccessServiceClient
	session     string
}

var _ Client = (*GRPCClient)(nil)

func withSessionToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.SessionTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) sessionTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if s.session != "" {
		ctx = withSessionToken(ctx, s.session)
	}

	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient connects lazily to endpointURL. session is the admin session
// token and may be empty for the public methods.
func NewGRPCClient(endpointURL, session string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, session: session}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {

	conn, err := grpc.NewClient(s.endpointURL, grpc.WithTransportCredentials(insecure.NewCredentials()), grpc.WithUnaryInterceptor(s.sessionTokenInterceptor))
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = api.NewAccessServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {

	resp, err := s.client.Ping(ctx, &api.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) EvaluateAccess(ctx context.Context, email, contentID string) (*AccessResult, error) {

	resp, err := s.client.EvaluateAccess(ctx, &api.EvaluateAccessRequest{Email: email, ContentID: contentID})
	if err != nil {
		return nil, s.mapError(err)
	}

	return &AccessResult{Granted: resp.Granted, Reason: resp.Reason, Tier: resp.Tier}, nil
}

func (s *GRPCClient) RequestTierChange(ctx context.Context, email, tier, source string) (*TierChangeResult, error) {

	resp, err := s.client.RequestTierChange(ctx, &api.RequestTierChangeRequest{Email: email, Tier: tier, Source: source})
	if err != nil {
		return nil, s.mapError(err)
	}

	return &TierChangeResult{
		Applied:      resp.Applied,
		Outcome:      resp.Outcome,
		PreviousTier: resp.PreviousTier,
		NewTier:      resp.NewTier,
	}, nil
}

func (s *GRPCClient) IssueMagicLink(ctx context.Context, email string) (*MagicLink, error) {

	resp, err := s.client.IssueMagicLink(ctx, &api.IssueMagicLinkRequest{Email: email})
	if err != nil {
		return nil, s.mapError(err)
	}

	return &MagicLink{Token: resp.Token, ExpiresAt: resp.ExpiresAt}, nil
}

// VerifyMagicLink redeems token and returns the session token.
func (s *GRPCClient) VerifyMagicLink(ctx context.Context, email, token string) (string, error) {

	resp, err := s.client.VerifyMagicLink(ctx, &api.VerifyMagicLinkRequest{Email: email, Token: token})
	if err != nil {
		if status.Code(err) == codes.Unauthenticated {
			return "", ErrInvalidLink
		}
		return "", s.mapError(err)
	}

	return resp.SessionToken, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.InvalidArgument:
		return errors.Join(ErrInvalidArgument, errors.New(st.Message()))
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
