package api

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "tiergate.v1.AccessService"

// Full method names, as seen by interceptors.
const (
	MethodEvaluateAccess    = "/" + ServiceName + "/EvaluateAccess"
	MethodRequestTierChange = "/" + ServiceName + "/RequestTierChange"
	MethodIssueMagicLink    = "/" + ServiceName + "/IssueMagicLink"
	MethodVerifyMagicLink   = "/" + ServiceName + "/VerifyMagicLink"
	MethodPing              = "/" + ServiceName + "/Ping"
)

// AccessServiceServer is implemented by the tiergate server.
type AccessServiceServer interface {
	EvaluateAccess(context.Context, *EvaluateAccessRequest) (*EvaluateAccessResponse, error)
	RequestTierChange(context.Context, *RequestTierChangeRequest) (*RequestTierChangeResponse, error)
	IssueMagicLink(context.Context, *IssueMagicLinkRequest) (*IssueMagicLinkResponse, error)
	VerifyMagicLink(context.Context, *VerifyMagicLinkRequest) (*VerifyMagicLinkResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

// RegisterAccessServiceServer registers srv on s.
func RegisterAccessServiceServer(s grpc.ServiceRegistrar, srv AccessServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

func unaryHandler[Req any, Resp any](method string, call func(AccessServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(AccessServiceServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(*Req))
		})
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AccessServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "EvaluateAccess", Handler: unaryHandler(MethodEvaluateAccess, AccessServiceServer.EvaluateAccess)},
		{MethodName: "RequestTierChange", Handler: unaryHandler(MethodRequestTierChange, AccessServiceServer.RequestTierChange)},
		{MethodName: "IssueMagicLink", Handler: unaryHandler(MethodIssueMagicLink, AccessServiceServer.IssueMagicLink)},
		{MethodName: "VerifyMagicLink", Handler: unaryHandler(MethodVerifyMagicLink, AccessServiceServer.VerifyMagicLink)},
		{MethodName: "Ping", Handler: unaryHandler(MethodPing, AccessServiceServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tiergate/v1/access.json",
}

// AccessServiceClient is the typed client of AccessService.
type AccessServiceClient interface {
	EvaluateAccess(ctx context.Context, in *EvaluateAccessRequest, opts ...grpc.CallOption) (*EvaluateAccessResponse, error)
	RequestTierChange(ctx context.Context, in *RequestTierChangeRequest, opts ...grpc.CallOption) (*RequestTierChangeResponse, error)
	IssueMagicLink(ctx context.Context, in *IssueMagicLinkRequest, opts ...grpc.CallOption) (*IssueMagicLinkResponse, error)
	VerifyMagicLink(ctx context.Context, in *VerifyMagicLinkRequest, opts ...grpc.CallOption) (*VerifyMagicLinkResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
}

type accessServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAccessServiceClient(cc grpc.ClientConnInterface) AccessServiceClient {
	return &accessServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *accessServiceClient) EvaluateAccess(ctx context.Context, in *EvaluateAccessRequest, opts ...grpc.CallOption) (*EvaluateAccessResponse, error) {
	return invoke[EvaluateAccessResponse](ctx, c.cc, MethodEvaluateAccess, in, opts)
}

func (c *accessServiceClient) RequestTierChange(ctx context.Context, in *RequestTierChangeRequest, opts ...grpc.CallOption) (*RequestTierChangeResponse, error) {
	return invoke[RequestTierChangeResponse](ctx, c.cc, MethodRequestTierChange, in, opts)
}

func (c *accessServiceClient) IssueMagicLink(ctx context.Context, in *IssueMagicLinkRequest, opts ...grpc.CallOption) (*IssueMagicLinkResponse, error) {
	return invoke[IssueMagicLinkResponse](ctx, c.cc, MethodIssueMagicLink, in, opts)
}

func (c *accessServiceClient) VerifyMagicLink(ctx context.Context, in *VerifyMagicLinkRequest, opts ...grpc.CallOption) (*VerifyMagicLinkResponse, error) {
	return invoke[VerifyMagicLinkResponse](ctx, c.cc, MethodVerifyMagicLink, in, opts)
}

func (c *accessServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}
