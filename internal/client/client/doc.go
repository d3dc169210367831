// Package client is the Go client of the tiergate gRPC API used by
// tiergatectl.
//
// GRPCClient owns the connection, attaches the configured admin session token to
// every call through a unary interceptor and maps gRPC status codes to the
// sentinel errors of this package (ErrUnavailable, ErrUnauthorized,
// ErrInvalidArgument, ErrInvalidLink).
package client
