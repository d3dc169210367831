// Package config loads runtime configuration for tiergatectl.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: TIERGATE_GRPC_ADDR, TIERGATE_SESSION, TIERGATE_TIMEOUT.
//  3. Command-line flags bound by the CLI (--addr, --session, --timeout).
package config
