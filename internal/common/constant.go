package common

// SessionTokenHeaderName is the gRPC metadata key and HTTP header that
// carries the session token of an administrative caller.
const SessionTokenHeaderName = "x-session-token"

// TokenBytes is the amount of random bytes in a magic-link token (256 bits).
const TokenBytes = 32
