// Package api defines the tiergate gRPC contract shared by the server and
// the admin CLI: request and response messages, the service descriptor and
// a typed client. Messages travel as JSON through a registered gRPC codec.
package api

import "time"

type EvaluateAccessRequest struct {
	Email     string `json:"email"`
	ContentID string `json:"content_id"`
}

type EvaluateAccessResponse struct {
	Granted bool   `json:"granted"`
	Reason  string `json:"reason"`
	Tier    string `json:"tier,omitempty"`
}

type RequestTierChangeRequest struct {
	Email  string `json:"email"`
	Tier   string `json:"tier"`
	Source string `json:"source,omitempty"`
}

type RequestTierChangeResponse struct {
	Applied      bool   `json:"applied"`
	Outcome      string `json:"outcome"`
	PreviousTier string `json:"previous_tier"`
	NewTier      string `json:"new_tier"`
}

type IssueMagicLinkRequest struct {
	Email string `json:"email"`
}

type IssueMagicLinkResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type VerifyMagicLinkRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type VerifyMagicLinkResponse struct {
	Ok           bool   `json:"ok"`
	SessionToken string `json:"session_token,omitempty"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}
