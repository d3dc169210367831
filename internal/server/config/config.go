// Package config handles configuration for the tiergate server: defaults,
// an optional JSON or YAML file, environment variables and command-line
// flags, applied in that order.
package config

import (
	"time"
)

// Config holds runtime settings for the tiergate server.
//
// Fields:
//   - EndpointAddrGRPC / EndpointAddrHTTP: bind addresses of the two APIs.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - SecretKey: HMAC secret for session JWTs and the magic-token digest key.
//   - Tier1Limit / Tier2Limit: unlock quotas; MagicLinkTTL: token lifetime.
//   - PublicBaseURL / DefaultRedirectURL: used to build sign-in links.
//   - AdminEmails: allow-list for administrative calls.
//   - HubSpot*, S3*, SMTP*: optional event sinks and mail relay.
type Config struct {
	EndpointAddrGRPC string
	EndpointAddrHTTP string
	DatabaseDSN      string
	SecretKey        string
	SessionTTL       time.Duration
	LogLevel         string

	Tier1Limit   int
	Tier2Limit   int
	MagicLinkTTL time.Duration

	PublicBaseURL      string
	DefaultRedirectURL string
	AdminEmails        []string

	HubSpotToken   string
	HubSpotBaseURL string

	S3ArchiveEnabled bool
	S3RootUser       string
	S3RootPassword   string
	S3Bucket         string
	S3Region         string
	S3BaseEndpoint   string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	EventBufferSize int
	EventWorkers    int

	ShutdownTimeout time.Duration
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey must be overridden in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.SessionTTL = 24 * time.Hour
	c.LogLevel = "info"
	c.Tier1Limit = 1
	c.Tier2Limit = 3
	c.MagicLinkTTL = 24 * time.Hour
	c.PublicBaseURL = "http://localhost:8080"
	c.DefaultRedirectURL = ""
	c.AdminEmails = nil
	c.HubSpotBaseURL = "https://api.hubapi.com"
	c.S3Bucket = "tiergate-events"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""
	c.SMTPPort = 587
	c.SMTPFrom = "noreply@localhost"
	c.EventBufferSize = 256
	c.EventWorkers = 2
	c.ShutdownTimeout = 10 * time.Second
}

// LoadConfig builds a Config from defaults, then the file named by -c/-config,
// then the environment and finally command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
