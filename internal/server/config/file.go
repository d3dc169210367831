package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/tiergate/internal/flagx"
	"github.com/dmitrijs2005/tiergate/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config for JSON and YAML files. Durations accept Go
// duration strings ("15m") or integer nanoseconds. Zero values leave the
// current setting unchanged.
type FileConfig struct {
	EndpointAddrGRPC   string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	EndpointAddrHTTP   string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	DatabaseDSN        string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey          string         `json:"secret_key" yaml:"secret_key"`
	SessionTTL         timex.Duration `json:"session_ttl" yaml:"session_ttl"`
	LogLevel           string         `json:"log_level" yaml:"log_level"`
	Tier1Limit         int            `json:"tier1_limit" yaml:"tier1_limit"`
	Tier2Limit         int            `json:"tier2_limit" yaml:"tier2_limit"`
	MagicLinkTTL       timex.Duration `json:"magic_link_ttl" yaml:"magic_link_ttl"`
	PublicBaseURL      string         `json:"public_base_url" yaml:"public_base_url"`
	DefaultRedirectURL string         `json:"default_redirect_url" yaml:"default_redirect_url"`
	AdminEmails        []string       `json:"admin_emails" yaml:"admin_emails"`
	HubSpotToken       string         `json:"hubspot_token" yaml:"hubspot_token"`
	HubSpotBaseURL     string         `json:"hubspot_base_url" yaml:"hubspot_base_url"`
	S3ArchiveEnabled   bool           `json:"s3_archive_enabled" yaml:"s3_archive_enabled"`
	S3RootUser         string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword     string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket           string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region           string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint     string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	SMTPHost           string         `json:"smtp_host" yaml:"smtp_host"`
	SMTPPort           int            `json:"smtp_port" yaml:"smtp_port"`
	SMTPUsername       string         `json:"smtp_username" yaml:"smtp_username"`
	SMTPPassword       string         `json:"smtp_password" yaml:"smtp_password"`
	SMTPFrom           string         `json:"smtp_from" yaml:"smtp_from"`
	EventBufferSize    int            `json:"event_buffer_size" yaml:"event_buffer_size"`
	EventWorkers       int            `json:"event_workers" yaml:"event_workers"`
	ShutdownTimeout    timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// parseFile overlays the file given with -c or -config. Files ending in
// .yaml or .yml are read as YAML, everything else as JSON.
func parseFile(config *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	setString(&c.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.SecretKey, fc.SecretKey)
	setDuration(&c.SessionTTL, fc.SessionTTL)
	setString(&c.LogLevel, fc.LogLevel)
	setInt(&c.Tier1Limit, fc.Tier1Limit)
	setInt(&c.Tier2Limit, fc.Tier2Limit)
	setDuration(&c.MagicLinkTTL, fc.MagicLinkTTL)
	setString(&c.PublicBaseURL, fc.PublicBaseURL)
	setString(&c.DefaultRedirectURL, fc.DefaultRedirectURL)
	if len(fc.AdminEmails) > 0 {
		c.AdminEmails = fc.AdminEmails
	}
	setString(&c.HubSpotToken, fc.HubSpotToken)
	setString(&c.HubSpotBaseURL, fc.HubSpotBaseURL)
	if fc.S3ArchiveEnabled {
		c.S3ArchiveEnabled = true
	}
	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&c.SMTPHost, fc.SMTPHost)
	setInt(&c.SMTPPort, fc.SMTPPort)
	setString(&c.SMTPUsername, fc.SMTPUsername)
	setString(&c.SMTPPassword, fc.SMTPPassword)
	setString(&c.SMTPFrom, fc.SMTPFrom)
	setInt(&c.EventBufferSize, fc.EventBufferSize)
	setInt(&c.EventWorkers, fc.EventWorkers)
	setDuration(&c.ShutdownTimeout, fc.ShutdownTimeout)
}
