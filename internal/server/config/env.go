package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// parseEnv overlays environment variables. Unlike the file overlay, a
// malformed number or duration is an error.
func parseEnv(c *Config) error {
	c.EndpointAddrGRPC = getEnv("GRPC_ADDR", c.EndpointAddrGRPC)
	c.EndpointAddrHTTP = getEnv("HTTP_ADDR", c.EndpointAddrHTTP)
	c.DatabaseDSN = getEnv("DATABASE_DSN", c.DatabaseDSN)
	c.SecretKey = getEnv("SECRET_KEY", c.SecretKey)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.PublicBaseURL = getEnv("PUBLIC_BASE_URL", c.PublicBaseURL)
	c.DefaultRedirectURL = getEnv("DEFAULT_REDIRECT_URL", c.DefaultRedirectURL)
	c.AdminEmails = getList("ADMIN_EMAILS", c.AdminEmails)
	c.HubSpotToken = getEnv("HUBSPOT_PRIVATE_APP_TOKEN", c.HubSpotToken)
	c.HubSpotBaseURL = getEnv("HUBSPOT_BASE_URL", c.HubSpotBaseURL)
	c.S3RootUser = getEnv("S3_ROOT_USER", c.S3RootUser)
	c.S3RootPassword = getEnv("S3_ROOT_PASSWORD", c.S3RootPassword)
	c.S3Bucket = getEnv("S3_BUCKET", c.S3Bucket)
	c.S3Region = getEnv("S3_REGION", c.S3Region)
	c.S3BaseEndpoint = getEnv("S3_BASE_ENDPOINT", c.S3BaseEndpoint)
	c.SMTPHost = getEnv("SMTP_HOST", c.SMTPHost)
	c.SMTPUsername = getEnv("SMTP_USERNAME", c.SMTPUsername)
	c.SMTPPassword = getEnv("SMTP_PASSWORD", c.SMTPPassword)
	c.SMTPFrom = getEnv("SMTP_FROM", c.SMTPFrom)

	var err error
	if c.S3ArchiveEnabled, err = getBool("S3_ARCHIVE_ENABLED", c.S3ArchiveEnabled); err != nil {
		return err
	}
	for key, dst := range map[string]*int{
		"TIER1_LIMIT":       &c.Tier1Limit,
		"TIER2_LIMIT":       &c.Tier2Limit,
		"SMTP_PORT":         &c.SMTPPort,
		"EVENT_BUFFER_SIZE": &c.EventBufferSize,
		"EVENT_WORKERS":     &c.EventWorkers,
	} {
		if *dst, err = getInt(key, *dst); err != nil {
			return err
		}
	}
	for key, dst := range map[string]*time.Duration{
		"MAGIC_LINK_TTL":   &c.MagicLinkTTL,
		"SESSION_TTL":      &c.SessionTTL,
		"SHUTDOWN_TIMEOUT": &c.ShutdownTimeout,
	} {
		if *dst, err = getDuration(key, *dst); err != nil {
			return err
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("env %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("env %s: %w", key, err)
	}
	return d, nil
}

func getBool(key string, def bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	}
	return def, fmt.Errorf("env %s: invalid boolean %q", key, v)
}

func getList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	var cleaned []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return def
	}
	return cleaned
}
