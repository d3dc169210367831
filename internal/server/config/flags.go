package config

import (
	"flag"
	"os"
	"strings"

	"github.com/dmitrijs2005/tiergate/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string    gRPC bind address (e.g., ":50051")
//	-h string    HTTP bind address (e.g., ":8080")
//	-d string    PostgreSQL DSN
//	-s string    secret key
//	-l string    log level
//	-t1 int      tier1 unlock limit
//	-t2 int      tier2 unlock limit
//	-ttl value   magic link TTL (e.g., "24h")
//	-u string    public base URL
//	-admins str  comma separated admin e-mails
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, so the config file flag and unknown flags are ignored.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-h", "-d", "-s", "-l", "-t1", "-t2", "-ttl", "-u", "-admins"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.EndpointAddrHTTP, "h", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.IntVar(&config.Tier1Limit, "t1", config.Tier1Limit, "tier1 unlock limit")
	fs.IntVar(&config.Tier2Limit, "t2", config.Tier2Limit, "tier2 unlock limit")
	fs.DurationVar(&config.MagicLinkTTL, "ttl", config.MagicLinkTTL, "magic link TTL")
	fs.StringVar(&config.PublicBaseURL, "u", config.PublicBaseURL, "public base URL")
	admins := fs.String("admins", strings.Join(config.AdminEmails, ","), "comma separated admin e-mails")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *admins != strings.Join(config.AdminEmails, ",") {
		config.AdminEmails = nil
		for _, a := range strings.Split(*admins, ",") {
			if a = strings.TrimSpace(a); a != "" {
				config.AdminEmails = append(config.AdminEmails, a)
			}
		}
	}
	return nil
}
