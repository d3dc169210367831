package config

import (
	"fmt"
	"os"
	"time"
)

// Environment variables read by LoadConfig.
const (
	EnvServerAddr = "TIERGATE_GRPC_ADDR"
	EnvSession    = "TIERGATE_SESSION"
	EnvTimeout    = "TIERGATE_TIMEOUT"
)

// Config holds runtime settings for tiergatectl.
type Config struct {
	ServerEndpointAddr string
	SessionToken       string
	Timeout            time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.SessionToken = ""
	c.Timeout = 10 * time.Second
}

// LoadConfig applies defaults, then the environment. Command-line flags are
// bound by the CLI on top of the returned value.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseEnv(c *Config) error {
	if v, ok := os.LookupEnv(EnvServerAddr); ok && v != "" {
		c.ServerEndpointAddr = v
	}
	if v, ok := os.LookupEnv(EnvSession); ok {
		c.SessionToken = v
	}
	if v, ok := os.LookupEnv(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	return nil
}
