package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
	assert.Equal(t, "", c.DatabaseDSN)
	assert.Equal(t, "secretKey", c.SecretKey)
	assert.Equal(t, 1, c.Tier1Limit)
	assert.Equal(t, 3, c.Tier2Limit)
	assert.Equal(t, 24*time.Hour, c.MagicLinkTTL)
	assert.Equal(t, 24*time.Hour, c.SessionTTL)
	assert.Equal(t, "https://api.hubapi.com", c.HubSpotBaseURL)
	assert.Equal(t, 256, c.EventBufferSize)
	assert.Equal(t, 2, c.EventWorkers)
}

func TestLoadConfig_Precedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTemp(t, "cfg.yaml", "tier1_limit: 2\ntier2_limit: 5\nmagic_link_ttl: 30m\nsecret_key: from-file\n")
	t.Setenv("TIER2_LIMIT", "7")
	t.Setenv("SECRET_KEY", "from-env")
	os.Args = []string{"server", "-c", path, "-s", "from-flag"}

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 2, c.Tier1Limit, "file overrides default")
	assert.Equal(t, 7, c.Tier2Limit, "env overrides file")
	assert.Equal(t, 30*time.Minute, c.MagicLinkTTL)
	assert.Equal(t, "from-flag", c.SecretKey, "flag overrides env")
}

func TestLoadConfig_BadEnv(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"server"}
	t.Setenv("MAGIC_LINK_TTL", "one day")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "MAGIC_LINK_TTL")
}
