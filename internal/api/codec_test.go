package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestJSONCodecRegistered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)
	assert.Equal(t, CodecName, c.Name())

	in := &IssueMagicLinkResponse{Token: "abc", ExpiresAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	b, err := c.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"abc","expires_at":"2026-01-02T03:04:05Z"}`, string(b))

	var out IssueMagicLinkResponse
	require.NoError(t, c.Unmarshal(b, &out))
	assert.Equal(t, *in, out)
}
