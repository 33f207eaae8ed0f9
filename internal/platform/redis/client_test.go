package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blueprints/internal/platform/config"
)

func TestNewRejectsBadConfig(t *testing.T) {
	t.Run("missing URL", func(t *testing.T) {
		_, err := New(context.Background(), config.RedisConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REDIS_URL")
	})

	t.Run("malformed URL", func(t *testing.T) {
		_, err := New(context.Background(), config.RedisConfig{URL: "://nope"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse redis URL")
	})
}
