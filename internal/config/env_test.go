package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("FC_TEST_STRING", "value")
	t.Setenv("FC_TEST_INT", "12")
	t.Setenv("FC_TEST_BAD_INT", "-3")
	t.Setenv("FC_TEST_DURATION", "250ms")
	t.Setenv("FC_TEST_BOOL", "true")

	assert.Equal(t, "value", String("FC_TEST_STRING", "def"))
	assert.Equal(t, "def", String("FC_TEST_MISSING", "def"))
	assert.Equal(t, 12, Int("FC_TEST_INT", 1))
	assert.Equal(t, 1, Int("FC_TEST_BAD_INT", 1))
	assert.Equal(t, 250*time.Millisecond, Duration("FC_TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, Duration("FC_TEST_MISSING", time.Second))
	assert.True(t, Bool("FC_TEST_BOOL", false))
	assert.False(t, Bool("FC_TEST_MISSING", false))
}

func TestRedisAddr(t *testing.T) {
	t.Setenv(ENV_KEY_REDIS_HOST, "cache")
	t.Setenv(ENV_KEY_REDIS_PORT, "6380")
	assert.Equal(t, "cache:6380", RedisAddr())
}
