package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearRedisEnv(t *testing.T) {
	for _, k := range []string{"REDIS_ADDR", "REDIS_URI", "REDIS_URL", "REDIS_PASSWORD", "REDIS_DB"} {
		t.Setenv(k, "")
	}
}

func TestRedisOptions(t *testing.T) {
	clearRedisEnv(t)
	_, err := redisOptions()
	assert.Error(t, err)

	t.Setenv("REDIS_URL", "redis://:secret@cache:6380/2")
	opt, err := redisOptions()
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opt.Addr)
	assert.Equal(t, "secret", opt.Password)
	assert.Equal(t, 2, opt.DB)

	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "3")
	opt, err = redisOptions()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opt.Addr)
	assert.Equal(t, 3, opt.DB)

	t.Setenv("REDIS_DB", "x")
	_, err = redisOptions()
	assert.Error(t, err)
}
