package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic/internal/platform/config"
	"clinic/internal/platform/metrics"
)

func TestNew_DisabledWithoutURL(t *testing.T) {
	c, err := New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{URL: "not-a-url://x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis URL")
}

func TestApplyPool(t *testing.T) {
	ro, err := redis.ParseURL("redis://localhost:6379/0")
	require.NoError(t, err)

	applyPool(ro, config.RedisConfig{PoolSize: 20, DialTimeout: 2 * time.Second})

	assert.Equal(t, 20, ro.PoolSize)
	assert.Equal(t, 2*time.Second, ro.DialTimeout)
	assert.Zero(t, ro.MinIdleConns, "unset values keep the URL default")
}

func TestCommandHook(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	hook := commandHook{metrics: m}
	ctx := context.Background()

	miss := hook.ProcessHook(func(context.Context, redis.Cmder) error { return redis.Nil })
	broken := hook.ProcessHook(func(context.Context, redis.Cmder) error { return errors.New("connection reset") })

	assert.ErrorIs(t, miss(ctx, redis.NewStringCmd(ctx, "get", "k")), redis.Nil)
	assert.Error(t, broken(ctx, redis.NewStringCmd(ctx, "get", "k")))

	assert.Equal(t, 2, testutil.CollectAndCount(m.RedisCommands))
}
