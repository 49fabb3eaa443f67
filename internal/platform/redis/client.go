package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"clinic/internal/platform/config"
	"clinic/internal/platform/metrics"
)

// Client is the shared Redis connection used by the dashboard cache.
type Client struct {
	*redis.Client
}

type Option func(*redis.Client)

// WithMetrics records per-command latency on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *redis.Client) {
		if m != nil {
			c.AddHook(commandHook{metrics: m})
		}
	}
}

// New connects to cfg.URL and pings it. No URL means Redis is disabled and
// New returns nil, nil.
func New(ctx context.Context, cfg config.RedisConfig, opts ...Option) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	ro, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	applyPool(ro, cfg)

	client := redis.NewClient(ro)
	for _, opt := range opts {
		opt(client)
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{Client: client}, nil
}

// applyPool overrides URL defaults with explicitly configured values.
func applyPool(ro *redis.Options, cfg config.RedisConfig) {
	setInt := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	setInt(&ro.PoolSize, cfg.PoolSize)
	setInt(&ro.MinIdleConns, cfg.MinIdleConns)
	setDuration(&ro.DialTimeout, cfg.DialTimeout)
	setDuration(&ro.ReadTimeout, cfg.ReadTimeout)
	setDuration(&ro.WriteTimeout, cfg.WriteTimeout)
}

// Health pings Redis for /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

type commandHook struct {
	metrics *metrics.Metrics
}

func (h commandHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h commandHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.metrics.ObserveRedis(cmd.Name(), failed(err), time.Since(start))
		return err
	}
}

func (h commandHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.metrics.ObserveRedis("pipeline", failed(err), time.Since(start))
		return err
	}
}

func failed(err error) bool {
	return err != nil && !errors.Is(err, redis.Nil)
}
