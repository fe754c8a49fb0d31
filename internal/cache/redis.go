// Package cache holds the site's Redis client: cache-aside reads for blog side
// lists and products, plus the session blacklist and rate-limit counters.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sitehub/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Cache calls sit on the page render path, so a slow Redis must fail fast
// and let the read fall through to the store.
const (
	dialTimeout = 2 * time.Second
	ioTimeout   = 500 * time.Millisecond
	pingTimeout = 3 * time.Second
)

var client *redis.Client

// errorCounter feeds RedisErrors. A cache miss (redis.Nil) is not an error.
type errorCounter struct{}

func (errorCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (errorCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// parseOptions accepts a redis:// or rediss:// URL or a bare host:port.
func parseOptions(raw string) (*redis.Options, error) {
	var opts *redis.Options
	if strings.Contains(raw, "://") {
		parsed, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: raw}
	}
	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = ioTimeout
	opts.WriteTimeout = ioTimeout
	return opts, nil
}

// Init connects to the Redis at url and makes it the package client. It
// returns nil, and the site runs uncached, when url is empty, malformed or
// unreachable.
func Init(ctx context.Context, url string) *redis.Client {
	url = strings.TrimSpace(url)
	if url == "" {
		middleware.Logger.InfoContext(ctx, "redis disabled: REDIS_URL is empty")
		client = nil
		return nil
	}

	opts, err := parseOptions(url)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "redis disabled", slog.String("error", err.Error()))
		client = nil
		return nil
	}

	c := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "redis unreachable, continuing without cache",
			slog.String("addr", opts.Addr),
			slog.String("error", err.Error()),
		)
		_ = c.Close()
		client = nil
		return nil
	}

	c.AddHook(errorCounter{})
	client = c
	middleware.Logger.InfoContext(ctx, "redis connected", slog.String("addr", opts.Addr), slog.Int("db", opts.DB))
	return c
}

// SetClient replaces the package client. Tests use it to point the cache at miniredis.
func SetClient(c *redis.Client) {
	if c != nil {
		c.AddHook(errorCounter{})
	}
	client = c
}
