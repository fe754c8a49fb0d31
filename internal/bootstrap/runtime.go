// Package bootstrap wires the runtime dependencies shared by the site's commands.
package bootstrap

import (
	"context"
	"fmt"
	"log"

	"sitehub/internal/cache"
	"sitehub/internal/config"
	"sitehub/internal/database"
	"sitehub/internal/observability"
	"sitehub/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// Fixtures, when set, is a YAML fixtures file applied after the schema.
	Fixtures string
}

// InitRuntime connects to DB and Redis and optionally applies fixtures.
// The Redis client is nil when REDIS_URL is unset or unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	r := cache.Init(ctx, cfg.RedisURL)

	if opts.Fixtures != "" {
		fx, err := seed.LoadFixtures(opts.Fixtures)
		if err != nil {
			return nil, nil, err
		}
		summary, err := seed.NewSeeder(db).ApplyFixtures(ctx, fx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to apply fixtures: %w", err)
		}
		log.Printf("fixtures applied from %s: %d users, %d blogs, %d products created",
			opts.Fixtures, summary.Users, summary.Blogs, summary.Products)
	}

	return db, r, nil
}

// InitTracing starts the tracer provider described by cfg and returns its
// shutdown function.
func InitTracing(cfg *config.Config, version string) (func(context.Context) error, error) {
	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "sitehub",
		ServiceVersion: version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	return shutdown, nil
}
