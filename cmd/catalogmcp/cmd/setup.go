package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/cataloghq/catalogmcp/internal/backend"
	"github.com/cataloghq/catalogmcp/internal/bucket"
	"github.com/cataloghq/catalogmcp/internal/config"
	cerrors "github.com/cataloghq/catalogmcp/internal/errors"
	"github.com/cataloghq/catalogmcp/internal/search"
)

// components bundles everything a command needs to run queries.
type components struct {
	cfg          *config.Config
	lister       *bucket.Cached
	orchestrator *search.Orchestrator
}

// buildComponents loads configuration and wires everything together. This is
// the assembly point used by the ad-hoc CLI commands.
func buildComponents(ctx context.Context, logger *slog.Logger) (*components, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return buildComponentsFromConfig(ctx, cfg, logger)
}

// buildComponentsFromConfig wires the bucket lister, backend adapters, and
// orchestrator from an already-loaded configuration.
func buildComponentsFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*components, error) {
	if logger == nil {
		logger = slog.Default()
	}

	lister, err := buildLister(ctx, cfg)
	if err != nil {
		return nil, err
	}

	adapters := buildAdapters(cfg, logger)
	if len(adapters) == 0 {
		return nil, cerrors.ConfigError(
			"no backend configured; set backends.elasticsearch.endpoint or backends.graphql.endpoint", nil).
			WithSuggestion("See 'catalogmcp --help' for configuration locations.")
	}

	orch, err := search.NewOrchestrator(lister, search.Config{
		DefaultBucket: cfg.Catalog.DefaultBucket,
		DefaultLimit:  cfg.Search.DefaultLimit,
		MaxLimit:      cfg.Search.MaxLimit,
		Timeout:       config.Duration(cfg.Search.Timeout, 30*time.Second),
	}, adapters, search.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &components{
		cfg:          cfg,
		lister:       lister,
		orchestrator: orch,
	}, nil
}

// buildLister creates the configured bucket lister wrapped in the TTL cache.
func buildLister(ctx context.Context, cfg *config.Config) (*bucket.Cached, error) {
	ttl := config.Duration(cfg.Buckets.CacheTTL, 5*time.Minute)

	if cfg.Buckets.Source == "static" {
		return bucket.NewCached(bucket.Static(cfg.Buckets.Static), ttl), nil
	}

	s3l, err := bucket.NewS3Lister(ctx, bucket.S3Config{
		Region:   cfg.Buckets.Region,
		Endpoint: cfg.Buckets.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	return bucket.NewCached(s3l, ttl), nil
}

// buildAdapters creates one adapter per configured backend endpoint.
// Adapter order matters: elasticsearch comes first so it wins dedup ties.
func buildAdapters(cfg *config.Config, logger *slog.Logger) []search.Adapter {
	var adapters []search.Adapter

	if cfg.Backends.Elastic.Endpoint != "" {
		adapters = append(adapters, backend.NewElastic(backend.ElasticConfig{
			Endpoint: cfg.Backends.Elastic.Endpoint,
			Username: cfg.Backends.Elastic.Username,
			Password: cfg.Backends.Elastic.Password,
			Timeout:  config.Duration(cfg.Backends.Elastic.Timeout, 10*time.Second),
		}, logger))
	}

	if cfg.Backends.GraphQL.Endpoint != "" {
		adapters = append(adapters, backend.NewGraphQL(backend.GraphQLConfig{
			Endpoint: cfg.Backends.GraphQL.Endpoint,
			Token:    cfg.Backends.GraphQL.Token,
			Timeout:  config.Duration(cfg.Backends.GraphQL.Timeout, 10*time.Second),
		}, logger))
	}

	return adapters
}
