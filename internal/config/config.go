// Package config loads and validates the catalogmcp configuration.
//
// Configuration is resolved in priority order:
//  1. Environment variables (CATALOGMCP_*) - highest priority
//  2. Explicit config file passed on the command line
//  3. .catalogmcp.yaml in the working directory
//  4. ~/.config/catalogmcp/config.yaml
//  5. Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	cerrors "github.com/cataloghq/catalogmcp/internal/errors"
)

// Config is the complete catalogmcp configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Catalog  CatalogConfig  `yaml:"catalog" json:"catalog"`
	Backends BackendsConfig `yaml:"backends" json:"backends"`
	Buckets  BucketsConfig  `yaml:"buckets" json:"buckets"`
	Search   SearchConfig   `yaml:"search" json:"search"`
	Server   ServerConfig   `yaml:"server" json:"server"`
}

// CatalogConfig holds catalog-wide settings.
type CatalogConfig struct {
	// DefaultBucket, when set, is surfaced first in all-bucket query
	// results. Prioritization only; it never filters.
	DefaultBucket string `yaml:"default_bucket" json:"default_bucket"`
}

// BackendsConfig configures the query backends.
type BackendsConfig struct {
	Elastic ElasticConfig `yaml:"elasticsearch" json:"elasticsearch"`
	GraphQL GraphQLConfig `yaml:"graphql" json:"graphql"`
}

// ElasticConfig configures the Elasticsearch-shaped backend.
type ElasticConfig struct {
	// Endpoint is the search API base URL. Empty disables the backend.
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	// Timeout bounds a single search round-trip (e.g. "10s").
	Timeout string `yaml:"timeout" json:"timeout"`
}

// GraphQLConfig configures the GraphQL-shaped backend.
type GraphQLConfig struct {
	// Endpoint is the GraphQL API URL. Empty disables the backend.
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Token    string `yaml:"token" json:"token"`
	Timeout  string `yaml:"timeout" json:"timeout"`
}

// BucketsConfig configures bucket enumeration.
type BucketsConfig struct {
	// Source selects the enumeration collaborator: "s3" or "static".
	Source string `yaml:"source" json:"source"`
	// Static lists buckets directly when Source is "static".
	Static []string `yaml:"static" json:"static"`
	// Region is the AWS region for the s3 source.
	Region string `yaml:"region" json:"region"`
	// Endpoint overrides the S3 endpoint for S3-compatible stores.
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	// CacheTTL controls how long the enumerated list is reused (e.g. "5m").
	CacheTTL string `yaml:"cache_ttl" json:"cache_ttl"`
}

// SearchConfig configures federation behavior.
type SearchConfig struct {
	// DefaultLimit is used when a request leaves the limit unset.
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`
	// MaxLimit caps the per-query result count.
	MaxLimit int `yaml:"max_limit" json:"max_limit"`
	// Timeout bounds a whole federated query (e.g. "30s").
	Timeout string `yaml:"timeout" json:"timeout"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// NewConfig returns a config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Buckets: BucketsConfig{
			Source:   "s3",
			CacheTTL: "5m",
		},
		Backends: BackendsConfig{
			Elastic: ElasticConfig{Timeout: "10s"},
			GraphQL: GraphQLConfig{Timeout: "10s"},
		},
		Search: SearchConfig{
			DefaultLimit: 10,
			MaxLimit:     100,
			Timeout:      "30s",
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

// Load reads configuration from the given path (or the default search
// locations when empty), applies environment overrides, and validates.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	if resolved != "" {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, cerrors.New(cerrors.ErrCodeConfigNotFound,
				fmt.Sprintf("failed to read config file %s", resolved), err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, cerrors.ConfigError(
				fmt.Sprintf("failed to parse config file %s", resolved), err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolvePath returns the config file to load, or "" when none exists and
// none was requested explicitly. An explicit path that does not exist is an
// error; a missing default location is not.
func resolvePath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", cerrors.New(cerrors.ErrCodeConfigNotFound,
				fmt.Sprintf("config file not found: %s", explicit), err)
		}
		return explicit, nil
	}

	if _, err := os.Stat(".catalogmcp.yaml"); err == nil {
		return ".catalogmcp.yaml", nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".config", "catalogmcp", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}

// applyEnv overrides config values from CATALOGMCP_* environment variables.
func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	setString("CATALOGMCP_DEFAULT_BUCKET", &c.Catalog.DefaultBucket)
	setString("CATALOGMCP_ELASTIC_ENDPOINT", &c.Backends.Elastic.Endpoint)
	setString("CATALOGMCP_ELASTIC_USERNAME", &c.Backends.Elastic.Username)
	setString("CATALOGMCP_ELASTIC_PASSWORD", &c.Backends.Elastic.Password)
	setString("CATALOGMCP_GRAPHQL_ENDPOINT", &c.Backends.GraphQL.Endpoint)
	setString("CATALOGMCP_GRAPHQL_TOKEN", &c.Backends.GraphQL.Token)
	setString("CATALOGMCP_BUCKET_SOURCE", &c.Buckets.Source)
	setString("CATALOGMCP_BUCKET_REGION", &c.Buckets.Region)
	setString("CATALOGMCP_BUCKET_ENDPOINT", &c.Buckets.Endpoint)
	setString("CATALOGMCP_LOG_LEVEL", &c.Server.LogLevel)

	if v, ok := os.LookupEnv("CATALOGMCP_BUCKETS"); ok {
		parts := strings.Split(v, ",")
		buckets := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				buckets = append(buckets, p)
			}
		}
		c.Buckets.Static = buckets
		c.Buckets.Source = "static"
	}

	if v, ok := os.LookupEnv("CATALOGMCP_DEFAULT_LIMIT"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.DefaultLimit = n
		}
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Buckets.Source {
	case "s3", "static":
	default:
		return cerrors.ConfigError(
			fmt.Sprintf("invalid bucket source %q (valid: s3, static)", c.Buckets.Source), nil)
	}

	if c.Buckets.Source == "static" && len(c.Buckets.Static) == 0 {
		return cerrors.ConfigError("bucket source is static but no buckets are listed", nil)
	}

	if c.Search.DefaultLimit <= 0 {
		return cerrors.ConfigError("search.default_limit must be positive", nil)
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return cerrors.ConfigError("search.max_limit must be >= search.default_limit", nil)
	}

	for name, raw := range map[string]string{
		"search.timeout":                 c.Search.Timeout,
		"backends.elasticsearch.timeout": c.Backends.Elastic.Timeout,
		"backends.graphql.timeout":       c.Backends.GraphQL.Timeout,
		"buckets.cache_ttl":              c.Buckets.CacheTTL,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return cerrors.ConfigError(fmt.Sprintf("invalid duration for %s: %q", name, raw), err)
		}
	}

	switch c.Server.Transport {
	case "", "stdio":
	default:
		return cerrors.ConfigError(
			fmt.Sprintf("unknown transport %q (supported: stdio)", c.Server.Transport), nil)
	}

	return nil
}

// Duration parses a duration field, falling back to the given default for
// empty or invalid values. Validate catches invalid values up front, so the
// fallback only matters for zero-value configs built in code.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
