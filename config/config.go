// Package config loads the newsroom application configuration from YAML.
//
// The file lives at $XDG_CONFIG_HOME/newsroom/config.yaml by default and is
// created from the embedded defaults on first run. Values missing from the
// file keep their defaults.
package config

import (
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/poiesic/newsroom/ai"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// TokenEnv names the environment variable read when no embedding token is configured.
const TokenEnv = "NEWSROOM_EMBEDDING_TOKEN"

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")

type Feed struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

type AIConfig struct {
	EmbeddingHost  string `yaml:"embedding_host"`
	EmbeddingModel string `yaml:"embedding_model"`
	EmbeddingToken string `yaml:"embedding_token,omitempty"`
	BatchSize      int    `yaml:"embedding_batch_size,omitempty"`
}

type ClusterConfig struct {
	Eps        float64 `yaml:"eps"`
	MinSamples int     `yaml:"min_samples"`
	Timeout    string  `yaml:"timeout"`
}

type Config struct {
	Listen          string        `yaml:"listen"`
	DBPath          string        `yaml:"db_path,omitempty"`
	RefreshInterval string        `yaml:"refresh_interval"`
	Retention       string        `yaml:"retention"`
	PoolSize        int           `yaml:"pool_size,omitempty"`
	ContentLimit    int           `yaml:"content_limit"`
	Feeds           []Feed        `yaml:"feeds"`
	AI              AIConfig      `yaml:"ai"`
	Cluster         ClusterConfig `yaml:"cluster"`
}

// RefreshDuration returns the scrape interval, 2h when unset or invalid.
func (c *Config) RefreshDuration() time.Duration {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil || d <= 0 {
		return 2 * time.Hour
	}
	return d
}

// RetentionDuration returns how long batches are kept. "Nd" counts days.
// Zero disables pruning.
func (c *Config) RetentionDuration() time.Duration {
	d, err := parseDays(c.Retention)
	if err != nil {
		return 30 * 24 * time.Hour
	}
	return d
}

// ClusterTimeout returns the clustering deadline, 30s when unset or invalid.
func (c *Config) ClusterTimeout() time.Duration {
	d, err := time.ParseDuration(c.Cluster.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

func (c *Config) EnabledFeeds() []Feed {
	var out []Feed
	for _, f := range c.Feeds {
		if f.Enabled {
			out = append(out, f)
		}
	}
	return out
}

// ResolvedDBPath returns DBPath or the XDG data location.
func (c *Config) ResolvedDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return DefaultDBPath()
}

// EmbeddingConfig builds the AI configuration. The token falls back to TokenEnv.
func (c *Config) EmbeddingConfig() *ai.Config {
	token := c.AI.EmbeddingToken
	if token == "" {
		token = os.Getenv(TokenEnv)
	}
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithEmbeddingToken(token),
		ai.WithEmbeddingBatchSize(c.AI.BatchSize),
	)
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "newsroom", "config.yaml")
}

func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, "newsroom", "db")
}

// Default returns the embedded default configuration.
func Default() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the configuration at path, or DefaultConfigPath when path is empty.
// A missing file is created from the defaults.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Non-fatal: the embedded defaults still apply
			_ = writeDefaults(path)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

// Validate checks feeds, durations and clustering parameters.
func Validate(cfg *Config) error {
	for i, f := range cfg.Feeds {
		if f.Name == "" {
			return fmt.Errorf("%w: feed %d: name is required", ErrInvalidConfig, i)
		}
		if f.URL == "" {
			return fmt.Errorf("%w: feed %q: url is required", ErrInvalidConfig, f.Name)
		}
		u, err := url.Parse(f.URL)
		if err != nil {
			return fmt.Errorf("%w: feed %q: invalid url: %w", ErrInvalidConfig, f.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%w: feed %q: url scheme must be http or https, got %q", ErrInvalidConfig, f.Name, u.Scheme)
		}
	}
	if cfg.RefreshInterval != "" {
		if d, err := time.ParseDuration(cfg.RefreshInterval); err != nil || d <= 0 {
			return fmt.Errorf("%w: refresh_interval %q", ErrInvalidConfig, cfg.RefreshInterval)
		}
	}
	if cfg.Retention != "" {
		if _, err := parseDays(cfg.Retention); err != nil {
			return fmt.Errorf("%w: retention %q", ErrInvalidConfig, cfg.Retention)
		}
	}
	if cfg.Cluster.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Cluster.Timeout); err != nil || d <= 0 {
			return fmt.Errorf("%w: cluster.timeout %q", ErrInvalidConfig, cfg.Cluster.Timeout)
		}
	}
	if cfg.Cluster.Eps <= 0 {
		return fmt.Errorf("%w: cluster.eps must be positive", ErrInvalidConfig)
	}
	if cfg.Cluster.MinSamples < 1 {
		return fmt.Errorf("%w: cluster.min_samples must be at least 1", ErrInvalidConfig)
	}
	if cfg.PoolSize < 0 || cfg.ContentLimit < 0 {
		return fmt.Errorf("%w: pool_size and content_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

// parseDays parses a Go duration or a whole number of days such as "30d".
func parseDays(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil && n >= 0 {
			return time.Duration(n) * 24 * time.Hour, nil
		}
		return 0, fmt.Errorf("invalid day count %q", s)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
