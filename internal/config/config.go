package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cyp0633/tzeval/evaluation"
	"github.com/cyp0633/tzeval/tzcache"
	"gopkg.in/yaml.v3"
)

// CacheConfig sizes the evaluator registry.
type CacheConfig struct {
	// TTL is how long an idle evaluator keeps its periods, e.g. "15m".
	TTL time.Duration `yaml:"ttl"`
	// MaxEntries caps the number of live evaluators.
	MaxEntries int `yaml:"max_entries"`
	// CleanupInterval is how often expired evaluators are dropped.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// Config is the top-level configuration of the tzeval command.
type Config struct {
	// LogLevel is one of "debug", "info", "warn" or "error".
	LogLevel string `yaml:"log_level"`

	// Lookahead is how far past the requested start each zone is evaluated.
	Lookahead evaluation.Lookahead `yaml:"lookahead"`

	Cache CacheConfig `yaml:"cache"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		Lookahead: evaluation.DefaultConfig.Lookahead,
		Cache: CacheConfig{
			TTL:             tzcache.DefaultConfig.TTL,
			MaxEntries:      tzcache.DefaultConfig.MaxEntries,
			CleanupInterval: tzcache.DefaultConfig.CleanupInterval,
		},
	}
}

// Normalize fills in missing or invalid values with defaults so that
// partially filled files still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = def.LogLevel
	}

	if c.Lookahead.Years < 0 || c.Lookahead.Months < 0 || c.Lookahead.Days < 0 || c.Lookahead.IsZero() {
		c.Lookahead = def.Lookahead
	}

	if c.Cache.TTL <= 0 {
		c.Cache.TTL = def.Cache.TTL
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = def.Cache.MaxEntries
	}
	if c.Cache.CleanupInterval < 0 {
		c.Cache.CleanupInterval = def.Cache.CleanupInterval
	}
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Registry returns the registry configuration described by c.
func (c *Config) Registry(logger *slog.Logger) tzcache.Config {
	return tzcache.Config{
		TTL:             c.Cache.TTL,
		MaxEntries:      c.Cache.MaxEntries,
		CleanupInterval: c.Cache.CleanupInterval,
		Evaluation: evaluation.Config{
			Lookahead: c.Lookahead,
			Logger:    logger,
		},
		Logger: logger,
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - An empty path or a missing file yields the defaults.
//   - Otherwise the file is decoded over the defaults and normalized.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures the parent directory exists.
//   - Writes atomically via a temp file + rename.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tzeval-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	// Flush before the rename so a crash cannot leave an empty config behind
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
