package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures LuckyFind's runtime settings.
type Config struct {
	DiscogsToken   string
	DiscogsKey     string
	DiscogsSecret  string
	BaseURL        string
	UserAgent      string
	CacheTTL       time.Duration
	CacheMax       int
	SweepInterval  time.Duration
	PerPage        int
	DebugLog       string // empty disables the debug log
	ConfigFilePath string // resolved path that was read, or would have been
}

const (
	defaultConfigPath    = "~/.config/luckyfind/config.toml"
	defaultCacheTTL      = 5 * time.Minute
	defaultCacheMax      = 50
	defaultSweepInterval = time.Minute
	defaultPerPage       = 25
	maxPerPage           = 100
)

// fileConfig is the on-disk TOML layout.
type fileConfig struct {
	DiscogsToken  string `toml:"discogs_token"`
	DiscogsKey    string `toml:"discogs_key"`
	DiscogsSecret string `toml:"discogs_secret"`
	BaseURL       string `toml:"base_url"`
	UserAgent     string `toml:"user_agent"`
	CacheTTL      string `toml:"cache_ttl"`
	CacheMax      int    `toml:"cache_max_entries"`
	SweepInterval string `toml:"sweep_interval"`
	PerPage       int    `toml:"per_page"`
	DebugLog      string `toml:"debug_log"`
}

// envOverrides holds values from the environment. Unset variables stay nil
// so they never mask the file.
type envOverrides struct {
	DiscogsToken  *string        `env:"LUCKYFIND_DISCOGS_TOKEN"`
	DiscogsKey    *string        `env:"LUCKYFIND_DISCOGS_KEY"`
	DiscogsSecret *string        `env:"LUCKYFIND_DISCOGS_SECRET"`
	BaseURL       *string        `env:"LUCKYFIND_BASE_URL"`
	UserAgent     *string        `env:"LUCKYFIND_USER_AGENT"`
	CacheTTL      *time.Duration `env:"LUCKYFIND_CACHE_TTL"`
	CacheMax      *int           `env:"LUCKYFIND_CACHE_MAX_ENTRIES"`
	SweepInterval *time.Duration `env:"LUCKYFIND_SWEEP_INTERVAL"`
	PerPage       *int           `env:"LUCKYFIND_PER_PAGE"`
	DebugLog      *string        `env:"LUCKYFIND_DEBUG_LOG"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		CacheTTL:      defaultCacheTTL,
		CacheMax:      defaultCacheMax,
		SweepInterval: defaultSweepInterval,
		PerPage:       defaultPerPage,
	}
}

// Load reads the config file at path (or the default location), applies
// LUCKYFIND_* environment overrides, and validates the result. A missing file
// is not an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	cfg.ConfigFilePath = resolved

	raw, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.applyFile(raw); err != nil {
		return Config{}, err
	}

	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyEnv(overrides)

	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// HasCredentials reports whether a token or a complete key/secret pair is set.
func (c Config) HasCredentials() bool {
	if c.DiscogsToken != "" {
		return true
	}
	return c.DiscogsKey != "" && c.DiscogsSecret != ""
}

func readFile(path string) (fileConfig, error) {
	var raw fileConfig

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return raw, nil
		}
		return raw, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return raw, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return raw, fmt.Errorf("parse config: %w", err)
	}
	return raw, nil
}

func (c *Config) applyFile(raw fileConfig) error {
	c.DiscogsToken = strings.TrimSpace(raw.DiscogsToken)
	c.DiscogsKey = strings.TrimSpace(raw.DiscogsKey)
	c.DiscogsSecret = strings.TrimSpace(raw.DiscogsSecret)
	c.BaseURL = strings.TrimSpace(raw.BaseURL)
	c.UserAgent = strings.TrimSpace(raw.UserAgent)
	c.DebugLog = strings.TrimSpace(raw.DebugLog)

	if s := strings.TrimSpace(raw.CacheTTL); s != "" {
		ttl, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse config: cache_ttl: %w", err)
		}
		c.CacheTTL = ttl
	}
	if s := strings.TrimSpace(raw.SweepInterval); s != "" {
		interval, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse config: sweep_interval: %w", err)
		}
		c.SweepInterval = interval
	}
	if raw.CacheMax != 0 {
		c.CacheMax = raw.CacheMax
	}
	if raw.PerPage != 0 {
		c.PerPage = raw.PerPage
	}
	return nil
}

func (c *Config) applyEnv(o envOverrides) {
	setString(&c.DiscogsToken, o.DiscogsToken)
	setString(&c.DiscogsKey, o.DiscogsKey)
	setString(&c.DiscogsSecret, o.DiscogsSecret)
	setString(&c.BaseURL, o.BaseURL)
	setString(&c.UserAgent, o.UserAgent)
	setString(&c.DebugLog, o.DebugLog)
	if o.CacheTTL != nil {
		c.CacheTTL = *o.CacheTTL
	}
	if o.SweepInterval != nil {
		c.SweepInterval = *o.SweepInterval
	}
	if o.CacheMax != nil {
		c.CacheMax = *o.CacheMax
	}
	if o.PerPage != nil {
		c.PerPage = *o.PerPage
	}
}

func (c *Config) normalize() error {
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", c.CacheTTL)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval)
	}
	if c.CacheMax <= 0 {
		return fmt.Errorf("cache max entries must be positive, got %d", c.CacheMax)
	}
	if c.PerPage <= 0 {
		c.PerPage = defaultPerPage
	}
	if c.PerPage > maxPerPage {
		c.PerPage = maxPerPage
	}
	if c.DebugLog != "" {
		c.DebugLog = mustExpand(c.DebugLog)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
