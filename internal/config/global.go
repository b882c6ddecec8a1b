// Package config handles the global tagnet configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/webtoonlab/tagnet/internal/api"
	"github.com/webtoonlab/tagnet/internal/interact"
	"github.com/webtoonlab/tagnet/internal/layout"
	"github.com/webtoonlab/tagnet/internal/network"
)

// Config represents configuration stored in ~/.config/tagnet/config.yml.
// Zero values fall back to the package defaults of each component.
type Config struct {
	APIURL         string        `yaml:"api_url,omitempty"`
	RateLimit      float64       `yaml:"rate_limit,omitempty"`
	Timeout        time.Duration `yaml:"timeout,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
	MinCorrelation float64       `yaml:"min_correlation,omitempty"`
	CachePath      string        `yaml:"cache_path,omitempty"`
	LogLevel       string        `yaml:"log_level,omitempty"`
	LogFormat      string        `yaml:"log_format,omitempty"`
	Offline        bool          `yaml:"offline,omitempty"`

	Network network.Options     `yaml:"network,omitempty"`
	Layout  layout.Params       `yaml:"layout,omitempty"`
	Gesture interact.Thresholds `yaml:"gesture,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "tagnet"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// Environment variables that override the config file.
const (
	EnvCachePath = "TAGNET_CACHE"
	EnvLogLevel  = "TAGNET_LOG_LEVEL"
	EnvOffline   = "TAGNET_OFFLINE"
)

// ErrUnknownKey is returned by Get and Set for keys that are not scalar
// settings.
var ErrUnknownKey = errors.New("unknown config key")

// Keys lists the settings readable and writable with Get and Set.
var Keys = []string{
	"api_url", "rate_limit", "timeout", "request_timeout", "min_correlation",
	"cache_path", "log_level", "log_format", "offline",
}

// globalConfigCache caches the loaded global config.
var globalConfigCache *Config

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/tagnet/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file and applies
// environment overrides. Returns an empty config (not an error) if the file
// doesn't exist.
func LoadGlobalConfig() (*Config, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	cfg, err := LoadFile(GlobalConfigPath())
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	globalConfigCache = cfg
	return cfg, nil
}

// LoadFile reads one config file. A missing file or empty path yields an
// empty config.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}
	if cfg.CachePath != "" {
		cfg.CachePath = ExpandPath(cfg.CachePath)
	}
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// Save writes the config to path, creating its directory.
func (c *Config) Save(path string) error {
	if path == "" {
		return errors.New("no config path")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// LoadDotEnv loads .env files into the environment without overriding
// variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() {
	if u := api.EnvBaseURL(); u != "" {
		c.APIURL = u
	}
	if p := os.Getenv(EnvCachePath); p != "" {
		c.CachePath = ExpandPath(p)
	}
	if l := os.Getenv(EnvLogLevel); l != "" {
		c.LogLevel = l
	}
	if v := os.Getenv(EnvOffline); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Offline = b
		}
	}
}

// Get returns a scalar setting as text.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "rate_limit":
		return formatFloat(c.RateLimit), nil
	case "timeout":
		return formatDuration(c.Timeout), nil
	case "request_timeout":
		return formatDuration(c.RequestTimeout), nil
	case "min_correlation":
		return formatFloat(c.MinCorrelation), nil
	case "cache_path":
		return c.CachePath, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	case "offline":
		return strconv.FormatBool(c.Offline), nil
	}
	return "", fmt.Errorf("%w: %s (valid: %s)", ErrUnknownKey, key, strings.Join(Keys, ", "))
}

// Set parses value into a scalar setting.
func (c *Config) Set(key, value string) error {
	var err error
	switch key {
	case "api_url":
		c.APIURL = strings.TrimRight(value, "/")
	case "rate_limit":
		c.RateLimit, err = parseNonNegative(value)
	case "timeout":
		c.Timeout, err = time.ParseDuration(value)
	case "request_timeout":
		c.RequestTimeout, err = time.ParseDuration(value)
	case "min_correlation":
		c.MinCorrelation, err = parseNonNegative(value)
	case "cache_path":
		c.CachePath = ExpandPath(value)
	case "log_level":
		err = ValidateLogLevel(value)
		if err == nil {
			c.LogLevel = value
		}
	case "log_format":
		if value != "json" && value != "console" {
			return fmt.Errorf("invalid log_format: %s (valid: json, console)", value)
		}
		c.LogFormat = value
	case "offline":
		c.Offline, err = strconv.ParseBool(value)
	default:
		return fmt.Errorf("%w: %s (valid: %s)", ErrUnknownKey, key, strings.Join(Keys, ", "))
	}
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	return nil
}

func parseNonNegative(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("must not be negative: %s", s)
	}
	return v, nil
}

func formatFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}
