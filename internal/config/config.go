package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

const (
	// CacheDir is the directory name under XDG_CACHE_HOME.
	CacheDir = "tagnet"
	// DBFile is the payload cache database.
	DBFile = "cache.db"
	// JSONLFile is the default cache export file.
	JSONLFile = "cache.jsonl"
)

// ValidLogLevels lists the accepted log_level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// DefaultCachePath returns the cache database path.
// Respects XDG_CACHE_HOME, defaults to ~/.cache/tagnet/cache.db.
func DefaultCachePath() string {
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheHome, CacheDir, DBFile)
}

// ResolvedCachePath returns the configured cache path or the default, and
// makes sure its directory exists.
func (c *Config) ResolvedCachePath() (string, error) {
	path := c.CachePath
	if path == "" {
		path = DefaultCachePath()
	}
	if path == "" {
		return "", fmt.Errorf("no cache path: home directory unknown")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating cache dir: %w", err)
	}
	return path, nil
}

// ValidateLogLevel checks that the level value is valid.
func ValidateLogLevel(level string) error {
	if level == "" {
		return nil // Empty defaults to "info"
	}
	if slices.Contains(ValidLogLevels, level) {
		return nil
	}
	return fmt.Errorf("invalid log_level: %s (valid: %v)", level, ValidLogLevels)
}

// Validate checks the settings that are not normalized by their consumers.
func (c *Config) Validate() error {
	if err := ValidateLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid rate_limit: %v", c.RateLimit)
	}
	if c.Timeout < 0 || c.RequestTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
