package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/webtoonlab/tagnet/internal/layout"
)

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	path := GlobalConfigPath()
	want := "/custom/config/tagnet/config.yml"
	if path != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", path, want)
	}

	// Empty XDG_CONFIG_HOME falls back to ~/.config
	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	path = GlobalConfigPath()
	want = filepath.Join(home, ".config", "tagnet", "config.yml")
	if path != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", path, want)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TAGNET_API_URL", "REACT_APP_API_URL", EnvCachePath, EnvLogLevel, EnvOffline} {
		t.Setenv(k, "")
	}
}

func TestLoadGlobalConfig_NotFound(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadGlobalConfig() returned nil")
	}
	if cfg.APIURL != "" {
		t.Errorf("APIURL = %q, want empty", cfg.APIURL)
	}
}

func TestLoadGlobalConfig_Valid(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	clearEnv(t)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	configDir := filepath.Join(tmpDir, "tagnet")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	data := `api_url: http://analytics.local:8000
rate_limit: 5
timeout: 15s
log_level: debug
network:
  max_nodes: 25
layout:
  width: 1200
  link_distance: 120
gesture:
  click_distance: 6
  click_duration: 300ms
`
	if err := os.WriteFile(filepath.Join(configDir, GlobalConfigFile), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg.APIURL != "http://analytics.local:8000" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.RateLimit != 5 {
		t.Errorf("RateLimit = %v, want 5", cfg.RateLimit)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", cfg.Timeout)
	}
	if cfg.Network.MaxNodes != 25 {
		t.Errorf("Network.MaxNodes = %d, want 25", cfg.Network.MaxNodes)
	}
	if cfg.Layout.Width != 1200 || cfg.Layout.LinkDistance != 120 {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if got := cfg.Layout.Normalized().Height; got != layout.DefaultHeight {
		t.Errorf("Normalized Height = %v, want default %v", got, layout.DefaultHeight)
	}
	if cfg.Gesture.ClickDistance != 6 || cfg.Gesture.ClickDuration != 300*time.Millisecond {
		t.Errorf("Gesture = %+v", cfg.Gesture)
	}

	// Second load is served from the cache
	again, _ := LoadGlobalConfig()
	if again != cfg {
		t.Error("LoadGlobalConfig() did not return cached config")
	}
}

func TestLoadGlobalConfig_Invalid(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("layout: [not, a, map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() should fail on invalid YAML")
	}
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("REACT_APP_API_URL", "http://legacy:8000")
	t.Setenv(EnvOffline, "true")
	t.Setenv(EnvLogLevel, "warn")

	cfg := &Config{APIURL: "http://file:8000"}
	cfg.ApplyEnv()

	if cfg.APIURL != "http://legacy:8000" {
		t.Errorf("APIURL = %q, want legacy env value", cfg.APIURL)
	}
	if !cfg.Offline {
		t.Error("Offline = false, want true")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}

	t.Setenv("TAGNET_API_URL", "http://primary:9000")
	cfg.ApplyEnv()
	if cfg.APIURL != "http://primary:9000" {
		t.Errorf("APIURL = %q, want TAGNET_API_URL to win", cfg.APIURL)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("TAGNET_LOG_LEVEL=error\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables that are already set, and an
	// empty value counts as set.
	os.Unsetenv(EnvLogLevel)

	if err := LoadDotEnv(envFile, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv(EnvLogLevel); got != "error" {
		t.Errorf("%s = %q, want error", EnvLogLevel, got)
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	cfg := &Config{
		APIURL:  "http://x:1",
		Timeout: 2 * time.Second,
		Layout:  layout.Params{Width: 640},
	}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if loaded.APIURL != cfg.APIURL || loaded.Timeout != cfg.Timeout || loaded.Layout.Width != 640 {
		t.Errorf("loaded = %+v, want %+v", loaded, cfg)
	}
}

func TestConfig_GetSet(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"api_url", "http://host:8000/", "http://host:8000"},
		{"rate_limit", "2.5", "2.5"},
		{"timeout", "45s", "45s"},
		{"request_timeout", "1m0s", "1m0s"},
		{"min_correlation", "0.3", "0.3"},
		{"log_level", "debug", "debug"},
		{"log_format", "console", "console"},
		{"offline", "true", "true"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := &Config{}
			if err := cfg.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set(%q, %q) error = %v", tt.key, tt.value, err)
			}
			got, err := cfg.Get(tt.key)
			if err != nil {
				t.Fatalf("Get(%q) error = %v", tt.key, err)
			}
			if got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestConfig_SetErrors(t *testing.T) {
	cfg := &Config{}
	bad := map[string]string{
		"rate_limit": "-1",
		"timeout":    "soon",
		"log_level":  "verbose",
		"log_format": "xml",
		"offline":    "maybe",
	}
	for k, v := range bad {
		if err := cfg.Set(k, v); err == nil {
			t.Errorf("Set(%q, %q) should fail", k, v)
		}
	}
	if err := cfg.Set("nexus_path", "x"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Set(unknown) error = %v, want ErrUnknownKey", err)
	}
	if _, err := cfg.Get("nexus_path"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Get(unknown) error = %v, want ErrUnknownKey", err)
	}
}
