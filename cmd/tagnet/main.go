// Package main provides the tagnet CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/webtoonlab/tagnet/internal/api"
	"github.com/webtoonlab/tagnet/internal/config"
	"github.com/webtoonlab/tagnet/internal/dashboard"
	"github.com/webtoonlab/tagnet/internal/layout"
	"github.com/webtoonlab/tagnet/internal/logging"
	"github.com/webtoonlab/tagnet/internal/network"
	"github.com/webtoonlab/tagnet/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	debugLog    bool
	offlineMode bool
	configPath  string
	apiURL      string
	seedFlag    uint64
)

var (
	cfg    *config.Config
	logger = zap.NewNop()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		// This ensures Cobra errors (like missing required flags) are visible
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		logging.Sync(logger)
		os.Exit(ExitError)
	}
	logging.Sync(logger)
}

var rootCmd = &cobra.Command{
	Use:   "tagnet",
	Short: "Webtoon tag network explorer",
	Long: `tagnet explores the tag co-occurrence network of a webtoon analytics
backend.

Core features:
  - Tag networks from the backend, synthesized when it is unreachable
  - Headless force-directed layout with drag and click interaction
  - HTML, SVG and Cytoscape.js rendering
  - Dashboard analytics: stats, tag frequency, heatmap, recommendations

Successful backend payloads are cached in SQLite for offline use.
All commands output JSON by default.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&offlineMode, "offline", false, "Do not contact the backend")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/tagnet/config.yml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend base URL")
	rootCmd.PersistentFlags().Uint64Var(&seedFlag, "seed", 0, "Seed for synthesized weights and layout jitter (0: random weights)")
	rootCmd.Version = Version
}

// setup loads .env, the config file and the logger before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(config.ExpandPath(configPath))
		if err == nil {
			cfg.ApplyEnv()
		}
	} else {
		cfg, err = config.LoadGlobalConfig()
	}
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if offlineMode {
		cfg.Offline = true
	}

	logger, err = logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Debug: debugLog})
	return err
}

// effectiveConfigPath returns the file the config command reads and writes.
func effectiveConfigPath() string {
	if configPath != "" {
		return config.ExpandPath(configPath)
	}
	return config.GlobalConfigPath()
}

func newClient() *api.Client {
	return api.NewClient(
		api.WithBaseURL(cfg.APIURL),
		api.WithRateLimit(cfg.RateLimit),
		api.WithTimeout(cfg.Timeout),
		api.WithLogger(logger.Named("api")),
	)
}

func newSynthesizer() *network.Synthesizer {
	opts := []network.Option{
		network.WithOptions(cfg.Network),
		network.WithLogger(logger.Named("network")),
	}
	if seedFlag != 0 {
		opts = append(opts, network.WithSeed(seedFlag))
	}
	return network.NewSynthesizer(opts...)
}

func layoutParams() layout.Params {
	p := cfg.Layout
	if seedFlag != 0 {
		p.Seed = seedFlag
	}
	return p.Normalized()
}

// openCache opens the payload cache. A cache that cannot be opened only
// disables caching.
func openCache() *storage.DB {
	path, err := cfg.ResolvedCachePath()
	if err != nil {
		logger.Warn("cache disabled", zap.Error(err))
		return nil
	}
	db, err := storage.OpenDB(path)
	if err != nil {
		logger.Warn("cache disabled", zap.String("path", path), zap.Error(err))
		return nil
	}
	return db
}

// mustOpenCache opens the payload cache, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenCache() *storage.DB {
	path, err := cfg.ResolvedCachePath()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	db, err := storage.OpenDB(path)
	if err != nil {
		exitWithError(ExitError, "opening cache: %v", err)
	}
	return db
}

// newService wires the backend client, cache and synthesizer. The returned
// function closes the cache.
func newService() (*dashboard.Service, *storage.DB, func()) {
	opts := []dashboard.Option{
		dashboard.WithLogger(logger.Named("dashboard")),
		dashboard.WithOffline(cfg.Offline),
		dashboard.WithSynthesizer(newSynthesizer()),
	}
	if seedFlag != 0 {
		opts = append(opts, dashboard.WithSeed(seedFlag))
	}
	db := openCache()
	if db != nil {
		opts = append(opts, dashboard.WithCache(db))
	}
	closeFn := func() {
		if db != nil {
			db.Close()
		}
	}
	return dashboard.New(newClient(), opts...), db, closeFn
}
