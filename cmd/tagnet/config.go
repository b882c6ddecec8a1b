package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webtoonlab/tagnet/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values in the global config file.

Usage:
  tagnet config                        # Show all config
  tagnet config api_url                # Get specific value
  tagnet config api_url http://host:8000
  tagnet config log_level debug

Keys:
  api_url          Backend base URL (TAGNET_API_URL overrides)
  rate_limit       Backend requests per second
  timeout          HTTP timeout, e.g. 30s
  request_timeout  Timeout of one interactive network re-fetch
  min_correlation  Minimum correlation requested for network links
  cache_path       SQLite cache file
  log_level        debug, info, warn, or error
  log_format       json or console
  offline          true to never contact the backend

Network, layout and gesture tuning live under the network:, layout: and
gesture: sections of the YAML file.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	path := effectiveConfigPath()

	// No args: show all config, including environment overrides
	if len(args) == 0 {
		if humanOutput {
			outputHuman("%s\n", Subtle.Sprint(path))
			for _, k := range config.Keys {
				v, _ := cfg.Get(k)
				outputHuman("%-16s %s\n", k+":", v)
			}
			return nil
		}
		return outputJSON(cfg)
	}

	key := args[0]

	// One arg: get specific value
	if len(args) == 1 {
		v, err := cfg.Get(key)
		if err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		if humanOutput {
			fmt.Println(v)
			return nil
		}
		return outputJSON(map[string]string{key: v})
	}

	// Two args: set value in the file, without environment overrides
	fileCfg, err := config.LoadFile(path)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if err := fileCfg.Set(key, args[1]); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := fileCfg.Save(path); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}
	config.ResetGlobalConfigCache()

	value, _ := fileCfg.Get(key)
	if humanOutput {
		outputHuman("%s = %s\n", key, value)
		return nil
	}
	return outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
}
