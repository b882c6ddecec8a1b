package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/webtoonlab/tagnet/internal/config"
)

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheExportCmd)
	cacheCmd.AddCommand(cacheImportCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached backend payloads",
	Long: `Manage the SQLite cache of backend payloads.

Successful backend responses are cached and served when the backend is
unreachable. The cache can be exported to JSONL and rebuilt from it.`,
}

// CacheEntry summarizes one cached payload.
type CacheEntry struct {
	Endpoint  string    `json:"endpoint"`
	Key       string    `json:"key,omitempty"`
	Bytes     int       `json:"bytes"`
	FetchedAt time.Time `json:"fetched_at"`
}

var cacheListCmd = &cobra.Command{
	Use:   "list [endpoint]",
	Short: "List cached payloads",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db := mustOpenCache()
		defer db.Close()

		endpoint := ""
		if len(args) == 1 {
			endpoint = args[0]
		}
		entries, err := db.List(endpoint)
		if err != nil {
			return fmt.Errorf("listing cache: %w", err)
		}
		out := make([]CacheEntry, 0, len(entries))
		for _, e := range entries {
			out = append(out, CacheEntry{Endpoint: e.Endpoint, Key: e.Key, Bytes: len(e.Payload), FetchedAt: e.FetchedAt})
		}
		if !humanOutput {
			return outputJSON(out)
		}
		if len(out) == 0 {
			outputHuman("cache is empty\n")
			return nil
		}
		rows := make([][]string, 0, len(out))
		for _, e := range out {
			rows = append(rows, []string{e.Endpoint, truncate(e.Key, 40), fmt.Sprint(e.Bytes), e.FetchedAt.Local().Format(time.DateTime)})
		}
		printTable([]string{"endpoint", "key", "bytes", "fetched"}, rows)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [endpoint]",
	Short: "Delete cached payloads (all, or one endpoint)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db := mustOpenCache()
		defer db.Close()

		endpoint := ""
		if len(args) == 1 {
			endpoint = args[0]
		}
		n, err := db.Clear(endpoint)
		if err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		if !humanOutput {
			return outputJSON(StatusResponse{Status: "cleared", Count: n})
		}
		outputHuman("Cleared %d cached payloads\n", n)
		return nil
	},
}

var cacheExportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Export cached payloads to JSONL",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db := mustOpenCache()
		defer db.Close()

		path := config.JSONLFile
		if len(args) == 1 {
			path = config.ExpandPath(args[0])
		}
		n, err := db.ExportJSONL(path)
		if err != nil {
			return fmt.Errorf("exporting cache: %w", err)
		}
		if !humanOutput {
			return outputJSON(StatusResponse{Status: "exported", Path: path, Count: n})
		}
		outputHuman("Exported %d payloads to %s\n", n, path)
		return nil
	},
}

var cacheImportCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Replace the cache with payloads from a JSONL export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db := mustOpenCache()
		defer db.Close()

		path := config.ExpandPath(args[0])
		n, err := db.RebuildFromJSONL(path)
		if err != nil {
			exitWithError(ExitDataError, "importing %s: %v", path, err)
		}
		if !humanOutput {
			return outputJSON(StatusResponse{Status: "imported", Path: path, Count: n})
		}
		outputHuman("Imported %d payloads from %s\n", n, path)
		return nil
	},
}
