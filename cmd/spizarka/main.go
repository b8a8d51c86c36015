package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kpiotrowski/spizarka/internal/config"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "spizarka",
		Short: "Spiżarka — grocery catalog harvester",
		Long: `Spiżarka turns the mamyito.pl grocery catalog into tabular product data.

Commands:
  harvest   walk the paginated product API and build the base table
  enrich    scrape product pages and fill in categories, description,
            nutrition and prices for an existing table
  snapshot  render an infinite-scroll listing in a headless browser and
            extract the visible product tiles`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(harvestCmd())
	rootCmd.AddCommand(enrichCmd())
	rootCmd.AddCommand(snapshotCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads and validates configuration, with CLI flags applied on
// top by the individual commands.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// setupLogger creates the structured logger per the logging config.
func setupLogger(cfg config.Logging) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Spiżarka %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("Harvest:\n")
			fmt.Printf("  Endpoint:          %s\n", cfg.Harvest.Endpoint)
			fmt.Printf("  Shop Base URL:     %s\n", cfg.Harvest.ShopBaseURL)
			fmt.Printf("  Page Limit:        %d\n", cfg.Harvest.PageLimit)
			fmt.Printf("  Max Pages:         %d\n", cfg.Harvest.MaxPages)
			fmt.Printf("  Page Delay:        %s\n", cfg.Harvest.PageDelay)
			fmt.Printf("  Concurrency:       %d\n", cfg.Harvest.Concurrency)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Request Timeout:   %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Max Retries:       %d\n", cfg.Fetcher.MaxRetries)
			fmt.Printf("  Retry Backoff:     %s\n", cfg.Fetcher.RetryBackoff)
			fmt.Printf("  Retry Statuses:    %v\n", cfg.Fetcher.RetryStatuses)
			fmt.Printf("\nExtract:\n")
			fmt.Printf("  Root Anchor:       %q\n", cfg.Extract.RootAnchorText)
			fmt.Printf("  Ancestor Levels:   %d\n", cfg.Extract.MaxAncestorLevels)
			fmt.Printf("  Section Char Cap:  %d\n", cfg.Extract.SectionCharCap)
			fmt.Printf("\nBrowser:\n")
			fmt.Printf("  Headless:          %v\n", cfg.Browser.Headless)
			fmt.Printf("  Max Scroll Rounds: %d\n", cfg.Browser.MaxScrollRounds)
			fmt.Printf("  Stable Rounds:     %d\n", cfg.Browser.StableRounds)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Output Path:       %s\n", cfg.Storage.OutputPath)
			fmt.Printf("  Delimiter:         %q\n", cfg.Storage.Delimiter)
			fmt.Printf("  Mongo URI:         %s\n", cfg.Storage.MongoURI)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}
