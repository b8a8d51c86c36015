package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kpiotrowski/spizarka/internal/config"
	"github.com/kpiotrowski/spizarka/internal/extract"
	"github.com/kpiotrowski/spizarka/internal/fetcher"
	"github.com/kpiotrowski/spizarka/internal/harvest"
	"github.com/kpiotrowski/spizarka/internal/normalize"
	"github.com/kpiotrowski/spizarka/internal/observability"
	"github.com/kpiotrowski/spizarka/internal/storage"
	"github.com/kpiotrowski/spizarka/internal/types"
)

var (
	enrichOutput      string
	enrichConcurrency int
)

// enrichCmd creates the "enrich" subcommand.
func enrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich [input.csv]",
		Short: "Scrape product pages for an existing table",
		Long: "Read a product table, fetch every row's product page concurrently and " +
			"fill in categories, description, nutrition and price fields. Rows whose " +
			"pages fail keep their original values; unknown input columns pass through.",
		Args: cobra.ExactArgs(1),
		RunE: runEnrich,
	}

	cmd.Flags().StringVarP(&enrichOutput, "output", "o", "", "output CSV path (default from config)")
	cmd.Flags().IntVarP(&enrichConcurrency, "concurrency", "n", 0, "worker count override (0 = use config)")

	return cmd
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if enrichOutput != "" {
		cfg.Storage.OutputPath = enrichOutput
	}
	if enrichConcurrency > 0 {
		cfg.Harvest.Concurrency = enrichConcurrency
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	records, extraColumns, err := storage.ReadTable(args[0])
	if err != nil {
		return fmt.Errorf("read input table: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("input table %s has no rows", args[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting enrichment",
		"input", args[0],
		"rows", len(records),
		"workers", cfg.Harvest.Concurrency,
	)

	extractor := extract.New(cfg.Extract, logger)
	factory := func() (fetcher.Fetcher, error) {
		return fetcher.NewHTTPFetcher(cfg.Fetcher, metrics, logger)
	}

	urls := make([]string, len(records))
	for i, rec := range records {
		urls[i] = rec.URL
	}

	start := time.Now()
	scraper := harvest.NewBatchScraper(cfg.Harvest, extractor, factory, metrics, logger)
	fields := scraper.Run(ctx, urls)

	enriched := 0
	for i := range records {
		if fields[i] != types.Sentinel() {
			enriched++
		}
		normalize.Merge(&records[i], fields[i])
		normalize.Finalize(&records[i])
	}
	metrics.RecordsEnriched.Add(int64(enriched))

	store, err := buildStorage(cfg, storage.EnrichedColumns, extraColumns, logger)
	if err != nil {
		return err
	}
	if err := store.Store(records); err != nil {
		store.Close()
		return err
	}
	if err := store.Close(); err != nil {
		return err
	}
	metrics.RecordsStored.Add(int64(len(records)))

	elapsed := time.Since(start)
	logger.Info("enrichment finished",
		"elapsed", elapsed,
		"rows", len(records),
		"enriched", enriched,
		"output", cfg.Storage.OutputPath,
	)
	logger.Info("run counters", "counters", metrics.Snapshot())

	fmt.Printf("Enriched %d/%d products in %s -> %s\n",
		enriched, len(records), elapsed.Round(time.Millisecond), cfg.Storage.OutputPath)

	return ctx.Err()
}
