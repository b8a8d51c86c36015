package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kpiotrowski/spizarka/internal/config"
	"github.com/kpiotrowski/spizarka/internal/fetcher"
	"github.com/kpiotrowski/spizarka/internal/harvest"
	"github.com/kpiotrowski/spizarka/internal/normalize"
	"github.com/kpiotrowski/spizarka/internal/observability"
	"github.com/kpiotrowski/spizarka/internal/storage"
	"github.com/kpiotrowski/spizarka/internal/types"
)

var (
	harvestOutput   string
	harvestPages    int
	harvestLimit    int
	harvestUseMongo bool
)

// harvestCmd creates the "harvest" subcommand.
func harvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Walk the product API and build the base table",
		Long: "Walk the paginated product API page by page, deduplicate by product id " +
			"and write the base table (producer, title, size, price, unit_price, url).",
		Args: cobra.NoArgs,
		RunE: runHarvest,
	}

	cmd.Flags().StringVarP(&harvestOutput, "output", "o", "", "output CSV path (default from config)")
	cmd.Flags().IntVar(&harvestPages, "max-pages", 0, "page cap override (0 = use config)")
	cmd.Flags().IntVar(&harvestLimit, "limit", 0, "items per page override (0 = use config)")
	cmd.Flags().BoolVar(&harvestUseMongo, "mongo", false, "also store records in MongoDB")

	return cmd
}

func runHarvest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if harvestOutput != "" {
		cfg.Storage.OutputPath = harvestOutput
	}
	if harvestPages > 0 {
		cfg.Harvest.MaxPages = harvestPages
	}
	if harvestLimit > 0 {
		cfg.Harvest.PageLimit = harvestLimit
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpFetcher, err := fetcher.NewHTTPFetcher(cfg.Fetcher, metrics, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer httpFetcher.Close()

	logger.Info("starting harvest",
		"endpoint", cfg.Harvest.Endpoint,
		"page_limit", cfg.Harvest.PageLimit,
		"max_pages", cfg.Harvest.MaxPages,
	)

	start := time.Now()
	harvester := harvest.NewPageHarvester(cfg.Harvest, httpFetcher, metrics, logger)
	items, harvestErr := harvester.Run(ctx)
	if harvestErr != nil {
		logger.Error("harvest stopped early, writing partial result", "error", harvestErr)
	}

	records := make([]types.ProductRecord, 0, len(items))
	for _, it := range items {
		rec := it.Record(cfg.Harvest.ShopBaseURL)
		normalize.Finalize(&rec)
		records = append(records, rec)
	}

	store, err := buildStorage(cfg, storage.BaseColumns, nil, logger)
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
	logger.Info("harvest finished",
		"elapsed", elapsed,
		"records", len(records),
		"output", cfg.Storage.OutputPath,
	)
	logger.Info("run counters", "counters", metrics.Snapshot())

	fmt.Printf("Harvested %d products in %s -> %s\n",
		len(records), elapsed.Round(time.Millisecond), cfg.Storage.OutputPath)

	return harvestErr
}

// buildStorage assembles the CSV backend, optionally fanned out to MongoDB.
func buildStorage(cfg *config.Config, columns, extraColumns []string, logger *slog.Logger) (storage.Storage, error) {
	csvStore, err := storage.NewCSVStorage(cfg.Storage.OutputPath, cfg.Storage.Delimiter, columns, extraColumns, logger)
	if err != nil {
		return nil, fmt.Errorf("create storage: %w", err)
	}
	if !harvestUseMongo {
		return csvStore, nil
	}

	mongoStore, err := storage.NewMongoStorage(cfg.Storage.MongoURI, cfg.Storage.MongoDatabase, cfg.Storage.MongoCollection, logger)
	if err != nil {
		csvStore.Close()
		return nil, fmt.Errorf("create mongo storage: %w", err)
	}
	return storage.NewMultiStorage([]storage.Storage{csvStore, mongoStore}, logger), nil
}
