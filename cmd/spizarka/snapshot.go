package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/kpiotrowski/spizarka/internal/browser"
	"github.com/kpiotrowski/spizarka/internal/config"
	"github.com/kpiotrowski/spizarka/internal/extract"
	"github.com/kpiotrowski/spizarka/internal/storage"
	"github.com/kpiotrowski/spizarka/internal/types"
)

var (
	snapshotOutput   string
	snapshotHeadful  bool
	snapshotHTMLDump string
)

// snapshotCmd creates the "snapshot" subcommand.
func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot [listing-url]",
		Short: "Render an infinite-scroll listing and extract product tiles",
		Long: "Open the listing in a headless browser, dismiss consent overlays, scroll " +
			"until the product count stops growing and extract the visible tiles into " +
			"the base table.",
		Args: cobra.ExactArgs(1),
		RunE: runSnapshot,
	}

	cmd.Flags().StringVarP(&snapshotOutput, "output", "o", "", "output CSV path (default from config)")
	cmd.Flags().BoolVar(&snapshotHeadful, "headful", false, "show the browser window")
	cmd.Flags().StringVar(&snapshotHTMLDump, "dump-html", "", "also write the rendered HTML to this path")

	return cmd
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if snapshotOutput != "" {
		cfg.Storage.OutputPath = snapshotOutput
	}
	if snapshotHeadful {
		cfg.Browser.Headless = false
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := config.ValidateURL(args[0]); err != nil {
		return fmt.Errorf("invalid listing URL %q: %w", args[0], err)
	}

	logger := setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snapshotter, err := browser.NewSnapshotter(cfg.Browser, logger)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer snapshotter.Close()

	start := time.Now()
	html, err := snapshotter.Snapshot(ctx, args[0])
	if err != nil {
		return fmt.Errorf("snapshot listing: %w", err)
	}

	if snapshotHTMLDump != "" {
		if err := dumpHTML(snapshotHTMLDump, html); err != nil {
			logger.Warn("failed to dump rendered HTML", "path", snapshotHTMLDump, "error", err)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse rendered listing: %w", err)
	}

	extractor := extract.New(cfg.Extract, logger)
	tiles := extractor.ListingTiles(doc, cfg.Harvest.ShopBaseURL)

	records := make([]types.ProductRecord, 0, len(tiles))
	for _, t := range tiles {
		records = append(records, types.ProductRecord{
			Producer:  t.Producer,
			Title:     extract.CleanTitlePrefix(t.Producer, t.Title),
			Size:      t.Size,
			Price:     t.Price,
			UnitPrice: t.UnitPrice,
			URL:       t.URL,
		})
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

	elapsed := time.Since(start)
	logger.Info("snapshot finished",
		"elapsed", elapsed,
		"tiles", len(records),
		"output", cfg.Storage.OutputPath,
	)

	fmt.Printf("Extracted %d tiles in %s -> %s\n",
		len(records), elapsed.Round(time.Millisecond), cfg.Storage.OutputPath)

	return nil
}

func dumpHTML(path, html string) error {
	return os.WriteFile(path, []byte(html), 0o644)
}
