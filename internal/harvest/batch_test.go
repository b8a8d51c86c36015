package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kpiotrowski/spizarka/internal/config"
	"github.com/kpiotrowski/spizarka/internal/extract"
	"github.com/kpiotrowski/spizarka/internal/fetcher"
	"github.com/kpiotrowski/spizarka/internal/observability"
	"github.com/kpiotrowski/spizarka/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

// fakeFetcher serves canned HTML bodies with per-URL delays, so completion
// order differs from submission order.
type fakeFetcher struct {
	bodies map[string]string
	delays map[string]time.Duration
	fail   map[string]bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) (*types.Response, error) {
	if d := f.delays[rawURL]; d > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d):
		}
	}
	if f.fail[rawURL] {
		return nil, &types.FetchError{URL: rawURL, StatusCode: 404, Err: types.ErrEmptyResponse}
	}
	return &types.Response{
		URL:        rawURL,
		StatusCode: 200,
		Body:       []byte(f.bodies[rawURL]),
	}, nil
}

func (f *fakeFetcher) Close() error { return nil }

func productPage(desc string) string {
	return fmt.Sprintf(
		`<html><body><h2>Opis produktu</h2><p>%s</p><h2>Inne sekcje</h2></body></html>`, desc)
}

func newBatchScraper(t *testing.T, cfg config.Harvest, factory SessionFactory) *BatchScraper {
	t.Helper()
	ex := extract.New(config.DefaultConfig().Extract, testLogger)
	return NewBatchScraper(cfg, ex, factory, nil, testLogger)
}

func TestBatchRunPreservesInputOrder(t *testing.T) {
	urls := []string{
		"https://shop.test/produkt/a",
		"https://shop.test/produkt/b",
		"https://shop.test/produkt/c",
	}
	fake := &fakeFetcher{
		bodies: map[string]string{
			urls[0]: productPage("opis A"),
			urls[1]: productPage("opis B"),
			urls[2]: productPage("opis C"),
		},
		// a finishes last, c first
		delays: map[string]time.Duration{
			urls[0]: 30 * time.Millisecond,
			urls[1]: 15 * time.Millisecond,
		},
	}

	cfg := config.DefaultConfig().Harvest
	cfg.Concurrency = 3
	b := newBatchScraper(t, cfg, func() (fetcher.Fetcher, error) { return fake, nil })

	results := b.Run(context.Background(), urls)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, want := range []string{"opis A", "opis B", "opis C"} {
		if results[i].Description != want {
			t.Errorf("results[%d].Description = %q, want %q", i, results[i].Description, want)
		}
	}
}

func TestBatchRunFailedURLYieldsSentinel(t *testing.T) {
	urls := []string{"https://shop.test/produkt/ok", "https://shop.test/produkt/gone"}
	fake := &fakeFetcher{
		bodies: map[string]string{urls[0]: productPage("dostępny")},
		fail:   map[string]bool{urls[1]: true},
	}

	cfg := config.DefaultConfig().Harvest
	cfg.Concurrency = 2
	b := newBatchScraper(t, cfg, func() (fetcher.Fetcher, error) { return fake, nil })

	results := b.Run(context.Background(), urls)
	if results[0].Description != "dostępny" {
		t.Errorf("results[0].Description = %q", results[0].Description)
	}
	if results[1] != types.Sentinel() {
		t.Errorf("failed URL must yield the zero sentinel, got %+v", results[1])
	}
}

func TestBatchRunSessionsAreLazyPerWorker(t *testing.T) {
	var created atomic.Int32
	fake := &fakeFetcher{bodies: map[string]string{}}
	factory := func() (fetcher.Fetcher, error) {
		created.Add(1)
		return fake, nil
	}

	cfg := config.DefaultConfig().Harvest
	cfg.Concurrency = 100

	urls := []string{"https://shop.test/produkt/x", "https://shop.test/produkt/y"}
	newBatchScraper(t, cfg, factory).Run(context.Background(), urls)

	// two jobs, so at most two workers ever started a session
	if got := created.Load(); got == 0 || got > 2 {
		t.Errorf("created %d sessions, want 1-2", got)
	}
}

func TestBatchRunCountsExtractedFields(t *testing.T) {
	urls := []string{"https://shop.test/produkt/pelny", "https://shop.test/produkt/pusty"}
	fake := &fakeFetcher{
		bodies: map[string]string{
			urls[0]: productPage("opis"),
			urls[1]: "<html><body><p>nic tu nie ma</p></body></html>",
		},
	}

	cfg := config.DefaultConfig().Harvest
	cfg.Concurrency = 2
	ex := extract.New(config.DefaultConfig().Extract, testLogger)
	metrics := observability.NewMetrics(testLogger)
	b := NewBatchScraper(cfg, ex, func() (fetcher.Fetcher, error) { return fake, nil }, metrics, testLogger)

	b.Run(context.Background(), urls)

	if got := metrics.PagesFetched.Load(); got != 2 {
		t.Errorf("pages fetched = %d, want 2", got)
	}
	if got := metrics.FieldsExtracted.Load(); got != 1 {
		t.Errorf("fields extracted = %d, want 1 (description only)", got)
	}
	if got := metrics.EmptyExtractions.Load(); got != 1 {
		t.Errorf("empty extractions = %d, want 1", got)
	}
}

func TestFieldCount(t *testing.T) {
	if got := fieldCount(types.Sentinel()); got != 0 {
		t.Errorf("fieldCount(sentinel) = %d, want 0", got)
	}
	full := types.RawFields{
		Categories:     "Nabiał > Jogurty",
		Description:    "opis",
		Nutrition:      "Energia: 250 kJ",
		SizeScraped:    "400 g",
		PriceValue:     types.Float(7.99),
		PriceCurrency:  "PLN",
		PriceUnit:      "szt",
		UnitPriceValue: types.Float(19.98),
		UnitPriceUnit:  "kg",
	}
	if got := fieldCount(full); got != 6 {
		t.Errorf("fieldCount(full) = %d, want 6", got)
	}
}

func TestBatchRunEmptyInput(t *testing.T) {
	cfg := config.DefaultConfig().Harvest
	b := newBatchScraper(t, cfg, func() (fetcher.Fetcher, error) {
		t.Error("factory must not run without jobs")
		return nil, nil
	})
	if got := b.Run(context.Background(), nil); len(got) != 0 {
		t.Errorf("got %d results for empty input", len(got))
	}
}
