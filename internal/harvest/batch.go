// Package harvest drives the two collection modes: a concurrent batch
// scrape of product pages and a sequential walk of the paginated
// product API.
package harvest

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/kpiotrowski/spizarka/internal/config"
	"github.com/kpiotrowski/spizarka/internal/extract"
	"github.com/kpiotrowski/spizarka/internal/fetcher"
	"github.com/kpiotrowski/spizarka/internal/observability"
	"github.com/kpiotrowski/spizarka/internal/types"
)

// SessionFactory creates one fetcher per worker. Each worker gets its own
// session (cookie jar, connection pool slot) the first time it picks up a
// job, never earlier.
type SessionFactory func() (fetcher.Fetcher, error)

// BatchScraper fetches a list of product pages concurrently and extracts
// the heuristic fields from each. Results always line up with the input:
// result i belongs to URL i, failed URLs yield the zero sentinel.
type BatchScraper struct {
	cfg        config.Harvest
	extractor  *extract.Extractor
	newSession SessionFactory
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewBatchScraper creates a batch scraper. metrics may be nil.
func NewBatchScraper(cfg config.Harvest, ex *extract.Extractor, newSession SessionFactory, metrics *observability.Metrics, logger *slog.Logger) *BatchScraper {
	return &BatchScraper{
		cfg:        cfg,
		extractor:  ex,
		newSession: newSession,
		metrics:    metrics,
		logger:     logger.With("component", "batch_scraper"),
	}
}

// Run scrapes all URLs and returns one RawFields per URL, in input order.
// A URL that cannot be fetched or parsed contributes the zero sentinel;
// the batch itself never fails.
func (b *BatchScraper) Run(ctx context.Context, urls []string) []types.RawFields {
	results := make([]types.RawFields, len(urls))
	if len(urls) == 0 {
		return results
	}

	workers := b.cfg.Concurrency
	if workers > len(urls) {
		workers = len(urls)
	}

	jobs := make(chan int)
	var done atomic.Int64
	var wg sync.WaitGroup

	b.logger.Info("batch scrape starting", "urls", len(urls), "workers", workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var session fetcher.Fetcher
			defer func() {
				if session != nil {
					session.Close()
				}
			}()

			for idx := range jobs {
				if session == nil {
					var err error
					session, err = b.newSession()
					if err != nil {
						b.logger.Error("session setup failed", "error", err)
						results[idx] = types.Sentinel()
						b.report(done.Add(1), len(urls))
						continue
					}
				}
				results[idx] = b.scrapeOne(ctx, session, urls[idx])
				b.report(done.Add(1), len(urls))
			}
		}()
	}

	for i := range urls {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			b.logger.Warn("batch scrape cancelled", "done", done.Load(), "total", len(urls))
			return results
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	b.logger.Info("batch scrape finished", "urls", len(urls))
	return results
}

func (b *BatchScraper) scrapeOne(ctx context.Context, session fetcher.Fetcher, rawURL string) types.RawFields {
	resp, err := session.Fetch(ctx, rawURL)
	if err != nil {
		b.logger.Warn("page fetch failed", "url", rawURL, "error", err)
		if b.metrics != nil {
			b.metrics.PagesFailed.Add(1)
		}
		return types.Sentinel()
	}

	doc, err := resp.Document()
	if err != nil {
		b.logger.Warn("page parse failed", "url", rawURL, "error", err)
		if b.metrics != nil {
			b.metrics.PagesFailed.Add(1)
		}
		return types.Sentinel()
	}

	fields := b.extractor.Extract(doc)
	if b.metrics != nil {
		b.metrics.PagesFetched.Add(1)
		b.metrics.BytesReceived.Add(int64(len(resp.Body)))
		if fields == types.Sentinel() {
			b.metrics.EmptyExtractions.Add(1)
		} else {
			b.metrics.FieldsExtracted.Add(fieldCount(fields))
		}
	}
	return fields
}

// fieldCount counts the populated fields of one extraction; the price and
// unit-price triples count once each, keyed on their value.
func fieldCount(f types.RawFields) int64 {
	var n int64
	for _, s := range []string{f.Categories, f.Description, f.Nutrition, f.SizeScraped} {
		if s != "" {
			n++
		}
	}
	if f.PriceValue != nil {
		n++
	}
	if f.UnitPriceValue != nil {
		n++
	}
	return n
}

func (b *BatchScraper) report(done int64, total int) {
	if b.cfg.ReportEvery > 0 && done%int64(b.cfg.ReportEvery) == 0 {
		b.logger.Info("batch progress", "done", done, "total", total)
	}
}
