package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational counters for the harvester.
type Metrics struct {
	// Fetch metrics
	PagesFetched  atomic.Int64
	PagesFailed   atomic.Int64
	FetchRetries  atomic.Int64
	APIPagesRead  atomic.Int64
	BytesReceived atomic.Int64

	// Extraction metrics
	FieldsExtracted  atomic.Int64
	EmptyExtractions atomic.Int64

	// Record metrics
	RecordsHarvested atomic.Int64
	RecordsEnriched  atomic.Int64
	RecordsStored    atomic.Int64
	DuplicatesSeen   atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"spizarka_pages_fetched_total", "Product pages fetched", m.PagesFetched.Load()},
		{"spizarka_pages_failed_total", "Product pages that failed to fetch or parse", m.PagesFailed.Load()},
		{"spizarka_fetch_retries_total", "Fetch attempts beyond the first", m.FetchRetries.Load()},
		{"spizarka_api_pages_read_total", "Catalog API pages read", m.APIPagesRead.Load()},
		{"spizarka_bytes_received_total", "Response bytes received", m.BytesReceived.Load()},
		{"spizarka_fields_extracted_total", "Non-empty extracted fields", m.FieldsExtracted.Load()},
		{"spizarka_empty_extractions_total", "Documents where every strategy came up empty", m.EmptyExtractions.Load()},
		{"spizarka_records_harvested_total", "Catalog records harvested", m.RecordsHarvested.Load()},
		{"spizarka_records_enriched_total", "Records enriched from product pages", m.RecordsEnriched.Load()},
		{"spizarka_records_stored_total", "Records written to storage", m.RecordsStored.Load()},
		{"spizarka_duplicates_seen_total", "Duplicate catalog ids skipped", m.DuplicatesSeen.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all counters as a map, for the end-of-run summary log.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"pages_fetched":     m.PagesFetched.Load(),
		"pages_failed":      m.PagesFailed.Load(),
		"fetch_retries":     m.FetchRetries.Load(),
		"api_pages_read":    m.APIPagesRead.Load(),
		"bytes_received":    m.BytesReceived.Load(),
		"fields_extracted":  m.FieldsExtracted.Load(),
		"empty_extractions": m.EmptyExtractions.Load(),
		"records_harvested": m.RecordsHarvested.Load(),
		"records_enriched":  m.RecordsEnriched.Load(),
		"records_stored":    m.RecordsStored.Load(),
		"duplicates_seen":   m.DuplicatesSeen.Load(),
	}
}
