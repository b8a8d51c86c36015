package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/kpiotrowski/spizarka/internal/config"
	"github.com/kpiotrowski/spizarka/internal/observability"
	"github.com/kpiotrowski/spizarka/internal/types"
)

// HTTPFetcher implements Fetcher using net/http with a pooled transport,
// browser-like headers, and retry with exponential backoff on transient
// failures. Each instance carries its own cookie jar, so one fetcher per
// worker behaves like an independent browser session.
type HTTPFetcher struct {
	client  *http.Client
	cfg     config.Fetcher
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewHTTPFetcher creates a new HTTP fetcher. metrics may be nil.
func NewHTTPFetcher(cfg config.Fetcher, metrics *observability.Metrics, logger *slog.Logger) (*HTTPFetcher, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns / 2,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // decompression handled below, including brotli
	}

	client := &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   cfg.RequestTimeout,
	}

	return &HTTPFetcher{
		client:  client,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.With("component", "http_fetcher"),
	}, nil
}

// Fetch retrieves the content at rawURL, retrying transient failures with
// exponential backoff. Non-retryable HTTP errors (e.g. 404) fail
// immediately.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*types.Response, error) {
	return f.fetch(ctx, rawURL, nil)
}

// FetchJSON retrieves rawURL with an Accept: application/json header plus
// any extra headers, and decodes the body into out.
func (f *HTTPFetcher) FetchJSON(ctx context.Context, rawURL string, headers map[string]string, out any) error {
	merged := map[string]string{"Accept": "application/json, text/plain, */*"}
	for k, v := range headers {
		merged[k] = v
	}

	resp, err := f.fetch(ctx, rawURL, merged)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &types.ParseError{URL: rawURL, Err: err}
	}
	return nil
}

// Close releases idle connections.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, rawURL string, headers map[string]string) (*types.Response, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil, &types.FetchError{URL: rawURL, Err: types.ErrInvalidURL}
	}

	start := time.Now()
	var lastErr error

	for attempt := 0; attempt < f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if f.metrics != nil {
				f.metrics.FetchRetries.Add(1)
			}
			delay := f.cfg.RetryBackoff * (1 << (attempt - 1))
			var fe *types.FetchError
			if errors.As(lastErr, &fe) && fe.RetryAfter > delay {
				delay = fe.RetryAfter
			}
			f.logger.Debug("retrying fetch",
				"url", rawURL,
				"attempt", attempt+1,
				"delay", delay,
			)
			select {
			case <-ctx.Done():
				return nil, &types.FetchError{URL: rawURL, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		resp, err := f.doRequest(ctx, rawURL, headers)
		if err == nil {
			resp.FetchDuration = time.Since(start)
			f.logger.Debug("fetch complete",
				"url", rawURL,
				"status", resp.StatusCode,
				"size", len(resp.Body),
				"duration", resp.FetchDuration,
			)
			return resp, nil
		}

		lastErr = err
		var fe *types.FetchError
		if !errors.As(err, &fe) || !fe.Retryable {
			return nil, err
		}
	}

	return nil, &types.FetchError{
		URL: rawURL,
		Err: fmt.Errorf("%w: %v", types.ErrMaxRetries, lastErr),
	}
}

// doRequest performs one attempt. Retryable failures come back as a
// FetchError with Retryable set, so the caller's loop can tell them apart
// from permanent ones.
func (f *HTTPFetcher) doRequest(ctx context.Context, rawURL string, headers map[string]string) (*types.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}

	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", f.cfg.AcceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Connection", "keep-alive")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	httpResp, err := f.client.Do(req)
	if err != nil {
		return nil, &types.FetchError{
			URL:       rawURL,
			Err:       err,
			Retryable: isRetryableError(err),
		}
	}
	defer httpResp.Body.Close()

	if slices.Contains(f.cfg.RetryStatuses, httpResp.StatusCode) {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		fe := &types.FetchError{
			URL:        rawURL,
			StatusCode: httpResp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, strings.TrimSpace(string(snippet))),
			Retryable:  true,
		}
		if httpResp.StatusCode == http.StatusTooManyRequests {
			fe.RetryAfter = parseRetryAfter(httpResp.Header.Get("Retry-After"))
		}
		return nil, fe
	}

	if httpResp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, &types.FetchError{
			URL:        rawURL,
			StatusCode: httpResp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	var reader io.Reader = httpResp.Body
	if f.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, f.cfg.MaxBodySize)
	}
	reader, err = decompressReader(httpResp, reader)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err, Retryable: true}
	}
	if len(body) == 0 {
		return nil, &types.FetchError{URL: rawURL, StatusCode: httpResp.StatusCode, Err: types.ErrEmptyResponse, Retryable: true}
	}

	return &types.Response{
		URL:        rawURL,
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
		FinalURL:   httpResp.Request.URL.String(),
		FetchedAt:  time.Now(),
	}, nil
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

// isRetryableError checks if a network error warrants a retry.
// Covers timeouts, connection resets, unexpected EOF, and connection refused.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return true
		}
	}
	return false
}

// parseRetryAfter parses the Retry-After header value.
// Supports both integer seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil {
		if secs > 120 {
			secs = 120
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return time.Second
		}
		if d > 2*time.Minute {
			return 2 * time.Minute
		}
		return d
	}
	return 0
}
