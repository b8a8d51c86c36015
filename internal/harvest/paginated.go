package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/kpiotrowski/spizarka/internal/catalog"
	"github.com/kpiotrowski/spizarka/internal/config"
	"github.com/kpiotrowski/spizarka/internal/observability"
)

// JSONFetcher is the part of the HTTP fetcher the page walker needs.
type JSONFetcher interface {
	FetchJSON(ctx context.Context, rawURL string, headers map[string]string, out any) error
}

// PageHarvester walks the paginated product API sequentially, page by page,
// until the catalog is exhausted. Items are deduplicated by id, first
// occurrence wins; items without an id are always kept.
type PageHarvester struct {
	cfg     config.Harvest
	fetcher JSONFetcher
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPageHarvester creates a page harvester. metrics may be nil.
func NewPageHarvester(cfg config.Harvest, f JSONFetcher, metrics *observability.Metrics, logger *slog.Logger) *PageHarvester {
	return &PageHarvester{
		cfg:     cfg,
		fetcher: f,
		metrics: metrics,
		logger:  logger.With("component", "page_harvester"),
	}
}

// Run collects all catalog items. A page-level fetch error stops the walk
// and returns the pages collected so far together with the error.
func (h *PageHarvester) Run(ctx context.Context) ([]catalog.Item, error) {
	headers := map[string]string{
		"Origin":  h.cfg.ShopBaseURL,
		"Referer": h.cfg.ShopBaseURL + "/",
	}

	var items []catalog.Item
	seen := make(map[string]struct{})

	for page := 1; ; page++ {
		if page > h.cfg.MaxPages {
			h.logger.Warn("page cap reached, stopping", "pages", h.cfg.MaxPages)
			break
		}

		pageURL, err := h.pageURL(page)
		if err != nil {
			return items, err
		}

		var payload any
		if err := h.fetcher.FetchJSON(ctx, pageURL, headers, &payload); err != nil {
			return items, fmt.Errorf("page %d: %w", page, err)
		}

		if h.metrics != nil {
			h.metrics.APIPagesRead.Add(1)
		}

		pageItems := itemsFromPayload(payload)
		if len(pageItems) == 0 {
			h.logger.Info("empty page, catalog exhausted", "page", page)
			break
		}

		added := 0
		for _, it := range pageItems {
			id := it.ID()
			if id != "" {
				if _, dup := seen[id]; dup {
					if h.metrics != nil {
						h.metrics.DuplicatesSeen.Add(1)
					}
					continue
				}
				seen[id] = struct{}{}
			}
			items = append(items, it)
			added++
		}

		h.logger.Debug("page harvested",
			"page", page,
			"items", len(pageItems),
			"new", added,
			"total", len(items),
		)

		if added == 0 {
			h.logger.Info("page brought nothing new, stopping", "page", page)
			break
		}
		if len(pageItems) < h.cfg.PageLimit {
			h.logger.Info("short page, catalog exhausted", "page", page, "items", len(pageItems))
			break
		}

		select {
		case <-ctx.Done():
			return items, ctx.Err()
		case <-time.After(h.cfg.PageDelay):
		}
	}

	if h.metrics != nil {
		h.metrics.RecordsHarvested.Add(int64(len(items)))
	}
	h.logger.Info("harvest complete", "items", len(items))
	return items, nil
}

func (h *PageHarvester) pageURL(page int) (string, error) {
	u, err := url.Parse(h.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("endpoint URL: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(h.cfg.PageLimit))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// itemsFromPayload normalizes the payload generations the API has shipped:
// a bare list, a list under items/products/data, or a paging object with a
// nested items list.
func itemsFromPayload(payload any) []catalog.Item {
	switch t := payload.(type) {
	case []any:
		return toItems(t)
	case map[string]any:
		for _, key := range []string{"items", "products", "data"} {
			switch v := t[key].(type) {
			case []any:
				return toItems(v)
			case map[string]any:
				if nested, ok := v["items"].([]any); ok {
					return toItems(nested)
				}
			}
		}
	}
	return nil
}

func toItems(list []any) []catalog.Item {
	items := make([]catalog.Item, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			items = append(items, catalog.Item(m))
		}
	}
	return items
}
