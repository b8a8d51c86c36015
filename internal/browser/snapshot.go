// Package browser renders infinite-scroll listing pages with a headless
// Chromium and hands the settled HTML to the tile extractor. The product
// API is the preferred source; this collaborator exists for listings that
// only materialize products while a real browser scrolls.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/kpiotrowski/spizarka/internal/config"
)

// dismissTexts are the consent and promo overlay button labels worth
// clicking before scrolling starts.
var dismissTexts = []string{
	"Akceptuj", "Akceptuję", "Zgadzam", "Zezwól", "Rozumiem", "OK", "Zamknij",
}

// Snapshotter owns one headless browser and produces rendered listing
// snapshots. Not safe for concurrent use; listings are snapshotted one at
// a time.
type Snapshotter struct {
	browser *rod.Browser
	cfg     config.Browser
	logger  *slog.Logger
}

// NewSnapshotter launches a stealth-patched headless browser.
func NewSnapshotter(cfg config.Browser, logger *slog.Logger) (*Snapshotter, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled")
	if cfg.WindowSize != "" {
		l = l.Set("window-size", cfg.WindowSize)
	}

	launchURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(launchURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	return &Snapshotter{
		browser: b,
		cfg:     cfg,
		logger:  logger.With("component", "snapshotter"),
	}, nil
}

// Snapshot renders one listing URL: navigate, clear overlays, scroll until
// the product count stops growing, return the final HTML.
func (s *Snapshotter) Snapshot(ctx context.Context, rawURL string) (string, error) {
	page, err := stealth.Page(s.browser)
	if err != nil {
		return "", fmt.Errorf("stealth page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := page.Navigate(rawURL); err != nil {
		return "", fmt.Errorf("navigate %s: %w", rawURL, err)
	}
	if err := page.WaitStable(500 * time.Millisecond); err != nil {
		s.logger.Warn("page stability timeout, continuing", "url", rawURL, "error", err)
	}

	s.dismissOverlays(page)

	if err := s.scrollUntilStable(ctx, page); err != nil {
		return "", err
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read rendered HTML: %w", err)
	}

	s.logger.Info("listing snapshot taken", "url", rawURL, "size", len(html))
	return html, nil
}

// Close shuts down the browser.
func (s *Snapshotter) Close() error {
	if s.browser != nil {
		return s.browser.Close()
	}
	return nil
}

// dismissOverlays clicks every visible button whose label starts with one
// of the known consent texts. Failures are ignored, an overlay that stays
// up only hides part of the first viewport.
func (s *Snapshotter) dismissOverlays(page *rod.Page) {
	buttons, err := page.Elements(`button, [role="button"]`)
	if err != nil {
		return
	}
	for _, btn := range buttons {
		text, err := btn.Text()
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		for _, label := range dismissTexts {
			if strings.HasPrefix(strings.ToLower(text), strings.ToLower(label)) {
				if err := btn.Click(proto.InputMouseButtonLeft, 1); err == nil {
					s.logger.Debug("overlay dismissed", "label", text)
					time.Sleep(300 * time.Millisecond)
				}
				break
			}
		}
	}
}

// scrollUntilStable scrolls to the bottom repeatedly until the rendered
// product count holds still for StableRounds consecutive rounds, or the
// round cap is reached.
func (s *Snapshotter) scrollUntilStable(ctx context.Context, page *rod.Page) error {
	lastCount := -1
	stable := 0

	for round := 0; round < s.cfg.MaxScrollRounds; round++ {
		if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			return fmt.Errorf("scroll: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.ScrollPause):
		}

		count := s.productCount(page)
		if count == lastCount {
			stable++
			if stable >= s.cfg.StableRounds {
				s.logger.Debug("listing settled", "rounds", round+1, "products", count)
				return nil
			}
		} else {
			stable = 0
			lastCount = count
		}
	}

	s.logger.Warn("scroll round cap reached before the listing settled",
		"rounds", s.cfg.MaxScrollRounds, "products", lastCount)
	return nil
}

// productCount approximates how many product tiles are rendered, using the
// same href shape the tile extractor keys on.
func (s *Snapshotter) productCount(page *rod.Page) int {
	result, err := page.Eval(`() =>
		[...document.querySelectorAll('a[href]')]
			.filter(a => {
				const h = a.getAttribute('href') || '';
				return h.startsWith('/') && h.includes('-') &&
					!h.startsWith('/marki/') && !h.startsWith('/kategorie/');
			}).length`)
	if err != nil {
		return -1
	}
	return result.Value.Int()
}
