// Package extract implements the heuristic field-extraction strategies for
// product documents. Each strategy is independent and returns an empty
// result on failure; one strategy failing never blocks another.
package extract

import (
	"log/slog"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/kpiotrowski/spizarka/internal/config"
	"github.com/kpiotrowski/spizarka/internal/types"
)

// Extractor runs the extraction strategy battery over parsed documents.
// It is stateless per document and safe for concurrent use.
type Extractor struct {
	cfg    config.Extract
	logger *slog.Logger

	descHeadingRe *regexp.Regexp
	nutrHeadingRe *regexp.Regexp
	titleSizeRe   *regexp.Regexp
}

// New creates an Extractor from configuration. The heading expressions are
// validated by config.Validate, so compilation here is expected to succeed.
func New(cfg config.Extract, logger *slog.Logger) *Extractor {
	return &Extractor{
		cfg:           cfg,
		logger:        logger.With("component", "extractor"),
		descHeadingRe: regexp.MustCompile(`(?i)` + cfg.DescriptionHeading),
		nutrHeadingRe: regexp.MustCompile(`(?i)` + cfg.NutritionHeading),
		titleSizeRe: regexp.MustCompile(
			`(?i),\s*([0-9]+(?:[.,][0-9]+)?\s*(?:g|kg|ml|l|szt))\s*\|\s*` +
				regexp.QuoteMeta(cfg.TitleSiteName)),
	}
}

// Extract runs every strategy against one product document and collects the
// results. Strategies that find nothing leave their fields empty.
func (e *Extractor) Extract(doc *goquery.Document) types.RawFields {
	fields := types.RawFields{
		Categories:  e.Breadcrumbs(doc),
		Description: e.Description(doc),
		Nutrition:   e.Nutrition(doc),
		SizeScraped: e.SizeFromTitle(doc),
	}

	price := e.PriceInfo(doc)
	fields.PriceValue = price.Value
	fields.PriceCurrency = price.Currency
	fields.PriceUnit = price.Unit
	fields.UnitPriceValue = price.UnitValue
	fields.UnitPriceUnit = price.UnitPriceUnit

	return fields
}

// SizeFromTitle recovers a size token from the document title, which the
// catalog renders as "<name>, <size> | <site>". Used only as a fallback when
// no other size source is available.
func (e *Extractor) SizeFromTitle(doc *goquery.Document) string {
	title := cleanText(doc.Find("title").First().Text())
	if title == "" {
		return ""
	}
	m := e.titleSizeRe.FindStringSubmatch(title)
	if m == nil {
		return ""
	}
	return cleanText(m[1])
}
