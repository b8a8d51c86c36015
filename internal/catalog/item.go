// Package catalog maps raw product-API payload items onto tabular records.
// The API exposes several payload generations, so every field is resolved
// through an ordered list of accessor paths, first non-empty wins.
package catalog

import (
	"strconv"
	"strings"

	"github.com/kpiotrowski/spizarka/internal/plnum"
	"github.com/kpiotrowski/spizarka/internal/types"
)

var (
	producerPaths = []string{"producer.name", "manufacturer.name", "brand.name"}
	titlePaths    = []string{"name", "title"}
	sizePaths     = []string{"info", "shortDescription", "unit"}
)

// Item is one raw product entry from a paginated API response.
type Item map[string]any

// ID returns the item's identifier, or "" when the payload carries none.
func (it Item) ID() string {
	return asString(it["id"])
}

// Record converts the item into a product record. shopBaseURL is used to
// build product URLs from slugs; items without slug fall back to a literal
// "url" key.
func (it Item) Record(shopBaseURL string) types.ProductRecord {
	rec := types.ProductRecord{
		Producer: firstByPath(it, producerPaths),
		Title:    firstByPath(it, titlePaths),
		Size:     firstByPath(it, sizePaths),
		URL:      it.productURL(shopBaseURL),
	}

	if v, ok := priceValue(it); ok {
		rec.PriceValue = types.Float(v)
		rec.PriceCurrency = "PLN"
	}
	if v, unit, ok := unitPrice(it); ok {
		rec.UnitPriceValue = types.Float(v)
		rec.UnitPriceUnit = unit
	}

	return rec
}

func (it Item) productURL(shopBaseURL string) string {
	if slug := asString(it["slug"]); slug != "" {
		return strings.TrimRight(shopBaseURL, "/") + "/produkt/" + slug
	}
	return asString(it["url"])
}

// priceValue resolves the gross price: a nested price.gross object first,
// then a bare numeric "price".
func priceValue(it Item) (float64, bool) {
	if m, ok := it["price"].(map[string]any); ok {
		return asFloat(m["gross"])
	}
	return asFloat(it["price"])
}

// unitPrice resolves the per-unit price and its unit. The live payload
// carries a ready display string ("26,63 zł / kg"); older shapes use a
// nested object with gross/value and unit.
func unitPrice(it Item) (float64, string, bool) {
	for _, key := range []string{"unitPrice", "pricePerUnit"} {
		switch m := it[key].(type) {
		case string:
			if v, unit, ok := splitUnitPrice(m); ok {
				return v, unit, true
			}
		case map[string]any:
			v, ok := asFloat(m["gross"])
			if !ok {
				v, ok = asFloat(m["value"])
			}
			if !ok {
				continue
			}
			unit := asString(m["unit"])
			if unit == "" {
				unit = asString(it["unitName"])
			}
			return v, unit, true
		}
	}
	return 0, "", false
}

// splitUnitPrice parses a display unit price like "26,63 zł / kg" or
// "2,50 zł / 100 g" into its numeric value and unit label.
func splitUnitPrice(s string) (float64, string, bool) {
	before, after, found := strings.Cut(s, "/")
	if !found {
		return 0, "", false
	}
	v, ok := plnum.Parse(before)
	if !ok {
		return 0, "", false
	}
	unit := strings.Join(strings.Fields(after), " ")
	if unit == "" {
		return 0, "", false
	}
	return v, unit, true
}

// firstByPath resolves the first non-empty string among dot-separated
// accessor paths into nested objects.
func firstByPath(it Item, paths []string) string {
	for _, path := range paths {
		if s := asString(getNested(it, path)); s != "" {
			return s
		}
	}
	return ""
}

func getNested(it Item, path string) any {
	var cur any = map[string]any(it)
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// asString renders scalar payload values as trimmed strings. Numeric IDs
// are common, so integral numbers render without a trailing ".0".
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
