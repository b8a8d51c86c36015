// Package normalize merges scraped page fields into catalog records and
// derives the display columns of the final table.
package normalize

import (
	"github.com/kpiotrowski/spizarka/internal/extract"
	"github.com/kpiotrowski/spizarka/internal/plnum"
	"github.com/kpiotrowski/spizarka/internal/types"
)

// Merge folds scraped fields into a record. Page content is authoritative
// for categories, description and nutrition: a non-empty scraped value
// overwrites whatever the catalog said. Size is the opposite, the scraped
// token only fills a gap. Price numerics from the page always win, since
// the rendered page shows the price a shopper actually pays.
func Merge(rec *types.ProductRecord, f types.RawFields) {
	if f.Categories != "" {
		rec.Categories = f.Categories
	}
	if f.Description != "" {
		rec.Description = f.Description
	}
	if f.Nutrition != "" {
		rec.Nutrition = f.Nutrition
	}
	if rec.Size == "" && f.SizeScraped != "" {
		rec.Size = f.SizeScraped
	}

	if f.HasPrice() {
		rec.PriceValue = f.PriceValue
		rec.PriceCurrency = f.PriceCurrency
		rec.PriceUnit = f.PriceUnit
	}
	if f.UnitPriceValue != nil {
		rec.UnitPriceValue = f.UnitPriceValue
		rec.UnitPriceUnit = f.UnitPriceUnit
	}
}

// Finalize derives the display columns from the numeric fields and strips a
// duplicated producer prefix from the title. A record without a price value
// keeps both display columns empty; a record with one always gets both the
// value and its formatted form.
func Finalize(rec *types.ProductRecord) {
	rec.Title = extract.CleanTitlePrefix(rec.Producer, rec.Title)

	rec.Price = plnum.FormatPrice(rec.PriceValue)
	if rec.PriceValue != nil {
		if rec.PriceCurrency == "" {
			rec.PriceCurrency = "PLN"
		}
	} else {
		// a currency or unit without a value is an orphan from the input
		// table; the row must carry both or neither
		rec.PriceCurrency = ""
		rec.PriceUnit = ""
	}

	rec.UnitPrice = plnum.FormatUnitPrice(rec.UnitPriceValue, rec.UnitPriceUnit)
	if rec.UnitPriceValue == nil {
		rec.UnitPriceUnit = ""
	}
}
