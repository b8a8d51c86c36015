package types

// ProductRecord is the canonical output row for a single product.
// Numeric fields always use '.' as the decimal separator; the display
// strings (Price, UnitPrice) carry the Polish comma form.
type ProductRecord struct {
	// Producer is the brand name, possibly empty.
	Producer string

	// Title is the product name with any producer prefix stripped.
	Title string

	// Size is a free-form size token, e.g. "400 g", "6 x 330 ml", "10 szt".
	Size string

	// Price is the display price string, e.g. "7,99".
	Price string

	// PriceValue and PriceCurrency are either both populated or both empty.
	PriceValue    *float64
	PriceCurrency string

	// PriceUnit is the denominator label of the current price, e.g. "szt".
	PriceUnit string

	// UnitPrice is the display unit price, e.g. "39,95 zł/kg".
	UnitPrice string

	UnitPriceValue *float64
	UnitPriceUnit  string

	// Categories is the " > "-joined breadcrumb chain (zero or >= 2 segments).
	Categories string

	// Description is plain text, deduplicated and length-capped.
	Description string

	// Nutrition holds "label: value" pairs joined by " | " in document order.
	Nutrition string

	// URL is the unique key of the record within a harvested batch.
	URL string

	// Extra carries pass-through columns from the input table that the
	// harvester does not interpret.
	Extra map[string]string
}

// RawFields is the output of running all extraction strategies against one
// document. The zero value is the sentinel: every field empty, which is what
// failed fetches and unparseable documents produce.
type RawFields struct {
	Categories  string
	Description string
	Nutrition   string

	// SizeScraped is the size token recovered from the document title.
	// It only fills a destination row whose size column is empty.
	SizeScraped string

	PriceValue    *float64
	PriceCurrency string
	PriceUnit     string

	UnitPriceValue *float64
	UnitPriceUnit  string
}

// Sentinel returns an all-empty RawFields. Callers merging a sentinel see
// no-ops everywhere, so fetch failures need no separate code path.
func Sentinel() RawFields {
	return RawFields{}
}

// HasPrice reports whether the current-price block was found.
func (r RawFields) HasPrice() bool {
	return r.PriceValue != nil
}

// FetchResult pairs extracted fields with the input slot they belong to.
// Produced by one worker, written exactly once into results[Index].
type FetchResult struct {
	Index  int
	Fields RawFields
}

// Float returns a pointer to v. Convenience for optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
