package catalog

import (
	"encoding/json"
	"testing"
)

func itemFromJSON(t *testing.T, raw string) Item {
	t.Helper()
	var it Item
	if err := json.Unmarshal([]byte(raw), &it); err != nil {
		t.Fatalf("unmarshal item: %v", err)
	}
	return it
}

func TestRecordModernPayload(t *testing.T) {
	it := itemFromJSON(t, `{
		"id": 123,
		"name": "Jogurt naturalny 400 g",
		"slug": "jogurt-naturalny-400g",
		"producer": {"name": "Piątnica"},
		"info": "400 g",
		"price": {"gross": 3.49},
		"unitPrice": {"gross": 8.73, "unit": "kg"}
	}`)

	rec := it.Record("https://mamyito.pl/")

	if it.ID() != "123" {
		t.Errorf("ID = %q, want 123", it.ID())
	}
	if rec.Producer != "Piątnica" {
		t.Errorf("producer = %q", rec.Producer)
	}
	if rec.Title != "Jogurt naturalny 400 g" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Size != "400 g" {
		t.Errorf("size = %q", rec.Size)
	}
	if rec.URL != "https://mamyito.pl/produkt/jogurt-naturalny-400g" {
		t.Errorf("url = %q", rec.URL)
	}
	if rec.PriceValue == nil || *rec.PriceValue != 3.49 {
		t.Errorf("price value = %v, want 3.49", rec.PriceValue)
	}
	if rec.PriceCurrency != "PLN" {
		t.Errorf("currency = %q, want PLN", rec.PriceCurrency)
	}
	if rec.UnitPriceValue == nil || *rec.UnitPriceValue != 8.73 {
		t.Errorf("unit price value = %v, want 8.73", rec.UnitPriceValue)
	}
	if rec.UnitPriceUnit != "kg" {
		t.Errorf("unit price unit = %q, want kg", rec.UnitPriceUnit)
	}
}

func TestRecordFallbackPaths(t *testing.T) {
	it := itemFromJSON(t, `{
		"title": "Napój owsiany",
		"brand": {"name": "Alpro"},
		"shortDescription": "1 l",
		"url": "https://mamyito.pl/produkt/napoj-owsiany",
		"price": 6.99,
		"pricePerUnit": {"value": 6.99, "unit": "l"}
	}`)

	rec := it.Record("https://mamyito.pl")

	if rec.Producer != "Alpro" {
		t.Errorf("producer = %q, want Alpro (brand fallback)", rec.Producer)
	}
	if rec.Title != "Napój owsiany" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Size != "1 l" {
		t.Errorf("size = %q, want 1 l", rec.Size)
	}
	if rec.URL != "https://mamyito.pl/produkt/napoj-owsiany" {
		t.Errorf("url = %q", rec.URL)
	}
	if rec.PriceValue == nil || *rec.PriceValue != 6.99 {
		t.Errorf("price value = %v, want 6.99", rec.PriceValue)
	}
	if rec.UnitPriceValue == nil || *rec.UnitPriceValue != 6.99 {
		t.Errorf("unit price value = %v", rec.UnitPriceValue)
	}
}

func TestRecordStringUnitPrice(t *testing.T) {
	it := itemFromJSON(t, `{
		"name": "Ser żółty",
		"unitPrice": "26,63 zł / kg"
	}`)

	rec := it.Record("https://mamyito.pl")

	if rec.UnitPriceValue == nil || *rec.UnitPriceValue != 26.63 {
		t.Errorf("unit price value = %v, want 26.63", rec.UnitPriceValue)
	}
	if rec.UnitPriceUnit != "kg" {
		t.Errorf("unit price unit = %q, want kg", rec.UnitPriceUnit)
	}
}

func TestSplitUnitPrice(t *testing.T) {
	tests := []struct {
		in    string
		value float64
		unit  string
		ok    bool
	}{
		{"26,63 zł / kg", 26.63, "kg", true},
		{"2,50 zł / 100 g", 2.50, "100 g", true},
		{"7.99 zł/l", 7.99, "l", true},
		{"26,63 zł", 0, "", false},
		{"zł / kg", 0, "", false},
		{"26,63 zł /", 0, "", false},
	}
	for _, tt := range tests {
		v, unit, ok := splitUnitPrice(tt.in)
		if ok != tt.ok || v != tt.value || unit != tt.unit {
			t.Errorf("splitUnitPrice(%q) = %v %q %v, want %v %q %v",
				tt.in, v, unit, ok, tt.value, tt.unit, tt.ok)
		}
	}
}

func TestRecordProducerPriority(t *testing.T) {
	it := itemFromJSON(t, `{
		"name": "x",
		"producer": {"name": "First"},
		"manufacturer": {"name": "Second"},
		"brand": {"name": "Third"}
	}`)
	if got := it.Record("https://mamyito.pl").Producer; got != "First" {
		t.Errorf("producer = %q, want First", got)
	}
}

func TestRecordSparseItem(t *testing.T) {
	it := itemFromJSON(t, `{"name": "Tajemniczy produkt"}`)
	rec := it.Record("https://mamyito.pl")

	if rec.Title != "Tajemniczy produkt" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.URL != "" || rec.Size != "" || rec.Producer != "" {
		t.Errorf("sparse item must leave fields empty: %+v", rec)
	}
	if rec.PriceValue != nil || rec.UnitPriceValue != nil {
		t.Error("sparse item must leave price values nil")
	}
	if it.ID() != "" {
		t.Errorf("ID = %q, want empty", it.ID())
	}
}

func TestAsStringNumericID(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"abc", "abc"},
		{"  padded  ", "padded"},
		{float64(42), "42"},
		{3.5, "3.5"},
		{nil, ""},
		{true, ""},
	}
	for _, tt := range tests {
		if got := asString(tt.in); got != tt.want {
			t.Errorf("asString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAsFloatCommaDecimal(t *testing.T) {
	if v, ok := asFloat("7,99"); !ok || v != 7.99 {
		t.Errorf("asFloat(7,99) = %v %v", v, ok)
	}
	if _, ok := asFloat("zł"); ok {
		t.Error("asFloat(zł) should fail")
	}
}
