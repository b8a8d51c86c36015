package extract

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/kpiotrowski/spizarka/internal/config"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestExtractor() *Extractor {
	return New(config.DefaultConfig().Extract, testLogger)
}

func makeDoc(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

// --- Breadcrumbs ---

func TestBreadcrumbsChain(t *testing.T) {
	doc := makeDoc(t, `<html><body>
		<nav>
			<a href="/produkty">Wszystkie</a>
			<a href="/k/nabial">Nabiał</a>
			<a href="/k/jogurty">Jogurty</a>
			<a href="/k/jogurty-naturalne">Jogurty naturalne</a>
		</nav>
	</body></html>`)

	got := newTestExtractor().Breadcrumbs(doc)
	want := "Nabiał > Jogurty > Jogurty naturalne"
	if got != want {
		t.Errorf("Breadcrumbs = %q, want %q", got, want)
	}
}

func TestBreadcrumbsDedupPreservesOrder(t *testing.T) {
	doc := makeDoc(t, `<html><body>
		<nav>
			<a href="/produkty">Wszystkie</a>
			<a href="/k/nabial">Nabiał</a>
			<a href="/k/nabial2">NABIAŁ</a>
			<a href="/k/sery">Sery</a>
		</nav>
	</body></html>`)

	got := newTestExtractor().Breadcrumbs(doc)
	want := "Nabiał > Sery"
	if got != want {
		t.Errorf("Breadcrumbs = %q, want %q", got, want)
	}
}

func TestBreadcrumbsSingleSegmentRejected(t *testing.T) {
	// "Wszystkie" followed by a single category is never a chain.
	doc := makeDoc(t, `<html><body><div>
		<a href="/produkty">Wszystkie</a>
		<a href="/k/nabial">Nabiał</a>
	</div></body></html>`)

	if got := newTestExtractor().Breadcrumbs(doc); got != "" {
		t.Errorf("Breadcrumbs = %q, want empty", got)
	}
}

func TestBreadcrumbsBlockedContainer(t *testing.T) {
	// The anchor run lives in navigation chrome with a login link, so every
	// ancestor that sees it is rejected.
	doc := makeDoc(t, `<html><body><div>
		<span>Logowanie</span>
		<a href="/produkty">Wszystkie</a>
		<a href="/k/nabial">Nabiał</a>
		<a href="/k/sery">Sery</a>
	</div></body></html>`)

	if got := newTestExtractor().Breadcrumbs(doc); got != "" {
		t.Errorf("Breadcrumbs = %q, want empty (blocked container)", got)
	}
}

func TestBreadcrumbsMissingRootAnchor(t *testing.T) {
	doc := makeDoc(t, `<html><body><nav>
		<a href="/k/nabial">Nabiał</a>
		<a href="/k/sery">Sery</a>
	</nav></body></html>`)

	if got := newTestExtractor().Breadcrumbs(doc); got != "" {
		t.Errorf("Breadcrumbs = %q, want empty", got)
	}
}

// --- Description ---

func TestDescriptionSectionScoped(t *testing.T) {
	doc := makeDoc(t, `<html><body>
		<h2>Opis produktu</h2>
		<p>Pyszny jogurt naturalny.</p>
		<p>Bez konserwantów.</p>
		<h3>Składniki</h3>
		<p>mleko, kultury bakterii</p>
	</body></html>`)

	got := newTestExtractor().Description(doc)
	want := "Pyszny jogurt naturalny. Bez konserwantów."
	if got != want {
		t.Errorf("Description = %q, want %q", got, want)
	}
	if strings.Contains(got, "mleko") {
		t.Error("description bled past the next heading boundary")
	}
}

func TestDescriptionDeduplicatesFragments(t *testing.T) {
	doc := makeDoc(t, `<html><body>
		<h2>Opis produktu</h2>
		<p>Pyszny jogurt.</p>
		<div><p>Pyszny jogurt.</p></div>
		<p>PYSZNY JOGURT.</p>
	</body></html>`)

	got := newTestExtractor().Description(doc)
	if got != "Pyszny jogurt." {
		t.Errorf("Description = %q, want single deduplicated fragment", got)
	}
}

func TestDescriptionSkipsHeadingEchoAndScripts(t *testing.T) {
	doc := makeDoc(t, `<html><body>
		<h2>Opis produktu</h2>
		<script>var x = "tracking";</script>
		<p>Opis produktu</p>
		<p>Naturalny smak.</p>
	</body></html>`)

	got := newTestExtractor().Description(doc)
	if got != "Naturalny smak." {
		t.Errorf("Description = %q, want %q", got, "Naturalny smak.")
	}
}

func TestDescriptionCharCap(t *testing.T) {
	cfg := config.DefaultConfig().Extract
	cfg.SectionCharCap = 30
	e := New(cfg, testLogger)

	doc := makeDoc(t, `<html><body>
		<h2>Opis produktu</h2>
		<p>Fragment pierwszy zdania opisu.</p>
		<p>Fragment drugi zdania opisu.</p>
		<p>Fragment trzeci zdania opisu.</p>
	</body></html>`)

	got := e.Description(doc)
	if strings.Contains(got, "trzeci") {
		t.Errorf("Description = %q, expected the cap to stop collection", got)
	}
}

func TestDescriptionMissingHeading(t *testing.T) {
	doc := makeDoc(t, `<html><body><p>Brak sekcji opisu.</p></body></html>`)
	if got := newTestExtractor().Description(doc); got != "" {
		t.Errorf("Description = %q, want empty", got)
	}
}

// --- Nutrition ---

func TestNutritionTableWinsOverText(t *testing.T) {
	doc := makeDoc(t, `<html><body>
		<h2>Wartości odżywcze</h2>
		<table>
			<tr><th>Określenie</th><th>w 100 g</th></tr>
			<tr><td>Energia</td><td>250 kJ</td></tr>
			<tr><td>Tłuszcz</td><td>3,0 g</td></tr>
		</table>
		<p>Energia 9999</p>
		<h3>Przechowywanie</h3>
	</body></html>`)

	got := newTestExtractor().Nutrition(doc)
	want := "Energia: 250 kJ | Tłuszcz: 3,0 g"
	if got != want {
		t.Errorf("Nutrition = %q, want %q", got, want)
	}
	if strings.Contains(got, "9999") {
		t.Error("text fallback engaged even though the table yielded rows")
	}
}

func TestNutritionTableSkipsShortRows(t *testing.T) {
	doc := makeDoc(t, `<html><body>
		<h2>Wartości odżywcze</h2>
		<table>
			<tr><td>w tym kwasy nasycone</td></tr>
			<tr><td>Białko</td><td>4,2 g</td></tr>
		</table>
	</body></html>`)

	got := newTestExtractor().Nutrition(doc)
	if got != "Białko: 4,2 g" {
		t.Errorf("Nutrition = %q, want %q", got, "Białko: 4,2 g")
	}
}

func TestNutritionTextFallback(t *testing.T) {
	doc := makeDoc(t, `<html><body>
		<h2>Wartości odżywcze</h2>
		<p>Wartości odżywcze w 100 g</p>
		<p>Energia 1020</p>
		<p>Białko 4,2</p>
		<p>bez wartości liczbowej</p>
		<h3>Przechowywanie</h3>
	</body></html>`)

	got := newTestExtractor().Nutrition(doc)
	want := "Energia: 1020 | Białko: 4,2"
	if got != want {
		t.Errorf("Nutrition = %q, want %q", got, want)
	}
}

func TestNutritionMissingHeading(t *testing.T) {
	doc := makeDoc(t, `<html><body><p>Energia 1020</p></body></html>`)
	if got := newTestExtractor().Nutrition(doc); got != "" {
		t.Errorf("Nutrition = %q, want empty", got)
	}
}

// --- Price ---

func TestPriceInfoBothPasses(t *testing.T) {
	doc := makeDoc(t, `<html><body><div>
		<span>Cena aktualna</span>
		<span>7.99 zł / 1 szt.</span>
		<span>39,95 zł/kg</span>
	</div></body></html>`)

	info := newTestExtractor().PriceInfo(doc)

	if info.Value == nil || *info.Value != 7.99 {
		t.Fatalf("price value = %v, want 7.99", info.Value)
	}
	if info.Currency != "PLN" {
		t.Errorf("currency = %q, want PLN", info.Currency)
	}
	if info.Unit != "szt" {
		t.Errorf("price unit = %q, want szt", info.Unit)
	}
	if info.UnitValue == nil || *info.UnitValue != 39.95 {
		t.Fatalf("unit price value = %v, want 39.95", info.UnitValue)
	}
	if info.UnitPriceUnit != "kg" {
		t.Errorf("unit price unit = %q, want kg", info.UnitPriceUnit)
	}
}

func TestPriceInfoUnitPriceOnly(t *testing.T) {
	doc := makeDoc(t, `<html><body><p>21,87 zł/kg</p></body></html>`)

	info := newTestExtractor().PriceInfo(doc)
	if info.Value != nil || info.Currency != "" {
		t.Errorf("current price = (%v, %q), want absent", info.Value, info.Currency)
	}
	if info.UnitValue == nil || *info.UnitValue != 21.87 {
		t.Fatalf("unit price value = %v, want 21.87", info.UnitValue)
	}
}

func TestPriceInfoAbsent(t *testing.T) {
	doc := makeDoc(t, `<html><body><p>Produkt chwilowo niedostępny</p></body></html>`)

	info := newTestExtractor().PriceInfo(doc)
	if info.Value != nil || info.UnitValue != nil || info.Currency != "" {
		t.Errorf("expected empty PriceInfo, got %+v", info)
	}
}

// --- Size from title ---

func TestSizeFromTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Jogurt naturalny, 400 g | Mamyito.pl", "400 g"},
		{"Woda gazowana, 1,5 l | Mamyito.pl", "1,5 l"},
		{"Jajka z wolnego wybiegu, 10 szt | Mamyito.pl", "10 szt"},
		{"Jogurt naturalny | Mamyito.pl", ""},
		{"", ""},
	}

	e := newTestExtractor()
	for _, tt := range tests {
		doc := makeDoc(t, "<html><head><title>"+tt.title+"</title></head><body></body></html>")
		if got := e.SizeFromTitle(doc); got != tt.want {
			t.Errorf("SizeFromTitle(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

// --- Title prefix cleaner ---

func TestCleanTitlePrefix(t *testing.T) {
	tests := []struct {
		producer string
		title    string
		want     string
	}{
		{"Piątnica", "Piątnica Jogurt naturalny 400 g", "Jogurt naturalny 400 g"},
		{"Piątnica", "PIĄTNICA - Jogurt naturalny", "Jogurt naturalny"},
		{"Alpro", "Alpro: Napój owsiany", "Napój owsiany"},
		{"Alpro", "Napój owsiany Alpro", "Napój owsiany Alpro"},
		{"", "Jogurt naturalny", "Jogurt naturalny"},
		{"Alpro", "", ""},
		// A title that is only the producer name stays intact.
		{"Alpro", "Alpro", "Alpro"},
	}

	for _, tt := range tests {
		if got := CleanTitlePrefix(tt.producer, tt.title); got != tt.want {
			t.Errorf("CleanTitlePrefix(%q, %q) = %q, want %q", tt.producer, tt.title, got, tt.want)
		}
	}
}

func TestCleanTitlePrefixIdempotent(t *testing.T) {
	producers := []string{"Piątnica", "Alpro", "OSM Łowicz", ""}
	titles := []string{
		"Piątnica Jogurt naturalny",
		"Alpro - Napój owsiany",
		"OSM Łowicz | Masło ekstra",
		"Jogurt bez marki",
	}

	for _, p := range producers {
		for _, title := range titles {
			once := CleanTitlePrefix(p, title)
			twice := CleanTitlePrefix(p, once)
			if once != twice {
				t.Errorf("CleanTitlePrefix(%q, ...) not idempotent: %q -> %q", p, once, twice)
			}
		}
	}
}

// --- Full battery ---

func TestExtractIndependentStrategies(t *testing.T) {
	// A document with a price block but no description, nutrition, or
	// breadcrumbs: the price strategy must succeed while the rest stay empty.
	doc := makeDoc(t, `<html><head><title>Ser żółty, 150 g | Mamyito.pl</title></head><body>
		<div>Cena aktualna
7.49 zł / 1 szt.</div>
	</body></html>`)

	fields := newTestExtractor().Extract(doc)

	if fields.PriceValue == nil || *fields.PriceValue != 7.49 {
		t.Errorf("price value = %v, want 7.49", fields.PriceValue)
	}
	if fields.Categories != "" || fields.Description != "" || fields.Nutrition != "" {
		t.Errorf("expected empty text fields, got %+v", fields)
	}
	if fields.SizeScraped != "150 g" {
		t.Errorf("size = %q, want %q", fields.SizeScraped, "150 g")
	}
	if (fields.PriceValue == nil) != (fields.PriceCurrency == "") {
		t.Error("price value and currency must be populated together")
	}
}
