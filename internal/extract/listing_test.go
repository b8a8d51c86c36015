package extract

import (
	"testing"
)

const listingHTML = `<html><body>
<ul>
	<li>
		<a href="/jogurt-naturalny-400g"><img alt="Piątnica Jogurt naturalny 400 g"></a>
		<a href="/marki/piatnica">Piątnica</a>
		<span>400 g</span>
		<span>12,34 zł</span>
		<span>30,85 zł / kg</span>
	</li>
	<li>
		<a href="/napoj-owsiany-1l"><img alt="Alpro Napój owsiany 1 l"></a>
		<a href="/marki/alpro">Alpro</a>
		<span>6 x 330 ml</span>
		<span>9,99 zł</span>
	</li>
	<li>
		<a href="/jogurt-naturalny-400g"><img alt="Piątnica Jogurt naturalny 400 g"></a>
	</li>
	<li>
		<a href="/kategorie/nabial"><img alt="Nabiał"></a>
	</li>
	<li>
		<a href="/sklep-firmowy"><img alt="Mamyito logo"></a>
	</li>
</ul>
</body></html>`

func TestListingTiles(t *testing.T) {
	doc := makeDoc(t, listingHTML)
	tiles := newTestExtractor().ListingTiles(doc, "https://mamyito.pl")

	if len(tiles) != 2 {
		t.Fatalf("expected 2 tiles (dedup + filters), got %d", len(tiles))
	}

	first := tiles[0]
	if first.Producer != "Piątnica" {
		t.Errorf("producer = %q, want Piątnica", first.Producer)
	}
	if first.Title != "Piątnica Jogurt naturalny 400 g" {
		t.Errorf("title = %q", first.Title)
	}
	if first.Size != "400 g" {
		t.Errorf("size = %q, want 400 g", first.Size)
	}
	if first.Price != "12,34 zł" {
		t.Errorf("price = %q, want 12,34 zł", first.Price)
	}
	if first.UnitPrice != "30,85 zł/kg" {
		t.Errorf("unit price = %q, want 30,85 zł/kg", first.UnitPrice)
	}
	if first.URL != "https://mamyito.pl/jogurt-naturalny-400g" {
		t.Errorf("url = %q", first.URL)
	}

	second := tiles[1]
	if second.Size != "6 x 330 ml" {
		t.Errorf("multipack size = %q, want 6 x 330 ml", second.Size)
	}
	if second.UnitPrice != "" {
		t.Errorf("unit price = %q, want empty", second.UnitPrice)
	}
}

func TestIsProductHref(t *testing.T) {
	tests := []struct {
		href string
		want bool
	}{
		{"/jogurt-naturalny-400g", true},
		{"/produkty", false},
		{"/marki/piatnica", false},
		{"/kategorie/nabial", false},
		{"/promocje", false},
		{"/nowosci", false},
		{"/bestsellery", false},
		{"https://example.com/jogurt-naturalny", false},
		{"/a-b", false}, // too short
		{"/produkt", false},
	}

	for _, tt := range tests {
		if got := isProductHref(tt.href); got != tt.want {
			t.Errorf("isProductHref(%q) = %v, want %v", tt.href, got, tt.want)
		}
	}
}

func TestSizeToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"400 g", "400 g"},
		{"6 x 330 ml", "6 x 330 ml"},
		{"0,5 l", "0,5 l"},
		{"10 szt", "10 szt"},
		{"Jogurt 2% 330 ml", "330 ml"},
		{"bez rozmiaru", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := sizeToken(tt.in); got != tt.want {
			t.Errorf("sizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnitPriceToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"21,87 zł/kg", "21,87 zł/kg"},
		{"21,87 zł / kg", "21,87 zł/kg"},
		{"8.99 zł/l", "8.99 zł/l"},
		{"2,50 zł / 100 g", "2,50 zł/100 g"},
		{"12,34 zł", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := unitPriceToken(tt.in); got != tt.want {
			t.Errorf("unitPriceToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPickTilePriceSkipsUnitPrices(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"30,85 zł/kg 12,34 zł", "12,34 zł"},
		{"12,34 zł", "12,34 zł"},
		{"30,85 zł / kg", ""},
		{"brak ceny", ""},
	}

	for _, tt := range tests {
		if got := pickTilePrice(tt.in); got != tt.want {
			t.Errorf("pickTilePrice(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
