package extract

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Tile is one product card scraped from a rendered listing page.
type Tile struct {
	Producer  string
	Title     string
	Size      string
	Price     string
	UnitPrice string
	URL       string
}

var (
	multipackSizeRe = regexp.MustCompile(`(?i)\b\d+\s*[x×]\s*\d+(?:[.,]\d+)?\s*(?:kg|g|l|ml)\b`)
	simpleSizeRe    = regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)?\s*(?:kg|g|l|ml)\b`)
	piecesSizeRe    = regexp.MustCompile(`(?i)\b\d+\s*szt\b`)

	tilePriceRe     = regexp.MustCompile(`\d{1,4}(?:[.,]\d{2})?\s*zł`)
	tileUnitPriceRe = regexp.MustCompile(`(?i)\b(\d{1,4}(?:[.,]\d{2}))\s*zł\s*/\s*(kg|l|100\s*g|100\s*ml|szt)\b`)

	nonProductPrefixes = []string{
		"/marki/", "/kategorie/", "/promocje", "/nowosci", "/bestsellery",
	}
)

// ListingTiles extracts all product cards from a rendered listing document.
// Product anchors are recognized purely by href shape and a non-logo image,
// since the listing markup carries no stable classes. Duplicate hrefs are
// dropped, first occurrence wins.
func (e *Extractor) ListingTiles(doc *goquery.Document, baseURL string) []Tile {
	base, err := url.Parse(baseURL)
	if err != nil {
		e.logger.Warn("invalid listing base URL", "url", baseURL, "error", err)
		return nil
	}

	seen := make(map[string]struct{})
	var tiles []Tile

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !isProductHref(href) {
			return
		}
		if _, ok := seen[href]; ok {
			return
		}

		img := a.Find("img[alt]").First()
		if img.Length() == 0 {
			return
		}
		alt, _ := img.Attr("alt")
		if strings.Contains(strings.ToLower(alt), "logo") {
			return
		}

		tile := closestTile(a)
		if tile == nil {
			return
		}
		seen[href] = struct{}{}

		producer := cleanText(tile.Find(`a[href^="/marki/"]`).First().Text())

		title := cleanText(alt)
		if title == "" {
			title = cleanText(a.Text())
		}

		tileText := tile.Text()

		unitPrice := pickBadge(tile, unitPriceToken)
		if unitPrice == "" {
			unitPrice = unitPriceToken(tileText)
		}

		size := pickBadge(tile, sizeBadgeToken)
		if size == "" {
			size = sizeToken(tileText)
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}

		tiles = append(tiles, Tile{
			Producer:  producer,
			Title:     title,
			Size:      size,
			Price:     pickTilePrice(tileText),
			UnitPrice: unitPrice,
			URL:       base.ResolveReference(ref).String(),
		})
	})

	return tiles
}

// isProductHref applies the catalog's URL-shape heuristics: product pages
// are root-relative slugs with a dash, and never the listing, brand,
// category, or campaign paths.
func isProductHref(href string) bool {
	if !strings.HasPrefix(href, "/") || href == "/produkty" {
		return false
	}
	for _, prefix := range nonProductPrefixes {
		if strings.HasPrefix(href, prefix) {
			return false
		}
	}
	return len(href) >= 6 && strings.Contains(href, "-")
}

// closestTile finds the card container for a product anchor, most specific
// element first.
func closestTile(a *goquery.Selection) *goquery.Selection {
	for _, sel := range []string{"article", "li", `[role="listitem"]`, "div"} {
		if t := a.Closest(sel); t.Length() > 0 {
			return t
		}
	}
	return nil
}

// pickBadge scans the short text elements of a tile with the given token
// matcher and prefers the shortest hit; the real badge is usually the
// tersest element that matches.
func pickBadge(tile *goquery.Selection, token func(string) string) string {
	var candidates []string
	tile.Find("span, p, div, small").Each(func(_ int, n *goquery.Selection) {
		if t := token(cleanText(n.Text())); t != "" {
			candidates = append(candidates, t)
		}
	})
	if len(candidates) == 0 {
		return ""
	}
	sort.Slice(candidates, func(i, j int) bool {
		return len(candidates[i]) < len(candidates[j])
	})
	return candidates[0]
}

// sizeBadgeToken is sizeToken restricted to badge texts that are not
// price-like ("zł" badges are unit prices, not sizes).
func sizeBadgeToken(s string) string {
	if strings.Contains(strings.ToLower(s), "zł") {
		return ""
	}
	return sizeToken(s)
}

// sizeToken extracts a size token: multipack ("6 x 330 ml") first, then a
// simple amount ("400 g", "0,5 l"), then pieces ("10 szt").
func sizeToken(s string) string {
	t := cleanText(s)
	if t == "" {
		return ""
	}
	for _, re := range []*regexp.Regexp{multipackSizeRe, simpleSizeRe, piecesSizeRe} {
		if m := re.FindString(t); m != "" {
			return cleanText(m)
		}
	}
	return ""
}

// unitPriceToken extracts and normalizes a unit-price token, e.g.
// "21,87 zł / kg" -> "21,87 zł/kg".
func unitPriceToken(s string) string {
	t := cleanText(s)
	if t == "" {
		return ""
	}
	m := tileUnitPriceRe.FindStringSubmatch(t)
	if m == nil {
		return ""
	}
	return m[1] + " zł/" + cleanText(m[2])
}

// pickTilePrice finds the tile's own price ("12,34 zł"), skipping unit
// prices like "21,87 zł/kg". Go regexes have no lookahead, so the
// not-followed-by-slash rule is checked on the text after each match.
func pickTilePrice(s string) string {
	t := cleanText(s)
	for _, loc := range tilePriceRe.FindAllStringIndex(t, -1) {
		rest := strings.TrimLeft(t[loc[1]:], " ")
		if strings.HasPrefix(rest, "/") {
			continue
		}
		return cleanText(t[loc[0]:loc[1]])
	}
	return ""
}
