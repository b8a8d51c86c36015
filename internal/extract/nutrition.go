package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	per100Re       = regexp.MustCompile(`(?i)\bw\s*100`)
	labelHeaderRe  = regexp.MustCompile(`(?i)określenie`)
	nutritionIntro = regexp.MustCompile(`(?i)wartości odżywcze w`)
	labelValueRe   = regexp.MustCompile(`^(.+?)\s+([0-9][0-9.,/ ]*[0-9])$`)
)

// Nutrition extracts the nutrition-facts section as "label: value" pairs
// joined by " | ", in document order. The table strategy always wins when a
// table inside the section yields rows; the line-based text fallback only
// engages otherwise.
func (e *Extractor) Nutrition(doc *goquery.Document) string {
	if len(doc.Nodes) == 0 {
		return ""
	}
	root := doc.Nodes[0]

	h := findHeading(root, e.nutrHeadingRe)
	if h == nil {
		return ""
	}

	if s := e.nutritionFromTables(root, h); s != "" {
		return s
	}
	return e.nutritionFromLines(root, h)
}

// nutritionFromTables parses the first table before the section boundary
// that yields any rows.
func (e *Extractor) nutritionFromTables(root, h *html.Node) string {
	var result string
	forEachAfter(root, h, func(n *html.Node) bool {
		if isSectionBoundary(n) {
			return false
		}
		if n.Type == html.ElementNode && n.Data == "table" {
			if s := parseNutritionTable(n); s != "" {
				result = s
				return false
			}
		}
		return true
	})
	return result
}

// parseNutritionTable emits "<first-cell>: <last-cell>" per data row.
// Rows with fewer than two non-empty cells and "Określenie | w 100 g"
// header rows are skipped.
func parseNutritionTable(table *html.Node) string {
	var items []string
	goquery.NewDocumentFromNode(table).Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			if txt := cleanText(cell.Text()); txt != "" {
				cells = append(cells, txt)
			}
		})
		if len(cells) < 2 {
			return
		}
		if per100Re.MatchString(cells[len(cells)-1]) && labelHeaderRe.MatchString(cells[0]) {
			return
		}
		if per100Re.MatchString(cells[1]) {
			return
		}
		items = append(items, cells[0]+": "+cells[len(cells)-1])
	})
	return strings.Join(items, " | ")
}

// nutritionFromLines scans the section's text lines for a trailing numeric
// token per line. Intro and header-only lines are dropped. The line count
// is capped to bound work on malformed documents.
func (e *Extractor) nutritionFromLines(root, h *html.Node) string {
	var lines []string
	forEachAfter(root, h, func(n *html.Node) bool {
		if isSectionBoundary(n) {
			return false
		}
		if n.Type != html.TextNode || isSkippableText(n) {
			return true
		}
		if txt := cleanText(n.Data); txt != "" {
			lines = append(lines, txt)
		}
		return len(lines) <= e.cfg.NutritionLineCap
	})

	var pairs []string
	for _, line := range lines {
		if nutritionIntro.MatchString(line) {
			continue
		}
		if labelHeaderRe.MatchString(line) && per100Re.MatchString(line) {
			continue
		}
		if m := labelValueRe.FindStringSubmatch(line); m != nil {
			pairs = append(pairs, cleanText(m[1])+": "+cleanText(m[2]))
		}
	}
	return strings.Join(pairs, " | ")
}
