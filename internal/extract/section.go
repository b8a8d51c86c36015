package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Description extracts the plain text of the product description section.
func (e *Extractor) Description(doc *goquery.Document) string {
	if len(doc.Nodes) == 0 {
		return ""
	}
	return e.sectionText(doc.Nodes[0], e.descHeadingRe)
}

// sectionText collects the prose between the first h1-h4 heading matching
// headingRe and the next h2-h4 heading. The stop boundary keeps unrelated
// sections from bleeding in; fragments that re-match the heading regex are
// dropped so the heading is not echoed into the body. Collection stops once
// the accumulated text exceeds the configured character cap, bounding work
// on malformed documents.
func (e *Extractor) sectionText(root *html.Node, headingRe *regexp.Regexp) string {
	h := findHeading(root, headingRe)
	if h == nil {
		return ""
	}

	var parts []string
	total := 0
	forEachAfter(root, h, func(n *html.Node) bool {
		if isSectionBoundary(n) {
			return false
		}
		if n.Type != html.TextNode || isSkippableText(n) {
			return true
		}

		txt := cleanText(n.Data)
		if txt == "" || headingRe.MatchString(txt) {
			return true
		}

		parts = append(parts, txt)
		total += len(txt) + 1
		return total <= e.cfg.SectionCharCap
	})

	return cleanText(strings.Join(dedupeOrdered(parts), " "))
}
