package extract

import (
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

var wsRe = regexp.MustCompile(`\s+`)

// cleanText collapses all whitespace runs (including non-breaking spaces)
// to single spaces and trims the result.
func cleanText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}

// findHeading returns the first h1-h4 element whose text matches re, in
// document order, or nil.
func findHeading(root *html.Node, re *regexp.Regexp) *html.Node {
	for _, h := range htmlquery.Find(root, "//h1|//h2|//h3|//h4") {
		if re.MatchString(cleanText(htmlquery.InnerText(h))) {
			return h
		}
	}
	return nil
}

// isSectionBoundary reports whether n is a heading that terminates a
// section (h2-h4; a stray h1 does not close a section).
func isSectionBoundary(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "h2", "h3", "h4":
		return true
	}
	return false
}

// isSkippableText reports whether a text node lives inside a tag whose
// content is never document prose.
func isSkippableText(n *html.Node) bool {
	p := n.Parent
	if p == nil || p.Type != html.ElementNode {
		return false
	}
	switch p.Data {
	case "script", "style", "noscript":
		return true
	}
	return false
}

// forEachAfter walks the tree in document order and invokes fn on every node
// strictly after start (start's own subtree included, matching the
// "everything the reader encounters next" order). fn returns false to stop.
// Traversal is bounded by the tree itself; callers impose their own caps.
func forEachAfter(root, start *html.Node, fn func(*html.Node) bool) {
	passed := false
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if passed {
			if !fn(n) {
				return false
			}
		}
		if n == start {
			passed = true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(root)
}

// documentText flattens all prose text nodes into one newline-joined string,
// the shape the price regexes match against. Each node is only trimmed at
// the edges: newlines inside a node separate price lines and must survive.
func documentText(root *html.Node) string {
	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode && !isSkippableText(n) {
			txt := strings.TrimSpace(strings.ReplaceAll(n.Data, "\u00a0", " "))
			if txt != "" {
				lines = append(lines, txt)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return strings.Join(lines, "\n")
}

// dedupeOrdered removes case-insensitive duplicates while preserving the
// first occurrence order.
func dedupeOrdered(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		key := strings.ToLower(it)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}
