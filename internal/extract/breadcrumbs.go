package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Breadcrumbs resolves the category chain of a product page. The catalog
// renders breadcrumbs as a plain run of anchors starting with the fixed
// "Wszystkie" root — there is no breadcrumb class to select on. The only
// reliable signal is an anchor list that starts at the root anchor, is long
// enough to be a real category path, and is not part of navigation chrome.
//
// For every anchor whose text equals the root anchor text, the resolver
// climbs a bounded number of ancestor levels. An ancestor is rejected when
// its aggregate text contains a blocklisted phrase (login, registration,
// promo banner). Within an accepted ancestor the anchors after the root are
// collected, deduplicated case-insensitively, and accepted only when at
// least two segments remain: a bare root match is never a chain.
func (e *Extractor) Breadcrumbs(doc *goquery.Document) string {
	var chain string

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if cleanText(a.Text()) != e.cfg.RootAnchorText {
			return true
		}

		node := a
		for level := 0; level < e.cfg.MaxAncestorLevels; level++ {
			parent := node.Parent()
			if parent.Length() == 0 {
				break
			}

			if e.blockedContainer(cleanText(parent.Text())) {
				node = parent
				continue
			}

			if tail := e.anchorTail(parent); len(tail) >= 2 {
				chain = strings.Join(tail, " > ")
				return false
			}

			node = parent
		}
		return true
	})

	return chain
}

// anchorTail collects the anchor texts following the root anchor within a
// candidate container, deduplicated case-insensitively in order.
func (e *Extractor) anchorTail(container *goquery.Selection) []string {
	var texts []string
	container.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		texts = append(texts, cleanText(link.Text()))
	})

	root := strings.ToLower(e.cfg.RootAnchorText)
	idx := -1
	for i, t := range texts {
		if strings.ToLower(t) == root {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	var tail []string
	for _, t := range texts[idx+1:] {
		if t != "" {
			tail = append(tail, t)
		}
	}
	return dedupeOrdered(tail)
}

func (e *Extractor) blockedContainer(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range e.cfg.ContainerBlocklist {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
