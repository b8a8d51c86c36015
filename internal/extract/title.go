package extract

import (
	"regexp"
	"strings"
)

// CleanTitlePrefix strips a leading producer name from a product title,
// together with any separator the catalog puts after the brand
// ('-', '–', '—', ':', ',', '|') and surrounding whitespace. Titles that do
// not start with the producer are returned unchanged, which makes the
// operation idempotent: a cleaned title no longer carries the prefix.
func CleanTitlePrefix(producer, title string) string {
	p := strings.TrimSpace(producer)
	t := strings.TrimSpace(title)
	if p == "" || t == "" {
		return title
	}
	if !strings.HasPrefix(strings.ToLower(t), strings.ToLower(p)) {
		return title
	}

	re := regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(p) + `\s*[-–—:,|]*\s*`)
	cleaned := strings.TrimSpace(re.ReplaceAllString(t, ""))
	if cleaned == "" {
		return t
	}
	return cleaned
}
