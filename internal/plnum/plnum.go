// Package plnum converts between Polish human-formatted numeric text
// ("39,95 zł") and typed values, and renders display strings back in the
// source locale.
package plnum

import (
	"regexp"
	"strconv"
	"strings"
)

var numberRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// Parse extracts the first decimal number from text. The input may carry
// currency symbols, unit suffixes, regular or non-breaking whitespace, and
// either ',' or '.' as the decimal separator. Returns ok=false when no
// number is present; it never panics on garbage input.
func Parse(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	s := strings.ReplaceAll(text, "\u00a0", " ")
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Format renders v with exactly two decimals and a comma separator, the way
// the source site prints prices: 39.95 -> "39,95".
func Format(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', 2, 64), ".", ",", 1)
}

// FormatPrice renders an optional price value for the display column.
// A nil value renders as the empty string.
func FormatPrice(v *float64) string {
	if v == nil {
		return ""
	}
	return Format(*v)
}

// FormatUnitPrice renders a unit price as "<value> zł/<unit>", e.g.
// "39,95 zł/kg". Either a nil value or an empty unit yields "".
func FormatUnitPrice(v *float64, unit string) string {
	if v == nil || unit == "" {
		return ""
	}
	return Format(*v) + " zł/" + unit
}
