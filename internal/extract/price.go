package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kpiotrowski/spizarka/internal/plnum"
)

var (
	// currentPriceRe matches the "Cena aktualna" block:
	//   Cena aktualna
	//   7.99 zł / 1 szt.
	currentPriceRe = regexp.MustCompile(
		`(?i)Cena aktualna\s*[\r\n]+(\d+(?:[.,]\d+)?)\s*zł\s*/\s*1\s*([^\r\n]+)`)

	// unitPriceRe matches the first generic unit price anywhere in the
	// text, e.g. "39,95 zł/kg" or "8.99 zł / szt.".
	unitPriceRe = regexp.MustCompile(
		`(\d+(?:[.,]\d+)?)\s*zł\s*/\s*([a-zA-Ząćęłńóśźż.]+)`)
)

// PriceInfo is the result of the two independent price regex passes over a
// document. A document may yield one, both, or neither; Value and Currency
// are always populated together.
type PriceInfo struct {
	Value    *float64
	Currency string
	Unit     string

	UnitValue     *float64
	UnitPriceUnit string
}

// PriceInfo runs the current-price and unit-price passes over the flattened
// document text. The catalog is single-currency, so a found price always
// carries PLN.
func (e *Extractor) PriceInfo(doc *goquery.Document) PriceInfo {
	if len(doc.Nodes) == 0 {
		return PriceInfo{}
	}
	text := documentText(doc.Nodes[0])

	var info PriceInfo

	if m := currentPriceRe.FindStringSubmatch(text); m != nil {
		if v, ok := plnum.Parse(m[1]); ok {
			info.Value = &v
			info.Currency = "PLN"
			info.Unit = normalizeUnit(m[2])
		}
	}

	if m := unitPriceRe.FindStringSubmatch(text); m != nil {
		if v, ok := plnum.Parse(m[1]); ok {
			info.UnitValue = &v
			info.UnitPriceUnit = normalizeUnit(m[2])
		}
	}

	return info
}

// normalizeUnit lower-cases a denominator label and strips trailing dots:
// "Szt." -> "szt".
func normalizeUnit(s string) string {
	return strings.ToLower(strings.ReplaceAll(cleanText(s), ".", ""))
}
