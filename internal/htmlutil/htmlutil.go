// Package htmlutil provides the regex/goquery-backed HTML helpers shared by
// the signal collector (C5), policy-link extractor (C8), and SKU extractor
// (C9): tag/entity stripping, title extraction, text normalization, and
// price/currency parsing. Spec.md §9 explicitly allows substituting a proper
// HTML parser for the regex-based approach it describes, provided the
// contracts are preserved — this package uses goquery for DOM-shaped work
// and regex only for the flat text passes (content red-flags, currency).
package htmlutil

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	scriptRe     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	titleRe      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
)

// StripTags removes script/style blocks and all remaining tags, decodes
// HTML entities, and normalizes whitespace to single spaces.
func StripTags(body string) string {
	cleaned := scriptRe.ReplaceAllString(body, " ")
	cleaned = styleRe.ReplaceAllString(cleaned, " ")
	cleaned = tagRe.ReplaceAllString(cleaned, " ")
	cleaned = html.UnescapeString(cleaned)
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// ExtractTitle returns the content of the first <title> element, or "".
func ExtractTitle(body string) string {
	m := titleRe.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(whitespaceRe.ReplaceAllString(tagRe.ReplaceAllString(m[1], " "), " ")))
}

// WordCount returns the whitespace-split token count of a text string.
func WordCount(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	return len(strings.Fields(text))
}

// ParseDocument parses raw HTML into a goquery document for DOM-shaped
// traversal (anchors, forms, ancestors). Callers that only need flat text
// should prefer StripTags to avoid the parse cost.
func ParseDocument(body string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

// currencySymbols maps a symbol (longest first) to its ISO-4217 code. Order
// matters: longer, more specific symbols (HK$, NZ$, R$) must be tried before
// the bare "$".
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"HK$", "HKD"}, {"NZ$", "NZD"}, {"A$", "AUD"}, {"C$", "CAD"}, {"S$", "SGD"}, {"R$", "BRL"},
	{"$", "USD"}, {"£", "GBP"}, {"€", "EUR"}, {"¥", "JPY"}, {"₹", "INR"}, {"₱", "PHP"},
	{"₩", "KRW"}, {"₫", "VND"}, {"฿", "THB"}, {"₴", "UAH"},
}

var isoCodeRe = regexp.MustCompile(`\b([A-Z]{3})\b`)

// numberRe finds the first plausible numeric token (with optional thousands
// separators and a decimal part in either dot or comma form).
var numberRe = regexp.MustCompile(`[\d](?:[\d.,\s]*[\d])?`)

// ParsePrice extracts an amount and ISO-4217 currency code from a short text
// fragment such as "$1,299.00" or "EUR 49,90" or "49.90 EUR". It returns
// ok=false if no numeric token could be found.
func ParsePrice(text string) (amount float64, currency string, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, "", false
	}

	for _, cs := range currencySymbols {
		if strings.Contains(text, cs.symbol) {
			currency = cs.code
			break
		}
	}
	if currency == "" {
		if m := isoCodeRe.FindString(text); m != "" {
			currency = m
		}
	}

	numMatch := numberRe.FindString(text)
	if numMatch == "" {
		return 0, currency, false
	}

	amount, ok = normalizeNumber(numMatch)
	if !ok {
		return 0, currency, false
	}
	return amount, currency, true
}

// normalizeNumber strips thousands separators and converts a trailing
// European-style comma decimal to a dot before parsing as float64.
func normalizeNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot == -1 && lastComma == -1:
		// plain integer
	case lastComma > lastDot:
		// comma is the decimal separator: "1.234,56" -> "1234.56"
		s = strings.ReplaceAll(s[:lastComma], ".", "") + "." + s[lastComma+1:]
		s = strings.ReplaceAll(s, ",", "")
	default:
		// dot is the decimal separator: "1,234.56" -> "1234.56"
		s = strings.ReplaceAll(s, ",", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
