package sku

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/riskintel/internal/htmlutil"
)

// Extract walks every anchor in doc, resolves it against base, and returns
// the normalized, deduped, confidence-sorted set of product-card records.
func Extract(base *url.URL, doc *goquery.Document) []Item {
	if doc == nil || base == nil {
		return nil
	}

	seen := map[string]bool{}
	var items []Item

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)

		if !sameHost(base, abs) {
			return
		}
		if inExcludedAncestor(a) {
			return
		}
		if excludedPathRe.MatchString(abs.Path) {
			return
		}

		card := findProductCard(a)
		title := extractTitle(card, a)
		priceText, amount, origPriceText, origAmount, isOnSale, currency := extractPrice(card)

		hasProductPath := productPathRe.MatchString(abs.Path)
		if !hasProductPath && amount == nil {
			return
		}

		productURL := normalizeProductURL(abs)
		if seen[productURL] {
			return
		}
		seen[productURL] = true

		image := extractImage(card)
		availability := extractAvailability(card)
		confidence := computeConfidence(hasProductPath, amount != nil, title, image, availability != "")

		items = append(items, Item{
			SourceURL:         base.String(),
			ProductURL:        productURL,
			ProductPath:       abs.Path,
			Title:             title,
			PriceText:         priceText,
			Currency:          currency,
			Amount:            amount,
			OriginalPriceText: origPriceText,
			OriginalAmount:    origAmount,
			IsOnSale:          isOnSale,
			AvailabilityHint:  availability,
			ImageURL:          image,
			ExtractionMethod:  "heuristic_v1",
			Confidence:        confidence,
		})
	})

	sort.SliceStable(items, func(i, j int) bool { return items[i].Confidence > items[j].Confidence })
	if len(items) > MaxSKUsPerScan {
		items = items[:MaxSKUsPerScan]
	}
	return items
}

// Summarize builds the homepage_sku_summary data point from a finished
// extraction pass.
func Summarize(items []Item, totalBeforeCap int) Summary {
	s := Summary{TotalDetected: len(items), Method: "heuristic_v1"}
	currencyCounts := map[string]int{}
	for _, it := range items {
		if it.Amount != nil {
			s.WithPrice++
		}
		if it.Title != "" {
			s.WithTitle++
		}
		if it.ImageURL != "" {
			s.WithImage++
		}
		if it.Currency != "" {
			currencyCounts[it.Currency]++
		}
	}
	best := 0
	for cur, n := range currencyCounts {
		if n > best {
			best, s.TopCurrency = n, cur
		}
	}
	if totalBeforeCap > MaxSKUsPerScan {
		s.Notes = append(s.Notes, "truncated to MAX_SKUS_PER_SCAN")
	}
	return s
}

func sameHost(base, target *url.URL) bool {
	return normalizeHost(base.Hostname()) == normalizeHost(target.Hostname())
}

func normalizeHost(h string) string {
	return strings.TrimPrefix(strings.ToLower(h), "www.")
}

func inExcludedAncestor(a *goquery.Selection) bool {
	for _, sel := range navAncestorSelectors {
		if a.Closest(sel).Length() > 0 {
			return true
		}
	}
	return false
}

func findProductCard(a *goquery.Selection) *goquery.Selection {
	for _, sel := range productCardSelectors {
		if card := a.Closest(sel); card.Length() > 0 {
			return card
		}
	}
	// Fall back to the first ancestor within 5 levels with both a
	// price-like element and an image.
	node := a
	for depth := 0; depth < 5; depth++ {
		node = node.Parent()
		if node.Length() == 0 {
			break
		}
		if node.Find("img").Length() > 0 && hasPriceLikeElement(node) {
			return node
		}
	}
	return a
}

func hasPriceLikeElement(sel *goquery.Selection) bool {
	found := false
	sel.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if priceClassRe.MatchString(class) {
			found = true
			return false
		}
		return true
	})
	return found
}

func extractTitle(card, a *goquery.Selection) string {
	candidates := []string{}

	card.Find("h1,h2,h3,h4,h5,h6").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		candidates = append(candidates, strings.TrimSpace(s.Text()))
		return false
	})
	card.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if titleClassRe.MatchString(class) {
			candidates = append(candidates, strings.TrimSpace(s.Text()))
			return false
		}
		return true
	})
	candidates = append(candidates, strings.TrimSpace(a.Text()))
	if alt, ok := a.Find("img").Attr("alt"); ok {
		candidates = append(candidates, strings.TrimSpace(alt))
	}
	if aria, ok := a.Attr("aria-label"); ok {
		candidates = append(candidates, strings.TrimSpace(aria))
	}

	for _, c := range candidates {
		if len(c) >= 3 && len(c) <= 200 {
			return c
		}
	}
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

// extractPrice implements the price-source precedence from spec.md §4.4:
// WooCommerce <del>/<ins> sale pattern first, then a compare-at-price pair,
// then the first plain price-class element, then a bare currency scan.
func extractPrice(card *goquery.Selection) (priceText string, amount *float64, origPriceText string, origAmount *float64, isOnSale bool, currency string) {
	del := card.Find("del").First()
	ins := card.Find("ins").First()
	if del.Length() > 0 && ins.Length() > 0 {
		origText := strings.TrimSpace(del.Text())
		saleText := strings.TrimSpace(ins.Text())
		oa, oc, oOk := htmlutil.ParsePrice(origText)
		sa, sc, sOk := htmlutil.ParsePrice(saleText)
		if sOk {
			amt := sa
			amount = &amt
			priceText = saleText
			currency = sc
			if oOk {
				o := oa
				origAmount = &o
				origPriceText = origText
				isOnSale = o > sa
				if currency == "" {
					currency = oc
				}
			}
			return
		}
	}

	compareAt := card.Find(".compare-at-price").First()
	moneyEl := card.Find(".product-snippet__price .money").First()
	if moneyEl.Length() > 0 {
		text := strings.TrimSpace(moneyEl.Text())
		if a, c, ok := htmlutil.ParsePrice(text); ok {
			amt := a
			amount = &amt
			priceText = text
			currency = c
			if compareAt.Length() > 0 {
				ot := strings.TrimSpace(compareAt.Text())
				if oa, oc, ok := htmlutil.ParsePrice(ot); ok {
					o := oa
					origAmount = &o
					origPriceText = ot
					isOnSale = o > a
					if currency == "" {
						currency = oc
					}
				}
			}
			return
		}
	}

	found := false
	card.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Closest("del").Length() > 0 || s.Is(".compare-at-price") || s.Closest(".compare-at-price").Length() > 0 {
			return true
		}
		class, _ := s.Attr("class")
		if !priceClassRe.MatchString(class) {
			return true
		}
		text := strings.TrimSpace(s.Text())
		if a, c, ok := htmlutil.ParsePrice(text); ok {
			amt := a
			amount = &amt
			priceText = text
			currency = c
			found = true
			return false
		}
		return true
	})
	if found {
		return
	}

	text := strings.TrimSpace(card.Text())
	if a, c, ok := htmlutil.ParsePrice(text); ok {
		amt := a
		amount = &amt
		priceText = text
		currency = c
	}
	return
}

func extractImage(card *goquery.Selection) string {
	img := card.Find("img").First()
	if img.Length() == 0 {
		if bg := findBackgroundImage(card); bg != "" {
			return bg
		}
		return ""
	}
	for _, attr := range []string{"src", "data-src", "data-lazy-src", "data-original"} {
		if v, ok := img.Attr(attr); ok && v != "" && !strings.HasPrefix(v, "data:") {
			return v
		}
	}
	if srcset, ok := img.Attr("srcset"); ok && srcset != "" {
		first := strings.TrimSpace(strings.Split(srcset, ",")[0])
		first = strings.Fields(first)[0]
		if first != "" && !strings.HasPrefix(first, "data:") {
			return first
		}
	}
	if bg := findBackgroundImage(card); bg != "" {
		return bg
	}
	return ""
}

func findBackgroundImage(card *goquery.Selection) string {
	style, ok := card.Attr("style")
	if !ok {
		return ""
	}
	const marker = "background-image"
	idx := strings.Index(style, marker)
	if idx < 0 {
		return ""
	}
	rest := style[idx+len(marker):]
	start := strings.Index(rest, "url(")
	if start < 0 {
		return ""
	}
	rest = rest[start+4:]
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return ""
	}
	url := strings.Trim(rest[:end], `'" `)
	if strings.HasPrefix(url, "data:") {
		return ""
	}
	return url
}

func extractAvailability(card *goquery.Selection) string {
	text := card.Text()
	for _, p := range availabilityPatterns {
		if p.re.MatchString(text) {
			return p.hint
		}
	}
	return ""
}

func normalizeProductURL(u *url.URL) string {
	out := *u
	out.Fragment = ""
	q := out.Query()
	kept := url.Values{}
	for k := range q {
		if keptQueryParams[k] {
			kept.Set(k, q.Get(k))
		}
	}
	out.RawQuery = kept.Encode()
	return out.String()
}

// computeConfidence implements spec.md §4.4's point formula. hasPrice also
// stands in for "amount_parsed" since this package never extracts a price
// string without a parseable amount.
func computeConfidence(isProductURL, hasPrice bool, title, image string, hasAvailability bool) int {
	score := 0
	if isProductURL {
		score += 30
	}
	if hasPrice {
		score += 30
	}
	switch {
	case len(title) >= 3 && len(title) <= 120:
		score += 20
	case title != "":
		score += 10
	}
	if image != "" {
		score += 10
	}
	if hasAvailability {
		score += 5
	}
	if hasPrice {
		score += 5
	}
	return clamp(0, 100, score)
}

func clamp(lo, hi, v int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
