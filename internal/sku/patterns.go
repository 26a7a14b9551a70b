package sku

import "regexp"

// productCardSelectors is the ordered ancestor chain tried when locating
// the card enclosing a candidate product link. The first match wins.
var productCardSelectors = []string{
	"li.wc-block-product",
	"li.product",
	"article[class*=product]",
	"li[class*=product]",
	"li[class*=card]",
	"div[class*=product-card]",
	"[class*=product-snippet]",
	"[class*=grid-item]",
	"li",
	"article",
}

// navAncestorSelectors exclude links that live in navigation chrome rather
// than a content grid.
var navAncestorSelectors = []string{
	"nav", "header", "footer", ".nav", ".navigation", ".menu",
	"[role=navigation]", "[role=banner]", "[role=contentinfo]",
}

// excludedPathRe rejects paths that are clearly not a single product page.
var excludedPathRe = regexp.MustCompile(`(?i)^/(cart|checkout|account|login|blog|search|collections?/?$|category|categories|shop/?$|store/?$)(/|$)|^/$`)

// productPathRe is the positive product-path signal.
var productPathRe = regexp.MustCompile(`(?i)/(products?|p|item|sku|dp|listing)/`)

// keptQueryParams are the only query-string keys preserved when normalizing
// a product URL for dedup and persistence.
var keptQueryParams = map[string]bool{
	"id": true, "product_id": true, "item_id": true, "sku": true, "variant": true, "v": true,
}

// titleClassRe matches elements plausibly holding a product title.
var titleClassRe = regexp.MustCompile(`(?i)(title|name|heading)`)

// priceClassRe matches elements plausibly holding a price.
var priceClassRe = regexp.MustCompile(`(?i)(price|cost|amount)`)

// availabilityPatterns are scanned for, in order, against card text.
var availabilityPatterns = []struct {
	re   *regexp.Regexp
	hint string
}{
	{regexp.MustCompile(`(?i)sold out`), "sold_out"},
	{regexp.MustCompile(`(?i)out of stock`), "out_of_stock"},
	{regexp.MustCompile(`(?i)pre[- ]?order`), "preorder"},
	{regexp.MustCompile(`(?i)back[- ]?order`), "backorder"},
	{regexp.MustCompile(`(?i)only \d+ left`), "low_stock"},
	{regexp.MustCompile(`(?i)in stock`), "in_stock"},
}
