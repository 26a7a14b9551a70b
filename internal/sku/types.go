// Package sku implements the homepage SKU extractor (C9): a heuristic
// product-card parser that turns a homepage's anchor-tagged product links
// into normalized {url, title, price, currency, availability, image}
// records, reusing the same homepage artifact (and browser-fallback
// acquisition) as the policy-link extractor.
package sku

// Item is one normalized product-card record.
type Item struct {
	SourceURL         string
	ProductURL        string
	ProductPath       string
	Title             string
	PriceText         string
	Currency          string
	Amount            *float64
	OriginalPriceText string
	OriginalAmount    *float64
	IsOnSale          bool
	AvailabilityHint  string
	ImageURL          string
	ExtractionMethod  string
	Confidence        int
}

// MaxSKUsPerScan bounds how many SKUs a single scan persists.
const MaxSKUsPerScan = 200

// Summary describes the extraction pass as a whole, for the
// homepage_sku_summary scan data point.
type Summary struct {
	TotalDetected int
	WithPrice     int
	WithTitle     int
	WithImage     int
	TopCurrency   string
	Method        string
	Notes         []string
}
