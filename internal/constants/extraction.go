// Package constants defines centralized, frozen configuration values shared
// across the fetch, signal, policy-link, and registrar subsystems.
package constants

import "time"

// Retry and backoff values for downstream calls (RDAP, LLM, browser). No
// caller in this module reads them; those calls are not retried.
const (
	// MaxRetryAttempts is the maximum number of retry attempts per downstream
	// call before giving up.
	MaxRetryAttempts = 3

	// InitialBackoff is the initial delay before the first retry.
	InitialBackoff = 2 * time.Second

	// MaxBackoff caps exponential backoff growth.
	MaxBackoff = 30 * time.Second

	// BackoffMultiplier is the factor by which backoff increases after each retry.
	BackoffMultiplier = 2.0

	// RateLimitBackoff is a longer initial delay specifically for 429 responses.
	RateLimitBackoff = 5 * time.Second
)

// Fetch engine limits (C1).
const (
	// MaxRedirectFollows bounds the redirect chain a single fetch will follow.
	MaxRedirectFollows = 10

	// MaxBodyBytes caps how much of a response body is read (512 KiB).
	MaxBodyBytes = 512 * 1024

	// DesktopUserAgent is the fixed UA string sent on every fetch.
	DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// Crawling behaviour (C5 robots/sitemap probe).
const (
	// HonourRobotsTxt controls whether disallowed paths are skipped for
	// crawl-style discovery. The signal collector always GETs robots.txt to
	// read its directives as a signal regardless of this flag.
	HonourRobotsTxt = false

	// MaxSitemapFetches bounds how many sitemap documents (index + leaves)
	// are fetched per scan.
	MaxSitemapFetches = 5

	// MaxSitemapURLs is a cap on total <url> entries across processed
	// sitemaps. The robots/sitemap probe does not apply it: its count is
	// not capped.
	MaxSitemapURLs = 50000

	// SitemapFetchTimeout is a per-GET sitemap timeout. The probe does not
	// apply it; sitemap GETs use the scan policy's request timeout.
	SitemapFetchTimeout = 30 * time.Second
)

// SKU extraction limits (C9).
const (
	// MaxSKUsPerScan caps the number of homepage SKU items persisted per scan.
	MaxSKUsPerScan = 200
)

// ScanStateFreshness is a maximum age for a persisted `is_active` override.
// The risk scorer does not consult it: the override carries no timestamp
// and is honored whatever its age.
const ScanStateFreshness = 15 * time.Minute
