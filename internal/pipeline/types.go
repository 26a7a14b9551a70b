// Package pipeline implements the orchestrating runner (C11): it binds a
// scanId to a (domain, policy) pair, drives C5 (signal collection), C8
// (policy-link discovery), C9 (SKU extraction), and C10 (risk scoring) in
// sequence, and persists every result through the store.
package pipeline

import (
	"time"

	"github.com/jmylchreest/riskintel/internal/browser"
	"github.com/jmylchreest/riskintel/internal/fetch"
	"github.com/jmylchreest/riskintel/internal/policylinks"
	"github.com/jmylchreest/riskintel/internal/registrar"
	"github.com/jmylchreest/riskintel/internal/risk"
	"github.com/jmylchreest/riskintel/internal/signals"
	"github.com/jmylchreest/riskintel/internal/sku"
	"github.com/jmylchreest/riskintel/internal/store"
)

// Result is what runRiskIntelPipeline returns: the assessment is always
// populated (possibly a failed one); signals is nil only when scoring
// short-circuited before C5 ran.
type Result struct {
	Assessment risk.Assessment
	Signals    *signals.DomainIntelSignals
	Error      string
}

// Runner wires together every dependency C5/C8/C9/C10 need, plus the store
// that persists their output.
type Runner struct {
	Store      *store.Store
	Blobs      *store.BlobStore
	Collector  *signals.Collector
	Extractor  *policylinks.Extractor
	Browser    *browser.Driver
	Fetcher    *fetch.Fetcher
	Whois      registrar.Whois

	DefaultMaxPagesPerRun   int
	DefaultCrawlDelayMs     int
	DefaultRequestTimeoutMs int
	DefaultMaxDepth         int
	DefaultAllowSubdomains  bool
	DefaultRespectRobots    bool

	SnippetCap int
	Now        func() time.Time
}
