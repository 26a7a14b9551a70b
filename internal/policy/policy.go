// Package policy defines the per-scan authorization envelope (DomainPolicy)
// and the mutable fetch-tracking context (FetchContext) shared by every
// probe in a scan. FetchContext is the one piece of mutable shared state in
// the whole pipeline: it is written from many goroutines (one per probe) and
// must serialize its own mutations.
package policy

import (
	"fmt"
	"sync"
)

// DomainPolicy is immutable for the lifetime of one scan.
type DomainPolicy struct {
	IsAuthorized          bool
	AllowSubdomains       bool
	RespectRobots         bool
	AllowRobotsDisallowed bool
	MaxPagesPerRun        int
	MaxDepth              int
	CrawlDelayMs          int
	RequestTimeoutMs      int
}

// Validate checks the invariants spec.md §3 places on DomainPolicy's fields.
func (p DomainPolicy) Validate() error {
	if p.MaxPagesPerRun <= 0 {
		return fmt.Errorf("policy: maxPagesPerRun must be > 0, got %d", p.MaxPagesPerRun)
	}
	if p.MaxDepth < 0 {
		return fmt.Errorf("policy: maxDepth must be >= 0, got %d", p.MaxDepth)
	}
	if p.CrawlDelayMs < 0 {
		return fmt.Errorf("policy: crawlDelayMs must be >= 0, got %d", p.CrawlDelayMs)
	}
	if p.RequestTimeoutMs < 1000 || p.RequestTimeoutMs > 10000 {
		return fmt.Errorf("policy: requestTimeoutMs must be in [1000,10000], got %d", p.RequestTimeoutMs)
	}
	return nil
}

// DiscoveredBy enumerates the reasons a fetch was attempted.
type DiscoveredBy string

const (
	DiscoveredHomepage           DiscoveredBy = "risk_intel_homepage"
	DiscoveredRobots             DiscoveredBy = "robots"
	DiscoveredSitemap            DiscoveredBy = "sitemap"
	DiscoveredPolicyCheck        DiscoveredBy = "policy_check"
	DiscoveredCrawl              DiscoveredBy = "crawl"
	DiscoveredContactPage        DiscoveredBy = "contact_page"
	DiscoveredPolicyLinkCheck    DiscoveredBy = "policy_link_check"
	DiscoveredPolicyLinksHome    DiscoveredBy = "policy_links_homepage"
	DiscoveredPolicyLinksBrowser DiscoveredBy = "policy_links_browser"
	DiscoveredPolicyLinksChrome  DiscoveredBy = "policy_links_chromium"
	DiscoveredPolicyLinkVerify   DiscoveredBy = "policy_link_browser_verify"
	DiscoveredHomepageSKUs       DiscoveredBy = "homepage_skus"
	DiscoveredReachabilityFallback DiscoveredBy = "reachability_fallback"
)

// FetchMethod is the HTTP method of a logged fetch attempt.
type FetchMethod string

const (
	MethodGet  FetchMethod = "GET"
	MethodHead FetchMethod = "HEAD"
)

// ValueType enumerates the kind of value carried by a SignalLogEntry.
type ValueType string

const (
	ValueNumber  ValueType = "number"
	ValueString  ValueType = "string"
	ValueBoolean ValueType = "boolean"
	ValueJSON    ValueType = "json"
)

// Severity classifies how noteworthy a signal log entry is.
type Severity string

const (
	SeverityInfo      Severity = "info"
	SeverityWarning   Severity = "warning"
	SeverityRiskHint  Severity = "risk_hint"
)

// SignalLogEntry is a typed, append-only record of one probe outcome.
type SignalLogEntry struct {
	Category     string
	Name         string
	ValueType    ValueType
	ValueNumber  *float64
	ValueString  *string
	ValueBoolean *bool
	ValueJSON    *string
	Severity     Severity
	EvidenceURL  *string
	Notes        *string
}

// FetchLogEntry records the outcome of one fetch attempt, allowed or not.
type FetchLogEntry struct {
	URL             string
	Method          FetchMethod
	StatusCode      *int
	OK              bool
	LatencyMs       *int64
	Bytes           *int
	ContentType     *string
	DiscoveredBy    DiscoveredBy
	AllowedByPolicy bool
	BlockedReason   *string
	Error           *string
}

// FetchContext is owned by exactly one scan and lives only for the duration
// of one collectSignals call. Every field below `targetDomain` is mutated
// concurrently by probes and must go through the methods on this type, which
// serialize access with mu.
type FetchContext struct {
	ScanID       string
	Policy       DomainPolicy
	TargetDomain string // lowercased registrable hostname

	mu          sync.Mutex
	fetchCount  int
	fetchLogs   []FetchLogEntry
	signalLogs  []SignalLogEntry
	urlsChecked []string
	errs        []string
}

// NewFetchContext builds a FetchContext for one scan.
func NewFetchContext(scanID string, p DomainPolicy, targetDomain string) *FetchContext {
	return &FetchContext{
		ScanID:       scanID,
		Policy:       p,
		TargetDomain: targetDomain,
	}
}

// FetchCount returns the current, monotonic fetch counter.
func (c *FetchContext) FetchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchCount
}

// TryReserve attempts to reserve one unit of fetch budget for url. It returns
// false (without mutating state) if the budget is exhausted; callers must
// not perform the network call in that case. On success it increments
// fetchCount and records url as checked, both before the network call, per
// spec.md §4.1's budget-check ordering.
func (c *FetchContext) TryReserve(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetchCount >= c.Policy.MaxPagesPerRun {
		return false
	}
	c.fetchCount++
	c.urlsChecked = append(c.urlsChecked, url)
	return true
}

// AppendFetchLog appends one fetch log entry in the order it is observed.
func (c *FetchContext) AppendFetchLog(e FetchLogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchLogs = append(c.fetchLogs, e)
}

// AppendSignalLog appends one signal log entry in the order it is observed.
func (c *FetchContext) AppendSignalLog(e SignalLogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signalLogs = append(c.signalLogs, e)
}

// AppendError records a non-fatal error observed by a probe.
func (c *FetchContext) AppendError(err string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

// FetchLogs returns a copy of the fetch logs recorded so far.
func (c *FetchContext) FetchLogs() []FetchLogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]FetchLogEntry, len(c.fetchLogs))
	copy(out, c.fetchLogs)
	return out
}

// SignalLogs returns a copy of the signal logs recorded so far.
func (c *FetchContext) SignalLogs() []SignalLogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SignalLogEntry, len(c.signalLogs))
	copy(out, c.signalLogs)
	return out
}

// URLsChecked returns a copy of every URL that consumed fetch budget.
func (c *FetchContext) URLsChecked() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.urlsChecked))
	copy(out, c.urlsChecked)
	return out
}

// Errors returns a copy of the non-fatal errors recorded so far.
func (c *FetchContext) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.errs))
	copy(out, c.errs)
	return out
}
