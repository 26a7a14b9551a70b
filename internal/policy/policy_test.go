package policy

import (
	"fmt"
	"sync"
	"testing"
)

func testPolicy(maxPages int) DomainPolicy {
	return DomainPolicy{
		IsAuthorized:     true,
		AllowSubdomains:  true,
		RespectRobots:    true,
		MaxPagesPerRun:   maxPages,
		MaxDepth:         2,
		CrawlDelayMs:     0,
		RequestTimeoutMs: 8000,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       DomainPolicy
		wantErr bool
	}{
		{"valid", testPolicy(50), false},
		{"zero max pages", testPolicy(0), true},
		{"negative max depth", DomainPolicy{MaxPagesPerRun: 1, MaxDepth: -1, RequestTimeoutMs: 8000}, true},
		{"negative crawl delay", DomainPolicy{MaxPagesPerRun: 1, CrawlDelayMs: -1, RequestTimeoutMs: 8000}, true},
		{"timeout too low", DomainPolicy{MaxPagesPerRun: 1, RequestTimeoutMs: 500}, true},
		{"timeout too high", DomainPolicy{MaxPagesPerRun: 1, RequestTimeoutMs: 20000}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestTryReserve_BudgetBoundary covers spec.md I2 and the "maxPagesPerRun+1 is
// blocked" boundary scenario from §8.
func TestTryReserve_BudgetBoundary(t *testing.T) {
	c := NewFetchContext("scan-1", testPolicy(3), "example.com")

	for i := 0; i < 3; i++ {
		if !c.TryReserve(fmt.Sprintf("https://example.com/%d", i)) {
			t.Fatalf("reserve %d should succeed within budget", i)
		}
	}
	if c.TryReserve("https://example.com/over-budget") {
		t.Error("reserve beyond maxPagesPerRun should fail")
	}
	if c.FetchCount() != 3 {
		t.Errorf("FetchCount() = %d, want 3", c.FetchCount())
	}
}

// TestTryReserve_Concurrent covers I2 under concurrent probes: fetchCount
// must never exceed the budget regardless of goroutine interleaving.
func TestTryReserve_Concurrent(t *testing.T) {
	const budget = 10
	c := NewFetchContext("scan-2", testPolicy(budget), "example.com")

	var wg sync.WaitGroup
	var successes int64
	var mu sync.Mutex
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if c.TryReserve(fmt.Sprintf("https://example.com/%d", i)) {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if successes != budget {
		t.Errorf("successes = %d, want %d", successes, budget)
	}
	if c.FetchCount() != budget {
		t.Errorf("FetchCount() = %d, want %d", c.FetchCount(), budget)
	}
}

// TestAppendFetchLog_BlockedDoesNotReserve covers I1: a disallowed fetch log
// entry must not have consumed fetch budget.
func TestAppendFetchLog_BlockedDoesNotReserve(t *testing.T) {
	c := NewFetchContext("scan-3", testPolicy(5), "example.com")

	reason := "Domain evil.com not authorized (target: example.com)"
	c.AppendFetchLog(FetchLogEntry{
		URL:             "https://evil.com/",
		Method:          MethodGet,
		OK:              false,
		DiscoveredBy:    DiscoveredCrawl,
		AllowedByPolicy: false,
		BlockedReason:   &reason,
	})

	if c.FetchCount() != 0 {
		t.Errorf("FetchCount() = %d, want 0 for a blocked fetch", c.FetchCount())
	}
	logs := c.FetchLogs()
	if len(logs) != 1 || logs[0].AllowedByPolicy {
		t.Error("expected exactly one disallowed log entry")
	}
}

func TestFetchContext_OrderedAppend(t *testing.T) {
	c := NewFetchContext("scan-4", testPolicy(5), "example.com")
	for i := 0; i < 5; i++ {
		c.AppendSignalLog(SignalLogEntry{Category: "test", Name: fmt.Sprintf("n%d", i), ValueType: ValueNumber})
	}
	logs := c.SignalLogs()
	for i, l := range logs {
		if l.Name != fmt.Sprintf("n%d", i) {
			t.Errorf("signal logs out of append order at %d: got %s", i, l.Name)
		}
	}
}
