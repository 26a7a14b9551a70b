package pipeline

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/jmylchreest/riskintel/internal/fetch"
	"github.com/jmylchreest/riskintel/internal/policylinks"
	"github.com/jmylchreest/riskintel/internal/risk"
	"github.com/jmylchreest/riskintel/internal/signals"
	"github.com/jmylchreest/riskintel/internal/store"
	"github.com/jmylchreest/riskintel/internal/store/migrations"
)

// stubWhois always fails, driving the registrar lookup's RDAP/WHOIS both
// down a deterministic path for a local test server's made-up hostname.
type stubWhois struct{}

func (stubWhois) Lookup(ctx context.Context, domain string) (string, error) {
	return "", sql.ErrNoRows
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func cleanCorporateServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		_, _ = w.Write([]byte(`<html><head><title>Example Corp</title></head><body>
			<p>` + longWords(900) + `</p>
			<footer><a href="/privacy">Privacy Policy</a> <a href="/terms">Terms of Service</a></footer>
		</body></html>`))
	})
	mux.HandleFunc("/privacy", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>Privacy policy text.</body></html>`))
	})
	mux.HandleFunc("/terms", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>Terms of service text.</body></html>`))
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow:\n"))
	})
	return httptest.NewServer(mux)
}

func longWords(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += "word "
	}
	return out
}

func newTestRunner(t *testing.T, db *sql.DB) *Runner {
	t.Helper()
	collector := signals.New(fetch.New(), nil, stubWhois{}, &http.Client{Timeout: 2 * time.Second}, 2*time.Second, nil)
	extractor := policylinks.New(nil, nil)
	return &Runner{
		Store:                   store.New(db),
		Collector:               collector,
		Extractor:               extractor,
		DefaultAllowSubdomains:  true,
		DefaultRespectRobots:    true,
		DefaultMaxPagesPerRun:   50,
		DefaultCrawlDelayMs:     0,
		DefaultRequestTimeoutMs: 5000,
		DefaultMaxDepth:         2,
	}
}

func TestRun_CleanCorporateSiteEndToEnd(t *testing.T) {
	srv := cleanCorporateServer()
	defer srv.Close()

	db := setupTestDB(t)
	r := newTestRunner(t, db)
	ctx := context.Background()

	domain, err := r.Store.UpsertDomain(ctx, hostnameOf(t, srv.URL))
	if err != nil {
		t.Fatalf("upsert domain: %v", err)
	}
	scanID, err := r.Store.CreateScan(ctx, domain.ID, srv.URL)
	if err != nil {
		t.Fatalf("create scan: %v", err)
	}

	result := r.Run(ctx, scanID, srv.URL)

	if result.Error != "" {
		t.Fatalf("unexpected pipeline error: %s", result.Error)
	}
	if result.Signals == nil {
		t.Fatal("expected signals to be populated")
	}
	if !result.Signals.Reachability.IsActive {
		t.Error("expected homepage to be reachable")
	}
	if result.Assessment.OverallRiskScore > 30 {
		t.Errorf("overall risk score = %d, want a low score for a clean site", result.Assessment.OverallRiskScore)
	}

	scanState, err := r.Store.FindScan(ctx, scanID)
	if err != nil {
		t.Fatalf("find scan: %v", err)
	}
	if scanState == nil {
		t.Fatal("expected scan state to be persisted")
	}
}

func TestRun_InvalidURLShortCircuits(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRunner(t, db)
	ctx := context.Background()

	domain, err := r.Store.UpsertDomain(ctx, "invalid.example")
	if err != nil {
		t.Fatalf("upsert domain: %v", err)
	}
	scanID, err := r.Store.CreateScan(ctx, domain.ID, "")
	if err != nil {
		t.Fatalf("create scan: %v", err)
	}

	result := r.Run(ctx, scanID, "")

	if result.Error == "" {
		t.Fatal("expected an error for an empty URL")
	}
	if result.Assessment.PrimaryRiskType != risk.TypeShellCompany {
		t.Errorf("primary risk type = %q, want shell_company (failed-assessment default)", result.Assessment.PrimaryRiskType)
	}
	if result.Assessment.OverallRiskScore != 0 {
		t.Errorf("overall risk score = %d, want 0 for a failed assessment", result.Assessment.OverallRiskScore)
	}
}

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in, wantHost string
		wantErr      bool
	}{
		{"https://Example.COM/path", "example.com", false},
		{"example.com", "example.com", false},
		{"ftp://example.com", "", true},
		{"", "", true},
	}
	for _, c := range cases {
		_, host, err := NormalizeURL(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("NormalizeURL(%q): expected error, got none", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeURL(%q): unexpected error: %v", c.in, err)
		}
		if host != c.wantHost {
			t.Errorf("NormalizeURL(%q): host = %q, want %q", c.in, host, c.wantHost)
		}
	}
}

func hostnameOf(t *testing.T, rawURL string) string {
	t.Helper()
	_, host, err := NormalizeURL(rawURL)
	if err != nil {
		t.Fatalf("parse test server URL: %v", err)
	}
	return host
}
