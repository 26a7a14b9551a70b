package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/jmylchreest/riskintel/internal/fetch"
	"github.com/jmylchreest/riskintel/internal/pipeline"
	"github.com/jmylchreest/riskintel/internal/policylinks"
	"github.com/jmylchreest/riskintel/internal/signals"
	"github.com/jmylchreest/riskintel/internal/store"
	"github.com/jmylchreest/riskintel/internal/store/migrations"
)

const testJWTSecret = "test-secret"

type stubWhois struct{}

func (stubWhois) Lookup(ctx context.Context, domain string) (string, error) {
	return "", sql.ErrNoRows
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	st := store.New(db)
	runner := &pipeline.Runner{
		Store:                   st,
		Collector:               signals.New(fetch.New(), nil, stubWhois{}, &http.Client{Timeout: 2 * time.Second}, 2*time.Second, nil),
		Extractor:               policylinks.New(nil, nil),
		DefaultAllowSubdomains:  true,
		DefaultRespectRobots:    true,
		DefaultMaxPagesPerRun:   50,
		DefaultRequestTimeoutMs: 5000,
		DefaultMaxDepth:         2,
	}

	router := chi.NewRouter()
	api := humachi.New(router, NewHumaConfig("http://test"))
	api.UseMiddleware(HumaAuth(api, testJWTSecret))
	Register(api, NewHandlers(runner, st))

	return httptest.NewServer(router)
}

func signedToken(t *testing.T) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "test-caller", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func targetFixture() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Test Co</title></head><body>hello</body></html>`))
	})
	return httptest.NewServer(mux)
}

func TestHealthCheck_NoAuthRequired(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /api/v1/health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestCreateScan_MissingAuthIsRejected(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	body, _ := json.Marshal(map[string]string{"url": "https://example.com"})
	resp, err := http.Post(srv.URL+"/api/v1/scans", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/v1/scans: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestCreateScanThenGetScan_EndToEnd(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	target := targetFixture()
	defer target.Close()

	token := signedToken(t)

	body, _ := json.Marshal(map[string]string{"url": target.URL})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/scans", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /api/v1/scans: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var created ScanResultBody
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ScanID == "" {
		t.Fatal("expected a non-empty scan_id")
	}
	if created.Assessment == nil {
		t.Fatal("expected an assessment in the create response")
	}

	getReq, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/scans/"+created.ScanID, nil)
	getReq.Header.Set("Authorization", "Bearer "+token)
	getResp, err := http.DefaultClient.Do(getReq)
	if err != nil {
		t.Fatalf("GET /api/v1/scans/%s: %v", created.ScanID, err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", getResp.StatusCode)
	}

	var fetched ScanResultBody
	if err := json.NewDecoder(getResp.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if fetched.Status != "completed" {
		t.Errorf("status = %q, want completed", fetched.Status)
	}
	if fetched.Assessment == nil {
		t.Fatal("expected an assessment in the get response")
	}
}

func TestGetScan_UnknownIDReturns404(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/scans/nonexistent", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/v1/scans/nonexistent: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
