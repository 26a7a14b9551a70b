package policylinks

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmylchreest/riskintel/internal/policy"
)

func testPolicy() policy.DomainPolicy {
	return policy.DomainPolicy{
		IsAuthorized:     true,
		AllowSubdomains:  true,
		RespectRobots:    true,
		MaxPagesPerRun:   50,
		MaxDepth:         2,
		CrawlDelayMs:     0,
		RequestTimeoutMs: 8000,
	}
}

func TestAnchorRegexMultilingualCorpus(t *testing.T) {
	tests := []struct {
		typ  Type
		text string
	}{
		{TypePrivacy, "Privacy Policy"},
		{TypePrivacy, "Política de Privacidade"},
		{TypePrivacy, "Politique de confidentialité"},
		{TypePrivacy, "Datenschutzerklärung"},
		{TypePrivacy, "Informativa sulla Privacy"},
		{TypeTerms, "Terms of Service"},
		{TypeTerms, "Termos de Uso"},
		{TypeTerms, "Términos y Condiciones"},
		{TypeTerms, "AGB"},
		{TypeTerms, "Termini e Condizioni"},
		{TypeRefund, "Refund Policy"},
		{TypeRefund, "Política de Devolución"},
		{TypeRefund, "Politique de remboursement"},
		{TypeRefund, "Rückgabe"},
		{TypeRefund, "Rimborso"},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ)+"/"+tt.text, func(t *testing.T) {
			if !anchorRegex(tt.typ).MatchString(tt.text) {
				t.Errorf("anchorRegex(%s) did not match %q", tt.typ, tt.text)
			}
		})
	}
}

func TestParseLLMResponse_TolerantOfCodeFence(t *testing.T) {
	raw := "```json\n{\"matches\":{\"privacy\":1,\"refund\":null,\"terms\":2},\"reasoning\":\"ok\"}\n```"
	resp, err := parseLLMResponse(raw)
	if err != nil {
		t.Fatalf("parseLLMResponse: %v", err)
	}
	if resp.Matches.Privacy == nil || *resp.Matches.Privacy != 1 {
		t.Errorf("expected privacy index 1, got %v", resp.Matches.Privacy)
	}
	if resp.Matches.Refund != nil {
		t.Errorf("expected refund nil, got %v", resp.Matches.Refund)
	}
}

func TestExtract_AnchorAndCommonPathStrategies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<p>Welcome to our store.</p>
			<footer><a href="/privacy-policy">Privacy Policy</a></footer>
		</body></html>`))
	})
	mux.HandleFunc("/privacy-policy", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h1>Privacy Policy</h1><p>We respect your personal data.</p></body></html>`))
	})
	mux.HandleFunc("/terms", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h1>Terms of Service</h1><p>Terms of service apply.</p></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	host := strings.TrimPrefix(strings.TrimPrefix(srv.URL, "http://"), "https://")
	hostOnly := host
	if idx := strings.IndexByte(host, ':'); idx >= 0 {
		hostOnly = host[:idx]
	}

	fc := policy.NewFetchContext("scan-1", testPolicy(), hostOnly)
	extractor := New(nil, nil)

	homepageResp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("fetch homepage: %v", err)
	}
	defer homepageResp.Body.Close()
	buf := make([]byte, 4096)
	n, _ := homepageResp.Body.Read(buf)
	homepageBody := string(buf[:n])

	links, summary := extractor.Extract(t.Context(), fc, "scan-1", srv.URL+"/", homepageBody)

	var gotPrivacy, gotTerms bool
	for _, l := range links {
		switch l.Type {
		case TypePrivacy:
			gotPrivacy = true
			if l.DiscoveryMethod != MethodHomepageHTML {
				t.Errorf("privacy discovery method = %s, want %s", l.DiscoveryMethod, MethodHomepageHTML)
			}
		case TypeTerms:
			gotTerms = true
			if l.DiscoveryMethod != MethodCommonPaths {
				t.Errorf("terms discovery method = %s, want %s", l.DiscoveryMethod, MethodCommonPaths)
			}
		}
	}
	if !gotPrivacy {
		t.Error("expected privacy link resolved via anchor scan")
	}
	if !gotTerms {
		t.Error("expected terms link resolved via common-paths fallback")
	}
	for _, l := range links {
		if l.Type == TypeRefund {
			t.Error("expected refund to remain unresolved, no matching page served")
		}
	}
	if len(summary.AttemptedStrategies) == 0 {
		t.Error("expected at least one attempted strategy recorded")
	}

	// At most one verified link per type.
	seen := map[Type]bool{}
	for _, l := range links {
		if seen[l.Type] {
			t.Errorf("more than one verified link for type %s", l.Type)
		}
		seen[l.Type] = true
	}
}

func TestHighConfidenceBrowserEscalation(t *testing.T) {
	c := Candidate{Type: TypePrivacy, URL: "https://example.com/privacy-policy", Rank: 100, Method: MethodHomepageHTML}
	if !highConfidenceBrowserEscalation(c) {
		t.Error("expected high-rank homepage_html candidate with policy-shaped path to qualify for escalation")
	}
	low := Candidate{Type: TypePrivacy, URL: "https://example.com/privacy-policy", Rank: 40, Method: MethodHomepageHTML}
	if highConfidenceBrowserEscalation(low) {
		t.Error("expected low-rank candidate not to qualify")
	}
	wrongMethod := Candidate{Type: TypePrivacy, URL: "https://example.com/privacy-policy", Rank: 100, Method: MethodCommonPaths}
	if highConfidenceBrowserEscalation(wrongMethod) {
		t.Error("expected common_paths method not to qualify for escalation")
	}
}
