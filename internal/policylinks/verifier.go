package policylinks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmylchreest/riskintel/internal/constants"
	"github.com/jmylchreest/riskintel/internal/fetch"
	"github.com/jmylchreest/riskintel/internal/htmlutil"
	"github.com/jmylchreest/riskintel/internal/policy"
)

// verifyTimeout is the verifier's own fixed budget, independent of the
// scan's per-fetch policy timeout — verification is a bounded confirmation
// step, not a crawl.
const verifyTimeout = 8 * time.Second

var verifyClient = &http.Client{Timeout: verifyTimeout}

// verifyResult is the outcome of one HEAD-then-GET-fallback attempt.
type verifyResult struct {
	status  int
	body    string
	headers http.Header
	err     error
}

func doVerifyRequest(ctx context.Context, fc *policy.FetchContext, rawURL, method string, discoveredBy policy.DiscoveredBy) verifyResult {
	if !fc.TryReserve(rawURL) {
		return verifyResult{err: fmt.Errorf("fetch budget exhausted")}
	}

	reqCtx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, rawURL, nil)
	if err != nil {
		return verifyResult{err: err}
	}
	req.Header.Set("User-Agent", constants.DesktopUserAgent)

	start := time.Now()
	resp, err := verifyClient.Do(req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		e := err.Error()
		fc.AppendFetchLog(policy.FetchLogEntry{
			URL: rawURL, Method: policy.FetchMethod(method), OK: false,
			DiscoveredBy: discoveredBy, AllowedByPolicy: true, Error: &e, LatencyMs: &latency,
		})
		return verifyResult{err: err}
	}
	defer resp.Body.Close()

	var body string
	if method == http.MethodGet {
		limited := io.LimitReader(resp.Body, int64(constants.MaxBodyBytes))
		raw, _ := io.ReadAll(limited)
		body = string(raw)
	}

	sc := resp.StatusCode
	ok := sc >= 200 && sc < 400
	fc.AppendFetchLog(policy.FetchLogEntry{
		URL: rawURL, Method: policy.FetchMethod(method), StatusCode: &sc, OK: ok,
		DiscoveredBy: discoveredBy, AllowedByPolicy: true, LatencyMs: &latency,
	})
	if final := resp.Request.URL; !fetch.InScope(strings.ToLower(final.Hostname()), fc.TargetDomain, fc.Policy.AllowSubdomains) {
		return verifyResult{status: sc, err: fmt.Errorf("redirected out of scope: %s", final.Hostname())}
	}
	return verifyResult{status: sc, body: body, headers: resp.Header}
}

// highConfidenceBrowserEscalation reports whether a candidate is confident
// enough (rank>=70, from a browser-capable method) and path-shaped enough
// that a plain-HTTP verification failure still warrants one browser retry
// before giving up on the type entirely. MethodLLMSemantic candidates are
// excluded here deliberately: they follow their own browser-first order in
// Extract's verifyCandidate, not this plain-HTTP-first escalation.
func highConfidenceBrowserEscalation(c Candidate) bool {
	if c.Rank < 70 {
		return false
	}
	switch c.Method {
	case MethodHomepageHTML, MethodChromiumRender:
	default:
		return false
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return false
	}
	return pathLooksLikePolicyRe.MatchString(u.Path)
}

// verify confirms one candidate: HEAD for a cheap reachability check, GET to
// confirm it is actually in scope with followed-through content, rejecting
// anything with no content-regex or path-heuristic match. LLM-sourced
// candidates always require a GET body check since their rank alone is not
// grounded in the page's own text. The last GET attempted is returned
// alongside the verdict so a failed verification can still be checked for
// bot protection before the caller decides whether a browser retry is
// warranted.
func verify(ctx context.Context, fc *policy.FetchContext, targetDomain string, c Candidate, discoveredBy policy.DiscoveredBy) (verified bool, note string, lastGet verifyResult) {
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" {
		return false, "invalid url", verifyResult{}
	}
	if !fetch.InScope(strings.ToLower(u.Hostname()), targetDomain, fc.Policy.AllowSubdomains) {
		return false, "url out of scope", verifyResult{}
	}

	head := doVerifyRequest(ctx, fc, c.URL, http.MethodHead, discoveredBy)
	if head.err == nil && head.status >= 200 && head.status < 300 {
		get := doVerifyRequest(ctx, fc, c.URL, http.MethodGet, discoveredBy)
		if get.err != nil {
			return false, fmt.Sprintf("get after head ok failed: %v", get.err), get
		}
		ok, note := evaluateVerifiedContent(get, c, u)
		return ok, note, get
	}

	// HEAD failed, was disallowed, or returned an error status: fall back to GET.
	get := doVerifyRequest(ctx, fc, c.URL, http.MethodGet, discoveredBy)
	if get.err != nil {
		return false, fmt.Sprintf("fetch failed: %v", get.err), get
	}
	if get.status < 200 || get.status >= 400 {
		return false, fmt.Sprintf("status %d", get.status), get
	}
	ok, note := evaluateVerifiedContent(get, c, u)
	return ok, note, get
}

func evaluateVerifiedContent(get verifyResult, c Candidate, u *url.URL) (bool, string) {
	text := htmlutil.StripTags(get.body)
	if contentRegex(c.Type).MatchString(text) {
		return true, "content regex matched"
	}
	if pathLooksLikePolicyRe.MatchString(u.Path) {
		return true, "path heuristic matched"
	}
	return false, "no content or path match"
}
