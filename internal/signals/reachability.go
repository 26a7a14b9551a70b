package signals

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/jmylchreest/riskintel/internal/fetch"
	"github.com/jmylchreest/riskintel/internal/htmlutil"
	"github.com/jmylchreest/riskintel/internal/policy"
	"github.com/jmylchreest/riskintel/internal/protection"
)

// homepageFetch performs the reachability probe (A) and returns the signal
// plus the fetch.Result, which callers reuse as the source body for the
// other text-based probes instead of re-fetching.
func homepageFetch(ctx context.Context, f *fetch.Fetcher, fc *policy.FetchContext, targetURL string) (Reachability, fetch.Result) {
	res := f.Fetch(ctx, fc, targetURL, policy.DiscoveredHomepage, fetch.DefaultOptions())
	return reachabilityFromResult(res), res
}

// reachabilityFromResult derives the Reachability signal from an
// already-performed fetch.Result, used both for the initial HTTP attempt
// and after a browser-escalation overwrite.
func reachabilityFromResult(res fetch.Result) Reachability {
	r := Reachability{IsActive: res.OK}
	if res.StatusCode != nil {
		sc := *res.StatusCode
		r.StatusCode = &sc
	}
	if ct := firstHeader(res.Headers, "content-type"); ct != "" {
		r.ContentType = &ct
	}
	if res.LatencyMs > 0 {
		lm := res.LatencyMs
		r.LatencyMs = &lm
	}
	if res.Bytes > 0 {
		b := res.Bytes
		r.Bytes = &b
	}

	body := string(res.Body)
	stripped := htmlutil.StripTags(body)
	r.HomepageTextWordCount = htmlutil.WordCount(stripped)
	r.HTMLTitle = htmlutil.ExtractTitle(body)

	statusCode := 0
	if res.StatusCode != nil {
		statusCode = *res.StatusCode
	}
	det := protection.NewDetector().DetectFromResponse(statusCode, res.Headers, res.Body)
	r.BotProtectionDetected = det.Detected

	return r
}

func firstHeader(h map[string][]string, key string) string {
	if v, ok := h[strings.ToLower(key)]; ok && len(v) > 0 {
		return v[0]
	}
	return ""
}

var (
	metaRefreshRe = regexp.MustCompile(`(?i)<meta[^>]+http-equiv\s*=\s*["']?refresh`)
	jsRedirectRe  = regexp.MustCompile(`(?i)(window\.)?location(\.href)?\s*=|location\.replace\(|location\.assign\(`)
)

// redirectsProbe implements probe B from the already-fetched homepage
// fetch.Result's redirect chain and final URL.
func redirectsProbe(targetDomain string, res fetch.Result) Redirects {
	r := Redirects{
		FinalURL:            res.FinalURL,
		RedirectChainLength: len(res.RedirectChain),
	}

	normalizedInput := normalizeWWW(targetDomain)
	var finalHost string
	if h := hostOf(res.FinalURL); h != "" {
		finalHost = normalizeWWW(h)
	}
	r.CrossDomainRedirect = finalHost != "" && finalHost != normalizedInput

	body := string(res.Body)
	snippet := body
	if len(snippet) > 50*1024 {
		snippet = snippet[:50*1024]
	}
	r.MetaRefreshPresent = metaRefreshRe.MatchString(body)
	r.JSRedirectHint = jsRedirectRe.MatchString(snippet)

	return r
}

func normalizeWWW(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

func hostOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
