// Package fetch implements the policy-gated HTTP fetch engine (C1): scope
// enforcement, budget accounting, manual redirect handling, and byte caps,
// all funnelled through policy.FetchContext so every attempt — allowed or
// not — ends up in the scan's fetch log.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/riskintel/internal/constants"
	"github.com/jmylchreest/riskintel/internal/policy"
)

// Options configures one Fetch call.
type Options struct {
	Method          policy.FetchMethod
	FollowRedirects bool
}

// DefaultOptions returns the spec's default GET-with-redirects options.
func DefaultOptions() Options {
	return Options{Method: policy.MethodGet, FollowRedirects: true}
}

// Result is the outcome of one Fetch call.
type Result struct {
	OK            bool
	StatusCode    *int
	Body          []byte
	Headers       map[string][]string // lowercased header names
	RedirectChain []string
	FinalURL      string
	LatencyMs     int64
	Bytes         int
	Error         string
}

// InScope reports whether host h is within scope of targetDomain given the
// allowSubdomains flag: exact match, or a proper subdomain when permitted.
func InScope(h, targetDomain string, allowSubdomains bool) bool {
	h = strings.ToLower(h)
	targetDomain = strings.ToLower(targetDomain)
	if h == targetDomain {
		return true
	}
	return allowSubdomains && strings.HasSuffix(h, "."+targetDomain)
}

// Fetcher performs policy-gated HTTP fetches for one scan.
type Fetcher struct {
	client *http.Client
}

// New builds a Fetcher. The underlying client never follows redirects
// automatically — redirects are handled by the hop loop in Fetch so each hop
// can be scope-checked.
func New() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Fetch performs a single scope-checked, budget-accounted HTTP fetch.
func (f *Fetcher) Fetch(ctx context.Context, fc *policy.FetchContext, rawURL string, discoveredBy policy.DiscoveredBy, opts Options) Result {
	if opts.Method == "" {
		opts.Method = policy.MethodGet
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		reason := fmt.Sprintf("Invalid URL: %s", rawURL)
		f.logBlocked(fc, rawURL, opts, discoveredBy, reason)
		return Result{OK: false, Error: reason}
	}

	host := strings.ToLower(u.Hostname())
	if !InScope(host, fc.TargetDomain, fc.Policy.AllowSubdomains) {
		reason := fmt.Sprintf("Domain %s not authorized (target: %s)", host, fc.TargetDomain)
		f.logBlocked(fc, rawURL, opts, discoveredBy, reason)
		return Result{OK: false, Error: reason}
	}

	if !fc.TryReserve(rawURL) {
		reason := "Max fetch count exceeded"
		f.logBlocked(fc, rawURL, opts, discoveredBy, reason)
		return Result{OK: false, Error: reason}
	}

	start := time.Now()
	res := f.doWithRedirects(ctx, fc, u, opts, discoveredBy)
	res.LatencyMs = time.Since(start).Milliseconds()

	res.OK = res.Error == "" && res.StatusCode != nil && *res.StatusCode >= 200 && *res.StatusCode < 400

	entry := policy.FetchLogEntry{
		URL:             rawURL,
		Method:          opts.Method,
		OK:              res.OK,
		DiscoveredBy:    discoveredBy,
		AllowedByPolicy: true,
		LatencyMs:       &res.LatencyMs,
	}
	if res.StatusCode != nil {
		entry.StatusCode = res.StatusCode
	}
	if res.Error != "" {
		entry.Error = &res.Error
	}
	if len(res.Body) > 0 {
		b := len(res.Body)
		entry.Bytes = &b
	}
	if ct := firstHeader(res.Headers, "content-type"); ct != "" {
		entry.ContentType = &ct
	}
	fc.AppendFetchLog(entry)

	if res.OK {
		sleepCrawlDelay(fc.Policy.CrawlDelayMs)
	}

	return res
}

func (f *Fetcher) logBlocked(fc *policy.FetchContext, rawURL string, opts Options, discoveredBy policy.DiscoveredBy, reason string) {
	fc.AppendFetchLog(policy.FetchLogEntry{
		URL:             rawURL,
		Method:          opts.Method,
		OK:              false,
		DiscoveredBy:    discoveredBy,
		AllowedByPolicy: false,
		BlockedReason:   &reason,
	})
}

// doWithRedirects performs the request and follows up to MaxRedirectFollows
// 3xx hops, scope-checking each target before following it.
func (f *Fetcher) doWithRedirects(ctx context.Context, fc *policy.FetchContext, u *url.URL, opts Options, discoveredBy policy.DiscoveredBy) Result {
	current := u
	var chain []string

	timeout := time.Duration(fc.Policy.RequestTimeoutMs) * time.Millisecond

	for hop := 0; hop <= constants.MaxRedirectFollows; hop++ {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		req, err := http.NewRequestWithContext(reqCtx, string(opts.Method), current.String(), nil)
		if err != nil {
			cancel()
			return Result{Error: err.Error(), FinalURL: current.String(), RedirectChain: chain}
		}
		setRequestHeaders(req)

		resp, err := f.client.Do(req)
		if err != nil {
			cancel()
			return Result{Error: err.Error(), FinalURL: current.String(), RedirectChain: chain}
		}

		isRedirect := resp.StatusCode >= 300 && resp.StatusCode < 400
		loc := resp.Header.Get("Location")

		if isRedirect && loc != "" && opts.FollowRedirects {
			resp.Body.Close()
			cancel()

			next, err := current.Parse(loc)
			if err != nil {
				return Result{Error: fmt.Sprintf("invalid redirect location: %s", loc), FinalURL: current.String(), RedirectChain: chain}
			}
			chain = append(chain, current.String())

			nextHost := strings.ToLower(next.Hostname())
			if !InScope(nextHost, fc.TargetDomain, fc.Policy.AllowSubdomains) {
				return Result{
					Error:         fmt.Sprintf("Redirect to disallowed domain: %s", next.String()),
					FinalURL:      next.String(),
					RedirectChain: chain,
				}
			}
			current = next
			continue
		}

		// Terminal response (not a redirect, or FollowRedirects=false: return as-is).
		result := Result{
			FinalURL:      current.String(),
			RedirectChain: chain,
			Headers:       lowercaseHeaders(resp.Header),
		}
		sc := resp.StatusCode
		result.StatusCode = &sc

		if opts.Method == policy.MethodGet {
			body, truncated, readErr := readBodyCapped(resp.Body, resp.ContentLength)
			resp.Body.Close()
			cancel()
			if readErr != nil {
				result.Error = readErr.Error()
				return result
			}
			result.Body = body
			result.Bytes = len(body)
			_ = truncated
		} else {
			resp.Body.Close()
			cancel()
		}
		return result
	}

	return Result{Error: "too many redirects", FinalURL: current.String(), RedirectChain: chain}
}

func setRequestHeaders(req *http.Request) {
	req.Header.Set("User-Agent", constants.DesktopUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}

// readBodyCapped reads up to constants.MaxBodyBytes, decoding as UTF-8 with
// replacement for invalid sequences, and reports whether it truncated.
func readBodyCapped(r io.Reader, contentLength int64) (body []byte, truncated bool, err error) {
	limit := int64(constants.MaxBodyBytes)
	if contentLength > 0 && contentLength <= limit {
		limit = contentLength
	}
	limited := io.LimitReader(r, limit+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, false, err
	}
	if int64(len(raw)) > limit {
		raw = raw[:limit]
		truncated = true
	}
	return []byte(strings.ToValidUTF8(string(raw), "�")), truncated, nil
}

func lowercaseHeaders(h http.Header) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = v
	}
	return out
}

func firstHeader(h map[string][]string, key string) string {
	if h == nil {
		return ""
	}
	if v, ok := h[strings.ToLower(key)]; ok && len(v) > 0 {
		return v[0]
	}
	return ""
}

func sleepCrawlDelay(ms int) {
	if ms <= 0 {
		return
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// ContentLengthHeader parses the Content-Length header, reporting false when
// it is absent or not an integer. No caller in this module uses it.
func ContentLengthHeader(h map[string][]string) (int64, bool) {
	v := firstHeader(h, "content-length")
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
