package signals

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/jmylchreest/riskintel/internal/browser"
	"github.com/jmylchreest/riskintel/internal/fetch"
	"github.com/jmylchreest/riskintel/internal/htmlutil"
	"github.com/jmylchreest/riskintel/internal/policy"
	"github.com/jmylchreest/riskintel/internal/registrar"
)

// Collector runs the ten parallelizable probes (C5) for one scan.
type Collector struct {
	Fetcher      *fetch.Fetcher
	Browser      *browser.Driver
	Whois        registrar.Whois
	HTTPClient   *http.Client
	RDAPTimeout  time.Duration
	Now          func() time.Time
}

// New builds a Collector with the given dependencies. now defaults to
// time.Now if nil.
func New(f *fetch.Fetcher, b *browser.Driver, whois registrar.Whois, httpClient *http.Client, rdapTimeout time.Duration, now func() time.Time) *Collector {
	if now == nil {
		now = time.Now
	}
	return &Collector{Fetcher: f, Browser: b, Whois: whois, HTTPClient: httpClient, RDAPTimeout: rdapTimeout, Now: now}
}

// Artifact is the homepage content handed to C8/C9, paired with its content
// type so callers can skip non-HTML bodies.
type Artifact struct {
	URL         string
	Body        string
	ContentType string
}

// Collect runs all ten probes and returns the assembled signal bundle plus
// the homepage artifact for reuse by C8 (policy links) and C9 (SKUs).
func (c *Collector) Collect(ctx context.Context, fc *policy.FetchContext, scanID, targetURL string) (*DomainIntelSignals, Artifact) {
	now := c.Now()

	reach, res := homepageFetch(ctx, c.Fetcher, fc, targetURL)

	var dns DNS
	var tlsSig TLS
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); dns = dnsProbe(ctx, fc.TargetDomain) }()
	go func() { defer wg.Done(); tlsSig = tlsProbe(ctx, fc.TargetDomain, now) }()
	wg.Wait()

	if c.shouldEscalate(reach, dns, tlsSig) {
		reach.BotProtectionDetected = true
		if c.Browser != nil {
			br := c.Browser.Fetch(ctx, scanID, targetURL, "reachability_fallback", browser.Options{
				WaitForNetworkIdle: false,
				AdditionalWaitMs:   3000,
				Timeout:            c.requestTimeout(fc),
			})
			if br.Error == "" && br.Content != "" {
				res = overwriteWithBrowserResult(res, br)
				reach = reachabilityFromResult(res)
				reach.BotProtectionDetected = true
			}
		}
	}

	redirects := redirectsProbe(fc.TargetDomain, res)
	headers := headersProbe(res.Headers)

	body := string(res.Body)
	doc, _ := htmlutil.ParseDocument(body)

	var forms Forms
	var thirdParty ThirdParty
	var content Content
	if doc != nil {
		forms = formsProbe(doc, fc.TargetDomain, fc.Policy.AllowSubdomains)
		thirdParty = thirdPartyProbe(doc, fc.TargetDomain, fc.Policy.AllowSubdomains)
	}
	content = contentProbe(readableText(body, targetURL))

	var robotsSitemap RobotsSitemap
	var policyPages PolicyPages
	wg.Add(2)
	go func() { defer wg.Done(); robotsSitemap = robotsSitemapProbe(ctx, c.Fetcher, fc, targetURL) }()
	go func() { defer wg.Done(); policyPages = policyPagesProbe(ctx, c.Fetcher, fc, targetURL) }()
	wg.Wait()

	rdap := rdapProbe(ctx, fc.TargetDomain, c.HTTPClient, c.Whois, c.RDAPTimeout, now)

	signals := &DomainIntelSignals{
		SchemaVersion: SchemaVersion,
		CollectedAt:   now,
		TargetURL:     targetURL,
		TargetDomain:  fc.TargetDomain,
		Reachability:  reach,
		Redirects:     redirects,
		DNS:           dns,
		TLS:           tlsSig,
		Headers:       headers,
		RobotsSitemap: robotsSitemap,
		PolicyPages:   policyPages,
		Forms:         forms,
		ThirdParty:    thirdParty,
		Content:       content,
		RDAP:          rdap,
	}

	artifact := Artifact{URL: targetURL, Body: body, ContentType: firstHeader(res.Headers, "content-type")}
	return signals, artifact
}

// shouldEscalate implements spec.md §4.2's escalation condition: a likely
// bot-protection 403 with working DNS/TLS, or an inactive homepage despite
// working DNS/TLS.
func (c *Collector) shouldEscalate(reach Reachability, dns DNS, tlsSig TLS) bool {
	is403 := reach.StatusCode != nil && *reach.StatusCode == 403
	return (is403 && dns.DNSOk && tlsSig.HTTPSOk) || (!reach.IsActive && dns.DNSOk && tlsSig.HTTPSOk)
}

func (c *Collector) requestTimeout(fc *policy.FetchContext) time.Duration {
	ms := fc.Policy.RequestTimeoutMs
	if ms <= 0 {
		ms = 8000
	}
	return time.Duration(ms) * time.Millisecond
}

// readableText extracts the article-body text readability finds in body,
// falling back to a plain tag-stripped pass when the page isn't
// readability-shaped (JSON error bodies, redirects with no HTML, etc.).
// The content probe's regexes run equally well over either, but
// readability's boilerplate removal (nav/footer/ads) keeps the urgency and
// discount keyword counts from being diluted by site chrome.
func readableText(body, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return htmlutil.StripTags(body)
	}
	article, err := readability.FromReader(strings.NewReader(body), u)
	if err != nil || strings.TrimSpace(article.TextContent) == "" {
		return htmlutil.StripTags(body)
	}
	return article.TextContent
}

// overwriteWithBrowserResult implements the "is_active, status_code,
// content_type, latency_ms, bytes, body are overwritten" rule, keeping the
// original redirect chain and final URL.
func overwriteWithBrowserResult(orig fetch.Result, br browser.Result) fetch.Result {
	out := orig
	out.OK = true
	if br.StatusCode != 0 {
		sc := br.StatusCode
		out.StatusCode = &sc
	}
	out.Body = []byte(br.Content)
	out.Bytes = len(br.Content)
	out.LatencyMs = br.FetchDurationMs
	if br.ContentType != "" {
		if out.Headers == nil {
			out.Headers = map[string][]string{}
		}
		out.Headers["content-type"] = []string{br.ContentType}
	}
	return out
}
