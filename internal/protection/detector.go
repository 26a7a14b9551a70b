// Package protection classifies an HTTP response as bot-protected or
// JS-gated. Both C5 (reachability escalation) and C8 (policy-link
// verification) share one Detector instance so a failed plain-HTTP fetch is
// only retried through the browser when the failure actually looks like a
// challenge page rather than a genuinely missing resource.
package protection

import (
	"net/http"
	"regexp"
	"strings"
)

// SignalType identifies the type of protection detected.
type SignalType string

const (
	SignalNone               SignalType = ""
	SignalCloudflare         SignalType = "cloudflare"
	SignalCaptcha            SignalType = "captcha"
	SignalAccessDenied       SignalType = "access_denied"
	SignalRateLimited        SignalType = "rate_limited"
	SignalEmptyContent       SignalType = "empty_content"
	SignalJavaScriptRequired SignalType = "javascript_required"
)

// DetectionResult is the outcome of one classification pass.
type DetectionResult struct {
	// Detected is true if any protection signal was found.
	Detected bool

	// Signal identifies the type of protection detected.
	Signal SignalType

	// Confidence is a score from 0-100 indicating detection confidence.
	Confidence int

	// Description provides a human-readable explanation.
	Description string

	// SuggestDynamic is true if the page is worth re-fetching through the
	// headless browser (the C2 escalation path) rather than accepted as
	// final.
	SuggestDynamic bool
}

// Detector classifies HTTP responses against a fixed set of bot-protection
// and JS-rendering signatures. Zero value is unusable; use NewDetector.
type Detector struct {
	// MinContentLength is the minimum expected body length for a real page.
	// Shorter bodies that don't otherwise look like a real page are treated
	// as a likely challenge or error response.
	MinContentLength int
}

// challengeBodySizeCap bounds the "small body + challenge keyword" rule: a
// Cloudflare-style interstitial is nearly always well under this size, so a
// long page that happens to mention one of the cloudflarePatterns words in
// passing (a blog post about Cloudflare, say) is not misclassified.
const challengeBodySizeCap = 10 * 1024

// NewDetector creates a new protection detector with default settings.
func NewDetector() *Detector {
	return &Detector{
		MinContentLength: 500,
	}
}

// DetectFromResponse analyzes an HTTP response for protection signals.
func (d *Detector) DetectFromResponse(statusCode int, headers http.Header, body []byte) DetectionResult {
	if result := d.checkStatusCode(statusCode); result.Detected {
		return result
	}
	if result := d.checkHeaders(headers); result.Detected {
		return result
	}
	if result := d.checkBodyContent(body); result.Detected {
		return result
	}
	return DetectionResult{Detected: false}
}

// DetectFromContent analyzes page content directly (when headers aren't
// available, e.g. a body already captured by an earlier probe).
func (d *Detector) DetectFromContent(statusCode int, content string) DetectionResult {
	return d.DetectFromResponse(statusCode, nil, []byte(content))
}

// checkStatusCode checks for protection signaled purely by HTTP status.
func (d *Detector) checkStatusCode(statusCode int) DetectionResult {
	switch statusCode {
	case http.StatusForbidden: // 403
		return DetectionResult{
			Detected:       true,
			Signal:         SignalAccessDenied,
			Confidence:     90,
			Description:    "access denied (HTTP 403) - origin may be gating automated requests",
			SuggestDynamic: true,
		}
	case http.StatusServiceUnavailable: // 503
		return DetectionResult{
			Detected:       true,
			Signal:         SignalCloudflare,
			Confidence:     70,
			Description:    "service unavailable (HTTP 503) - may indicate a Cloudflare-style challenge",
			SuggestDynamic: true,
		}
	case http.StatusTooManyRequests: // 429
		return DetectionResult{
			Detected:       true,
			Signal:         SignalRateLimited,
			Confidence:     95,
			Description:    "rate limited (HTTP 429)",
			SuggestDynamic: false, // a browser retry won't relieve rate limiting
		}
	}
	return DetectionResult{Detected: false}
}

// checkHeaders checks response headers for protection signals.
func (d *Detector) checkHeaders(headers http.Header) DetectionResult {
	if headers == nil {
		return DetectionResult{Detected: false}
	}

	if cf := headers.Get("cf-ray"); cf != "" {
		if headers.Get("cf-mitigated") == "challenge" {
			return DetectionResult{
				Detected:       true,
				Signal:         SignalCloudflare,
				Confidence:     95,
				Description:    "cf-mitigated: challenge header present",
				SuggestDynamic: true,
			}
		}
	}

	// A bare cf-ray / Server: cloudflare header doesn't by itself mean the
	// request was blocked — most Cloudflare-fronted sites serve every
	// request through it. Body content carries the actual challenge signal.
	return DetectionResult{Detected: false}
}

var (
	cloudflarePatterns = []string{
		"cf-browser-verification",
		"challenge-platform",
		"cf_chl_opt",
		"_cf_chl",
		"Checking your browser",
		"Please Wait... | Cloudflare",
		"Just a moment...",
		"Attention Required! | Cloudflare",
		"ray ID:",
	}

	captchaPatterns = []string{
		"g-recaptcha",
		"grecaptcha",
		"h-captcha",
		"hcaptcha",
		"data-sitekey",
		"captcha-container",
		"turnstile",
		"cf-turnstile",
	}

	accessDeniedPatterns = []string{
		"Access Denied",
		"Access to this page has been denied",
		"You don't have permission",
		"Request blocked",
		"Forbidden",
		"Bot detected",
		"automated access",
		"Please verify you are human",
		"are you a robot",
		"prove you're not a robot",
	}

	jsRequiredPatterns = []string{
		"enable JavaScript",
		"JavaScript is required",
		"requires JavaScript",
		"Please enable JavaScript",
		"This site requires JavaScript",
		"<noscript>",
	}

	// knownJSPlatformMarkers flags storefront builders that render their
	// homepage almost entirely client-side. A match alone isn't enough —
	// a Shopify/Shoplazza theme that still server-renders a <footer> is
	// treated as a normal page, not an escalation candidate.
	knownJSPlatformMarkers = []string{
		"cdn.shopify.com",
		"Shopify.theme",
		"shoplazza",
		"cdn.shoplazzacdn.com",
	}

	contentIndicatorRegex = regexp.MustCompile(`<(article|main|section|div[^>]*class[^>]*content)[^>]*>`)
	footerRegex           = regexp.MustCompile(`(?i)<footer[^>]*>`)

	// spaRootPatterns catch the common "mount point with nothing in it yet"
	// shape emitted by React/Next.js/Nuxt/Angular builds before hydration.
	spaRootPatterns = []*regexp.Regexp{
		regexp.MustCompile(`<div\s+id=["'](?:root|app|__next|__nuxt)["'][^>]*>\s*</div>`),
		regexp.MustCompile(`<app-root[^>]*>\s*</app-root>`),
		regexp.MustCompile(`<div\s+id=["']react-root["'][^>]*>\s*</div>`),
	}

	htmlTagRegex    = regexp.MustCompile(`<[^>]+>`)
	scriptRegex     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRegex      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptRegex   = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// checkBodyContent analyzes response body for protection signals.
func (d *Detector) checkBodyContent(body []byte) DetectionResult {
	if len(body) == 0 {
		return DetectionResult{
			Detected:       true,
			Signal:         SignalEmptyContent,
			Confidence:     80,
			Description:    "empty response body",
			SuggestDynamic: true,
		}
	}

	content := string(body)
	contentLower := strings.ToLower(content)

	if len(body) < challengeBodySizeCap {
		for _, pattern := range cloudflarePatterns {
			if strings.Contains(contentLower, strings.ToLower(pattern)) {
				return DetectionResult{
					Detected:       true,
					Signal:         SignalCloudflare,
					Confidence:     90,
					Description:    "Cloudflare challenge page detected",
					SuggestDynamic: true,
				}
			}
		}
	}

	for _, pattern := range captchaPatterns {
		if strings.Contains(contentLower, strings.ToLower(pattern)) {
			return DetectionResult{
				Detected:       true,
				Signal:         SignalCaptcha,
				Confidence:     95,
				Description:    "captcha challenge detected",
				SuggestDynamic: true,
			}
		}
	}

	for _, pattern := range accessDeniedPatterns {
		if strings.Contains(contentLower, strings.ToLower(pattern)) {
			return DetectionResult{
				Detected:       true,
				Signal:         SignalAccessDenied,
				Confidence:     85,
				Description:    "access-denied message detected",
				SuggestDynamic: true,
			}
		}
	}

	for _, pattern := range jsRequiredPatterns {
		if strings.Contains(contentLower, strings.ToLower(pattern)) {
			return DetectionResult{
				Detected:       true,
				Signal:         SignalJavaScriptRequired,
				Confidence:     80,
				Description:    "page requires JavaScript to render content",
				SuggestDynamic: true,
			}
		}
	}

	for _, pattern := range spaRootPatterns {
		if pattern.MatchString(content) {
			return DetectionResult{
				Detected:       true,
				Signal:         SignalJavaScriptRequired,
				Confidence:     90,
				Description:    "SPA mount point present but empty - content is JavaScript-rendered",
				SuggestDynamic: true,
			}
		}
	}

	if result := d.checkKnownJSPlatform(contentLower, content); result.Detected {
		return result
	}

	if result := d.checkTextContentRatio(content); result.Detected {
		return result
	}

	if len(body) < d.MinContentLength {
		if !contentIndicatorRegex.MatchString(content) {
			return DetectionResult{
				Detected:       true,
				Signal:         SignalEmptyContent,
				Confidence:     60,
				Description:    "response too small to be a real page",
				SuggestDynamic: true,
			}
		}
	}

	return DetectionResult{Detected: false}
}

// checkKnownJSPlatform flags storefront builders (Shopify, Shoplazza) known
// to ship a client-rendered homepage shell when the fetched body carries
// none of their server-rendered chrome — a bare <footer> is the cheapest
// tell that the theme still rendered something server-side.
func (d *Detector) checkKnownJSPlatform(contentLower, content string) DetectionResult {
	matched := false
	for _, marker := range knownJSPlatformMarkers {
		if strings.Contains(contentLower, strings.ToLower(marker)) {
			matched = true
			break
		}
	}
	if !matched || footerRegex.MatchString(content) {
		return DetectionResult{Detected: false}
	}
	return DetectionResult{
		Detected:       true,
		Signal:         SignalJavaScriptRequired,
		Confidence:     75,
		Description:    "known JS storefront platform with no server-rendered footer",
		SuggestDynamic: true,
	}
}

// checkTextContentRatio analyzes the visible text content in the HTML. If
// the page has very little actual text content (just nav/footer), it likely
// needs JS to render its main content.
func (d *Detector) checkTextContentRatio(content string) DetectionResult {
	cleaned := scriptRegex.ReplaceAllString(content, "")
	cleaned = styleRegex.ReplaceAllString(cleaned, "")
	cleaned = noscriptRegex.ReplaceAllString(cleaned, "")

	visibleText := htmlTagRegex.ReplaceAllString(cleaned, " ")
	visibleText = whitespaceRegex.ReplaceAllString(visibleText, " ")
	visibleText = strings.TrimSpace(visibleText)

	textLength := len(visibleText)
	htmlLength := len(content)

	const minVisibleText = 500
	const minTextRatio = 0.02

	if textLength < minVisibleText {
		linkCount := strings.Count(strings.ToLower(content), "<a ")
		if linkCount > 5 && textLength < 300 {
			return DetectionResult{
				Detected:       true,
				Signal:         SignalJavaScriptRequired,
				Confidence:     75,
				Description:    "page appears to have only navigation/footer content",
				SuggestDynamic: true,
			}
		}
	}

	if htmlLength > 1000 && float64(textLength)/float64(htmlLength) < minTextRatio {
		return DetectionResult{
			Detected:       true,
			Signal:         SignalJavaScriptRequired,
			Confidence:     70,
			Description:    "very low text-to-HTML ratio, content likely JS-rendered",
			SuggestDynamic: true,
		}
	}

	return DetectionResult{Detected: false}
}

// IsRetryable reports whether a browser re-fetch is worth attempting.
func (r DetectionResult) IsRetryable() bool {
	return r.SuggestDynamic
}

// UserMessage renders a short, scan-report-facing explanation of the signal.
func (r DetectionResult) UserMessage() string {
	if !r.Detected {
		return ""
	}

	switch r.Signal {
	case SignalCloudflare:
		return "This site uses Cloudflare protection."
	case SignalCaptcha:
		return "This site has a captcha challenge."
	case SignalAccessDenied:
		return "This site is blocking automated requests."
	case SignalRateLimited:
		return "Request was rate limited."
	case SignalEmptyContent:
		return "The site returned minimal content."
	case SignalJavaScriptRequired:
		return "This site requires JavaScript to render content."
	default:
		return "Bot protection detected."
	}
}
