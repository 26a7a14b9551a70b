package policylinks

import (
	"context"
	"strings"
	"time"

	"github.com/jmylchreest/riskintel/internal/browser"
	"github.com/jmylchreest/riskintel/internal/policy"
)

// renderTimeout bounds strategy C's headless render, within the spec's
// 30-60s browser-call budget.
const renderTimeout = 45 * time.Second

// needsBrowserRender reports whether the homepage body looks like a bot
// challenge or a JS-rendered storefront shell with no discoverable footer —
// both cases where strategy A's anchor scan over the plain-fetched HTML
// cannot possibly find the real page.
func needsBrowserRender(body string) bool {
	if botChallengeRe.MatchString(body) && len(body) < 10*1024 {
		return true
	}
	if jsRenderedPlatformRe.MatchString(body) && !strings.Contains(strings.ToLower(body), "</footer>") {
		return true
	}
	return false
}

// renderPage fetches pageURL through the headless browser, expanding
// accordions and scrolling to the bottom so lazy-loaded footers materialize
// before the DOM is captured. Used both for strategy C's homepage re-render
// and for the verifier's single browser-backed escalation retry.
func renderPage(ctx context.Context, fc *policy.FetchContext, b *browser.Driver, scanID, pageURL string, discoveredBy policy.DiscoveredBy) (string, bool) {
	if b == nil {
		return "", false
	}
	res := b.Fetch(ctx, scanID, pageURL, string(discoveredBy), browser.Options{
		WaitForNetworkIdle: true,
		ExpandSections:     true,
		ScrollToBottom:     true,
		Timeout:            renderTimeout,
	})
	if res.Error != "" || res.Content == "" {
		fc.AppendError("policylinks: chromium render failed: " + res.Error)
		return "", false
	}
	return res.Content, true
}
