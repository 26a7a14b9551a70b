package signals

import (
	"context"
	"strings"
	"sync"

	"github.com/jmylchreest/riskintel/internal/fetch"
	"github.com/jmylchreest/riskintel/internal/htmlutil"
	"github.com/jmylchreest/riskintel/internal/policy"
)

// policyPagesProbe implements probe G: parallel GETs for the 17 well-known
// paths, retaining a 500-char stripped snippet for privacy/terms/contact
// pages.
func policyPagesProbe(ctx context.Context, f *fetch.Fetcher, fc *policy.FetchContext, targetURL string) PolicyPages {
	pp := PolicyPages{
		PageExists: make(map[string]PagePresence, len(wellKnownPaths)),
		Snippets:   make(map[string]string),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, path := range wellKnownPaths {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			u := joinPath(targetURL, path)
			res := f.Fetch(ctx, fc, u, policy.DiscoveredPolicyCheck, fetch.DefaultOptions())

			mu.Lock()
			defer mu.Unlock()

			presence := PagePresence{Exists: res.OK}
			if res.StatusCode != nil {
				sc := *res.StatusCode
				presence.Status = &sc
			}
			pp.PageExists[path] = presence

			if res.OK && snippetEligible(path) {
				stripped := htmlutil.StripTags(string(res.Body))
				if len(stripped) > 500 {
					stripped = stripped[:500]
				}
				pp.Snippets[path] = stripped
			}
		}(path)
	}

	wg.Wait()
	return pp
}

func snippetEligible(path string) bool {
	lower := strings.ToLower(path)
	return strings.Contains(lower, "privacy") || strings.Contains(lower, "terms") || strings.Contains(lower, "contact")
}
