package signals

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/jmylchreest/riskintel/internal/constants"
	"github.com/jmylchreest/riskintel/internal/fetch"
	"github.com/jmylchreest/riskintel/internal/policy"
)

var (
	userAgentLineRe = regexp.MustCompile(`(?i)^\s*user-agent:\s*(.+)$`)
	disallowLineRe  = regexp.MustCompile(`(?i)^\s*disallow:\s*(.*)$`)
	sitemapLineRe   = regexp.MustCompile(`(?i)^\s*sitemap:\s*(.+)$`)
	sitemapIndexRe  = regexp.MustCompile(`(?i)<sitemapindex`)
	locTagRe        = regexp.MustCompile(`(?is)<loc>\s*(.*?)\s*</loc>`)
	urlTagRe        = regexp.MustCompile(`(?i)<url[>\s]`)
)

// robotsSitemapProbe implements probe F: robots.txt parsing followed by a
// bounded BFS over sitemap(s), capped at constants.MaxSitemapFetches.
func robotsSitemapProbe(ctx context.Context, f *fetch.Fetcher, fc *policy.FetchContext, targetURL string) RobotsSitemap {
	r := RobotsSitemap{}
	resolve := func(base, ref string) string {
		b, err := url.Parse(base)
		if err != nil {
			return ref
		}
		rel, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return b.ResolveReference(rel).String()
	}

	robotsURL := joinPath(targetURL, "/robots.txt")
	res := f.Fetch(ctx, fc, robotsURL, policy.DiscoveredRobots, fetch.DefaultOptions())
	if !res.OK {
		return r
	}
	r.RobotsFetched = true

	var sitemapURLs []string
	activeUA := ""
	for _, line := range strings.Split(string(res.Body), "\n") {
		if m := userAgentLineRe.FindStringSubmatch(line); m != nil {
			activeUA = strings.TrimSpace(m[1])
			continue
		}
		if m := disallowLineRe.FindStringSubmatch(line); m != nil {
			if activeUA == "*" && strings.TrimSpace(m[1]) != "" {
				r.DisallowCount++
			}
			continue
		}
		if m := sitemapLineRe.FindStringSubmatch(line); m != nil {
			sitemapURLs = append(sitemapURLs, resolve(robotsURL, strings.TrimSpace(m[1])))
		}
	}

	seeds := append([]string{}, sitemapURLs...)
	seeds = append(seeds, joinPath(targetURL, "/sitemap.xml"), joinPath(targetURL, "/sitemap_index.xml"))

	queue := dedupeStrings(seeds)
	fetched := 0
	visited := map[string]bool{}

	for len(queue) > 0 && fetched < constants.MaxSitemapFetches {
		u := queue[0]
		queue = queue[1:]
		if visited[u] {
			continue
		}
		visited[u] = true

		sres := f.Fetch(ctx, fc, u, policy.DiscoveredSitemap, fetch.DefaultOptions())
		fetched++
		if !sres.OK {
			continue
		}
		body := string(sres.Body)

		if sitemapIndexRe.MatchString(body) {
			for _, m := range locTagRe.FindAllStringSubmatch(body, -1) {
				if fetched+len(queue) >= constants.MaxSitemapFetches {
					break
				}
				if child := resolve(u, m[1]); !visited[child] {
					queue = append(queue, child)
				}
			}
			continue
		}

		r.SitemapURLs = append(r.SitemapURLs, u)
		r.SitemapURLCount += len(urlTagRe.FindAllStringIndex(body, -1))
	}

	return r
}

func dedupeStrings(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func joinPath(base, path string) string {
	base = strings.TrimRight(base, "/")
	return base + path
}
