package risk

import (
	"strings"

	"github.com/jmylchreest/riskintel/internal/signals"
)

// seoScore is a deterministic proxy in [0,100] built from the signals C5
// already collects, since no probe computes a dedicated SEO score: a
// non-empty title contributes 40, a fetched robots.txt 30, and at least one
// sitemap URL 30.
func seoScore(s *signals.DomainIntelSignals) int {
	score := 0
	if strings.TrimSpace(s.Reachability.HTMLTitle) != "" {
		score += 40
	}
	if s.RobotsSitemap.RobotsFetched {
		score += 30
	}
	if s.RobotsSitemap.SitemapURLCount > 0 {
		score += 30
	}
	return score
}

var contactPaths = []string{"/contact", "/contact-us"}
var aboutPaths = []string{"/about", "/about-us"}

func pageExists(s *signals.DomainIntelSignals, paths []string) bool {
	for _, p := range paths {
		if pp, ok := s.PolicyPages.PageExists[p]; ok && pp.Exists {
			return true
		}
	}
	return false
}

func hasContactOrAboutPage(s *signals.DomainIntelSignals) bool {
	return pageExists(s, contactPaths) || pageExists(s, aboutPaths)
}

// ecommerceTitleKeywords are substrings in the homepage title that suggest
// a transactional, e-commerce-style site per spec.md §4.5.
var ecommerceTitleKeywords = []string{
	"checkout", "cart", "buy now", "add to cart", "shop now", "order now",
	"payment", "price", "$", "€", "£",
}

func isEcommerce(s *signals.DomainIntelSignals) bool {
	if s.Content.PaymentKeywordHint {
		return true
	}
	title := strings.ToLower(s.Reachability.HTMLTitle)
	for _, kw := range ecommerceTitleKeywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}
