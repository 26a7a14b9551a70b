package risk

import (
	"strings"

	"github.com/jmylchreest/riskintel/internal/signals"
)

// freeHostingSuffixes are registrable-domain suffixes of well-known free
// hosting platforms; no single C5 probe flags "free hosting" directly, so
// this is derived from the target hostname itself.
var freeHostingSuffixes = []string{
	".github.io", ".vercel.app", ".netlify.app", ".pages.dev",
	".000webhostapp.com", ".wordpress.com", ".wixsite.com", ".blogspot.com",
	".weebly.com", ".glitch.me",
}

// boilerplateTitles are generic placeholder homepage titles with no real
// brand content.
var boilerplateTitles = []string{
	"index of", "default parking page", "coming soon", "under construction",
	"welcome to nginx", "apache2 ubuntu default page", "it works!",
}

// scoreShellCompany implements spec.md §4.5's shell-company weight table.
func scoreShellCompany(in Input) []appliedRule {
	var rules []appliedRule
	s := in.Signals
	if s == nil {
		return rules
	}

	if days := s.RDAP.DomainAgeDays; days != nil {
		switch {
		case *days < 30:
			rules = append(rules, appliedRule{TypeShellCompany, "domain_age_lt_30d", "Domain registered less than 30 days ago", 30})
		case *days < 90:
			rules = append(rules, appliedRule{TypeShellCompany, "domain_age_lt_90d", "Domain registered less than 90 days ago", 18})
		case *days < 180:
			rules = append(rules, appliedRule{TypeShellCompany, "domain_age_lt_180d", "Domain registered less than 180 days ago", 12})
		case *days < 365:
			rules = append(rules, appliedRule{TypeShellCompany, "domain_age_lt_1y", "Domain registered less than 1 year ago", 8})
		case *days < 730:
			rules = append(rules, appliedRule{TypeShellCompany, "domain_age_lt_2y", "Domain registered less than 2 years ago", 5})
		}
	}

	if ai := in.AIGenerated; ai != nil {
		switch {
		case ai.Score >= 80:
			rules = append(rules, appliedRule{TypeShellCompany, "ai_generated_content_high", "Homepage content scored highly likely AI-generated", 35})
		case ai.Score >= 70 && ai.Confidence >= 60:
			rules = append(rules, appliedRule{TypeShellCompany, "ai_generated_content_medium_high_confidence", "Homepage content likely AI-generated with high confidence", 28})
		case ai.Score >= 60:
			rules = append(rules, appliedRule{TypeShellCompany, "ai_generated_content_medium", "Homepage content possibly AI-generated", 15})
		case ai.Score >= 50:
			rules = append(rules, appliedRule{TypeShellCompany, "ai_generated_content_low", "Homepage content weakly suggests AI-generation", 6})
		}
	}

	if n := suspiciousPatternCount(s); n >= 3 {
		rules = append(rules, appliedRule{TypeShellCompany, "content_red_flags_many", "Multiple suspicious content patterns detected", 25})
	} else if n >= 1 {
		rules = append(rules, appliedRule{TypeShellCompany, "content_red_flags_some", "At least one suspicious content pattern detected", 12})
	}

	if isFreeHosting(s.TargetDomain) {
		rules = append(rules, appliedRule{TypeShellCompany, "free_hosting", "Hosted on a free hosting platform", 12})
	}
	if isBoilerplate(s.Reachability.HTMLTitle) {
		rules = append(rules, appliedRule{TypeShellCompany, "boilerplate_homepage", "Homepage appears to be an unconfigured boilerplate page", 10})
	}
	if seoScore(s) < 30 {
		rules = append(rules, appliedRule{TypeShellCompany, "low_seo_score", "Homepage shows minimal SEO investment", 4})
	}
	if !s.RobotsSitemap.RobotsFetched {
		rules = append(rules, appliedRule{TypeShellCompany, "missing_robots", "robots.txt not found", 3})
	}
	if s.RobotsSitemap.SitemapURLCount == 0 {
		rules = append(rules, appliedRule{TypeShellCompany, "missing_sitemap", "No sitemap discovered", 3})
	}

	rules = append(rules, contactPenaltyRules(in.Contact)...)

	if s.DNS.DNSOk && !s.Reachability.IsActive {
		rules = append(rules, appliedRule{TypeShellCompany, "site_shell", "DNS resolves but homepage is not active", 25})
	}
	if !s.DNS.DNSOk {
		rules = append(rules, appliedRule{TypeShellCompany, "dns_failure", "DNS resolution failed", 25})
	}
	if !s.DNS.MXPresent {
		rules = append(rules, appliedRule{TypeShellCompany, "no_mx", "No MX record found", 5})
	}
	if s.Reachability.HomepageTextWordCount < 150 {
		rules = append(rules, appliedRule{TypeShellCompany, "thin_content", "Homepage text under 150 words", 4})
	}
	if !hasContactOrAboutPage(s) {
		rules = append(rules, appliedRule{TypeShellCompany, "no_contact_or_about", "Neither a contact page nor an about page was found", 12})
	}
	if s.Redirects.CrossDomainRedirect {
		rules = append(rules, appliedRule{TypeShellCompany, "cross_domain_redirect", "Homepage redirects to a different registrable domain", 12})
	}
	if s.Content.UrgencyScore >= 3 {
		rules = append(rules, appliedRule{TypeShellCompany, "urgency_language", "Urgency-driven language detected", 5})
	}
	if s.Content.ExtremeDiscountScore >= 3 {
		rules = append(rules, appliedRule{TypeShellCompany, "extreme_discounts", "Extreme discount language detected", 5})
	}
	if s.Content.ImpersonationHint {
		rules = append(rules, appliedRule{TypeShellCompany, "impersonation_hint", "Content hints at impersonating a known brand", 6})
	}

	return rules
}

// suspiciousPatternCount counts how many independent content-risk flags
// fired, feeding the "≥3 suspicious patterns" / "≥1" tiering rule.
func suspiciousPatternCount(s *signals.DomainIntelSignals) int {
	n := 0
	for _, flagged := range []bool{
		s.Content.UrgencyScore > 0,
		s.Content.ExtremeDiscountScore > 0,
		s.Content.PaymentKeywordHint,
		s.Content.ImpersonationHint,
		s.ThirdParty.ObfuscationHint,
		s.ThirdParty.EvalAtobHint,
	} {
		if flagged {
			n++
		}
	}
	return n
}

func isFreeHosting(hostname string) bool {
	h := strings.ToLower(hostname)
	for _, suffix := range freeHostingSuffixes {
		if strings.HasSuffix(h, suffix) {
			return true
		}
	}
	return false
}

func isBoilerplate(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return false
	}
	for _, b := range boilerplateTitles {
		if strings.Contains(t, b) {
			return true
		}
	}
	return false
}

func contactPenaltyRules(c *ContactDetails) []appliedRule {
	if c == nil {
		return nil
	}
	var rules []appliedRule
	total := 0
	add := func(key, reason string, points int) {
		if total >= 25 {
			return
		}
		if total+points > 25 {
			points = 25 - total
		}
		total += points
		rules = append(rules, appliedRule{TypeShellCompany, key, reason, points})
	}
	if c.GenericEmailOnly {
		add("generic_email_only", "Only a generic contact email was found", 15)
	}
	if !c.HasAddress {
		add("no_address", "No physical address found", 12)
	}
	if !c.HasPhone {
		add("no_phone", "No phone number found", 10)
	}
	if !c.HasSocialPresence {
		add("no_social_presence", "No social media presence found", 10)
	}
	if !c.HasLinkedIn {
		rules = append(rules, appliedRule{TypeShellCompany, "no_linkedin", "No LinkedIn presence found", 4})
	}
	return rules
}
