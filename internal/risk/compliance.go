package risk

import "github.com/jmylchreest/riskintel/internal/policylinks"

// scoreCompliance implements spec.md §4.5's compliance weight table. It
// consults both the homepage's well-known-path presence check and the
// verified policy links from C8, since either can establish a page exists.
func scoreCompliance(in Input) []appliedRule {
	var rules []appliedRule
	s := in.Signals
	if s == nil {
		return rules
	}

	hasVerified := func(t policylinks.Type) bool {
		for _, l := range in.PolicyLinks {
			if l.Type == t && l.Verified {
				return true
			}
		}
		return false
	}

	missingPrivacy := !pageExists(s, []string{"/privacy", "/privacy-policy", "/pages/privacy-policy"}) && !hasVerified(policylinks.TypePrivacy)
	missingTerms := !pageExists(s, []string{"/terms", "/terms-of-service", "/terms-and-conditions"}) && !hasVerified(policylinks.TypeTerms)
	missingRefund := !pageExists(s, []string{"/refund", "/refund-policy", "/returns", "/return-policy", "/pages/refund-policy"}) && !hasVerified(policylinks.TypeRefund)
	missingShipping := !pageExists(s, []string{"/shipping", "/shipping-policy"})
	missingAbout := !pageExists(s, []string{"/about", "/about-us"})
	missingContact := !pageExists(s, []string{"/contact", "/contact-us"})
	ecommerce := isEcommerce(s)

	if missingPrivacy {
		rules = append(rules, appliedRule{TypeCompliance, "missing_privacy_policy", "No privacy policy found", 18})
	}
	if missingTerms {
		rules = append(rules, appliedRule{TypeCompliance, "missing_terms", "No terms of service found", 15})
	}
	if ecommerce && missingRefund {
		rules = append(rules, appliedRule{TypeCompliance, "missing_refund_policy", "E-commerce site with no refund/return policy found", 12})
	}
	if ecommerce && missingShipping {
		rules = append(rules, appliedRule{TypeCompliance, "missing_shipping_policy", "E-commerce site with no shipping policy found", 8})
	}
	if missingContact && (in.Contact == nil || !in.Contact.Any()) {
		rules = append(rules, appliedRule{TypeCompliance, "missing_contact", "No contact page or extracted contact info found", 10})
	}
	if missingAbout {
		rules = append(rules, appliedRule{TypeCompliance, "missing_about", "No about page found", 5})
	}
	if s.Content.PaymentKeywordHint && (missingPrivacy || missingTerms) {
		rules = append(rules, appliedRule{TypeCompliance, "payment_without_policies", "Payment capability present without privacy/terms coverage", 15})
	}
	if s.RobotsSitemap.SitemapURLCount == 0 {
		rules = append(rules, appliedRule{TypeCompliance, "missing_sitemap", "No sitemap discovered", 3})
	}
	if s.RobotsSitemap.DisallowCount > 10 {
		rules = append(rules, appliedRule{TypeCompliance, "high_disallow_count", "robots.txt disallows more than 10 paths", 4})
	}

	return rules
}
