package risk

import "github.com/jmylchreest/riskintel/internal/signals"

// scorePhishing implements spec.md §4.5's phishing weight table. The
// strong login/password rules are mutually exclusive: a login form with an
// external action always wins over a bare external password input.
func scorePhishing(in Input) []appliedRule {
	var rules []appliedRule
	s := in.Signals
	if s == nil {
		return rules
	}
	forms := s.Forms
	hasExternalAction := len(forms.ExternalFormActions) > 0

	switch {
	case forms.LoginFormPresent && hasExternalAction:
		rules = append(rules, appliedRule{TypePhishing, "login_form_external_action", "Login form posts to an external domain", 30})
	case forms.PasswordInputCount > 0 && hasExternalAction:
		rules = append(rules, appliedRule{TypePhishing, "password_input_external_action", "Password input posts to an external domain", 25})
	case forms.PasswordInputCount > 0:
		rules = append(rules, appliedRule{TypePhishing, "bare_password_input", "Password input present with no external action detected", 12})
	}

	if s.Redirects.CrossDomainRedirect {
		rules = append(rules, appliedRule{TypePhishing, "cross_domain_redirect", "Homepage redirects to a different registrable domain", 15})
		rules = append(rules, appliedRule{TypePhishing, "input_final_domain_mismatch", "Requested domain does not match the final resolved domain", 15})
	}
	if s.Redirects.MetaRefreshPresent {
		rules = append(rules, appliedRule{TypePhishing, "meta_refresh", "Meta-refresh redirect present", 10})
	}
	if s.Redirects.JSRedirectHint {
		rules = append(rules, appliedRule{TypePhishing, "js_redirect", "JavaScript-based redirect detected", 10})
	}

	if !s.TLS.HTTPSOk {
		rules = append(rules, appliedRule{TypePhishing, "no_https", "Site does not serve over HTTPS", 8})
	}
	missingHeaders := countMissingHeaders(s)
	if missingHeaders > 0 {
		points := missingHeaders * 5
		if points > 20 {
			points = 20
		}
		rules = append(rules, appliedRule{TypePhishing, "missing_security_headers", "Missing security headers", points})
	}

	if forms.PasswordInputCount == 0 && hasExternalAction && !forms.LoginFormPresent {
		rules = append(rules, appliedRule{TypePhishing, "non_login_external_form", "Non-login form posts to an external domain", 8})
	}
	if s.ThirdParty.EvalAtobHint {
		rules = append(rules, appliedRule{TypePhishing, "eval_atob", "Obfuscated script uses eval/atob", 5})
	}
	if s.ThirdParty.ObfuscationHint {
		rules = append(rules, appliedRule{TypePhishing, "inline_script_obfuscation", "Long or obfuscated inline script present", 5})
	}

	return rules
}

func countMissingHeaders(s *signals.DomainIntelSignals) int {
	h := s.Headers
	missing := 0
	for _, present := range []bool{h.StrictTransportSecurity, h.ContentSecurityPolicy, h.XFrameOptions, h.XContentTypeOptions, h.ReferrerPolicy} {
		if !present {
			missing++
		}
	}
	return missing
}
