package signals

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/riskintel/internal/fetch"
)

// thirdPartyProbe implements probe I: off-domain script sources (capped at
// 20, de-duplicated) and two inline-script hints.
func thirdPartyProbe(doc *goquery.Document, targetDomain string, allowSubdomains bool) ThirdParty {
	tp := ThirdParty{}

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			if isExternalScript(src) {
				host := hostOf(normalizeProtocolRelative(src))
				if host != "" && !fetch.InScope(host, targetDomain, allowSubdomains) {
					if len(tp.ExternalScriptDomains) < 20 && !containsString(tp.ExternalScriptDomains, host) {
						tp.ExternalScriptDomains = append(tp.ExternalScriptDomains, host)
					}
				}
			}
			return
		}

		body := s.Text()
		if len(body) > 10000 {
			tp.ObfuscationHint = true
		}
		if strings.Contains(body, "eval(") || strings.Contains(body, "atob(") {
			tp.EvalAtobHint = true
		}
	})

	return tp
}

func isExternalScript(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "//")
}

func normalizeProtocolRelative(src string) string {
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	return src
}
