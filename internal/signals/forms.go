package signals

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/riskintel/internal/fetch"
)

// formsProbe implements probe H over the already-parsed homepage document.
func formsProbe(doc *goquery.Document, targetDomain string, allowSubdomains bool) Forms {
	f := Forms{}

	doc.Find(`input[type="password"]`).Each(func(int, *goquery.Selection) { f.PasswordInputCount++ })
	doc.Find(`input[type="email"]`).Each(func(int, *goquery.Selection) { f.EmailInputCount++ })

	doc.Find("form").Each(func(_ int, form *goquery.Selection) {
		hasSubmit := form.Find(`input[type="submit"], button[type="submit"], button`).Length() > 0
		hasPassword := form.Find(`input[type="password"]`).Length() > 0
		if hasPassword && hasSubmit {
			f.LoginFormPresent = true
		}

		action, ok := form.Attr("action")
		if !ok || action == "" {
			return
		}
		if host := hostOf(action); host != "" && !fetch.InScope(host, targetDomain, allowSubdomains) {
			if !containsString(f.ExternalFormActions, host) {
				f.ExternalFormActions = append(f.ExternalFormActions, host)
			}
		}
	})

	return f
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
