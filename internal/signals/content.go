package signals

import "regexp"

var (
	urgencyRe          = regexp.MustCompile(`(?i)urgent|act now|limited time|hurry|expires soon|last chance|don't miss out`)
	extremeDiscountRe  = regexp.MustCompile(`(?i)\d{2,3}%\s*off|free shipping|clearance|flash sale|today only`)
	paymentKeywordRe   = regexp.MustCompile(`(?i)payment|checkout|credit card|debit card|paypal|wire transfer`)
	impersonationRe    = regexp.MustCompile(`(?i)(official|authorized|certified|licensed)\s+(dealer|seller|reseller|distributor|retailer|partner)`)
)

// contentProbe implements probe J over the HTML-stripped homepage text.
func contentProbe(strippedText string) Content {
	return Content{
		UrgencyScore:         len(urgencyRe.FindAllString(strippedText, -1)),
		ExtremeDiscountScore: len(extremeDiscountRe.FindAllString(strippedText, -1)),
		PaymentKeywordHint:   paymentKeywordRe.MatchString(strippedText),
		ImpersonationHint:    impersonationRe.MatchString(strippedText),
	}
}
