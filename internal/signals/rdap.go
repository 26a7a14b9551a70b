package signals

import (
	"context"
	"net/http"
	"time"

	"github.com/jmylchreest/riskintel/internal/registrar"
)

// rdapProbe wraps internal/registrar's RDAP-first, WHOIS-fallback lookup
// (C4) and folds it into the signal shape.
func rdapProbe(ctx context.Context, domain string, client *http.Client, whois registrar.Whois, rdapTimeout time.Duration, now time.Time) RDAP {
	res := registrar.Lookup(ctx, domain, client, whois, rdapTimeout, now)
	return RDAP{
		RDAPAvailable:    res.RDAPAvailable,
		Source:           res.Source,
		RegistrationDate: res.RegistrationDate,
		ExpirationDate:   res.ExpirationDate,
		LastChangedDate:  res.LastChangedDate,
		RegistrarName:    res.RegistrarName,
		DomainAgeDays:    res.DomainAgeDays,
		DomainAgeYears:   res.DomainAgeYears,
		Error:            res.Error,
	}
}
