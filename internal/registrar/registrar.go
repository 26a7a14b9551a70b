// Package registrar implements RDAP-first, WHOIS-fallback domain registrar
// lookup (C4): registration/expiration/last-changed dates, registrar name,
// and derived domain age.
package registrar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Result is the outcome of one registrar lookup.
type Result struct {
	RDAPAvailable    bool
	Source           string // "rdap" or "whois"
	RegistrationDate *time.Time
	ExpirationDate   *time.Time
	LastChangedDate  *time.Time
	RegistrarName    string
	DomainAgeDays    *int
	DomainAgeYears   *float64
	Error            string
}

// Lookup performs the RDAP-first, WHOIS-fallback registrar lookup for
// domain, using now as the reference point for age computation (injected
// for determinism in tests; production callers pass time.Now()).
func Lookup(ctx context.Context, domain string, httpClient *http.Client, whois Whois, rdapTimeout time.Duration, now time.Time) Result {
	if base, ok := rdapBaseForTLD(domain); ok {
		if res, err := lookupRDAP(ctx, httpClient, base, domain, rdapTimeout); err == nil {
			res.RDAPAvailable = true
			res.Source = "rdap"
			applyAge(&res, now)
			return res
		}
	}

	res, err := lookupWHOIS(ctx, whois, domain)
	res.Source = "whois"
	if err != nil {
		res.Error = err.Error()
		res.RDAPAvailable = false
		return res
	}
	applyAge(&res, now)
	return res
}

func applyAge(res *Result, now time.Time) {
	if res.RegistrationDate == nil {
		return
	}
	days := AgeDays(*res.RegistrationDate, now)
	years := AgeYears(*res.RegistrationDate, now)
	res.DomainAgeDays = &days
	res.DomainAgeYears = &years
}

// rdapResponse models the subset of RFC 9083 RDAP domain responses this
// package reads.
type rdapResponse struct {
	Events  []rdapEvent  `json:"events"`
	Entities []rdapEntity `json:"entities"`
}

type rdapEvent struct {
	EventAction string `json:"eventAction"`
	EventDate   string `json:"eventDate"`
}

type rdapEntity struct {
	Handle     string          `json:"handle"`
	Roles      []string        `json:"roles"`
	VcardArray json.RawMessage `json:"vcardArray"`
}

func lookupRDAP(ctx context.Context, client *http.Client, base, domain string, timeout time.Duration) (Result, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("%s/domain/%s", strings.TrimSuffix(base, "/"), strings.ToLower(domain))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Accept", "application/rdap+json")

	resp, err := client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("rdap: unexpected status %d for %s", resp.StatusCode, domain)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, err
	}

	var parsed rdapResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, fmt.Errorf("rdap: decode response for %s: %w", domain, err)
	}

	res := Result{}
	for _, ev := range parsed.Events {
		switch ev.EventAction {
		case "registration":
			res.RegistrationDate = ParseFlexibleDate(ev.EventDate)
		case "expiration":
			res.ExpirationDate = ParseFlexibleDate(ev.EventDate)
		case "last changed", "last update of RDAP database":
			if res.LastChangedDate == nil {
				res.LastChangedDate = ParseFlexibleDate(ev.EventDate)
			}
		}
	}
	res.RegistrarName = extractRDAPRegistrar(parsed.Entities)
	return res, nil
}

// extractRDAPRegistrar finds the entity with role "registrar" and returns
// its vCard "fn" field, else its handle.
func extractRDAPRegistrar(entities []rdapEntity) string {
	for _, e := range entities {
		isRegistrar := false
		for _, role := range e.Roles {
			if role == "registrar" {
				isRegistrar = true
				break
			}
		}
		if !isRegistrar {
			continue
		}
		if fn := vcardFn(e.VcardArray); fn != "" {
			return fn
		}
		return e.Handle
	}
	return ""
}

// vcardFn extracts the "fn" (formatted name) property from a jCard
// (RFC 7095) vcardArray: ["vcard", [["version",{},"text","4.0"],["fn",{},"text","Example Registrar"],...]].
func vcardFn(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var outer []json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil || len(outer) < 2 {
		return ""
	}
	var props [][]json.RawMessage
	if err := json.Unmarshal(outer[1], &props); err != nil {
		return ""
	}
	for _, prop := range props {
		if len(prop) < 4 {
			continue
		}
		var name string
		if err := json.Unmarshal(prop[0], &name); err != nil || name != "fn" {
			continue
		}
		var value string
		if err := json.Unmarshal(prop[3], &value); err == nil {
			return value
		}
	}
	return ""
}

func lookupWHOIS(ctx context.Context, whois Whois, domain string) (Result, error) {
	raw, err := whois.Lookup(ctx, domain)
	if err != nil {
		return Result{}, err
	}
	registration, expiration, registrarName := ParseWhois(raw)
	return Result{
		RegistrationDate: registration,
		ExpirationDate:   expiration,
		RegistrarName:    registrarName,
	}, nil
}
