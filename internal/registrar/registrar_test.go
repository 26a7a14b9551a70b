package registrar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeWhois struct {
	raw string
	err error
}

func (f fakeWhois) Lookup(ctx context.Context, domain string) (string, error) {
	return f.raw, f.err
}

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		in   string
		want string // expected Format("2006-01-02")
	}{
		{"2020-05-14T00:00:00Z", "2020-05-14"},
		{"2020-05-14", "2020-05-14"},
		{"14-May-2020", "2020-05-14"},
		{"May 14, 2020", "2020-05-14"},
		{"[Created on] 2020-05-14", "2020-05-14"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseFlexibleDate(tt.in)
			if got == nil {
				t.Fatalf("ParseFlexibleDate(%q) = nil", tt.in)
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("ParseFlexibleDate(%q) = %v, want date %s", tt.in, got, tt.want)
			}
			if got.Hour() != 0 || got.Minute() != 0 {
				t.Errorf("ParseFlexibleDate(%q) not normalized to midnight: %v", tt.in, got)
			}
		})
	}
}

func TestParseWhois(t *testing.T) {
	raw := "Domain Name: EXAMPLE.COM\nCreation Date: 2019-01-10T00:00:00Z\nRegistry Expiry Date: 2030-01-10T00:00:00Z\nRegistrar: Example Registrar Inc.\n"
	reg, exp, registrar := ParseWhois(raw)
	if reg == nil || reg.Format("2006-01-02") != "2019-01-10" {
		t.Errorf("registration = %v, want 2019-01-10", reg)
	}
	if exp == nil || exp.Format("2006-01-02") != "2030-01-10" {
		t.Errorf("expiration = %v, want 2030-01-10", exp)
	}
	if registrar != "Example Registrar Inc." {
		t.Errorf("registrar = %q", registrar)
	}
}

func TestAgeDaysAndYears(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	reg := now.AddDate(0, 0, -365)
	days := AgeDays(reg, now)
	if days != 365 {
		t.Errorf("AgeDays = %d, want 365", days)
	}
	years := AgeYears(reg, now)
	if years < 0.9 || years > 1.1 {
		t.Errorf("AgeYears = %v, want ~1.0", years)
	}
}

func TestLookup_RDAPSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/domain/example-rdap-test.com") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/rdap+json")
		w.Write([]byte(`{
			"events":[
				{"eventAction":"registration","eventDate":"2020-01-01T00:00:00Z"},
				{"eventAction":"expiration","eventDate":"2030-01-01T00:00:00Z"}
			],
			"entities":[
				{"roles":["registrar"],"handle":"R123","vcardArray":["vcard",[["version",{},"text","4.0"],["fn",{},"text","Test Registrar LLC"]]]}
			]
		}`))
	}))
	defer srv.Close()

	original := rdapServers["com"]
	rdapServers["com"] = srv.URL
	defer func() { rdapServers["com"] = original }()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	res := Lookup(context.Background(), "example-rdap-test.com", srv.Client(), fakeWhois{}, 2*time.Second, now)

	if !res.RDAPAvailable || res.Source != "rdap" {
		t.Fatalf("expected rdap success, got %+v", res)
	}
	if res.RegistrarName != "Test Registrar LLC" {
		t.Errorf("RegistrarName = %q", res.RegistrarName)
	}
	if res.DomainAgeDays == nil || *res.DomainAgeDays < 1800 {
		t.Errorf("DomainAgeDays = %v, want >= 1800", res.DomainAgeDays)
	}
}

func TestLookup_FallsBackToWHOIS(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	w := fakeWhois{raw: "Creation Date: 2024-01-01T00:00:00Z\nRegistrar: Fallback Registrar\n"}

	res := Lookup(context.Background(), "example.unmapped-tld-xyz", nil, w, time.Second, now)
	if res.RDAPAvailable {
		t.Error("expected RDAPAvailable=false for an unmapped TLD")
	}
	if res.Source != "whois" {
		t.Errorf("Source = %q, want whois", res.Source)
	}
	if res.RegistrarName != "Fallback Registrar" {
		t.Errorf("RegistrarName = %q", res.RegistrarName)
	}
}
