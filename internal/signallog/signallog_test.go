package signallog

import (
	"testing"

	"github.com/jmylchreest/riskintel/internal/policy"
)

func TestBuilder_FlushOrderAndCategory(t *testing.T) {
	b := NewBuilder("dns")
	b.Bool("dns_ok", true, policy.SeverityInfo, "")
	b.Number("mx_count", 2, policy.SeverityInfo, "")

	entries := b.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Name != "dns_ok" || entries[1].Name != "mx_count" {
		t.Errorf("append order not preserved: %+v", entries)
	}
	for _, e := range entries {
		if e.Category != "dns" {
			t.Errorf("category = %q, want dns", e.Category)
		}
	}
}

func TestBuilder_Flush(t *testing.T) {
	fc := policy.NewFetchContext("scan1", policy.DomainPolicy{MaxPagesPerRun: 10, RequestTimeoutMs: 5000}, "example.com")
	b := NewBuilder("headers")
	b.Bool("has_hsts", false, policy.SeverityWarning, "missing")
	b.Flush(fc)

	logs := fc.SignalLogs()
	if len(logs) != 1 || logs[0].Name != "has_hsts" {
		t.Fatalf("flush did not land entry: %+v", logs)
	}
	if b.Entries() != nil && len(b.Entries()) != 0 {
		t.Error("builder should be empty after flush")
	}
}

func TestSeverityRules(t *testing.T) {
	tests := []struct {
		name string
		got  policy.Severity
		want policy.Severity
	}{
		{"redirect<=3", RedirectChainSeverity(3), policy.SeverityInfo},
		{"redirect>3", RedirectChainSeverity(4), policy.SeverityWarning},
		{"cross-domain", CrossDomainSeverity(true), policy.SeverityRiskHint},
		{"word-count-low", WordCountSeverity(100), policy.SeverityWarning},
		{"word-count-ok", WordCountSeverity(800), policy.SeverityInfo},
		{"dns-fail", DNSOkSeverity(false), policy.SeverityRiskHint},
		{"mx-missing", MXPresentSeverity(false), policy.SeverityWarning},
		{"https-fail", HTTPSOkSeverity(false), policy.SeverityRiskHint},
		{"expiry-13d", ExpirySeverity(13), policy.SeverityWarning},
		{"expiry-14d-not-soon", ExpirySeverity(14), policy.SeverityInfo},
		{"missing-header", MissingHeaderSeverity(false), policy.SeverityWarning},
		{"login-form", LoginFormSeverity(1, false), policy.SeverityWarning},
		{"external-form-action", ExternalFormActionSeverity(1), policy.SeverityRiskHint},
		{"many-ext-scripts", ExternalScriptDomainsSeverity(11), policy.SeverityWarning},
		{"obfuscated", ObfuscationSeverity(true, false), policy.SeverityRiskHint},
		{"urgency-high", ContentScoreSeverity(6), policy.SeverityWarning},
		{"impersonation", ImpersonationSeverity(true), policy.SeverityWarning},
		{"age-under-1y", DomainAgeYearsSeverity(0.5), policy.SeverityWarning},
		{"age-under-90d", DomainAgeDaysSeverity(89), policy.SeverityRiskHint},
		{"rdap-unavailable", RDAPAvailableSeverity(false), policy.SeverityWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestExpirySeverity_14DaysIsNotSoon(t *testing.T) {
	// spec.md §8 boundary: a certificate expiring in exactly 14 days has
	// expiring_soon=false (strict inequality).
	if ExpirySeverity(14) != policy.SeverityInfo {
		t.Error("14 days to expiry must not be flagged as expiring soon")
	}
}
