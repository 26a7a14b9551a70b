// Package signallog implements the typed, append-only probe-outcome log
// (C6): pure functions that turn a probe's findings into
// policy.SignalLogEntry records with the severity assigned by the rule
// table in spec.md §4.2.
package signallog

import (
	"encoding/json"

	"github.com/jmylchreest/riskintel/internal/policy"
)

// Builder accumulates SignalLogEntry values for one probe and flushes them
// into a policy.FetchContext, keeping the per-probe emission order
// deterministic (append order == call order).
type Builder struct {
	category string
	entries  []policy.SignalLogEntry
}

// NewBuilder starts a log builder for one probe category (e.g. "redirects",
// "dns", "headers").
func NewBuilder(category string) *Builder {
	return &Builder{category: category}
}

func (b *Builder) add(e policy.SignalLogEntry) {
	e.Category = b.category
	b.entries = append(b.entries, e)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Number logs a numeric value with the given severity.
func (b *Builder) Number(name string, value float64, severity policy.Severity, notes string) {
	b.add(policy.SignalLogEntry{Name: name, ValueType: policy.ValueNumber, ValueNumber: &value, Severity: severity, Notes: strPtr(notes)})
}

// String logs a string value with the given severity.
func (b *Builder) String(name, value string, severity policy.Severity, notes string) {
	b.add(policy.SignalLogEntry{Name: name, ValueType: policy.ValueString, ValueString: &value, Severity: severity, Notes: strPtr(notes)})
}

// Bool logs a boolean value with the given severity.
func (b *Builder) Bool(name string, value bool, severity policy.Severity, notes string) {
	b.add(policy.SignalLogEntry{Name: name, ValueType: policy.ValueBoolean, ValueBoolean: &value, Severity: severity, Notes: strPtr(notes)})
}

// JSON logs an arbitrary JSON-marshalable value with the given severity.
func (b *Builder) JSON(name string, value any, severity policy.Severity, notes string) {
	raw, err := json.Marshal(value)
	if err != nil {
		raw = []byte("null")
	}
	s := string(raw)
	b.add(policy.SignalLogEntry{Name: name, ValueType: policy.ValueJSON, ValueJSON: &s, Severity: severity, Notes: strPtr(notes)})
}

// WithEvidence sets the evidence URL on the most recently added entry.
func (b *Builder) WithEvidence(url string) *Builder {
	if len(b.entries) > 0 {
		b.entries[len(b.entries)-1].EvidenceURL = strPtr(url)
	}
	return b
}

// Flush appends all accumulated entries to fc in order and clears the
// builder for reuse.
func (b *Builder) Flush(fc *policy.FetchContext) {
	for _, e := range b.entries {
		fc.AppendSignalLog(e)
	}
	b.entries = nil
}

// Entries returns the accumulated entries without flushing, for tests.
func (b *Builder) Entries() []policy.SignalLogEntry {
	out := make([]policy.SignalLogEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Severity rule helpers — one function per spec.md §4.2 rule line, kept
// separate from the probes themselves so the thresholds are testable in
// isolation.

// RedirectChainSeverity implements "redirect_chain.length > 3 -> warning".
func RedirectChainSeverity(length int) policy.Severity {
	if length > 3 {
		return policy.SeverityWarning
	}
	return policy.SeverityInfo
}

// CrossDomainSeverity implements "cross_domain_redirect -> risk_hint".
func CrossDomainSeverity(crossDomain bool) policy.Severity {
	if crossDomain {
		return policy.SeverityRiskHint
	}
	return policy.SeverityInfo
}

// WordCountSeverity implements "homepage_text_word_count < 150 -> warning".
func WordCountSeverity(count int) policy.Severity {
	if count < 150 {
		return policy.SeverityWarning
	}
	return policy.SeverityInfo
}

// BotProtectionSeverity implements "bot_protection_detected -> risk_hint".
func BotProtectionSeverity(detected bool) policy.Severity {
	if detected {
		return policy.SeverityRiskHint
	}
	return policy.SeverityInfo
}

// DNSOkSeverity implements "dns_ok=false -> risk_hint".
func DNSOkSeverity(ok bool) policy.Severity {
	if !ok {
		return policy.SeverityRiskHint
	}
	return policy.SeverityInfo
}

// MXPresentSeverity implements "mx_present=false -> warning".
func MXPresentSeverity(present bool) policy.Severity {
	if !present {
		return policy.SeverityWarning
	}
	return policy.SeverityInfo
}

// HTTPSOkSeverity implements "https_ok=false -> risk_hint".
func HTTPSOkSeverity(ok bool) policy.Severity {
	if !ok {
		return policy.SeverityRiskHint
	}
	return policy.SeverityInfo
}

// ExpirySeverity implements "days_to_expiry < 14 or expiring_soon -> warning".
func ExpirySeverity(daysToExpiry int) policy.Severity {
	if daysToExpiry < 14 {
		return policy.SeverityWarning
	}
	return policy.SeverityInfo
}

// MissingHeaderSeverity implements "any missing header -> warning".
func MissingHeaderSeverity(present bool) policy.Severity {
	if !present {
		return policy.SeverityWarning
	}
	return policy.SeverityInfo
}

// LoginFormSeverity implements "password_input_count>0 or login_form_present -> warning".
func LoginFormSeverity(passwordCount int, loginFormPresent bool) policy.Severity {
	if passwordCount > 0 || loginFormPresent {
		return policy.SeverityWarning
	}
	return policy.SeverityInfo
}

// ExternalFormActionSeverity implements "external_form_actions non-empty -> risk_hint".
func ExternalFormActionSeverity(count int) policy.Severity {
	if count > 0 {
		return policy.SeverityRiskHint
	}
	return policy.SeverityInfo
}

// ExternalScriptDomainsSeverity implements "external_script_domains.length>10 -> warning".
func ExternalScriptDomainsSeverity(count int) policy.Severity {
	if count > 10 {
		return policy.SeverityWarning
	}
	return policy.SeverityInfo
}

// ObfuscationSeverity implements "obfuscation_hint or eval_atob_hint -> risk_hint".
func ObfuscationSeverity(obfuscated, evalAtob bool) policy.Severity {
	if obfuscated || evalAtob {
		return policy.SeverityRiskHint
	}
	return policy.SeverityInfo
}

// ContentScoreSeverity implements "urgency_score>5 or extreme_discount_score>5 -> warning".
func ContentScoreSeverity(score int) policy.Severity {
	if score > 5 {
		return policy.SeverityWarning
	}
	return policy.SeverityInfo
}

// ImpersonationSeverity implements "impersonation_hint -> warning".
func ImpersonationSeverity(hint bool) policy.Severity {
	if hint {
		return policy.SeverityWarning
	}
	return policy.SeverityInfo
}

// DomainAgeYearsSeverity implements "domain_age_years<1 -> warning".
func DomainAgeYearsSeverity(years float64) policy.Severity {
	if years < 1 {
		return policy.SeverityWarning
	}
	return policy.SeverityInfo
}

// DomainAgeDaysSeverity implements "domain_age_days<90 -> risk_hint".
func DomainAgeDaysSeverity(days int) policy.Severity {
	if days < 90 {
		return policy.SeverityRiskHint
	}
	return policy.SeverityInfo
}

// RDAPAvailableSeverity implements "rdap_available=false -> warning".
func RDAPAvailableSeverity(available bool) policy.Severity {
	if !available {
		return policy.SeverityWarning
	}
	return policy.SeverityInfo
}
