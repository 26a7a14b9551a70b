// Package risk implements the deterministic risk scorer (C10): three
// independent sub-scorers (phishing, shell-company, compliance) over a
// frozen weight table, aggregated into one assessment with a primary risk
// type, confidence, reasons, and signal paths.
package risk

import (
	"github.com/jmylchreest/riskintel/internal/policylinks"
	"github.com/jmylchreest/riskintel/internal/signals"
)

// Risk type identifiers, also used as primaryRiskType's tie-break order.
const (
	TypePhishing     = "phishing"
	TypeShellCompany = "shell_company"
	TypeCompliance   = "compliance"
)

// ContactDetails is the subset of the contact_details data point the scorer
// consumes; nil means no contact extraction was available for this scan.
type ContactDetails struct {
	HasAddress        bool
	HasPhone          bool
	HasSocialPresence bool
	HasLinkedIn       bool
	GenericEmailOnly  bool
}

// Any reports whether any contact signal was found at all.
func (c ContactDetails) Any() bool {
	return c.HasAddress || c.HasPhone || c.HasSocialPresence || c.HasLinkedIn
}

// AIGeneratedLikelihood mirrors the ai_generated_likelihood data point.
type AIGeneratedLikelihood struct {
	Score      int
	Confidence int
}

// Input bundles everything one scoring pass needs.
type Input struct {
	Signals     *signals.DomainIntelSignals
	PolicyLinks []policylinks.VerifiedLink
	Contact     *ContactDetails
	AIGenerated *AIGeneratedLikelihood

	// ScanIsActive/DomainIsActive/PersistedStatusCode implement the
	// override rule: a persisted reachability success from a prior
	// successful browser escalation takes precedence over this run's
	// plain HTTP probe.
	ScanIsActive        bool
	DomainIsActive      bool
	PersistedStatusCode *int

	// PolicyPagesCheckedCount feeds the confidence adjustment; it is the
	// count of well-known paths actually fetched (not merely present).
	PolicyPagesCheckedCount int
}

// appliedRule is one scored point contribution, named for the reasons list
// and the signal-path ledger.
type appliedRule struct {
	category string
	key      string
	reason   string
	points   int
}

func (r appliedRule) signalPath() string { return r.category + "." + r.key }
func (r appliedRule) text() string       { return "[" + r.category + "] " + r.reason }

// Assessment is the final, persisted RiskAssessment record.
type Assessment struct {
	OverallRiskScore  int
	PhishingScore     int
	ShellCompanyScore int
	ComplianceScore   int
	PrimaryRiskType   string
	Confidence        int
	Reasons           []string
	SignalPaths       []string
}
