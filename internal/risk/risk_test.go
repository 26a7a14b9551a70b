package risk

import (
	"testing"

	"github.com/jmylchreest/riskintel/internal/policylinks"
	"github.com/jmylchreest/riskintel/internal/signals"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func cleanCorporateSignals() *signals.DomainIntelSignals {
	return &signals.DomainIntelSignals{
		TargetDomain: "example.com",
		Reachability: signals.Reachability{
			IsActive:              true,
			StatusCode:            intPtr(200),
			ContentType:           strPtr("text/html; charset=utf-8"),
			HTMLTitle:             "Example Corp — Enterprise Software",
			HomepageTextWordCount: 900,
		},
		Redirects: signals.Redirects{},
		DNS:       signals.DNS{DNSOk: true, MXPresent: true},
		TLS:       signals.TLS{HTTPSOk: true},
		Headers: signals.Headers{
			StrictTransportSecurity: true,
			ContentSecurityPolicy:   true,
			XFrameOptions:           true,
			XContentTypeOptions:    true,
			ReferrerPolicy:          true,
		},
		RobotsSitemap: signals.RobotsSitemap{
			RobotsFetched:   true,
			SitemapURLs:     []string{"https://example.com/sitemap.xml"},
			SitemapURLCount: 1,
		},
		PolicyPages: signals.PolicyPages{
			PageExists: map[string]signals.PagePresence{
				"/privacy":  {Exists: true},
				"/terms":    {Exists: true},
				"/contact":  {Exists: true},
				"/about":    {Exists: true},
			},
		},
		RDAP: signals.RDAP{DomainAgeDays: intPtr(3650)},
	}
}

func shellCompanySignals() *signals.DomainIntelSignals {
	return &signals.DomainIntelSignals{
		TargetDomain: "totally-legit-deals.vercel.app",
		Reachability: signals.Reachability{
			IsActive:              true,
			StatusCode:            intPtr(200),
			ContentType:           strPtr("text/html"),
			HTMLTitle:             "Coming Soon",
			HomepageTextWordCount: 40,
		},
		DNS: signals.DNS{DNSOk: true, MXPresent: false},
		TLS: signals.TLS{HTTPSOk: true},
		RDAP: signals.RDAP{DomainAgeDays: intPtr(10)},
	}
}

func TestScore_CleanCorporateSite(t *testing.T) {
	in := Input{
		Signals: cleanCorporateSignals(),
		PolicyLinks: []policylinks.VerifiedLink{
			{Type: policylinks.TypeRefund, Verified: true},
		},
		Contact: &ContactDetails{
			HasAddress: true, HasPhone: true, HasSocialPresence: true, HasLinkedIn: true,
		},
		PolicyPagesCheckedCount: 5,
	}

	a := Score(in)
	if a.OverallRiskScore > 10 {
		t.Errorf("overall risk score = %d, want <= 10", a.OverallRiskScore)
	}
	if a.Confidence < 85 {
		t.Errorf("confidence = %d, want >= 85", a.Confidence)
	}
}

func TestScore_ShellCompanyScenario(t *testing.T) {
	in := Input{
		Signals: shellCompanySignals(),
		Contact: &ContactDetails{},
	}

	a := Score(in)
	if a.ShellCompanyScore < 50 {
		t.Errorf("shell company score = %d, want high (>=50)", a.ShellCompanyScore)
	}
	if a.PrimaryRiskType != TypeShellCompany {
		t.Errorf("primary risk type = %q, want shell_company", a.PrimaryRiskType)
	}
}

func TestScore_ReasonsAreAtMostFiveAndDistinct(t *testing.T) {
	a := Score(Input{Signals: shellCompanySignals(), Contact: &ContactDetails{}})
	if len(a.Reasons) > 5 {
		t.Fatalf("len(Reasons) = %d, want <= 5", len(a.Reasons))
	}
	seen := map[string]bool{}
	for _, r := range a.Reasons {
		if seen[r] {
			t.Errorf("duplicate reason: %q", r)
		}
		seen[r] = true
	}
}

func TestScore_AggregationFormula(t *testing.T) {
	in := Input{Signals: shellCompanySignals(), Contact: &ContactDetails{}}
	a := Score(in)

	scores := []int{a.PhishingScore, a.ShellCompanyScore, a.ComplianceScore}
	max := scores[0]
	sum := 0
	for _, v := range scores {
		if v > max {
			max = v
		}
		sum += v
	}
	mean := float64(sum) / 3.0
	want := int(0.6*float64(max) + 0.4*mean + 0.5)
	if a.OverallRiskScore != want {
		t.Errorf("overall = %d, want %d (0.6*max + 0.4*mean)", a.OverallRiskScore, want)
	}
}

func TestScore_ConfidenceBounds(t *testing.T) {
	cases := []*signals.DomainIntelSignals{
		cleanCorporateSignals(),
		shellCompanySignals(),
		{Reachability: signals.Reachability{IsActive: false}},
	}
	for i, s := range cases {
		a := Score(Input{Signals: s})
		if a.Confidence < 0 || a.Confidence > 90 {
			t.Errorf("case %d: confidence = %d, want within [0,90]", i, a.Confidence)
		}
	}
}

func TestScore_Deterministic(t *testing.T) {
	in := Input{
		Signals: shellCompanySignals(),
		Contact: &ContactDetails{HasPhone: true},
		PolicyLinks: []policylinks.VerifiedLink{
			{Type: policylinks.TypePrivacy, Verified: true},
		},
	}
	a1 := Score(in)
	a2 := Score(in)
	if a1.OverallRiskScore != a2.OverallRiskScore ||
		a1.PrimaryRiskType != a2.PrimaryRiskType ||
		a1.Confidence != a2.Confidence ||
		len(a1.Reasons) != len(a2.Reasons) {
		t.Errorf("Score is not deterministic across identical inputs: %+v vs %+v", a1, a2)
	}
}

func TestPrimaryRiskType_TieBreakOrder(t *testing.T) {
	tied := map[string]int{TypePhishing: 40, TypeShellCompany: 40, TypeCompliance: 40}
	if got := primaryRiskType(tied); got != TypePhishing {
		t.Errorf("primaryRiskType on a 3-way tie = %q, want phishing (first in tie-break order)", got)
	}
	tied2 := map[string]int{TypePhishing: 10, TypeShellCompany: 40, TypeCompliance: 40}
	if got := primaryRiskType(tied2); got != TypeShellCompany {
		t.Errorf("primaryRiskType = %q, want shell_company (beats compliance on tie)", got)
	}
}

func TestApplyReachabilityOverride(t *testing.T) {
	s := &signals.DomainIntelSignals{Reachability: signals.Reachability{IsActive: false, StatusCode: intPtr(503)}}
	in := Input{Signals: s, ScanIsActive: true, PersistedStatusCode: intPtr(200)}
	out := applyReachabilityOverride(in)

	if !out.Signals.Reachability.IsActive {
		t.Error("expected IsActive to be overridden to true")
	}
	if out.Signals.Reachability.StatusCode == nil || *out.Signals.Reachability.StatusCode != 200 {
		t.Errorf("expected StatusCode overridden to 200, got %v", out.Signals.Reachability.StatusCode)
	}
	if s.Reachability.IsActive {
		t.Error("original input signals must not be mutated in place")
	}
}

func TestScore_NilSignalsYieldsZeroScores(t *testing.T) {
	a := Score(Input{})
	if a.OverallRiskScore != 0 || a.PhishingScore != 0 || a.ShellCompanyScore != 0 || a.ComplianceScore != 0 {
		t.Errorf("expected all-zero scores for nil signals, got %+v", a)
	}
	if a.Confidence != 70 {
		t.Errorf("confidence with nil signals = %d, want 70 (no adjustments applied)", a.Confidence)
	}
}
