package risk

import (
	"math"
	"sort"
)

// primaryOrder is the fixed tie-break order for argmax(scores).
var primaryOrder = []string{TypePhishing, TypeShellCompany, TypeCompliance}

// Score runs all three sub-scorers, applies the reachability override,
// and aggregates into a final Assessment.
func Score(in Input) Assessment {
	in = applyReachabilityOverride(in)

	phishingRules := scorePhishing(in)
	shellRules := scoreShellCompany(in)
	complianceRules := scoreCompliance(in)

	phishing := clampSum(phishingRules)
	shell := clampSum(shellRules)
	compliance := clampSum(complianceRules)

	scores := map[string]int{TypePhishing: phishing, TypeShellCompany: shell, TypeCompliance: compliance}
	overall := aggregateScore(scores)
	primary := primaryRiskType(scores)
	confidence := computeConfidence(in)

	all := append(append(append([]appliedRule{}, phishingRules...), shellRules...), complianceRules...)
	reasons, signalPaths := buildReasonsAndPaths(all)

	return Assessment{
		OverallRiskScore:  overall,
		PhishingScore:     phishing,
		ShellCompanyScore: shell,
		ComplianceScore:   compliance,
		PrimaryRiskType:   primary,
		Confidence:        confidence,
		Reasons:           reasons,
		SignalPaths:       signalPaths,
	}
}

// applyReachabilityOverride implements spec.md §4.5's override rule: a
// persisted successful reachability (from a prior browser escalation)
// takes precedence over this run's own HTTP probe outcome.
func applyReachabilityOverride(in Input) Input {
	if in.Signals == nil {
		return in
	}
	if in.ScanIsActive || in.DomainIsActive {
		s := *in.Signals
		s.Reachability.IsActive = true
		if in.PersistedStatusCode != nil {
			sc := *in.PersistedStatusCode
			s.Reachability.StatusCode = &sc
		}
		in.Signals = &s
	}
	return in
}

func clampSum(rules []appliedRule) int {
	sum := 0
	for _, r := range rules {
		sum += r.points
	}
	return clamp(0, 100, sum)
}

func clamp(lo, hi, v int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func aggregateScore(scores map[string]int) int {
	max := 0
	sum := 0
	for _, v := range scores {
		if v > max {
			max = v
		}
		sum += v
	}
	mean := float64(sum) / float64(len(scores))
	return int(math.Round(0.6*float64(max) + 0.4*mean))
}

func primaryRiskType(scores map[string]int) string {
	best := primaryOrder[0]
	bestScore := -1
	for _, t := range primaryOrder {
		if scores[t] > bestScore {
			bestScore = scores[t]
			best = t
		}
	}
	return best
}

// computeConfidence implements spec.md §4.5's confidence adjustments,
// clamped to [0,90].
func computeConfidence(in Input) int {
	conf := 70
	s := in.Signals
	if s == nil {
		return clamp(0, 90, conf)
	}
	if s.RobotsSitemap.RobotsFetched {
		conf += 10
	}
	if in.PolicyPagesCheckedCount >= 4 {
		conf += 5
	}
	if !s.Reachability.IsActive {
		conf -= 30
	}
	if s.Reachability.ContentType == nil || !isHTMLContentType(*s.Reachability.ContentType) {
		conf -= 30
	}
	if s.Reachability.HomepageTextWordCount < 150 {
		conf -= 15
	}
	return clamp(0, 90, conf)
}

func isHTMLContentType(ct string) bool {
	for i := 0; i+4 <= len(ct); i++ {
		if ct[i:i+4] == "html" {
			return true
		}
	}
	return false
}

// buildReasonsAndPaths sorts every applied rule by points descending, keeps
// up to 5 distinct reason strings, and unions every rule's signal path.
func buildReasonsAndPaths(rules []appliedRule) (reasons []string, signalPaths []string) {
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].points > rules[j].points })

	seenReason := map[string]bool{}
	seenPath := map[string]bool{}
	for _, r := range rules {
		path := r.signalPath()
		if !seenPath[path] {
			seenPath[path] = true
			signalPaths = append(signalPaths, path)
		}
		text := r.text()
		if len(reasons) >= 5 || seenReason[text] {
			continue
		}
		seenReason[text] = true
		reasons = append(reasons, text)
	}
	return reasons, signalPaths
}
