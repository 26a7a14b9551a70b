package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmylchreest/riskintel/internal/htmlutil"
	"github.com/jmylchreest/riskintel/internal/policy"
	"github.com/jmylchreest/riskintel/internal/policylinks"
	"github.com/jmylchreest/riskintel/internal/risk"
	"github.com/jmylchreest/riskintel/internal/signals"
	"github.com/jmylchreest/riskintel/internal/sku"
	"github.com/jmylchreest/riskintel/internal/store"
)

const defaultSnippetCap = 20 * 1024

// Run implements runRiskIntelPipeline per spec.md §6: normalize the URL,
// resolve policy (store override or defaults), run C5 then C8/C9 then C10,
// and persist every stage. It never returns an error to its caller — any
// failure becomes a failed Assessment inside Result.
func (r *Runner) Run(ctx context.Context, scanID, rawURL string) Result {
	targetURL, hostname, err := NormalizeURL(rawURL)
	if err != nil {
		return r.failAndPersist(ctx, scanID, fmt.Errorf("invalid URL: %w", err))
	}

	domPolicy, err := r.resolvePolicy(ctx, hostname)
	if err != nil {
		return r.failAndPersist(ctx, scanID, fmt.Errorf("resolve policy: %w", err))
	}

	fc := policy.NewFetchContext(scanID, domPolicy, hostname)

	sig, artifact := r.Collector.Collect(ctx, fc, scanID, targetURL)

	if err := r.Store.UpdateScanReachability(ctx, scanID, sig.Reachability.IsActive, sig.Reachability.StatusCode); err != nil {
		fc.AppendError(fmt.Sprintf("update scan reachability: %v", err))
	}
	r.persistArtifact(ctx, scanID, artifact)

	var links []policylinks.VerifiedLink
	if r.Extractor != nil {
		links, _ = r.Extractor.Extract(ctx, fc, scanID, targetURL, artifact.Body)
	}
	r.persistPolicyLinks(ctx, scanID, links)

	skuItems := r.extractSKUs(targetURL, artifact.Body)
	r.persistSKUs(ctx, scanID, skuItems)

	scanState, _ := r.Store.FindScan(ctx, scanID)
	contact := r.loadContactDetails(ctx, scanID)
	aiGen := r.loadAIGenerated(ctx, scanID)

	in := risk.Input{
		Signals:                 sig,
		PolicyLinks:             links,
		Contact:                 contact,
		AIGenerated:             aiGen,
		PolicyPagesCheckedCount: len(sig.PolicyPages.PageExists),
	}
	if scanState != nil {
		in.ScanIsActive = scanState.IsActive != nil && *scanState.IsActive
		in.DomainIsActive = scanState.Domain.IsActive != nil && *scanState.Domain.IsActive
		if scanState.StatusCode != nil {
			in.PersistedStatusCode = scanState.StatusCode
		} else {
			in.PersistedStatusCode = scanState.Domain.StatusCode
		}
	}

	assessment := risk.Score(in)

	r.persistLogs(ctx, scanID, fc)
	r.persistAssessment(ctx, scanID, scanState, sig, links, skuItems, assessment)

	_ = r.Store.CompleteScan(ctx, scanID, "completed", "")

	return Result{Assessment: assessment, Signals: sig}
}

// NormalizeURL implements §6(a)/(b): coerce to an http(s) scheme and
// extract a lowercased hostname.
func NormalizeURL(raw string) (targetURL, hostname string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", fmt.Errorf("empty URL")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("missing host")
	}
	u.Host = strings.ToLower(u.Host)
	return u.String(), strings.ToLower(u.Hostname()), nil
}

// resolvePolicy implements §6(c)/(d): an optional per-domain override from
// the store, falling back to the runner's configured defaults.
func (r *Runner) resolvePolicy(ctx context.Context, hostname string) (policy.DomainPolicy, error) {
	p := policy.DomainPolicy{
		IsAuthorized:     true,
		AllowSubdomains:  r.DefaultAllowSubdomains,
		RespectRobots:    r.DefaultRespectRobots,
		MaxPagesPerRun:   r.intDefault(r.DefaultMaxPagesPerRun, 50),
		CrawlDelayMs:     r.intDefault(r.DefaultCrawlDelayMs, 1000),
		RequestTimeoutMs: r.intDefault(r.DefaultRequestTimeoutMs, 8000),
		MaxDepth:         r.intDefault(r.DefaultMaxDepth, 2),
	}

	if r.Store != nil {
		dom, err := r.Store.FindDomainByHostname(ctx, hostname)
		if err != nil {
			return policy.DomainPolicy{}, err
		}
		if dom != nil {
			if dom.AllowSubdomains != nil {
				p.AllowSubdomains = *dom.AllowSubdomains
			}
			if dom.RespectRobots != nil {
				p.RespectRobots = *dom.RespectRobots
			}
			if dom.MaxPagesPerRun != nil {
				p.MaxPagesPerRun = *dom.MaxPagesPerRun
			}
			if dom.CrawlDelayMs != nil {
				p.CrawlDelayMs = *dom.CrawlDelayMs
			}
		}
	}

	if err := p.Validate(); err != nil {
		return policy.DomainPolicy{}, err
	}
	return p, nil
}

func (r *Runner) intDefault(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func (r *Runner) extractSKUs(targetURL, body string) []sku.Item {
	doc, err := htmlutil.ParseDocument(body)
	if err != nil || doc == nil {
		return nil
	}
	base, err := url.Parse(targetURL)
	if err != nil {
		return nil
	}
	return sku.Extract(base, doc)
}

func (r *Runner) persistArtifact(ctx context.Context, scanID string, a signals.Artifact) {
	if r.Store == nil {
		return
	}
	snippet := a.Body
	nearCap := false
	snippetCap := r.SnippetCap
	if snippetCap <= 0 {
		snippetCap = defaultSnippetCap
	}
	if len(snippet) > snippetCap {
		nearCap = store.NearCap(len(a.Body), snippetCap)
		snippet = snippet[:snippetCap]
	}
	sha := store.Sha256Hex([]byte(a.Body))
	if r.Blobs != nil && r.Blobs.IsEnabled() {
		_, _ = r.Blobs.Put(ctx, []byte(a.Body), a.ContentType)
	}
	now := r.now()
	_ = r.Store.UpsertScanArtifacts(ctx, scanID, []store.ArtifactInput{
		{Type: "raw_html", URL: a.URL, SHA256: sha, Snippet: snippet, NearCap: nearCap, ContentType: a.ContentType, FetchedAt: now},
	})
}

func (r *Runner) persistPolicyLinks(ctx context.Context, scanID string, links []policylinks.VerifiedLink) {
	if r.Store == nil {
		return
	}
	records := make([]store.PolicyLinkRecord, 0, len(links))
	for _, l := range links {
		records = append(records, store.PolicyLinkRecord{
			PolicyType:       string(l.Type),
			URL:              l.URL,
			DiscoveryMethod:  string(l.DiscoveryMethod),
			Rank:             l.Rank,
			Verified:         l.Verified,
			VerificationNote: l.VerificationNote,
		})
	}
	_ = r.Store.ReplacePolicyLinks(ctx, scanID, records)
}

func (r *Runner) persistSKUs(ctx context.Context, scanID string, items []sku.Item) {
	if r.Store == nil {
		return
	}
	records := make([]store.HomepageSkuRecord, 0, len(items))
	for _, it := range items {
		records = append(records, store.HomepageSkuRecord{
			ProductURL:        it.ProductURL,
			Title:             it.Title,
			PriceText:         it.PriceText,
			Amount:            it.Amount,
			OriginalPriceText: it.OriginalPriceText,
			OriginalAmount:    it.OriginalAmount,
			IsOnSale:          it.IsOnSale,
			Currency:          it.Currency,
			ImageURL:          it.ImageURL,
			Availability:      it.AvailabilityHint,
			Confidence:        it.Confidence,
		})
	}
	_ = r.Store.ReplaceHomepageSkus(ctx, scanID, records)
}

// persistLogs bulk-inserts the fetch/signal logs accumulated on fc, per
// §5's "persisted at scan end in bulk inserts" rule.
func (r *Runner) persistLogs(ctx context.Context, scanID string, fc *policy.FetchContext) {
	if r.Store == nil {
		return
	}
	_ = r.Store.CreateFetchLogs(ctx, scanID, fc.FetchLogs())
	_ = r.Store.CreateSignalLogs(ctx, scanID, fc.SignalLogs())
}

func (r *Runner) persistAssessment(ctx context.Context, scanID string, scanState *store.ScanState, sig *signals.DomainIntelSignals, links []policylinks.VerifiedLink, items []sku.Item, a risk.Assessment) {
	if r.Store == nil {
		return
	}

	_ = r.Store.UpsertScanDataPoint(ctx, scanID, "domain_intel_signals", "Domain Intelligence Signals", sig, nil)
	_ = r.Store.UpsertScanDataPoint(ctx, scanID, "domain_risk_assessment", "Domain Risk Assessment", a, nil)
	_ = r.Store.UpsertScanDataPoint(ctx, scanID, "policy_links", "Policy Links", links, nil)
	summary := sku.Summarize(items, len(items))
	_ = r.Store.UpsertScanDataPoint(ctx, scanID, "homepage_sku_summary", "Homepage SKU Summary", summary, nil)

	if scanState != nil {
		_ = r.Store.UpsertDomainDataPoint(ctx, scanState.DomainID, "domain_intel_signals", "Domain Intelligence Signals", sig, nil)
		_ = r.Store.UpsertDomainDataPoint(ctx, scanState.DomainID, "domain_risk_assessment", "Domain Risk Assessment", a, nil)
	}

	_ = r.Store.SaveRiskAssessment(ctx, scanID, store.RiskAssessmentRecord{
		OverallRiskScore:  a.OverallRiskScore,
		PrimaryRiskType:   a.PrimaryRiskType,
		Confidence:        a.Confidence,
		PhishingScore:     a.PhishingScore,
		ShellCompanyScore: a.ShellCompanyScore,
		ComplianceScore:   a.ComplianceScore,
		Reasons:           a.Reasons,
		SignalPaths:       a.SignalPaths,
	})
}

func (r *Runner) loadContactDetails(ctx context.Context, scanID string) *risk.ContactDetails {
	if r.Store == nil {
		return nil
	}
	raw, ok, err := r.Store.ScanDataPoint(ctx, scanID, "contact_details")
	if err != nil || !ok {
		return nil
	}
	var c risk.ContactDetails
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil
	}
	return &c
}

func (r *Runner) loadAIGenerated(ctx context.Context, scanID string) *risk.AIGeneratedLikelihood {
	if r.Store == nil {
		return nil
	}
	raw, ok, err := r.Store.ScanDataPoint(ctx, scanID, "ai_generated_likelihood")
	if err != nil || !ok {
		return nil
	}
	var ai risk.AIGeneratedLikelihood
	if err := json.Unmarshal([]byte(raw), &ai); err != nil {
		return nil
	}
	return &ai
}

// failAndPersist implements §7's input-validation short-circuit: record a
// failed scan and return createFailedAssessment's equivalent Result.
func (r *Runner) failAndPersist(ctx context.Context, scanID string, err error) Result {
	if r.Store != nil {
		_ = r.Store.CompleteScan(ctx, scanID, "failed", err.Error())
	}
	return Result{Assessment: createFailedAssessment(), Error: err.Error()}
}

// createFailedAssessment is §7's fallback record: all scores zero,
// primary_risk_type defaults to shell_company per the scoring-failure rule.
func createFailedAssessment() risk.Assessment {
	return risk.Assessment{PrimaryRiskType: risk.TypeShellCompany}
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
