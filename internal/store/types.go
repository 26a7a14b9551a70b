package store

import "time"

// Domain mirrors one row of the domain table — the latest-known
// reachability state a re-scan or the risk scorer's override can consult
// without re-running C5.
type Domain struct {
	ID              string
	Hostname        string
	IsActive        *bool
	StatusCode      *int
	AllowSubdomains *bool
	RespectRobots   *bool
	MaxPagesPerRun  *int
	CrawlDelayMs    *int
}

// ScanState is the shape `websiteScan.findUnique` returns per §6: enough
// for the runner to read the persisted isActive/statusCode used by the
// risk scorer's override rule.
type ScanState struct {
	ID         string
	DomainID   string
	TargetURL  string
	IsActive   *bool
	StatusCode *int
	Domain     Domain
}

// ArtifactInput is one homepage artifact row; all artifacts passed to
// UpsertScanArtifacts are upserted in a single transaction. The pipeline
// writes only "raw_html".
type ArtifactInput struct {
	Type        string // "raw_html" or "rendered_html"
	URL         string
	SHA256      string
	Snippet     string
	NearCap     bool
	ContentType string
	FetchedAt   time.Time
}

// PolicyLinkRecord is one verified or candidate policy link, written in a
// full per-scan replace.
type PolicyLinkRecord struct {
	PolicyType       string
	URL              string
	DiscoveryMethod  string
	Rank             int
	Verified         bool
	VerificationNote string
}

// HomepageSkuRecord is one extracted product card, written in a full
// per-scan replace.
type HomepageSkuRecord struct {
	ProductURL        string
	Title             string
	PriceText         string
	Amount            *float64
	OriginalPriceText string
	OriginalAmount    *float64
	IsOnSale          bool
	Currency          string
	ImageURL          string
	Availability      string
	Confidence        int
}

// RiskAssessmentRecord is C10's final output for one scan.
type RiskAssessmentRecord struct {
	OverallRiskScore  int
	PrimaryRiskType   string
	Confidence        int
	PhishingScore     int
	ShellCompanyScore int
	ComplianceScore   int
	Reasons           []string
	SignalPaths       []string
}
