// Package signals implements the ten-probe signal collector (C5): it fans
// out parallel probes over the fetch engine (C1), the browser fallback
// (C2), HTML utilities (C3), and the registrar lookup (C4), and assembles
// their outcomes into a DomainIntelSignals bundle.
package signals

import "time"

// SchemaVersion is bumped whenever a field is added, removed, or reinterpreted.
const SchemaVersion = 1

// Reachability is probe A: is the homepage reachable, and what does it say.
type Reachability struct {
	IsActive              bool
	StatusCode            *int
	ContentType           *string
	LatencyMs             *int64
	Bytes                 *int
	HTMLTitle             string
	HomepageTextWordCount int
	BotProtectionDetected bool
}

// Redirects is probe B.
type Redirects struct {
	FinalURL            string
	RedirectChainLength int
	CrossDomainRedirect bool
	MetaRefreshPresent  bool
	JSRedirectHint      bool
}

// DNS is probe C.
type DNS struct {
	A       []string
	AAAA    []string
	NS      []string
	MX      []string
	DNSOk   bool
	MXPresent bool
}

// TLS is probe D.
type TLS struct {
	Issuer       string
	ValidFrom    *time.Time
	ValidTo      *time.Time
	DaysToExpiry *int
	ExpiringSoon bool
	HTTPSOk      bool
}

// Headers is probe E.
type Headers struct {
	StrictTransportSecurity bool
	ContentSecurityPolicy   bool
	XFrameOptions           bool
	XContentTypeOptions     bool
	ReferrerPolicy          bool
}

// RobotsSitemap is probe F.
type RobotsSitemap struct {
	RobotsFetched   bool
	DisallowCount   int
	SitemapURLs     []string
	SitemapURLCount int
}

// PagePresence is one entry in PolicyPages.PageExists.
type PagePresence struct {
	Exists bool
	Status *int
}

// PolicyPages is probe G: the 17 well-known-path presence check.
type PolicyPages struct {
	PageExists map[string]PagePresence
	Snippets   map[string]string
}

// Forms is probe H.
type Forms struct {
	PasswordInputCount  int
	EmailInputCount     int
	LoginFormPresent    bool
	ExternalFormActions []string
}

// ThirdParty is probe I.
type ThirdParty struct {
	ExternalScriptDomains []string
	ObfuscationHint       bool
	EvalAtobHint          bool
}

// Content is probe J: the red-flag text scan.
type Content struct {
	UrgencyScore         int
	ExtremeDiscountScore int
	PaymentKeywordHint   bool
	ImpersonationHint    bool
}

// RDAP is the registrar lookup (C4), folded into the signal bundle.
type RDAP struct {
	RDAPAvailable   bool
	Source          string
	RegistrationDate *time.Time
	ExpirationDate   *time.Time
	LastChangedDate  *time.Time
	RegistrarName    string
	DomainAgeDays    *int
	DomainAgeYears   *float64
	Error            string
}

// DomainIntelSignals is the aggregate produced by one collectSignals call.
type DomainIntelSignals struct {
	SchemaVersion int       `json:"schema_version"`
	CollectedAt   time.Time `json:"collected_at"`
	TargetURL     string    `json:"target_url"`
	TargetDomain  string    `json:"target_domain"`

	Reachability  Reachability  `json:"reachability"`
	Redirects     Redirects     `json:"redirects"`
	DNS           DNS           `json:"dns"`
	TLS           TLS           `json:"tls"`
	Headers       Headers       `json:"headers"`
	RobotsSitemap RobotsSitemap `json:"robots_sitemap"`
	PolicyPages   PolicyPages   `json:"policy_pages"`
	Forms         Forms         `json:"forms"`
	ThirdParty    ThirdParty    `json:"third_party"`
	Content       Content       `json:"content"`
	RDAP          RDAP          `json:"rdap"`
}

// wellKnownPaths is the fixed list of 17 policy/contact paths probed by G.
var wellKnownPaths = []string{
	"/privacy", "/privacy-policy",
	"/terms", "/terms-of-service", "/terms-and-conditions",
	"/refund", "/refund-policy", "/returns", "/return-policy",
	"/shipping", "/shipping-policy",
	"/contact", "/contact-us",
	"/about", "/about-us",
	"/pages/privacy-policy", "/pages/refund-policy",
}
