package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/riskintel/internal/policy"
)

// Store implements the persistence contract described by §6: scans,
// artifacts, fetch/signal logs, data points, policy links, and SKUs, all
// idempotent on scanId.
type Store struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// UpsertDomain finds or creates the domain row for hostname, returning its
// id without touching existing policy-override columns.
func (s *Store) UpsertDomain(ctx context.Context, hostname string) (*Domain, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM domain WHERE hostname = ?`, hostname).Scan(&id)
	if err == nil {
		return s.FindDomain(ctx, id)
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("lookup domain: %w", err)
	}

	id = ulid.Make().String()
	ts := now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO domain (id, hostname, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, hostname, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("create domain: %w", err)
	}
	return &Domain{ID: id, Hostname: hostname}, nil
}

// FindDomain returns the domain row for id, including any persisted
// policy-override columns (spec.md §6's `authorizedDomain.findFirst`).
func (s *Store) FindDomain(ctx context.Context, id string) (*Domain, error) {
	var d Domain
	var isActive sql.NullBool
	var statusCode, maxPages, crawlDelay sql.NullInt64
	var allowSub, respectRobots sql.NullBool
	err := s.db.QueryRowContext(ctx,
		`SELECT id, hostname, is_active, status_code, allow_subdomains, respect_robots, max_pages_per_run, crawl_delay_ms
		 FROM domain WHERE id = ?`, id,
	).Scan(&d.ID, &d.Hostname, &isActive, &statusCode, &allowSub, &respectRobots, &maxPages, &crawlDelay)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find domain: %w", err)
	}
	if isActive.Valid {
		d.IsActive = &isActive.Bool
	}
	if statusCode.Valid {
		v := int(statusCode.Int64)
		d.StatusCode = &v
	}
	if allowSub.Valid {
		d.AllowSubdomains = &allowSub.Bool
	}
	if respectRobots.Valid {
		d.RespectRobots = &respectRobots.Bool
	}
	if maxPages.Valid {
		v := int(maxPages.Int64)
		d.MaxPagesPerRun = &v
	}
	if crawlDelay.Valid {
		v := int(crawlDelay.Int64)
		d.CrawlDelayMs = &v
	}
	return &d, nil
}

// FindDomainByHostname looks up a domain's policy override by hostname,
// with domain-suffix matching per §6 (`authorizedDomain.findFirst`):
// exact match first, then the nearest registered parent domain when
// allowSubdomains permits it.
func (s *Store) FindDomainByHostname(ctx context.Context, hostname string) (*Domain, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM domain WHERE hostname = ?`, hostname).Scan(&id)
	if err == sql.ErrNoRows {
		rows, qerr := s.db.QueryContext(ctx, `SELECT id, hostname FROM domain WHERE allow_subdomains = 1`)
		if qerr != nil {
			return nil, fmt.Errorf("lookup domain suffix: %w", qerr)
		}
		defer rows.Close()
		var bestID string
		bestLen := 0
		for rows.Next() {
			var candID, candHost string
			if scanErr := rows.Scan(&candID, &candHost); scanErr != nil {
				return nil, scanErr
			}
			if len(hostname) > len(candHost) && hostname[len(hostname)-len(candHost)-1:] == "."+candHost && len(candHost) > bestLen {
				bestID, bestLen = candID, len(candHost)
			}
		}
		if bestID != "" {
			return s.FindDomain(ctx, bestID)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup domain: %w", err)
	}
	return s.FindDomain(ctx, id)
}

// CreateScan inserts a new website_scan row in status "pending".
func (s *Store) CreateScan(ctx context.Context, domainID, targetURL string) (string, error) {
	id := ulid.Make().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO website_scan (id, domain_id, target_url, status, started_at) VALUES (?, ?, ?, 'pending', ?)`,
		id, domainID, targetURL, now(),
	)
	if err != nil {
		return "", fmt.Errorf("create scan: %w", err)
	}
	return id, nil
}

// FindScan returns the persisted scan state, joined with its domain's
// mirror, matching spec.md §6's `websiteScan.findUnique` shape.
func (s *Store) FindScan(ctx context.Context, scanID string) (*ScanState, error) {
	var st ScanState
	var isActive sql.NullBool
	var statusCode sql.NullInt64
	var domActive sql.NullBool
	var domStatus sql.NullInt64
	var domHostname string
	err := s.db.QueryRowContext(ctx, `
		SELECT ws.id, ws.domain_id, ws.target_url, ws.is_active, ws.status_code,
		       d.hostname, d.is_active, d.status_code
		FROM website_scan ws JOIN domain d ON d.id = ws.domain_id
		WHERE ws.id = ?`, scanID,
	).Scan(&st.ID, &st.DomainID, &st.TargetURL, &isActive, &statusCode, &domHostname, &domActive, &domStatus)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find scan: %w", err)
	}
	if isActive.Valid {
		st.IsActive = &isActive.Bool
	}
	if statusCode.Valid {
		v := int(statusCode.Int64)
		st.StatusCode = &v
	}
	st.Domain = Domain{ID: st.DomainID, Hostname: domHostname}
	if domActive.Valid {
		st.Domain.IsActive = &domActive.Bool
	}
	if domStatus.Valid {
		v := int(domStatus.Int64)
		st.Domain.StatusCode = &v
	}
	return &st, nil
}

// UpdateScanReachability mirrors the homepage reachability result onto
// both the scan row and its domain, so a later scan's override rule
// (spec.md §4.5) can see it.
func (s *Store) UpdateScanReachability(ctx context.Context, scanID string, isActive bool, statusCode *int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var domainID string
	if err := tx.QueryRowContext(ctx, `SELECT domain_id FROM website_scan WHERE id = ?`, scanID).Scan(&domainID); err != nil {
		return fmt.Errorf("lookup scan domain: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE website_scan SET is_active = ?, status_code = ? WHERE id = ?`,
		boolToInt(isActive), nullInt(statusCode), scanID,
	); err != nil {
		return fmt.Errorf("update scan reachability: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE domain SET is_active = ?, status_code = ?, updated_at = ? WHERE id = ?`,
		boolToInt(isActive), nullInt(statusCode), now(), domainID,
	); err != nil {
		return fmt.Errorf("update domain reachability: %w", err)
	}
	return tx.Commit()
}

// CompleteScan marks a scan finished (or failed), recording an optional
// error message.
func (s *Store) CompleteScan(ctx context.Context, scanID, status, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE website_scan SET status = ?, error_message = ?, completed_at = ? WHERE id = ?`,
		status, nullString(errMsg), now(), scanID,
	)
	if err != nil {
		return fmt.Errorf("complete scan: %w", err)
	}
	return nil
}

// UpsertScanArtifacts writes every given artifact in one transaction so
// none lands without the others. The pipeline passes a single raw_html
// artifact per scan; no text or rendered artifact is written.
func (s *Store) UpsertScanArtifacts(ctx context.Context, scanID string, artifacts []ArtifactInput) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range artifacts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO scan_artifact (scan_id, type, url, sha256, snippet, near_cap, content_type, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(scan_id, type) DO UPDATE SET
				url = excluded.url, sha256 = excluded.sha256, snippet = excluded.snippet,
				near_cap = excluded.near_cap, content_type = excluded.content_type, fetched_at = excluded.fetched_at
		`, scanID, a.Type, a.URL, a.SHA256, a.Snippet, boolToInt(a.NearCap), a.ContentType, a.FetchedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("upsert artifact %s: %w", a.Type, err)
		}
	}
	return tx.Commit()
}

// CreateFetchLogs bulk-inserts the fetch log in append order (seq
// preserves the ordering guarantee of spec.md §5).
func (s *Store) CreateFetchLogs(ctx context.Context, scanID string, entries []policy.FetchLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO crawl_fetch_log
			(id, scan_id, seq, url, method, status_code, ok, latency_ms, bytes, content_type,
			 discovered_by, allowed_by_policy, blocked_reason, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare fetch log insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		var blockedReason, errStr string
		if e.BlockedReason != nil {
			blockedReason = *e.BlockedReason
		}
		if e.Error != nil {
			errStr = *e.Error
		}
		_, err := stmt.ExecContext(ctx,
			ulid.Make().String(), scanID, i, e.URL, string(e.Method),
			nullInt(e.StatusCode), boolToInt(e.OK), nullInt64Ptr(e.LatencyMs), nullInt(e.Bytes),
			nullStringPtr(e.ContentType), string(e.DiscoveredBy), boolToInt(e.AllowedByPolicy),
			nullString(blockedReason), nullString(errStr),
		)
		if err != nil {
			return fmt.Errorf("insert fetch log %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// CreateSignalLogs bulk-inserts the signal log in append order.
func (s *Store) CreateSignalLogs(ctx context.Context, scanID string, entries []policy.SignalLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO signal_log
			(id, scan_id, seq, category, name, value_type, value_number, value_string,
			 value_boolean, value_json, severity, evidence_url, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare signal log insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		var valBool sql.NullInt64
		if e.ValueBoolean != nil {
			valBool = sql.NullInt64{Int64: int64(boolToInt(*e.ValueBoolean)), Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			ulid.Make().String(), scanID, i, e.Category, e.Name, string(e.ValueType),
			nullFloatPtr(e.ValueNumber), nullStringPtr(e.ValueString), valBool,
			nullStringPtr(e.ValueJSON), string(e.Severity), nullStringPtr(e.EvidenceURL), nullStringPtr(e.Notes),
		)
		if err != nil {
			return fmt.Errorf("insert signal log %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func nullInt64Ptr(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func nullFloatPtr(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// UpsertScanDataPoint writes one snapshot-per-scan data point; value and
// sources are marshaled to JSON before storage, matching §6's
// stringified-JSON contract.
func (s *Store) UpsertScanDataPoint(ctx context.Context, scanID, key, label string, value any, sources []string) error {
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal data point value: %w", err)
	}
	if sources == nil {
		sources = []string{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("marshal data point sources: %w", err)
	}

	id := fmt.Sprintf("%s_%s", scanID, key)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scan_data_point (id, scan_id, key, label, value, sources, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scan_id, key) DO UPDATE SET
			label = excluded.label, value = excluded.value, sources = excluded.sources, extracted_at = excluded.extracted_at
	`, id, scanID, key, nullString(label), string(valueJSON), string(sourcesJSON), now())
	if err != nil {
		return fmt.Errorf("upsert scan data point %s: %w", key, err)
	}
	return nil
}

// UpsertDomainDataPoint writes the latest-per-domain mirror of a scan
// data point.
func (s *Store) UpsertDomainDataPoint(ctx context.Context, domainID, key, label string, value any, sources []string) error {
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal data point value: %w", err)
	}
	if sources == nil {
		sources = []string{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("marshal data point sources: %w", err)
	}

	id := fmt.Sprintf("%s_%s", domainID, key)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO domain_data_point (id, domain_id, key, label, value, sources, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain_id, key) DO UPDATE SET
			label = excluded.label, value = excluded.value, sources = excluded.sources, extracted_at = excluded.extracted_at
	`, id, domainID, key, nullString(label), string(valueJSON), string(sourcesJSON), now())
	if err != nil {
		return fmt.Errorf("upsert domain data point %s: %w", key, err)
	}
	return nil
}

// ScanDataPoint returns the value JSON for one data point key, used to
// look up the `contact_details`/`ai_generated_likelihood` inputs C10
// consumes (spec.md §6).
func (s *Store) ScanDataPoint(ctx context.Context, scanID, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM scan_data_point WHERE scan_id = ? AND key = ?`, scanID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup scan data point %s: %w", key, err)
	}
	return value, true, nil
}

// ReplacePolicyLinks deletes and recreates every PolicyLink row for a
// scan, per §6's `policyLink.deleteMany({scanId}) + create`. I6 (policy
// type uniqueness within a scan) is additionally enforced by the unique
// index on (scan_id, policy_type).
func (s *Store) ReplacePolicyLinks(ctx context.Context, scanID string, links []PolicyLinkRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM policy_link WHERE scan_id = ?`, scanID); err != nil {
		return fmt.Errorf("delete policy links: %w", err)
	}
	ts := now()
	for _, l := range links {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO policy_link (id, scan_id, policy_type, url, discovery_method, rank, verified, verification_note, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, ulid.Make().String(), scanID, l.PolicyType, l.URL, l.DiscoveryMethod, l.Rank, boolToInt(l.Verified), nullString(l.VerificationNote), ts)
		if err != nil {
			return fmt.Errorf("insert policy link %s: %w", l.PolicyType, err)
		}
	}
	return tx.Commit()
}

// ReplaceHomepageSkus deletes and recreates every HomepageSku row for a
// scan, per §6's `homepageSku.deleteMany({scanId}) + createMany`.
func (s *Store) ReplaceHomepageSkus(ctx context.Context, scanID string, skus []HomepageSkuRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM homepage_sku WHERE scan_id = ?`, scanID); err != nil {
		return fmt.Errorf("delete homepage skus: %w", err)
	}
	ts := now()
	for _, sk := range skus {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO homepage_sku
				(id, scan_id, product_url, title, price_text, amount, original_price_text, original_amount,
				 is_on_sale, currency, image_url, availability, confidence, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, ulid.Make().String(), scanID, sk.ProductURL, nullString(sk.Title), nullString(sk.PriceText),
			nullFloatPtr(sk.Amount), nullString(sk.OriginalPriceText), nullFloatPtr(sk.OriginalAmount),
			boolToInt(sk.IsOnSale), nullString(sk.Currency), nullString(sk.ImageURL), nullString(sk.Availability),
			sk.Confidence, ts)
		if err != nil {
			return fmt.Errorf("insert homepage sku %s: %w", sk.ProductURL, err)
		}
	}
	return tx.Commit()
}

// ScanResult is the shape the HTTP surface's GET /api/v1/scans/{id} returns:
// the scan's lifecycle state plus its risk assessment once scoring has run.
type ScanResult struct {
	ScanID       string
	TargetURL    string
	Status       string
	ErrorMessage string
	StartedAt    time.Time
	CompletedAt  *time.Time
	Assessment   *RiskAssessmentRecord
}

// GetScanResult joins a scan's lifecycle row with its risk assessment (if
// scoring has completed), or nil if the scan doesn't exist.
func (s *Store) GetScanResult(ctx context.Context, scanID string) (*ScanResult, error) {
	var res ScanResult
	var startedAt string
	var completedAt sql.NullString
	var errMsg sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, target_url, status, error_message, started_at, completed_at
		FROM website_scan WHERE id = ?`, scanID,
	).Scan(&res.ScanID, &res.TargetURL, &res.Status, &errMsg, &startedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scan result: %w", err)
	}
	res.ErrorMessage = errMsg.String
	if t, perr := time.Parse(time.RFC3339, startedAt); perr == nil {
		res.StartedAt = t
	}
	if completedAt.Valid {
		if t, perr := time.Parse(time.RFC3339, completedAt.String); perr == nil {
			res.CompletedAt = &t
		}
	}

	var a RiskAssessmentRecord
	var reasonsJSON, pathsJSON string
	err = s.db.QueryRowContext(ctx, `
		SELECT overall_risk_score, primary_risk_type, confidence,
		       phishing_score, shell_company_score, compliance_score, reasons, signal_paths
		FROM risk_assessment WHERE scan_id = ?`, scanID,
	).Scan(&a.OverallRiskScore, &a.PrimaryRiskType, &a.Confidence,
		&a.PhishingScore, &a.ShellCompanyScore, &a.ComplianceScore, &reasonsJSON, &pathsJSON)
	if err == nil {
		_ = json.Unmarshal([]byte(reasonsJSON), &a.Reasons)
		_ = json.Unmarshal([]byte(pathsJSON), &a.SignalPaths)
		res.Assessment = &a
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("get risk assessment: %w", err)
	}

	return &res, nil
}

// SaveRiskAssessment upserts the final C10 output for a scan.
func (s *Store) SaveRiskAssessment(ctx context.Context, scanID string, a RiskAssessmentRecord) error {
	reasonsJSON, err := json.Marshal(a.Reasons)
	if err != nil {
		return fmt.Errorf("marshal reasons: %w", err)
	}
	pathsJSON, err := json.Marshal(a.SignalPaths)
	if err != nil {
		return fmt.Errorf("marshal signal paths: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO risk_assessment
			(scan_id, overall_risk_score, primary_risk_type, confidence,
			 phishing_score, shell_company_score, compliance_score, reasons, signal_paths, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scan_id) DO UPDATE SET
			overall_risk_score = excluded.overall_risk_score, primary_risk_type = excluded.primary_risk_type,
			confidence = excluded.confidence, phishing_score = excluded.phishing_score,
			shell_company_score = excluded.shell_company_score, compliance_score = excluded.compliance_score,
			reasons = excluded.reasons, signal_paths = excluded.signal_paths, created_at = excluded.created_at
	`, scanID, a.OverallRiskScore, a.PrimaryRiskType, a.Confidence,
		a.PhishingScore, a.ShellCompanyScore, a.ComplianceScore, string(reasonsJSON), string(pathsJSON), now())
	if err != nil {
		return fmt.Errorf("save risk assessment: %w", err)
	}
	return nil
}
