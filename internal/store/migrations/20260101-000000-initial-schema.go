package migrations

func init() {
	Register(Migration{
		Timestamp:   "20260101-000000",
		Description: "Initial schema",
		Up: []string{
			// Domains - one row per distinct registrable hostname scanned.
			// isActive/statusCode mirror the latest known reachability so
			// the risk scorer's override (spec §4.5) can consult it without
			// a join against the latest scan.
			`CREATE TABLE IF NOT EXISTS domain (
				id TEXT PRIMARY KEY,
				hostname TEXT UNIQUE NOT NULL,
				is_active INTEGER,
				status_code INTEGER,
				allow_subdomains INTEGER,
				respect_robots INTEGER,
				max_pages_per_run INTEGER,
				crawl_delay_ms INTEGER,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_domain_hostname ON domain(hostname)`,

			// Website scans - one row per pipeline run.
			`CREATE TABLE IF NOT EXISTS website_scan (
				id TEXT PRIMARY KEY,
				domain_id TEXT NOT NULL REFERENCES domain(id) ON DELETE CASCADE,
				target_url TEXT NOT NULL,
				is_active INTEGER,
				status_code INTEGER,
				status TEXT NOT NULL DEFAULT 'pending',
				error_message TEXT,
				started_at TEXT NOT NULL,
				completed_at TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_scan_domain ON website_scan(domain_id)`,
			`CREATE INDEX IF NOT EXISTS idx_scan_started ON website_scan(started_at)`,

			// Scan artifacts - one row per (scan, type); the pipeline writes
			// a single raw_html row per scan. snippet is capped at 20KiB;
			// when a blob store is configured the untruncated body is also
			// written there keyed by sha256, whatever near_cap says.
			`CREATE TABLE IF NOT EXISTS scan_artifact (
				scan_id TEXT NOT NULL REFERENCES website_scan(id) ON DELETE CASCADE,
				type TEXT NOT NULL,
				url TEXT NOT NULL,
				sha256 TEXT NOT NULL,
				snippet TEXT,
				near_cap INTEGER NOT NULL DEFAULT 0,
				content_type TEXT,
				fetched_at TEXT NOT NULL,
				PRIMARY KEY (scan_id, type)
			)`,

			// Crawl fetch log - append-only record of every fetch attempt,
			// allowed or blocked, bulk-inserted at scan end.
			`CREATE TABLE IF NOT EXISTS crawl_fetch_log (
				id TEXT PRIMARY KEY,
				scan_id TEXT NOT NULL REFERENCES website_scan(id) ON DELETE CASCADE,
				seq INTEGER NOT NULL,
				url TEXT NOT NULL,
				method TEXT NOT NULL,
				status_code INTEGER,
				ok INTEGER NOT NULL,
				latency_ms INTEGER,
				bytes INTEGER,
				content_type TEXT,
				discovered_by TEXT NOT NULL,
				allowed_by_policy INTEGER NOT NULL,
				blocked_reason TEXT,
				error TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_fetch_log_scan ON crawl_fetch_log(scan_id, seq)`,

			// Signal log - append-only typed record of every probe outcome,
			// bulk-inserted at scan end.
			`CREATE TABLE IF NOT EXISTS signal_log (
				id TEXT PRIMARY KEY,
				scan_id TEXT NOT NULL REFERENCES website_scan(id) ON DELETE CASCADE,
				seq INTEGER NOT NULL,
				category TEXT NOT NULL,
				name TEXT NOT NULL,
				value_type TEXT NOT NULL,
				value_number REAL,
				value_string TEXT,
				value_boolean INTEGER,
				value_json TEXT,
				severity TEXT NOT NULL,
				evidence_url TEXT,
				notes TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_signal_log_scan ON signal_log(scan_id, seq)`,
			`CREATE INDEX IF NOT EXISTS idx_signal_log_category ON signal_log(scan_id, category)`,

			// Scan data points - one row per (scan, key); value/sources are
			// stringified JSON, mirroring the snapshot-per-scan contract.
			`CREATE TABLE IF NOT EXISTS scan_data_point (
				id TEXT PRIMARY KEY,
				scan_id TEXT NOT NULL REFERENCES website_scan(id) ON DELETE CASCADE,
				key TEXT NOT NULL,
				label TEXT,
				value TEXT NOT NULL,
				sources TEXT NOT NULL DEFAULT '[]',
				raw_llm_response TEXT NOT NULL DEFAULT '{}',
				extracted_at TEXT NOT NULL,
				UNIQUE (scan_id, key)
			)`,

			// Domain data points - latest-per-domain mirror of scan_data_point.
			`CREATE TABLE IF NOT EXISTS domain_data_point (
				id TEXT PRIMARY KEY,
				domain_id TEXT NOT NULL REFERENCES domain(id) ON DELETE CASCADE,
				key TEXT NOT NULL,
				label TEXT,
				value TEXT NOT NULL,
				sources TEXT NOT NULL DEFAULT '[]',
				extracted_at TEXT NOT NULL,
				UNIQUE (domain_id, key)
			)`,

			// Policy links - replaced in full on every re-scan.
			`CREATE TABLE IF NOT EXISTS policy_link (
				id TEXT PRIMARY KEY,
				scan_id TEXT NOT NULL REFERENCES website_scan(id) ON DELETE CASCADE,
				policy_type TEXT NOT NULL,
				url TEXT NOT NULL,
				discovery_method TEXT NOT NULL,
				rank INTEGER NOT NULL,
				verified INTEGER NOT NULL DEFAULT 0,
				verification_note TEXT,
				created_at TEXT NOT NULL,
				UNIQUE (scan_id, policy_type)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_policy_link_scan ON policy_link(scan_id)`,

			// Homepage SKUs - replaced in full on every re-scan.
			`CREATE TABLE IF NOT EXISTS homepage_sku (
				id TEXT PRIMARY KEY,
				scan_id TEXT NOT NULL REFERENCES website_scan(id) ON DELETE CASCADE,
				product_url TEXT NOT NULL,
				title TEXT,
				price_text TEXT,
				amount REAL,
				original_price_text TEXT,
				original_amount REAL,
				is_on_sale INTEGER NOT NULL DEFAULT 0,
				currency TEXT,
				image_url TEXT,
				availability TEXT,
				confidence INTEGER NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_homepage_sku_scan ON homepage_sku(scan_id)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_homepage_sku_scan_url ON homepage_sku(scan_id, product_url)`,

			// Risk assessments - one row per scan, the final C10 output.
			`CREATE TABLE IF NOT EXISTS risk_assessment (
				scan_id TEXT PRIMARY KEY REFERENCES website_scan(id) ON DELETE CASCADE,
				overall_risk_score INTEGER NOT NULL,
				primary_risk_type TEXT NOT NULL,
				confidence INTEGER NOT NULL,
				phishing_score INTEGER NOT NULL,
				shell_company_score INTEGER NOT NULL,
				compliance_score INTEGER NOT NULL,
				reasons TEXT NOT NULL DEFAULT '[]',
				signal_paths TEXT NOT NULL DEFAULT '[]',
				created_at TEXT NOT NULL
			)`,
		},
	})
}
