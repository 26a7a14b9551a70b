// Package main is a one-shot CLI: run the full risk-intel pipeline
// against a single URL and print the resulting assessment as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jmylchreest/riskintel/internal/browser"
	"github.com/jmylchreest/riskintel/internal/config"
	"github.com/jmylchreest/riskintel/internal/fetch"
	"github.com/jmylchreest/riskintel/internal/llmclient"
	"github.com/jmylchreest/riskintel/internal/logging"
	"github.com/jmylchreest/riskintel/internal/pipeline"
	"github.com/jmylchreest/riskintel/internal/policylinks"
	"github.com/jmylchreest/riskintel/internal/registrar"
	"github.com/jmylchreest/riskintel/internal/signals"
	"github.com/jmylchreest/riskintel/internal/store"
	"github.com/jmylchreest/riskintel/internal/version"
)

func main() {
	targetURL := flag.String("url", "", "URL to scan")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().Short())
		return
	}
	if *targetURL == "" {
		fmt.Fprintln(os.Stderr, "usage: riskintel -url <target>")
		os.Exit(2)
	}

	logger := logging.SetDefault()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := store.Migrate(db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	blobs, err := store.NewBlobStore(cfg, logger)
	if err != nil {
		logger.Error("failed to configure blob store", "error", err)
		os.Exit(1)
	}

	var browserDriver *browser.Driver
	if cfg.BrowserEnabled {
		browserDriver = browser.New()
	}

	var llm policylinks.LLMClient
	if cfg.HasLLM() {
		llm = llmclient.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	}

	fetcher := fetch.New()
	whois := registrar.NewExecWhois(cfg.WhoisTimeout)
	httpClient := &http.Client{Timeout: cfg.RDAPTimeout}

	st := store.New(db)
	runner := &pipeline.Runner{
		Store:                   st,
		Blobs:                   blobs,
		Collector:               signals.New(fetcher, browserDriver, whois, httpClient, cfg.RDAPTimeout, time.Now),
		Extractor:               policylinks.New(browserDriver, llm),
		Browser:                 browserDriver,
		Fetcher:                 fetcher,
		Whois:                   whois,
		DefaultMaxPagesPerRun:   cfg.DefaultMaxPagesPerRun,
		DefaultCrawlDelayMs:     cfg.DefaultCrawlDelayMs,
		DefaultRequestTimeoutMs: cfg.DefaultRequestTimeoutMs,
		DefaultMaxDepth:         cfg.DefaultMaxDepth,
		DefaultAllowSubdomains:  cfg.DefaultAllowSubdomains,
		DefaultRespectRobots:    cfg.DefaultRespectRobots,
	}

	_, hostname, err := pipeline.NormalizeURL(*targetURL)
	if err != nil {
		logger.Error("invalid URL", "url", *targetURL, "error", err)
		os.Exit(1)
	}
	dom, err := st.UpsertDomain(context.Background(), hostname)
	if err != nil {
		logger.Error("failed to register domain", "error", err)
		os.Exit(1)
	}
	scanID, err := st.CreateScan(context.Background(), dom.ID, *targetURL)
	if err != nil {
		logger.Error("failed to create scan", "error", err)
		os.Exit(1)
	}

	result := runner.Run(context.Background(), scanID, *targetURL)

	out, err := json.MarshalIndent(map[string]any{
		"scan_id":    scanID,
		"url":        *targetURL,
		"error":      result.Error,
		"assessment": result.Assessment,
	}, "", "  ")
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if result.Error != "" {
		os.Exit(1)
	}
}
