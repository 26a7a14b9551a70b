// Package main is the entry point for the riskintel HTTP service: it
// exposes the pipeline runner over POST /api/v1/scans and GET /api/v1/scans/{id}.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/jmylchreest/riskintel/internal/browser"
	"github.com/jmylchreest/riskintel/internal/config"
	"github.com/jmylchreest/riskintel/internal/fetch"
	"github.com/jmylchreest/riskintel/internal/httpapi"
	"github.com/jmylchreest/riskintel/internal/llmclient"
	"github.com/jmylchreest/riskintel/internal/logging"
	"github.com/jmylchreest/riskintel/internal/pipeline"
	"github.com/jmylchreest/riskintel/internal/policylinks"
	"github.com/jmylchreest/riskintel/internal/registrar"
	"github.com/jmylchreest/riskintel/internal/shutdown"
	"github.com/jmylchreest/riskintel/internal/signals"
	"github.com/jmylchreest/riskintel/internal/store"
)

func main() {
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
		logger.Info("LLM policy-link strategy enabled", "model", cfg.AnthropicModel)
	}

	fetcher := fetch.New()
	whois := registrar.NewExecWhois(cfg.WhoisTimeout)
	httpClient := &http.Client{Timeout: cfg.RDAPTimeout}

	collector := signals.New(fetcher, browserDriver, whois, httpClient, cfg.RDAPTimeout, time.Now)
	extractor := policylinks.New(browserDriver, llm)

	runner := &pipeline.Runner{
		Store:                   store.New(db),
		Blobs:                   blobs,
		Collector:               collector,
		Extractor:               extractor,
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

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestSize(1 * 1024 * 1024))

	idleMonitor := shutdown.NewIdleMonitor(shutdown.IdleMonitorConfig{
		Timeout:      cfg.IdleTimeout,
		Logger:       logger,
		ExcludePaths: []string{"/healthz", "/readyz"},
	})
	router.Use(idleMonitor.Middleware)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Use(httprate.LimitByIP(30, time.Minute))

	api := humachi.New(router, httpapi.NewHumaConfig(cfg.BaseURL))
	api.UseMiddleware(httpapi.HumaAuth(api, cfg.JWTSecret))

	httpapi.Register(api, httpapi.NewHandlers(runner, store.New(db)))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	idleMonitor.Start()
	go func() {
		<-idleMonitor.ShutdownChan()
		logger.Info("idle timeout reached, shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		<-sigChan
		logger.Info("shutting down server")
		idleMonitor.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("starting riskintel-api", "port", cfg.Port, "base_url", cfg.BaseURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
