// Package browser implements the headless-browser fallback fetch path (C2),
// used when the plain HTTP fetcher (C1) reports a bot-protection signal or a
// caller explicitly needs JS-rendered content. It wraps a single pooled
// go-rod browser instance with stealth evasions, adapted from the refyne
// captcha service's browser pool.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/jmylchreest/riskintel/internal/logging"
)

// Options configures one fetchWithBrowser call, mirroring the spec's
// per-call render options.
type Options struct {
	WaitForNetworkIdle bool
	AdditionalWaitMs   int
	ExpandSections     bool
	ScrollToBottom     bool
	Timeout            time.Duration
}

// Result is what a browser-rendered fetch returns to the caller.
type Result struct {
	Content         string
	StatusCode      int
	ContentType     string
	ContentLength   int
	FetchDurationMs int64
	URL             string
	Error           string
}

// expandSelectors are clicked, in order, when Options.ExpandSections is set,
// to reveal content hidden behind accordions/disclosure widgets before the
// page is scraped.
var expandSelectors = []string{
	`[aria-expanded="false"]`,
	"details:not([open])",
	".accordion-toggle",
	".faq-question",
	"button.show-more",
}

// launcherFlags disables the automation fingerprints headless Chrome exposes
// by default, matching the refyne captcha service's stealth launch profile.
var launcherFlags = [][2]string{
	{"disable-blink-features", "AutomationControlled"},
	{"disable-dev-shm-usage", ""},
	{"disable-gpu", ""},
	{"no-sandbox", ""},
	{"disable-setuid-sandbox", ""},
	{"disable-infobars", ""},
	{"disable-extensions", ""},
	{"disable-plugins-discovery", ""},
	{"disable-background-networking", ""},
	{"disable-background-timer-throttling", ""},
	{"window-size", "1920,1080"},
	{"lang", "en-US,en"},
}

// Driver lazily launches and owns a single browser process. Its mutex
// guards only launch and Close; Fetch calls open their own pages on the
// shared browser and may run concurrently. One scan's C5/C8 escalations
// share a Driver; riskintel-api keeps one Driver per process.
type Driver struct {
	mu         sync.Mutex
	browser    *rod.Browser
	launcherFn func() (string, error)
}

// New creates a Driver. The underlying Chromium process is not started until
// the first Fetch call.
func New() *Driver {
	return &Driver{}
}

func (d *Driver) ensureBrowser() (*rod.Browser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browser != nil {
		return d.browser, nil
	}

	l := launcher.New().Headless(true)
	for _, flag := range launcherFlags {
		if flag[1] == "" {
			l = l.Set(launcher.Flag(flag[0]))
		} else {
			l = l.Set(launcher.Flag(flag[0]), flag[1])
		}
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	d.browser = b
	return b, nil
}

// Close tears down the underlying browser process, if one was ever started.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browser == nil {
		return nil
	}
	err := d.browser.Close()
	d.browser = nil
	return err
}

// Fetch navigates to url in a fresh stealth-patched page, applies the
// requested render options, and returns the resulting DOM content. scanID
// and tag are carried only for logging correlation.
func (d *Driver) Fetch(ctx context.Context, scanID, url, tag string, opts Options) Result {
	start := time.Now()
	logger := logging.FromContext(ctx, slog.Default()).With("component", "browser", "scan_id", scanID, "tag", tag, "url", url)

	b, err := d.ensureBrowser()
	if err != nil {
		logger.Error("browser launch failed", "error", err)
		return Result{Error: err.Error()}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	pageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page, err := stealth.Page(b)
	if err != nil {
		logger.Error("stealth page creation failed", "error", err)
		return Result{Error: fmt.Sprintf("create page: %v", err)}
	}
	defer page.Close()

	page = page.Context(pageCtx)
	if _, err := page.EvalOnNewDocument(extraStealthScript); err != nil {
		logger.Warn("stealth script injection failed", "error", err)
	}

	var statusCode int
	var contentType string
	var mu sync.Mutex
	wait := page.EachEvent(func(e *proto.NetworkResponseReceived) {
		if e.Type != proto.NetworkResourceTypeDocument {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if statusCode == 0 {
			statusCode = e.Response.Status
			contentType = e.Response.MIMEType
		}
	})

	if err := page.Navigate(url); err != nil {
		logger.Warn("navigate failed", "error", err)
		return Result{Error: fmt.Sprintf("navigate: %v", err), FetchDurationMs: time.Since(start).Milliseconds()}
	}

	if opts.WaitForNetworkIdle {
		_ = page.WaitIdle(timeout)
	} else {
		_ = page.WaitLoad()
	}
	wait()

	if opts.ExpandSections {
		expandHiddenSections(page)
	}
	if opts.ScrollToBottom {
		scrollToBottom(page)
	}
	if opts.AdditionalWaitMs > 0 {
		select {
		case <-time.After(time.Duration(opts.AdditionalWaitMs) * time.Millisecond):
		case <-pageCtx.Done():
		}
	}

	html, err := page.HTML()
	if err != nil {
		logger.Warn("read html failed", "error", err)
		return Result{Error: fmt.Sprintf("read html: %v", err), FetchDurationMs: time.Since(start).Milliseconds()}
	}

	finalURL := url
	if info, err := page.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	res := Result{
		Content:         html,
		StatusCode:      statusCode,
		ContentType:     contentType,
		ContentLength:   len(html),
		FetchDurationMs: time.Since(start).Milliseconds(),
		URL:             finalURL,
	}
	logger.Info("browser fetch complete", "status", statusCode, "duration_ms", res.FetchDurationMs, "bytes", res.ContentLength)
	return res
}

// expandHiddenSections best-effort clicks disclosure widgets so their
// content is present in the rendered DOM. Failures on any one selector are
// ignored; not every page has every pattern.
func expandHiddenSections(page *rod.Page) {
	for _, sel := range expandSelectors {
		elements, err := page.Elements(sel)
		if err != nil {
			continue
		}
		for _, el := range elements {
			_ = el.Click(proto.InputMouseButtonLeft, 1)
		}
	}
}

// scrollToBottom triggers lazy-loaded content by repeatedly scrolling to the
// current bottom of the page until scrollHeight stops growing or a step cap
// (20) is hit.
func scrollToBottom(page *rod.Page) {
	const maxSteps = 20
	var lastHeight int
	for i := 0; i < maxSteps; i++ {
		res, err := page.Eval(`() => document.body.scrollHeight`)
		if err != nil {
			return
		}
		height := int(res.Value.Num())
		if height <= lastHeight {
			return
		}
		lastHeight = height
		_, _ = page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
		time.Sleep(200 * time.Millisecond)
	}
}

// IsLaunchable reports whether the system looks capable of launching
// Chromium (a binary is resolvable), without actually starting one.
func IsLaunchable() bool {
	path, err := launcher.LookPath()
	return err == nil && strings.TrimSpace(path) != ""
}
