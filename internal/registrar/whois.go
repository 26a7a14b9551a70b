package registrar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// maxWhoisBytes caps how much of a WHOIS response is buffered, per spec.md
// §4.2's "15s timeout, 1 MiB buffer".
const maxWhoisBytes = 1 << 20

// Whois looks up the raw WHOIS text for a domain. Spec.md §9 open question
// (a): the implementation declares the `whois` binary as an environment
// requirement rather than vendoring a WHOIS client.
type Whois interface {
	Lookup(ctx context.Context, domain string) (string, error)
}

// ExecWhois shells out to the system `whois` binary.
type ExecWhois struct {
	Timeout time.Duration
}

// NewExecWhois builds an ExecWhois with the given timeout.
func NewExecWhois(timeout time.Duration) *ExecWhois {
	return &ExecWhois{Timeout: timeout}
}

// Lookup runs `whois <domain>`, capping captured output at 1 MiB and the
// whole call at Timeout.
func (w *ExecWhois) Lookup(ctx context.Context, domain string) (string, error) {
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "whois", domain)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedBuffer{buf: &stdout, limit: maxWhoisBytes}
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("whois lookup for %s timed out after %s", domain, timeout)
		}
		return "", fmt.Errorf("whois lookup for %s failed: %w (%s)", domain, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// limitedBuffer wraps a bytes.Buffer and silently drops writes past limit,
// equivalent to writing through an io.LimitReader but on the write side.
type limitedBuffer struct {
	buf   *bytes.Buffer
	limit int
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	total := len(p)
	remaining := l.limit - l.buf.Len()
	if remaining <= 0 {
		return total, nil
	}
	if len(p) > remaining {
		p = p[:remaining]
	}
	if _, err := l.buf.Write(p); err != nil {
		return 0, err
	}
	// Report the full, pre-truncation length so exec.Cmd doesn't treat this
	// as a short write error; excess bytes are intentionally dropped.
	return total, nil
}

var _ io.Writer = (*limitedBuffer)(nil)

// whoisField describes one field to extract from raw WHOIS text via a
// prioritized list of labels.
type whoisField struct {
	labels []string
}

var (
	whoisRegistrationLabels = []string{"Creation Date", "Created on", "created", "Registered on", "Registration Date", "domain_datecreated"}
	whoisExpirationLabels   = []string{"Registry Expiry Date", "Expiration Date", "paid-till", "Expiry Date", "Expires on", "expires"}
	whoisRegistrarLabels    = []string{"Registrar:", "Sponsoring Registrar:", "Registrar Name:"}
)

// whoisLineRe matches "Label: value" allowing for arbitrary whitespace and
// the "[Created on]" JP-style bracketed label variant.
func whoisLineRe(label string) *regexp.Regexp {
	escaped := regexp.QuoteMeta(label)
	return regexp.MustCompile(`(?im)^\s*\[?` + escaped + `\]?\s*:?\s*(.+)$`)
}

// extractWhoisField returns the first non-empty value matching any of the
// given labels, in priority order.
func extractWhoisField(raw string, labels []string) string {
	for _, label := range labels {
		re := whoisLineRe(label)
		if m := re.FindStringSubmatch(raw); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// ParseWhois extracts registrationDate, expirationDate, and registrar from
// raw WHOIS text, normalizing dates to ISO-8601 midnight UTC via ParseFlexibleDate.
func ParseWhois(raw string) (registration, expiration *time.Time, registrarName string) {
	if v := extractWhoisField(raw, whoisRegistrationLabels); v != "" {
		registration = ParseFlexibleDate(v)
	}
	if v := extractWhoisField(raw, whoisExpirationLabels); v != "" {
		expiration = ParseFlexibleDate(v)
	}
	registrarName = extractWhoisField(raw, whoisRegistrarLabels)
	return
}
