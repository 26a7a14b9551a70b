package sku

import (
	"net/url"
	"strings"
	"testing"

	"github.com/jmylchreest/riskintel/internal/htmlutil"
)

func mustParse(t *testing.T, rawURL string) *url.URL {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("url.Parse(%q): %v", rawURL, err)
	}
	return u
}

func TestExtract_WooCommerceSalePattern(t *testing.T) {
	base := mustParse(t, "https://shop.example.com/")
	body := `<html><body>
		<ul>
		  <li class="product">
		    <a href="/products/widget"><img src="/img/widget.jpg" alt="Widget"></a>
		    <h3 class="product-title">Widget</h3>
		    <del><span class="amount">$50.00</span></del>
		    <ins><span class="amount">$30.00</span></ins>
		  </li>
		</ul>
	</body></html>`
	doc, err := htmlutil.ParseDocument(body)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	items := Extract(base, doc)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d: %+v", len(items), items)
	}
	it := items[0]
	if it.Amount == nil || *it.Amount != 30.0 {
		t.Errorf("Amount = %v, want 30.0", it.Amount)
	}
	if it.OriginalAmount == nil || *it.OriginalAmount != 50.0 {
		t.Errorf("OriginalAmount = %v, want 50.0", it.OriginalAmount)
	}
	if !it.IsOnSale {
		t.Error("expected IsOnSale=true")
	}
	if it.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", it.Currency)
	}
}

func TestExtract_ConfidenceWithinBounds(t *testing.T) {
	base := mustParse(t, "https://shop.example.com/")
	body := `<html><body>
		<div class="product-card">
		  <a href="/product/123?id=abc&utm_source=x"><img src="/img.jpg"></a>
		  <div class="price">$19.99</div>
		</div>
	</body></html>`
	doc, _ := htmlutil.ParseDocument(body)
	items := Extract(base, doc)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	it := items[0]
	if it.Confidence < 0 || it.Confidence > 100 {
		t.Errorf("Confidence out of bounds: %d", it.Confidence)
	}
	if strings.Contains(it.ProductURL, "utm_source") {
		t.Errorf("expected utm_source query param stripped, got %s", it.ProductURL)
	}
	if !strings.Contains(it.ProductURL, "id=abc") {
		t.Errorf("expected id query param kept, got %s", it.ProductURL)
	}
}

func TestExtract_RejectsNavigationLinks(t *testing.T) {
	base := mustParse(t, "https://shop.example.com/")
	body := `<html><body>
		<nav><a href="/products/featured">Featured</a></nav>
		<div class="product"><a href="/products/real">Real</a><div class="price">$10</div></div>
	</body></html>`
	doc, _ := htmlutil.ParseDocument(body)
	items := Extract(base, doc)
	for _, it := range items {
		if strings.Contains(it.ProductURL, "featured") {
			t.Error("expected nav-ancestor link to be excluded")
		}
	}
}

func TestExtract_DedupesByNormalizedURL(t *testing.T) {
	base := mustParse(t, "https://shop.example.com/")
	body := `<html><body>
		<div class="product"><a href="/products/widget">Widget</a><div class="price">$10</div></div>
		<div class="product"><a href="/products/widget?utm_source=home">Widget again</a><div class="price">$10</div></div>
	</body></html>`
	doc, _ := htmlutil.ParseDocument(body)
	items := Extract(base, doc)
	if len(items) != 1 {
		t.Fatalf("expected dedup to collapse to 1 item, got %d", len(items))
	}
}

func TestSummarize_NotesTruncation(t *testing.T) {
	items := make([]Item, 5)
	s := Summarize(items, 250)
	if len(s.Notes) == 0 {
		t.Error("expected a truncation note when totalBeforeCap exceeds MaxSKUsPerScan")
	}
}
