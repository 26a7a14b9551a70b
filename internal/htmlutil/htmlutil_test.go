package htmlutil

import "testing"

func TestStripTags(t *testing.T) {
	in := `<html><head><style>.a{color:red}</style><script>alert(1)</script></head><body><p>Hello&nbsp;World</p></body></html>`
	got := StripTags(in)
	if got == "" || got == in {
		t.Fatalf("StripTags produced unexpected output: %q", got)
	}
	for _, bad := range []string{"<p>", "<script>", "alert(1)", "color:red"} {
		if contains(got, bad) {
			t.Errorf("StripTags output still contains %q: %q", bad, got)
		}
	}
}

func TestExtractTitle(t *testing.T) {
	in := `<html><head><title> My  Site </title></head><body></body></html>`
	got := ExtractTitle(in)
	if got != "My Site" {
		t.Errorf("ExtractTitle() = %q, want %q", got, "My Site")
	}
}

func TestExtractTitle_Missing(t *testing.T) {
	if got := ExtractTitle("<html><body>no title</body></html>"); got != "" {
		t.Errorf("ExtractTitle() = %q, want empty", got)
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("  one   two three  "); got != 3 {
		t.Errorf("WordCount() = %d, want 3", got)
	}
	if got := WordCount(""); got != 0 {
		t.Errorf("WordCount(empty) = %d, want 0", got)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in         string
		wantAmount float64
		wantCur    string
		wantOK     bool
	}{
		{"$1,299.00", 1299.00, "USD", true},
		{"€49,90", 49.90, "EUR", true},
		{"HK$88", 88, "HKD", true},
		{"EUR 49.90", 49.90, "EUR", true},
		{"no price here", 0, "", false},
		{"£30.00", 30.00, "GBP", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			amount, cur, ok := ParsePrice(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if amount != tt.wantAmount {
				t.Errorf("amount = %v, want %v", amount, tt.wantAmount)
			}
			if cur != tt.wantCur {
				t.Errorf("currency = %q, want %q", cur, tt.wantCur)
			}
		})
	}
}

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument(`<html><body><a href="/x">link</a></body></html>`)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if doc.Find("a").Length() != 1 {
		t.Error("expected one anchor in parsed document")
	}
}

func contains(s, sub string) bool {
	return len(sub) > 0 && (len(s) >= len(sub)) && (indexOf(s, sub) >= 0)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
