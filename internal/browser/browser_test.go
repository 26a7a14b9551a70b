package browser

import "testing"

func TestExpandSelectorsNonEmpty(t *testing.T) {
	if len(expandSelectors) == 0 {
		t.Fatal("expandSelectors must not be empty")
	}
	for _, sel := range expandSelectors {
		if sel == "" {
			t.Error("empty selector in expandSelectors")
		}
	}
}

func TestLauncherFlagsNoAutomationFlag(t *testing.T) {
	found := false
	for _, f := range launcherFlags {
		if f[0] == "disable-blink-features" && f[1] == "AutomationControlled" {
			found = true
		}
	}
	if !found {
		t.Error("expected disable-blink-features=AutomationControlled in launcherFlags")
	}
}

func TestNewDriver_NoBrowserUntilFetch(t *testing.T) {
	d := New()
	if d.browser != nil {
		t.Error("browser should not be launched until first Fetch")
	}
}

func TestDriver_CloseWithoutLaunch(t *testing.T) {
	d := New()
	if err := d.Close(); err != nil {
		t.Errorf("Close on never-launched driver should be a no-op, got %v", err)
	}
}

func TestResultZeroValue(t *testing.T) {
	var r Result
	if r.StatusCode != 0 || r.Content != "" || r.Error != "" {
		t.Error("zero-value Result should have empty fields")
	}
}
