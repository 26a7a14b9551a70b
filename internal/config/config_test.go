package config

import (
	"os"
	"testing"
	"time"
)

func withEnv(t *testing.T, kv map[string]string, fn func()) {
	t.Helper()
	saved := map[string]string{}
	for k := range kv {
		saved[k] = os.Getenv(k)
	}
	for k, v := range kv {
		os.Setenv(k, v)
	}
	defer func() {
		for k, v := range saved {
			os.Setenv(k, v)
		}
	}()
	fn()
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	withEnv(t, map[string]string{"JWT_SECRET": ""}, func() {
		os.Unsetenv("JWT_SECRET")
		_, err := Load()
		if err == nil {
			t.Fatal("expected error when JWT_SECRET is unset")
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	withEnv(t, map[string]string{"JWT_SECRET": "test-secret"}, func() {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Port != 8080 {
			t.Errorf("Port = %d, want 8080", cfg.Port)
		}
		if cfg.DefaultMaxPagesPerRun != 50 {
			t.Errorf("DefaultMaxPagesPerRun = %d, want 50", cfg.DefaultMaxPagesPerRun)
		}
		if cfg.DefaultCrawlDelayMs != 1000 {
			t.Errorf("DefaultCrawlDelayMs = %d, want 1000", cfg.DefaultCrawlDelayMs)
		}
		if cfg.DefaultRequestTimeoutMs != 8000 {
			t.Errorf("DefaultRequestTimeoutMs = %d, want 8000", cfg.DefaultRequestTimeoutMs)
		}
		if !cfg.DefaultAllowSubdomains || !cfg.DefaultRespectRobots {
			t.Error("DefaultAllowSubdomains and DefaultRespectRobots should default true")
		}
		if cfg.RDAPTimeout != 10*time.Second {
			t.Errorf("RDAPTimeout = %v, want 10s", cfg.RDAPTimeout)
		}
		if cfg.WhoisTimeout != 15*time.Second {
			t.Errorf("WhoisTimeout = %v, want 15s", cfg.WhoisTimeout)
		}
	})
}

func TestLoad_StorageEnabled(t *testing.T) {
	withEnv(t, map[string]string{
		"JWT_SECRET":          "test-secret",
		"AWS_ENDPOINT_URL_S3": "https://fly.storage.tigris.dev",
		"BUCKET_NAME":         "riskintel-artifacts",
	}, func() {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !cfg.StorageEnabled {
			t.Error("StorageEnabled should be true when bucket and endpoint are set")
		}
	})
}

func TestLoad_StorageDisabledWithoutBucket(t *testing.T) {
	withEnv(t, map[string]string{
		"JWT_SECRET":  "test-secret",
		"BUCKET_NAME": "",
	}, func() {
		os.Unsetenv("BUCKET_NAME")
		os.Unsetenv("STORAGE_BUCKET")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.StorageEnabled {
			t.Error("StorageEnabled should be false without a bucket configured")
		}
	})
}

func TestHasLLM(t *testing.T) {
	cfg := &Config{AnthropicAPIKey: ""}
	if cfg.HasLLM() {
		t.Error("HasLLM() should be false without an API key")
	}
	cfg.AnthropicAPIKey = "sk-ant-test"
	if !cfg.HasLLM() {
		t.Error("HasLLM() should be true with an API key")
	}
}

func TestGetEnvHelpers(t *testing.T) {
	withEnv(t, map[string]string{"RISKINTEL_TEST_INT": "42"}, func() {
		if got := getEnvInt("RISKINTEL_TEST_INT", 1); got != 42 {
			t.Errorf("getEnvInt() = %d, want 42", got)
		}
	})
	if got := getEnvInt("RISKINTEL_TEST_INT_MISSING", 7); got != 7 {
		t.Errorf("getEnvInt() default = %d, want 7", got)
	}

	withEnv(t, map[string]string{"RISKINTEL_TEST_BOOL": "yes"}, func() {
		if !getEnvBool("RISKINTEL_TEST_BOOL", false) {
			t.Error("getEnvBool() should parse 'yes' as true")
		}
	})

	withEnv(t, map[string]string{"RISKINTEL_TEST_SLICE": "a,b,c"}, func() {
		got := getEnvSlice("RISKINTEL_TEST_SLICE", nil)
		if len(got) != 3 || got[0] != "a" || got[2] != "c" {
			t.Errorf("getEnvSlice() = %v", got)
		}
	})
}
