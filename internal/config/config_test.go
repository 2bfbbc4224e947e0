package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INSIGHTVIZ_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Port != "8000" || c.Provider != ProviderGemini {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.ModelTimeout() != 60*time.Second {
		t.Fatalf("ModelTimeout = %v", c.ModelTimeout())
	}
	if c.MaxBodyBytes() != 32<<20 {
		t.Fatalf("MaxBodyBytes = %d", c.MaxBodyBytes())
	}
	if err := c.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Validate without key = %v, want ErrInvalid", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("INSIGHTVIZ_PORT", "9090")
	t.Setenv("INSIGHTVIZ_PROVIDER", "Ollama")
	t.Setenv("INSIGHTVIZ_MODEL_TIMEOUT_SEC", "5")
	t.Setenv("INSIGHTVIZ_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Port != "9090" || c.Provider != ProviderOllama || c.ModelTimeoutSec != 5 {
		t.Fatalf("env not applied: %+v", c)
	}
	if len(c.AllowedOrigins) != 2 || c.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("AllowedOrigins = %v", c.AllowedOrigins)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("ollama needs no key: %v", err)
	}
}

func TestGoogleAPIKeyFallback(t *testing.T) {
	t.Setenv("INSIGHTVIZ_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "g-secret-1234")

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.APIKey != "g-secret-1234" {
		t.Fatalf("APIKey = %q", c.APIKey)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("INSIGHTVIZ_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "provider: ollama\nmodel: llama3\nbreaker_threshold: 2\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Provider != ProviderOllama || c.Model != "llama3" || c.BreakerThreshold != 2 {
		t.Fatalf("file values not applied: %+v", c)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	c := &Config{Provider: "openai", Port: "1", ModelTimeoutSec: 1}
	if err := c.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Validate = %v", err)
	}
}

func TestYAMLMasksKey(t *testing.T) {
	c := &Config{Provider: ProviderGemini, APIKey: "abcdefgh1234"}
	b, err := c.YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	out := string(b)
	if strings.Contains(out, "abcdefgh") || !strings.Contains(out, "********1234") {
		t.Fatalf("key not masked:\n%s", out)
	}
	if c.APIKey != "abcdefgh1234" {
		t.Fatal("YAML must not modify the receiver")
	}
}

func TestMask(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":      "",
		"abc":   "****",
		"abcde": "*bcde",
	}
	for in, want := range tests {
		if got := Mask(in); got != want {
			t.Errorf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
}
