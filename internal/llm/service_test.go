package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"insightviz/internal/analysis"
)

func geminiServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewServiceRequiresKeyForGemini(t *testing.T) {
	t.Parallel()

	if _, err := NewService(Config{Provider: ProviderGemini}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
	if _, err := NewService(Config{Provider: "openai", APIKey: "k"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	svc, err := NewService(Config{Provider: ProviderOllama})
	if err != nil {
		t.Fatalf("ollama without key: %v", err)
	}
	if svc.Model() != defaultOllamaModel || svc.BreakerState() != "closed" {
		t.Fatalf("unexpected defaults: model=%s breaker=%s", svc.Model(), svc.BreakerState())
	}
}

func TestGeminiGenerate(t *testing.T) {
	t.Parallel()

	var gotKey, gotPath, gotPrompt string
	srv := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		gotPath = r.URL.Path
		var req geminiRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{
					map[string]any{"text": `{"suggestions": [], `},
					map[string]any{"text": `"summary": "ok"}`},
				}},
			}},
		})
	})

	svc, err := NewService(Config{Provider: ProviderGemini, APIKey: "secret", Model: "gemini-test", GeminiBaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	text, err := svc.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != `{"suggestions": [], "summary": "ok"}` {
		t.Fatalf("text = %q", text)
	}
	if gotKey != "secret" || gotPath != "/v1beta/models/gemini-test:generateContent" || gotPrompt != "hello" {
		t.Fatalf("request: key=%q path=%q prompt=%q", gotKey, gotPath, gotPrompt)
	}
}

func TestGeminiAPIError(t *testing.T) {
	t.Parallel()

	srv := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "API key not valid", "status": "PERMISSION_DENIED"}}`))
	})
	svc, _ := NewService(Config{Provider: ProviderGemini, APIKey: "bad", GeminiBaseURL: srv.URL})

	_, err := svc.Generate(context.Background(), "hi")
	if !errors.Is(err, ErrModelCall) {
		t.Fatalf("err = %v, want ErrModelCall", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden || apiErr.Message != "API key not valid" {
		t.Fatalf("err = %#v", err)
	}
	if IsTimeout(err) {
		t.Fatal("api error is not a timeout")
	}
}

func TestGenerateTimeout(t *testing.T) {
	t.Parallel()

	srv := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	svc, _ := NewService(Config{Provider: ProviderOllama, OllamaBaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	_, err := svc.Generate(context.Background(), "slow")
	if !IsTimeout(err) {
		t.Fatalf("err = %v, want timeout", err)
	}
	if !errors.Is(err, ErrModelCall) {
		t.Fatalf("timeout should wrap ErrModelCall: %v", err)
	}
}

func TestOllamaGenerate(t *testing.T) {
	t.Parallel()

	srv := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var req ollamaRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Stream || req.Model != "llama3" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(ollamaResponse{Response: "pong"})
	})
	svc, _ := NewService(Config{Provider: ProviderOllama, Model: "llama3", OllamaBaseURL: srv.URL})

	text, err := svc.Generate(context.Background(), "ping")
	if err != nil || text != "pong" {
		t.Fatalf("Generate = %q, %v", text, err)
	}
}

func TestUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	svc, _ := NewService(Config{Provider: ProviderOllama, OllamaBaseURL: addr, Timeout: 2 * time.Second})
	_, err := svc.Generate(context.Background(), "ping")
	var unreachable *UnreachableError
	if !errors.As(err, &unreachable) {
		t.Fatalf("err = %v, want *UnreachableError", err)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, `{"error": "overloaded"}`, http.StatusServiceUnavailable)
	})
	svc, _ := NewService(Config{
		Provider:         ProviderOllama,
		OllamaBaseURL:    srv.URL,
		BreakerThreshold: 2,
		BreakerTimeout:   time.Minute,
	})

	for i := 0; i < 4; i++ {
		if _, err := svc.Generate(context.Background(), "x"); !errors.Is(err, ErrModelCall) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("server hits = %d, want 2 once the breaker is open", got)
	}
	if svc.BreakerState() == "closed" {
		t.Fatal("breaker should not be closed")
	}
}

func TestSuggestFocusedNormalizes(t *testing.T) {
	t.Parallel()

	var prompt string
	srv := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		prompt = req.Prompt
		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Response: "Sure! {\"suggestions\": [{\"type\": \"line\", \"x\": \"day\", \"y\": \"n\"}], \"summary\": \"Fine.\"}",
		})
	})
	svc, _ := NewService(Config{Provider: ProviderOllama, OllamaBaseURL: srv.URL})

	ds := analysis.NewDataset([]map[string]interface{}{{"day": "2024-01-01", "n": 1}})
	res, err := svc.SuggestFocused(context.Background(), ds, "daily counts")
	if err != nil {
		t.Fatalf("SuggestFocused: %v", err)
	}
	if len(res.Suggestions) != 1 || res.Summary != "Fine." {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(prompt, "daily counts") {
		t.Fatal("prompt should carry the notes")
	}
}
