package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"insightviz/internal/logging"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
)

// Provider names
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

const (
	defaultGeminiModel = "gemini-1.5-flash-latest"
	defaultOllamaModel = "qwen3-vl:2b"
	defaultTimeout     = 60 * time.Second
)

type Config struct {
	Provider         string
	APIKey           string
	Model            string
	GeminiBaseURL    string
	OllamaBaseURL    string
	Timeout          time.Duration
	BreakerThreshold int
	BreakerTimeout   time.Duration
}

// Service sends prompts to the configured model provider.
type Service struct {
	config  Config
	client  *http.Client
	breaker circuitbreaker.CircuitBreaker[string]
}

func NewService(cfg Config) (*Service, error) {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = ProviderGemini
	}
	switch cfg.Provider {
	case ProviderGemini:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, ErrMissingAPIKey
		}
		if cfg.Model == "" {
			cfg.Model = defaultGeminiModel
		}
		if cfg.GeminiBaseURL == "" {
			cfg.GeminiBaseURL = "https://generativelanguage.googleapis.com"
		}
	case ProviderOllama:
		if cfg.Model == "" {
			cfg.Model = defaultOllamaModel
		}
		if cfg.OllamaBaseURL == "" {
			cfg.OllamaBaseURL = "http://localhost:11434"
		}
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	threshold := cfg.BreakerThreshold
	if threshold <= 0 {
		threshold = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	return &Service{
		config: cfg,
		client: &http.Client{},
		breaker: circuitbreaker.New[string](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    cfg.BreakerTimeout,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- threshold is positive
			},
		}),
	}, nil
}

// Provider returns the active provider name.
func (s *Service) Provider() string { return s.config.Provider }

// Model returns the model identifier sent to the provider.
func (s *Service) Model() string { return s.config.Model }

// BreakerState reports the circuit breaker state (closed, open, half-open).
func (s *Service) BreakerState() string {
	return s.breaker.State().String()
}

// Generate sends one prompt and returns the raw model text. Every failure
// wraps ErrModelCall; a missed deadline is a *TimeoutError.
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	var callErr error
	text, err := s.breaker.Execute(ctx, func(ctx context.Context) (string, error) {
		var out string
		if s.config.Provider == ProviderOllama {
			out, callErr = s.callOllama(ctx, prompt)
		} else {
			out, callErr = s.callGemini(ctx, prompt)
		}
		return out, callErr
	})
	if err != nil {
		// Keep the provider error type when the breaker passed the call through
		if callErr != nil {
			err = callErr
		}
		if ctx.Err() == context.DeadlineExceeded {
			err = &TimeoutError{After: s.config.Timeout}
		}
		logging.Warn().
			Add(logging.Component("llm")).
			Add(logging.Str("provider", s.config.Provider)).
			Add(logging.Duration(time.Since(start))).
			Add(logging.ErrorField(err)).
			Msg("model call failed")
		return "", fmt.Errorf("%w: %w", ErrModelCall, err)
	}

	logging.Debug().
		Add(logging.Component("llm")).
		Add(logging.Str("provider", s.config.Provider)).
		Add(logging.Duration(time.Since(start))).
		Add(logging.Count("response_chars", len(text))).
		Msg("model call completed")
	return text, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func (s *Service) callGemini(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(s.config.GeminiBaseURL, "/") +
		"/v1beta/models/" + url.PathEscape(s.config.Model) + ":generateContent"
	body, err := s.post(ctx, endpoint, payload, map[string]string{"x-goog-api-key": s.config.APIKey})
	if err != nil {
		return "", err
	}

	var out geminiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return "", &APIError{StatusCode: http.StatusOK, Message: "response has no candidates"}
	}
	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

func (s *Service) callOllama(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(ollamaRequest{
		Model:  s.config.Model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	body, err := s.post(ctx, strings.TrimRight(s.config.OllamaBaseURL, "/")+"/api/generate", payload, nil)
	if err != nil {
		return "", err
	}

	var out ollamaResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.Response, nil
}

// post sends a JSON body and returns the 2xx response body.
func (s *Service) post(ctx context.Context, endpoint string, payload []byte, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &UnreachableError{Host: hostOf(endpoint), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(resp.StatusCode, body)
	}
	return body, nil
}

func apiError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}
	var raw geminiResponse
	if json.Unmarshal(body, &raw) == nil && raw.Error != nil {
		e.Message, e.Status = raw.Error.Message, raw.Error.Status
		return e
	}
	var generic struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &generic) == nil && generic.Error != "" {
		e.Message = generic.Error
		return e
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	e.Message = msg
	return e
}

func hostOf(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	return u.Host
}

// IsTimeout reports whether err came from a missed model deadline.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
