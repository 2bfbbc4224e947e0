package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Provider names
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Config is the effective service configuration.
type Config struct {
	Port              string   `mapstructure:"port" yaml:"port"`
	Provider          string   `mapstructure:"provider" yaml:"provider"`
	APIKey            string   `mapstructure:"api_key" yaml:"api_key"`
	Model             string   `mapstructure:"model" yaml:"model"`
	GeminiBaseURL     string   `mapstructure:"gemini_base_url" yaml:"gemini_base_url"`
	OllamaBaseURL     string   `mapstructure:"ollama_base_url" yaml:"ollama_base_url"`
	ModelTimeoutSec   int      `mapstructure:"model_timeout_sec" yaml:"model_timeout_sec"`
	MaxBodyMB         int      `mapstructure:"max_body_mb" yaml:"max_body_mb"`
	AllowedOrigins    []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	LogLevel          string   `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string   `mapstructure:"log_format" yaml:"log_format"`
	BreakerThreshold  int      `mapstructure:"breaker_threshold" yaml:"breaker_threshold"`
	BreakerTimeoutSec int      `mapstructure:"breaker_timeout_sec" yaml:"breaker_timeout_sec"`
}

// Load reads configuration from defaults, an optional YAML file and the
// environment. Precedence: env > config file > defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INSIGHTVIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8000")
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("model", "")
	v.SetDefault("gemini_base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("ollama_base_url", "http://localhost:11434")
	v.SetDefault("model_timeout_sec", 60)
	v.SetDefault("max_body_mb", 32)
	v.SetDefault("allowed_origins", []string{"http://localhost:3000", "*"})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("breaker_threshold", 5)
	v.SetDefault("breaker_timeout_sec", 30)

	// GOOGLE_API_KEY is accepted as well
	if err := v.BindEnv("api_key", "INSIGHTVIZ_API_KEY", "GOOGLE_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind api key env: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.AllowedOrigins = splitOrigins(c.AllowedOrigins)
	return &c, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini:
		if strings.TrimSpace(c.APIKey) == "" {
			return fmt.Errorf("%w: api_key is required for provider %q (set INSIGHTVIZ_API_KEY or GOOGLE_API_KEY)", ErrInvalid, c.Provider)
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("%w: unknown provider %q (use gemini or ollama)", ErrInvalid, c.Provider)
	}
	if c.Port == "" {
		return fmt.Errorf("%w: port is empty", ErrInvalid)
	}
	if c.ModelTimeoutSec <= 0 {
		return fmt.Errorf("%w: model_timeout_sec must be positive", ErrInvalid)
	}
	return nil
}

// ModelTimeout is the deadline applied to each model call.
func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.ModelTimeoutSec) * time.Second
}

// BreakerTimeout is how long the model breaker stays open.
func (c *Config) BreakerTimeout() time.Duration {
	return time.Duration(c.BreakerTimeoutSec) * time.Second
}

// MaxBodyBytes limits request bodies.
func (c *Config) MaxBodyBytes() int64 {
	if c.MaxBodyMB <= 0 {
		return 32 << 20
	}
	return int64(c.MaxBodyMB) << 20
}

// YAML renders the configuration with the API key masked.
func (c *Config) YAML() ([]byte, error) {
	masked := *c
	masked.APIKey = Mask(c.APIKey)
	b, err := yaml.Marshal(&masked)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return b, nil
}

// Mask hides all but the last four characters of a secret.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

// splitOrigins accepts comma separated values coming from env vars.
func splitOrigins(in []string) []string {
	var out []string
	for _, o := range in {
		for _, part := range strings.Split(o, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
