// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation (envconfig)
// - Default value application
// - Provider-specific configuration lookup

package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Settings holds all application configuration.
type Settings struct {
	Env             string        `envconfig:"GENLO_ENV" default:"development"`
	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"90s"`

	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
	Gemini    GeminiConfig
	DeepSeek  DeepSeekConfig
	Creative  CreativeConfig
	Store     StoreConfig
	Server    ServerConfig
	Tools     ToolsConfig
}

// OpenAIConfig configures the text and image handler.
type OpenAIConfig struct {
	APIKey         string   `envconfig:"OPENAI_API_KEY"`
	BaseURL        string   `envconfig:"OPENAI_BASE_URL"`
	TextModel      string   `envconfig:"OPENAI_TEXT_MODEL" default:"gpt-4.1"`
	ImageModel     string   `envconfig:"OPENAI_IMAGE_MODEL" default:"gpt-image-1"`
	ImageAPI       string   `envconfig:"OPENAI_IMAGE_API" default:"images"`
	ImageSize      string   `envconfig:"OPENAI_IMAGE_SIZE" default:"1024x1024"`
	ImageQuality   string   `envconfig:"OPENAI_IMAGE_QUALITY"`
	VectorStoreIDs []string `envconfig:"OPENAI_VECTOR_STORE_IDS"`
}

// AnthropicConfig configures the Claude provider.
type AnthropicConfig struct {
	APIKey  string `envconfig:"ANTHROPIC_API_KEY"`
	BaseURL string `envconfig:"ANTHROPIC_BASE_URL"`
	Model   string `envconfig:"ANTHROPIC_MODEL" default:"claude-sonnet-4-20250514"`
}

// GeminiConfig configures the Gemini chat provider and the Imagen generator.
type GeminiConfig struct {
	APIKey     string `envconfig:"GEMINI_API_KEY"`
	BaseURL    string `envconfig:"GEMINI_BASE_URL"`
	Model      string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	ImageModel string `envconfig:"GEMINI_IMAGE_MODEL" default:"imagen-3.0-generate-002"`
}

// DeepSeekConfig configures the DeepSeek provider.
type DeepSeekConfig struct {
	APIKey  string `envconfig:"DEEPSEEK_API_KEY"`
	BaseURL string `envconfig:"DEEPSEEK_BASE_URL"`
	Model   string `envconfig:"DEEPSEEK_MODEL" default:"deepseek-chat"`
}

// CreativeConfig selects the provider behind prompt enhancement and
// creative writing.
type CreativeConfig struct {
	Provider          string  `envconfig:"CREATIVE_PROVIDER" default:"anthropic"`
	MaxTokens         uint32  `envconfig:"LLM_MAX_TOKENS" default:"4096"`
	Temperature       float64 `envconfig:"LLM_TEMPERATURE" default:"0.7"`
	SystemPrompt      string  `envconfig:"CREATIVE_SYSTEM_PROMPT"`
	LifestyleTemplate string  `envconfig:"LIFESTYLE_TEMPLATE_FILE"`
}

// StoreConfig selects the conversation store.
type StoreConfig struct {
	Backend     string        `envconfig:"STORE_BACKEND" default:"memory"`
	SqlitePath  string        `envconfig:"SQLITE_PATH" default:"data/genlo.db"`
	RedisURL    string        `envconfig:"REDIS_URL"`
	SessionTTL  time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	IdleTimeout time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"30m"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr               string `envconfig:"SERVER_ADDR" default:"127.0.0.1:8080"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"30"`
	RateLimitBurst     int    `envconfig:"RATE_LIMIT_BURST" default:"10"`
}

// ToolsConfig configures the built-in functions.
type ToolsConfig struct {
	HTTPAllowedDomains []string `envconfig:"HTTP_TOOL_ALLOWED_DOMAINS"`
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	apiKeyEnv string
	apiKey    func(Settings) string
	model     func(Settings) string
	baseURL   func(Settings) string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openai": {
		apiKeyEnv: "OPENAI_API_KEY",
		apiKey:    func(s Settings) string { return s.OpenAI.APIKey },
		model:     func(s Settings) string { return s.OpenAI.TextModel },
		baseURL:   func(s Settings) string { return s.OpenAI.BaseURL },
	},
	"anthropic": {
		apiKeyEnv: "ANTHROPIC_API_KEY",
		apiKey:    func(s Settings) string { return s.Anthropic.APIKey },
		model:     func(s Settings) string { return s.Anthropic.Model },
		baseURL:   func(s Settings) string { return s.Anthropic.BaseURL },
	},
	"deepseek": {
		apiKeyEnv: "DEEPSEEK_API_KEY",
		apiKey:    func(s Settings) string { return s.DeepSeek.APIKey },
		model:     func(s Settings) string { return s.DeepSeek.Model },
		baseURL:   func(s Settings) string { return s.DeepSeek.BaseURL },
	},
	"gemini": {
		apiKeyEnv: "GEMINI_API_KEY",
		apiKey:    func(s Settings) string { return s.Gemini.APIKey },
		model:     func(s Settings) string { return s.Gemini.Model },
		baseURL:   func(s Settings) string { return s.Gemini.BaseURL },
	},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
}

var (
	imageAPIs     = []string{"images", "responses"}
	storeBackends = []string{"memory", "sqlite", "redis"}
)

// New loads settings from the environment and validates them.
func New() (Settings, error) {
	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return Settings{}, fmt.Errorf("config: %w", err)
	}

	s.Creative.Provider = normalizeProvider(s.Creative.Provider)
	if _, err := getProviderInfo(s.Creative.Provider); err != nil {
		return Settings{}, fmt.Errorf("CREATIVE_PROVIDER: %w", err)
	}
	s.OpenAI.ImageAPI = strings.ToLower(s.OpenAI.ImageAPI)
	if !contains(imageAPIs, s.OpenAI.ImageAPI) {
		return Settings{}, fmt.Errorf("OPENAI_IMAGE_API must be one of %v, got %q", imageAPIs, s.OpenAI.ImageAPI)
	}
	s.Store.Backend = strings.ToLower(s.Store.Backend)
	if !contains(storeBackends, s.Store.Backend) {
		return Settings{}, fmt.Errorf("STORE_BACKEND must be one of %v, got %q", storeBackends, s.Store.Backend)
	}
	if s.Store.Backend == "redis" && s.Store.RedisURL == "" {
		return Settings{}, fmt.Errorf("REDIS_URL is required when STORE_BACKEND=redis")
	}
	if s.ProviderTimeout < 0 {
		return Settings{}, fmt.Errorf("PROVIDER_TIMEOUT must not be negative")
	}
	return s, nil
}

// MustNew loads settings and panics on error.
// Use this only when configuration errors should be fatal.
func MustNew() Settings {
	settings, err := New()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// APIKeyFor returns the configured API key for a provider.
func (s Settings) APIKeyFor(provider string) (string, error) {
	info, err := getProviderInfo(normalizeProvider(provider))
	if err != nil {
		return "", err
	}
	key := info.apiKey(s)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// ModelFor returns the configured chat model for a provider.
func (s Settings) ModelFor(provider string) (string, error) {
	info, err := getProviderInfo(normalizeProvider(provider))
	if err != nil {
		return "", err
	}
	return info.model(s), nil
}

// BaseURLFor returns the API base URL override for a provider, or "".
func (s Settings) BaseURLFor(provider string) (string, error) {
	info, err := getProviderInfo(normalizeProvider(provider))
	if err != nil {
		return "", err
	}
	return info.baseURL(s), nil
}

// SupportedProviders returns the supported provider names in sorted order.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
