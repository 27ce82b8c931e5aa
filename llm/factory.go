// LLM Provider Factory - builder-first API for creating providers.
//
//	claude, err := llm.ProviderAnthropic.FromEnv()
//
//	enhancer, err := llm.ProviderAnthropic.
//	    Model(llm.ModelAnthropicClaudeSonnet4).
//	    MaxTokens(500).
//	    APIKey(key)

package llm

import (
	"fmt"
	"net/http"
	"os"
	"strings"
)

// ProviderType represents supported LLM providers.
type ProviderType int

const (
	// ProviderOpenAI is the OpenAI provider (GPT models).
	ProviderOpenAI ProviderType = iota
	// ProviderAnthropic is the Anthropic provider (Claude models).
	ProviderAnthropic
	// ProviderDeepSeek is the DeepSeek provider.
	ProviderDeepSeek
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	switch p {
	case ProviderOpenAI:
		return "openai"
	case ProviderAnthropic:
		return "anthropic"
	case ProviderDeepSeek:
		return "deepseek"
	case ProviderGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// EnvVar returns the environment variable name for this provider's API key.
func (p ProviderType) EnvVar() string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// DefaultModel returns the default chat model for this provider.
func (p ProviderType) DefaultModel() string {
	switch p {
	case ProviderOpenAI:
		return ModelOpenAIGPT41
	case ProviderAnthropic:
		return ModelAnthropicClaudeSonnet4
	case ProviderDeepSeek:
		return ModelDeepSeekChat
	case ProviderGemini:
		return ModelGeminiFlash25
	default:
		return ""
	}
}

// DefaultImageModel returns the default image model, or "" when the
// provider has no image endpoint.
func (p ProviderType) DefaultImageModel() string {
	switch p {
	case ProviderOpenAI:
		return ModelOpenAIGPTImage1
	case ProviderGemini:
		return ModelImagen3
	default:
		return ""
	}
}

// ParseProviderType parses a provider from string (case-insensitive).
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "deepseek":
		return ProviderDeepSeek, nil
	case "gemini", "google":
		return ProviderGemini, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

// FromEnv creates a provider with defaults, reading API key from environment.
func (p ProviderType) FromEnv() (Provider, error) {
	return NewProviderBuilder(p).FromEnv()
}

// Model starts configuring this provider with a specific model.
func (p ProviderType) Model(model string) *ProviderBuilder {
	return NewProviderBuilder(p).Model(model)
}

// APIKey creates a provider with an explicit API key (uses defaults for everything else).
func (p ProviderType) APIKey(key string) (Provider, error) {
	return NewProviderBuilder(p).APIKey(key)
}

// Options is the resolved configuration a provider is constructed from.
type Options struct {
	APIKey      string
	Model       string
	ImageModel  string
	MaxTokens   uint32
	Temperature float32
	BaseURL     string
	HTTPClient  *http.Client
}

// ProviderBuilder is a builder for configuring LLM providers.
type ProviderBuilder struct {
	providerType ProviderType
	model        string
	imageModel   string
	maxTokens    uint32
	temperature  *float32
	baseURL      string
	httpClient   *http.Client
}

// NewProviderBuilder creates a new builder for the given provider.
func NewProviderBuilder(providerType ProviderType) *ProviderBuilder {
	return &ProviderBuilder{
		providerType: providerType,
	}
}

// Model sets the chat model to use.
func (b *ProviderBuilder) Model(model string) *ProviderBuilder {
	b.model = model
	return b
}

// ImageModel sets the image model, for providers that generate images.
func (b *ProviderBuilder) ImageModel(model string) *ProviderBuilder {
	b.imageModel = model
	return b
}

// MaxTokens sets maximum tokens for responses.
func (b *ProviderBuilder) MaxTokens(tokens uint32) *ProviderBuilder {
	b.maxTokens = tokens
	return b
}

// Temperature sets temperature (0.0 = deterministic, 1.0 = creative).
func (b *ProviderBuilder) Temperature(temp float32) *ProviderBuilder {
	b.temperature = &temp
	return b
}

// BaseURL points the provider at a different API host.
func (b *ProviderBuilder) BaseURL(url string) *ProviderBuilder {
	b.baseURL = url
	return b
}

// HTTPClient sets the HTTP client used for API calls.
func (b *ProviderBuilder) HTTPClient(c *http.Client) *ProviderBuilder {
	b.httpClient = c
	return b
}

// FromEnv builds the provider, reading API key from environment.
func (b *ProviderBuilder) FromEnv() (Provider, error) {
	envVar := b.providerType.EnvVar()
	apiKey := os.Getenv(envVar)
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %s environment variable not set", b.providerType, envVar)
	}
	return b.build(apiKey)
}

// APIKey builds the provider with an explicit API key.
func (b *ProviderBuilder) APIKey(key string) (Provider, error) {
	return b.build(key)
}

// ImageGenerator builds the provider as an ImageGenerator. It fails for
// providers without an image endpoint.
func (b *ProviderBuilder) ImageGenerator(key string) (ImageGenerator, error) {
	p, err := b.build(key)
	if err != nil {
		return nil, err
	}
	gen, ok := p.(ImageGenerator)
	if !ok {
		return nil, fmt.Errorf("%s does not support image generation", b.providerType)
	}
	return gen, nil
}

// Options returns the options build would use for the given key.
func (b *ProviderBuilder) Options(apiKey string) Options {
	opts := Options{
		APIKey:      apiKey,
		Model:       b.model,
		ImageModel:  b.imageModel,
		MaxTokens:   b.maxTokens,
		Temperature: 0.7,
		BaseURL:     b.baseURL,
		HTTPClient:  b.httpClient,
	}
	if opts.Model == "" {
		opts.Model = b.providerType.DefaultModel()
	}
	if opts.ImageModel == "" {
		opts.ImageModel = b.providerType.DefaultImageModel()
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 4096
	}
	if b.temperature != nil {
		opts.Temperature = *b.temperature
	}
	return opts
}

func (b *ProviderBuilder) build(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s: API key is empty", b.providerType)
	}

	opts := b.Options(apiKey)
	switch b.providerType {
	case ProviderOpenAI:
		return NewOpenAIProvider(opts), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(opts), nil
	case ProviderDeepSeek:
		return NewDeepSeekProvider(opts), nil
	case ProviderGemini:
		return NewGeminiProvider(opts), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %v", b.providerType)
	}
}

// Model identifier constants.

// OpenAI model identifiers
const (
	ModelOpenAIGPT41     = "gpt-4.1"
	ModelOpenAIGPT41Mini = "gpt-4.1-mini"
	ModelOpenAIGPT4o     = "gpt-4o"
	ModelOpenAIGPTImage1 = "gpt-image-1"
	ModelOpenAIDallE3    = "dall-e-3"
)

// Anthropic model identifiers
const (
	ModelAnthropicClaudeSonnet4 = "claude-sonnet-4-20250514"
	ModelAnthropicClaudeHaiku35 = "claude-3-5-haiku-20241022"
)

// DeepSeek model identifiers
const (
	ModelDeepSeekChat = "deepseek-chat"
)

// Gemini model identifiers
const (
	ModelGeminiFlash25 = "gemini-2.5-flash"
	ModelImagen3       = "imagen-3.0-generate-002"
)
