package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every key read by Settings so host values do not leak in.
// A set but empty variable would suppress the envconfig default.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GENLO_ENV", "PROVIDER_TIMEOUT",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_TEXT_MODEL", "OPENAI_IMAGE_MODEL", "OPENAI_IMAGE_API",
		"OPENAI_IMAGE_SIZE", "OPENAI_IMAGE_QUALITY", "OPENAI_VECTOR_STORE_IDS",
		"ANTHROPIC_API_KEY", "ANTHROPIC_BASE_URL", "ANTHROPIC_MODEL",
		"GEMINI_API_KEY", "GEMINI_BASE_URL", "GEMINI_MODEL", "GEMINI_IMAGE_MODEL",
		"DEEPSEEK_API_KEY", "DEEPSEEK_BASE_URL", "DEEPSEEK_MODEL",
		"CREATIVE_PROVIDER", "LLM_MAX_TOKENS", "LLM_TEMPERATURE", "CREATIVE_SYSTEM_PROMPT", "LIFESTYLE_TEMPLATE_FILE",
		"STORE_BACKEND", "SQLITE_PATH", "REDIS_URL", "SESSION_TTL", "SESSION_IDLE_TIMEOUT",
		"SERVER_ADDR", "RATE_LIMIT_PER_MINUTE", "RATE_LIMIT_BURST", "HTTP_TOOL_ALLOWED_DOMAINS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestNewDefaults(t *testing.T) {
	clearEnv(t)

	s, err := New()
	require.NoError(t, err)

	assert.Equal(t, "development", s.Env)
	assert.Equal(t, 90*time.Second, s.ProviderTimeout)
	assert.Equal(t, "gpt-4.1", s.OpenAI.TextModel)
	assert.Equal(t, "gpt-image-1", s.OpenAI.ImageModel)
	assert.Equal(t, "images", s.OpenAI.ImageAPI)
	assert.Equal(t, "anthropic", s.Creative.Provider)
	assert.Equal(t, uint32(4096), s.Creative.MaxTokens)
	assert.Equal(t, "imagen-3.0-generate-002", s.Gemini.ImageModel)
	assert.Equal(t, "memory", s.Store.Backend)
	assert.Equal(t, 30, s.Server.RateLimitPerMinute)
}

func TestNewFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CREATIVE_PROVIDER", "Claude")
	t.Setenv("OPENAI_IMAGE_API", "responses")
	t.Setenv("OPENAI_VECTOR_STORE_IDS", "vs_1,vs_2")
	t.Setenv("PROVIDER_TIMEOUT", "15s")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("HTTP_TOOL_ALLOWED_DOMAINS", "api.example.com")

	s, err := New()
	require.NoError(t, err)

	assert.Equal(t, "anthropic", s.Creative.Provider)
	assert.Equal(t, "responses", s.OpenAI.ImageAPI)
	assert.Equal(t, []string{"vs_1", "vs_2"}, s.OpenAI.VectorStoreIDs)
	assert.Equal(t, 15*time.Second, s.ProviderTimeout)
	assert.Equal(t, "sqlite", s.Store.Backend)
	assert.Equal(t, []string{"api.example.com"}, s.Tools.HTTPAllowedDomains)
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown creative provider", "CREATIVE_PROVIDER", "unknown_provider"},
		{"bad image api", "OPENAI_IMAGE_API", "dalle"},
		{"bad store", "STORE_BACKEND", "etcd"},
		{"redis without url", "STORE_BACKEND", "redis"},
		{"bad duration", "PROVIDER_TIMEOUT", "soon"},
		{"bad int", "RATE_LIMIT_PER_MINUTE", "many"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := New()
			assert.Error(t, err)
		})
	}
}

func TestMustNewPanics(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "etcd")
	assert.Panics(t, func() { MustNew() })
}

func TestAPIKeyFor(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "test-key")
	s, err := New()
	require.NoError(t, err)

	key, err := s.APIKeyFor("gpt")
	require.NoError(t, err)
	assert.Equal(t, "test-key", key)

	_, err = s.APIKeyFor("anthropic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")

	_, err = s.APIKeyFor("unknown_provider")
	assert.Error(t, err)
}

func TestModelFor(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEEPSEEK_MODEL", "deepseek-reasoner")
	s, err := New()
	require.NoError(t, err)

	model, err := s.ModelFor("deepseek")
	require.NoError(t, err)
	assert.Equal(t, "deepseek-reasoner", model)

	model, err = s.ModelFor("google")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", model)
}

func TestBaseURLFor(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_BASE_URL", "http://localhost:9000/")
	s, err := New()
	require.NoError(t, err)

	url, err := s.BaseURLFor("claude")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/", url)

	url, err = s.BaseURLFor("openai")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestSupportedProviders(t *testing.T) {
	assert.Equal(t, []string{"anthropic", "deepseek", "gemini", "openai"}, SupportedProviders())
}
