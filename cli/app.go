// Application wiring for CLI commands.
//
// Information Hiding:
// - Which provider backs which handler
// - Storage backend selection
// - Per-session controller construction

package cli

import (
	"context"
	"fmt"

	"github.com/richinex/genlo/config"
	"github.com/richinex/genlo/flow"
	"github.com/richinex/genlo/handler"
	"github.com/richinex/genlo/internal/logx"
	"github.com/richinex/genlo/llm"
	"github.com/richinex/genlo/llm/responses"
	"github.com/richinex/genlo/session"
	"github.com/richinex/genlo/storage"
	"github.com/richinex/genlo/tools"
)

// App holds the components shared by every session.
type App struct {
	Settings config.Settings
	Sessions *session.Manager
	Registry *tools.Registry

	closeStore func() error
}

// components are stateless and shared across sessions; only the OpenAI
// handler and the controller are built per session.
type components struct {
	settings  config.Settings
	client    *responses.Client
	images    llm.ImageGenerator
	hq        llm.ImageGenerator
	claude    *handler.Claude
	functions handler.FunctionExecutor
	lifestyle *flow.LifestyleTemplate
}

// NewApp builds the application from settings.
func NewApp(ctx context.Context, s config.Settings) (*App, error) {
	registry, err := tools.WithDefaults(s.Tools.HTTPAllowedDomains)
	if err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}

	c, err := newComponents(s, tools.NewDefaultExecutor(registry))
	if err != nil {
		return nil, err
	}

	store, closeStore, err := storage.Open(ctx, storage.Config{
		Backend:    s.Store.Backend,
		SqlitePath: s.Store.SqlitePath,
		Redis: storage.RedisConfig{
			URL: s.Store.RedisURL,
			TTL: s.Store.SessionTTL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", s.Store.Backend, err)
	}

	logx.Info().
		Str("creative_provider", s.Creative.Provider).
		Str("image_api", s.OpenAI.ImageAPI).
		Str("store", s.Store.Backend).
		Bool("hq_images", c.hq != nil).
		Msg("application ready")

	return &App{
		Settings:   s,
		Sessions:   session.NewManager(c.newController, store),
		Registry:   registry,
		closeStore: closeStore,
	}, nil
}

// Close releases the conversation store.
func (a *App) Close() error {
	if a.closeStore == nil {
		return nil
	}
	return a.closeStore()
}

func newComponents(s config.Settings, functions handler.FunctionExecutor) (*components, error) {
	openaiKey, err := s.APIKeyFor("openai")
	if err != nil {
		return nil, err
	}

	var clientOpts []responses.Option
	if s.OpenAI.BaseURL != "" {
		clientOpts = append(clientOpts, responses.WithBaseURL(s.OpenAI.BaseURL))
	}

	c := &components{
		settings:  s,
		client:    responses.New(openaiKey, clientOpts...),
		functions: functions,
	}

	if handler.ImageAPI(s.OpenAI.ImageAPI) == handler.ImageAPIImages {
		c.images, err = llm.NewProviderBuilder(llm.ProviderOpenAI).
			ImageModel(s.OpenAI.ImageModel).
			BaseURL(s.OpenAI.BaseURL).
			ImageGenerator(openaiKey)
		if err != nil {
			return nil, err
		}
	}

	if s.Gemini.APIKey != "" {
		c.hq, err = llm.NewProviderBuilder(llm.ProviderGemini).
			ImageModel(s.Gemini.ImageModel).
			BaseURL(s.Gemini.BaseURL).
			ImageGenerator(s.Gemini.APIKey)
		if err != nil {
			return nil, err
		}
	}

	enhancer, err := creativeProvider(s, handler.EnhanceMaxTokens)
	if err != nil {
		return nil, err
	}
	creative, err := creativeProvider(s, s.Creative.MaxTokens)
	if err != nil {
		return nil, err
	}
	c.claude = handler.NewClaude(enhancer, creative)

	if path := s.Creative.LifestyleTemplate; path != "" {
		t, err := flow.LoadLifestyleTemplate(path)
		if err != nil {
			return nil, err
		}
		c.lifestyle = &t
	}
	return c, nil
}

// creativeProvider builds the CREATIVE_PROVIDER chat provider.
func creativeProvider(s config.Settings, maxTokens uint32) (llm.Provider, error) {
	name := s.Creative.Provider
	providerType, err := llm.ParseProviderType(name)
	if err != nil {
		return nil, err
	}
	apiKey, err := s.APIKeyFor(name)
	if err != nil {
		return nil, err
	}
	model, err := s.ModelFor(name)
	if err != nil {
		return nil, err
	}
	baseURL, err := s.BaseURLFor(name)
	if err != nil {
		return nil, err
	}
	return providerType.
		Model(model).
		MaxTokens(maxTokens).
		Temperature(float32(s.Creative.Temperature)).
		BaseURL(baseURL).
		APIKey(apiKey)
}

func (c *components) newController() (*flow.Controller, error) {
	s := c.settings
	openai := handler.NewOpenAI(c.client, c.images, c.functions, handler.OpenAIConfig{
		TextModel:      s.OpenAI.TextModel,
		ImageModel:     s.OpenAI.ImageModel,
		ImageAPI:       handler.ImageAPI(s.OpenAI.ImageAPI),
		ImageSize:      s.OpenAI.ImageSize,
		ImageQuality:   s.OpenAI.ImageQuality,
		VectorStoreIDs: s.OpenAI.VectorStoreIDs,
	})

	timeout := s.ProviderTimeout
	if timeout == 0 {
		timeout = -1
	}
	return flow.New(c.claude, openai, flow.Options{
		Timeout:        timeout,
		Lifestyle:      c.lifestyle,
		HQ:             c.hq,
		CreativePrompt: s.Creative.SystemPrompt,
	}), nil
}
