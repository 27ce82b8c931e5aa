// OpenAI Provider implementation using go-openai library.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for the Chat Completions API
// - Request/response format for the Images generation and edit endpoints

package llm

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider, ImageGenerator and ImageEditor for
// OpenAI and OpenAI-compatible APIs.
type OpenAIProvider struct {
	client      *openai.Client
	name        string
	model       string
	imageModel  string
	maxTokens   int
	temperature float32
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(opts Options) *OpenAIProvider {
	return newOpenAICompatible("openai", opts)
}

func newOpenAICompatible(name string, opts Options) *OpenAIProvider {
	config := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		config.HTTPClient = opts.HTTPClient
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		name:        name,
		model:       opts.Model,
		imageModel:  opts.ImageModel,
		maxTokens:   int(opts.MaxTokens),
		temperature: opts.Temperature,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Model returns the current chat model.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Chat sends a chat completion request.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []ChatMessage) (LLMResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    convertToOpenAIMessages(messages),
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("%s chat completion failed: %w", p.name, err)
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	usage := &TokenUsage{
		PromptTokens:     uint32(resp.Usage.PromptTokens),
		CompletionTokens: uint32(resp.Usage.CompletionTokens),
		TotalTokens:      uint32(resp.Usage.TotalTokens),
	}

	return LLMResponse{Content: content, Usage: usage}, nil
}

// GenerateImage calls the dedicated images endpoint and returns the first image.
func (p *OpenAIProvider) GenerateImage(ctx context.Context, req ImageRequest) (*GeneratedImage, error) {
	model := req.Model
	if model == "" {
		model = p.imageModel
	}

	imgReq := openai.ImageRequest{
		Prompt:  req.Prompt,
		Model:   model,
		N:       1,
		Size:    req.Size,
		Quality: req.Quality,
	}
	// gpt-image models always return base64 and reject response_format.
	if strings.HasPrefix(model, "dall-e") {
		imgReq.ResponseFormat = openai.CreateImageResponseFormatB64JSON
	}

	resp, err := p.client.CreateImage(ctx, imgReq)
	if err != nil {
		return nil, fmt.Errorf("%s image generation failed: %w", p.name, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%s image generation returned no images", p.name)
	}

	first := resp.Data[0]
	return &GeneratedImage{
		Base64:        first.B64JSON,
		URL:           first.URL,
		RevisedPrompt: first.RevisedPrompt,
	}, nil
}

// EditImage calls the images edit endpoint with one reference image and
// returns the first image.
func (p *OpenAIProvider) EditImage(ctx context.Context, req ImageEditRequest) (*GeneratedImage, error) {
	model := req.Model
	if model == "" {
		model = p.imageModel
	}
	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	resp, err := p.client.CreateEditImage(ctx, openai.ImageEditRequest{
		Image:   openai.WrapReader(bytes.NewReader(req.Image), "reference"+imageExtension(mimeType), mimeType),
		Prompt:  req.Prompt,
		Model:   model,
		N:       1,
		Size:    req.Size,
		Quality: req.Quality,
	})
	if err != nil {
		return nil, fmt.Errorf("%s image edit failed: %w", p.name, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%s image edit returned no images", p.name)
	}

	first := resp.Data[0]
	return &GeneratedImage{
		Base64:        first.B64JSON,
		URL:           first.URL,
		RevisedPrompt: first.RevisedPrompt,
	}, nil
}

func imageExtension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// convertToOpenAIMessages converts our ChatMessage to openai.ChatCompletionMessage
func convertToOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		result[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return result
}

var (
	_ Provider       = (*OpenAIProvider)(nil)
	_ ImageGenerator = (*OpenAIProvider)(nil)
)
