// Package llm provides the provider abstractions GenLo talks to.
//
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Provider-specific error handling

package llm

import (
	"context"
)

// Provider is a plain chat-completion backend. The creative and
// prompt-enhancement paths only need single-shot text completions.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the current model being used.
	Model() string

	// Chat sends a chat completion request. A leading system message, if
	// any, is passed as the provider's system prompt.
	Chat(ctx context.Context, messages []ChatMessage) (LLMResponse, error)
}

// ImageGenerator produces a single image from a text prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*GeneratedImage, error)
}

// ImageEditor produces a single image from a reference image and a prompt.
type ImageEditor interface {
	EditImage(ctx context.Context, req ImageEditRequest) (*GeneratedImage, error)
}
