// OpenAI handler: structured text responses, tool use and image generation.
//
// Information Hiding:
// - Request shaping for the Responses API (input list, tools, text format)
// - The function-calling loop and its follow-up requests
// - Choice between the images endpoint and the image_generation tool
// - The rolling provider-side conversation state

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/richinex/genlo/internal/netguard"
	"github.com/richinex/genlo/llm"
	"github.com/richinex/genlo/llm/responses"
	"github.com/richinex/genlo/model"
)

// ImageAPI selects the endpoint used for image generation.
type ImageAPI string

const (
	// ImageAPIImages uses the dedicated images generation and edit endpoints.
	ImageAPIImages ImageAPI = "images"
	// ImageAPIResponses uses the Responses API with the image_generation tool.
	ImageAPIResponses ImageAPI = "responses"
)

// FunctionExecutor runs functions requested by the model.
type FunctionExecutor interface {
	ExecuteFunction(ctx context.Context, name string, args json.RawMessage) (string, error)
	Definitions() []model.FunctionDefinition
}

// OpenAIConfig configures the OpenAI handler.
type OpenAIConfig struct {
	TextModel      string
	ImageModel     string
	ImageAPI       ImageAPI
	ImageSize      string
	ImageQuality   string
	VectorStoreIDs []string

	// ReferenceClient fetches reference image URLs. Defaults to a client
	// that refuses private and reserved addresses.
	ReferenceClient *http.Client
}

// referenceFetchTimeout bounds the default reference image fetch.
const referenceFetchTimeout = 30 * time.Second

// ConversationState is the provider-side context carried between text requests.
// Text requests replay Messages and never send PreviousResponseID; the id is
// kept for callers chaining a follow-up through EditImageWithPreviousResponse.
type ConversationState struct {
	PreviousResponseID string       `json:"previous_response_id,omitempty"`
	Messages           []model.Turn `json:"messages"`
}

// OpenAI wraps the Responses API and the image endpoints.
type OpenAI struct {
	client    *responses.Client
	images    llm.ImageGenerator
	functions FunctionExecutor
	cfg       OpenAIConfig

	mu                 sync.Mutex
	previousResponseID string
	messages           *model.Window
}

// NewOpenAI creates a handler. images serves ImageAPIImages requests and
// may be nil when cfg.ImageAPI is ImageAPIResponses; it also serves
// image-to-image requests when it implements llm.ImageEditor.
// functions may be nil, which disables function calling.
func NewOpenAI(client *responses.Client, images llm.ImageGenerator, functions FunctionExecutor, cfg OpenAIConfig) *OpenAI {
	if cfg.TextModel == "" {
		cfg.TextModel = llm.ModelOpenAIGPT41
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = llm.ModelOpenAIGPTImage1
	}
	if cfg.ImageAPI == "" {
		cfg.ImageAPI = ImageAPIImages
	}
	if cfg.ImageAPI == ImageAPIImages && images == nil {
		cfg.ImageAPI = ImageAPIResponses
	}
	if cfg.ReferenceClient == nil {
		cfg.ReferenceClient = netguard.NewClient(referenceFetchTimeout)
	}
	return &OpenAI{
		client:    client,
		images:    images,
		functions: functions,
		cfg:       cfg,
		messages:  model.NewWindow(model.ConversationStateCap),
	}
}

// ClearConversationState drops the provider-side context.
func (h *OpenAI) ClearConversationState() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.previousResponseID = ""
	h.messages.Reset()
}

// ConversationState returns a copy of the provider-side context.
func (h *OpenAI) ConversationState() ConversationState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return ConversationState{
		PreviousResponseID: h.previousResponseID,
		Messages:           h.messages.All(),
	}
}

// RestoreConversationState replaces the provider-side context.
func (h *OpenAI) RestoreConversationState(state ConversationState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.previousResponseID = state.PreviousResponseID
	h.messages.Replace(state.Messages)
}

// recordTurn stores a successful exchange.
func (h *OpenAI) recordTurn(responseID, userMessage, assistantContent string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages.Append(model.UserTurn(userMessage), model.AssistantTurn(assistantContent))
	h.previousResponseID = responseID
}

func (h *OpenAI) recentTurns(n int) []model.Turn {
	return h.messages.Last(n)
}
