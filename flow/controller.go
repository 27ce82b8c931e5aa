// Package flow routes chat messages to the text, creative and image paths.
//
// Information Hiding:
// - Routing decision and per-route dispatch hidden behind ProcessMessage
// - Local history and reference images owned by the controller
// - Failures converted to a fixed apology at a single boundary

package flow

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/richinex/genlo/classify"
	"github.com/richinex/genlo/handler"
	"github.com/richinex/genlo/internal/logx"
	"github.com/richinex/genlo/llm"
	"github.com/richinex/genlo/model"
)

// ApologyMessage is returned whenever processing a message fails.
const ApologyMessage = "I apologize, but I encountered an error processing your request. Please try again."

// DefaultTimeout bounds a single ProcessMessage call.
const DefaultTimeout = 90 * time.Second

// Creative is the prompt enhancement and creative writing collaborator.
type Creative interface {
	EnhancePrompt(ctx context.Context, message, hint string) handler.Enhanced
	GenerateCreativeResponse(ctx context.Context, turns []model.Turn, systemPrompt string) (string, error)
	Acknowledge(ctx context.Context, imagePrompt string) (string, error)
}

// Generator is the structured text and image collaborator.
type Generator interface {
	GenerateTextResponse(ctx context.Context, req handler.TextRequest) (*handler.TextResult, error)
	GenerateImage(ctx context.Context, prompt string, opts handler.ImageOptions) (*handler.ImageResult, error)
	GenerateImageFromImage(ctx context.Context, reference, prompt string, opts handler.ImageOptions) (*handler.ImageResult, error)
	ClearConversationState()
	ConversationState() handler.ConversationState
	RestoreConversationState(state handler.ConversationState)
}

var (
	_ Creative  = (*handler.Claude)(nil)
	_ Generator = (*handler.OpenAI)(nil)
)

// Options configures a Controller. Zero values select the defaults.
type Options struct {
	// Timeout is the deadline for one message; negative disables it.
	Timeout time.Duration
	// Lifestyle overrides DefaultLifestyleTemplate.
	Lifestyle *LifestyleTemplate
	// HQ is tried before Generator.GenerateImage on lifestyle requests
	// without a reference image.
	HQ             llm.ImageGenerator
	Image          handler.ImageOptions
	CreativePrompt string
}

// Request is one inbound chat message.
type Request struct {
	Message           string
	ReferenceImageURL string
	WebSearchOptions  *handler.WebSearchOptions
	FileSearchOptions *handler.FileSearchOptions
	// History, when non-nil, replaces the controller history before the
	// message is appended.
	History []model.Turn
	// WebSearch and FileSearch force a tool on or off; nil defers to the
	// message classifier.
	WebSearch  *bool
	FileSearch *bool
}

// Snapshot is the restorable state of a Controller.
type Snapshot struct {
	History         []model.Turn
	ReferenceImages []model.ReferenceImage
	Conversation    handler.ConversationState
}

// Controller is the entry point for chat messages of one conversation.
// It is not safe for concurrent use; callers serialize per conversation.
type Controller struct {
	creative  Creative
	generator Generator
	hq        llm.ImageGenerator
	lifestyle LifestyleTemplate
	image     handler.ImageOptions
	timeout   time.Duration
	persona   string

	history    *model.Window
	references []model.ReferenceImage
}

// New creates a controller for one conversation.
func New(creative Creative, generator Generator, opts Options) *Controller {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	lifestyle := DefaultLifestyleTemplate()
	if opts.Lifestyle != nil {
		lifestyle = *opts.Lifestyle
	}
	return &Controller{
		creative:  creative,
		generator: generator,
		hq:        opts.HQ,
		lifestyle: lifestyle,
		image:     opts.Image,
		timeout:   timeout,
		persona:   opts.CreativePrompt,
		history:   model.NewWindow(0),
	}
}

// ProcessMessage handles one message and always returns a well-formed
// envelope. Errors and panics from any collaborator become ApologyMessage.
func (c *Controller) ProcessMessage(ctx context.Context, req Request) (env model.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("recovered while processing message")
			env = model.TextEnvelope(ApologyMessage)
		}
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	env, err := c.process(ctx, req)
	if err != nil {
		logx.Error().Err(err).Msg("failed to process message")
		return model.TextEnvelope(ApologyMessage)
	}
	return env
}

func (c *Controller) process(ctx context.Context, req Request) (model.Envelope, error) {
	if req.History != nil {
		c.history.Replace(req.History)
	}
	c.history.Append(model.UserTurn(req.Message))
	if req.ReferenceImageURL != "" {
		c.references = append(c.references, model.ReferenceImage{
			URL:         req.ReferenceImageURL,
			Description: req.Message,
		})
	}

	route := classify.Decide(req.Message, req.ReferenceImageURL != "")
	logx.Debug().
		Stringer("route", route.Kind).
		Bool("lifestyle", route.Lifestyle).
		Bool("with_reference", route.WithReference).
		Msg("routing message")

	switch route.Kind {
	case classify.RouteImage:
		return c.handleImage(ctx, route, req)
	case classify.RouteCreative:
		return c.handleCreative(ctx)
	default:
		return c.handleGeneral(ctx, route, req)
	}
}

// ClearHistory wipes local history, reference images and the provider
// conversation state.
func (c *Controller) ClearHistory() {
	c.history.Reset()
	c.references = nil
	c.generator.ClearConversationState()
}

// History returns a copy of the conversation history.
func (c *Controller) History() []model.Turn {
	return c.history.All()
}

// ReferenceImages returns a copy of the recorded reference images.
func (c *Controller) ReferenceImages() []model.ReferenceImage {
	out := make([]model.ReferenceImage, len(c.references))
	copy(out, c.references)
	return out
}

// Snapshot captures the controller state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		History:         c.History(),
		ReferenceImages: c.ReferenceImages(),
		Conversation:    c.generator.ConversationState(),
	}
}

// Restore replaces the controller state with s.
func (c *Controller) Restore(s Snapshot) {
	c.history.Replace(s.History)
	c.references = make([]model.ReferenceImage, len(s.ReferenceImages))
	copy(c.references, s.ReferenceImages)
	c.generator.RestoreConversationState(s.Conversation)
}
