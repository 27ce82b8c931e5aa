// Claude handler: prompt enhancement and creative responses.
//
// Information Hiding:
// - Enhancement and persona system prompts
// - Which conversation turns reach the provider
// - The fail-open policy of prompt enhancement

package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/richinex/genlo/internal/logx"
	"github.com/richinex/genlo/llm"
	"github.com/richinex/genlo/model"
)

const enhanceSystemPrompt = `You rewrite short user requests into rich, specific prompts for an image or text generation model.
Keep the user's intent and subject exactly. Add concrete detail about composition, lighting, style and mood where it helps.
Return only the rewritten prompt, with no preamble, quotes or explanation.`

// DefaultCreativeSystemPrompt is used when a caller supplies no system prompt.
const DefaultCreativeSystemPrompt = `You are GenLo, a friendly and imaginative creative assistant.
You help with naming, slogans, stories, captions and other creative writing.
Be concise, original and warm. Offer a few options when the user is choosing something.`

const acknowledgeSystemPrompt = `You are GenLo, a creative assistant that has just generated an image for the user.
Reply with one or two short, friendly sentences describing what was created. Do not include links or markdown images.`

// EnhanceMaxTokens caps the output of the enhancement call.
const EnhanceMaxTokens = 500

// Enhanced is the result of prompt enhancement. It always carries a usable
// prompt; Degraded reports that the original input was returned unchanged
// because the provider call failed.
type Enhanced struct {
	Prompt   string
	Degraded bool
}

// Claude wraps the text provider used for enhancement and creative writing.
type Claude struct {
	enhancer llm.Provider
	creative llm.Provider
}

// NewClaude creates a handler. The enhancer should be configured with
// EnhanceMaxTokens; creative may be the same provider or a different one.
func NewClaude(enhancer, creative llm.Provider) *Claude {
	if creative == nil {
		creative = enhancer
	}
	return &Claude{enhancer: enhancer, creative: creative}
}

// EnhancePrompt rewrites message into a richer generation prompt. hint is
// optional context such as the kind of output being generated.
// It never fails: on any provider error it logs and returns message as is.
func (c *Claude) EnhancePrompt(ctx context.Context, message, hint string) Enhanced {
	user := message
	if hint != "" {
		user = fmt.Sprintf("Context: %s\n\nRequest: %s", hint, message)
	}

	resp, err := c.enhancer.Chat(ctx, []llm.ChatMessage{
		llm.SystemMessage(enhanceSystemPrompt),
		llm.UserMessage(user),
	})
	if err == nil && strings.TrimSpace(resp.Content) == "" {
		err = errors.New("empty enhancement")
	}
	if err != nil {
		logx.Warn().Err(err).Str("provider", c.enhancer.Name()).Msg("prompt enhancement failed, using original prompt")
		return Enhanced{Prompt: message, Degraded: true}
	}

	return Enhanced{Prompt: strings.TrimSpace(resp.Content)}
}

// GenerateCreativeResponse answers from the last CreativeContextWindow turns.
// Unlike EnhancePrompt, provider errors are returned to the caller.
func (c *Claude) GenerateCreativeResponse(ctx context.Context, turns []model.Turn, systemPrompt string) (string, error) {
	if systemPrompt == "" {
		systemPrompt = DefaultCreativeSystemPrompt
	}
	if len(turns) > model.CreativeContextWindow {
		turns = turns[len(turns)-model.CreativeContextWindow:]
	}

	messages := make([]llm.ChatMessage, 0, len(turns)+1)
	messages = append(messages, llm.SystemMessage(systemPrompt))
	for _, t := range turns {
		switch t.Role {
		case model.RoleUser:
			messages = append(messages, llm.UserMessage(t.Content))
		case model.RoleAssistant:
			messages = append(messages, llm.AssistantMessage(t.Content))
		}
	}

	resp, err := c.creative.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("creative response: %w", err)
	}
	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", fmt.Errorf("creative response: %s returned no text", c.creative.Name())
	}
	return content, nil
}

// Acknowledge writes a short reply describing a generated image.
// Errors propagate like any creative response failure.
func (c *Claude) Acknowledge(ctx context.Context, imagePrompt string) (string, error) {
	return c.GenerateCreativeResponse(ctx, []model.Turn{
		model.UserTurn("I asked for an image of: " + imagePrompt),
	}, acknowledgeSystemPrompt)
}
