package llm

import "encoding/base64"

// ChatMessage represents a chat message with role and content.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{Role: "system", Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: "assistant", Content: content}
}

// LLMResponse represents a response from an LLM provider.
type LLMResponse struct {
	Content string
	Usage   *TokenUsage
}

// TokenUsage contains token usage statistics.
type TokenUsage struct {
	PromptTokens     uint32
	CompletionTokens uint32
	TotalTokens      uint32
}

// ImageRequest describes a text-to-image generation.
// Empty fields fall back to provider defaults.
type ImageRequest struct {
	Prompt  string
	Model   string
	Size    string
	Quality string
}

// ImageEditRequest is an edit of one reference image.
type ImageEditRequest struct {
	Image    []byte
	MIMEType string // defaults to image/png
	Prompt   string
	Model    string
	Size     string
	Quality  string
}

// GeneratedImage is one generated image. Exactly one of Base64 and URL is
// normally set, depending on the provider.
type GeneratedImage struct {
	Base64        string
	URL           string
	MIMEType      string
	RevisedPrompt string
}

// DataURI returns the image as a data URI, or its URL when it has no inline bytes.
func (g *GeneratedImage) DataURI() string {
	if g.Base64 == "" {
		return g.URL
	}
	mime := g.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + g.Base64
}

func encodeImageBytes(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// splitSystem separates the system prompt from the conversational messages.
// Multiple system messages are joined in order.
func splitSystem(messages []ChatMessage) (string, []ChatMessage) {
	var system string
	rest := make([]ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == "system" {
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
			continue
		}
		rest = append(rest, msg)
	}
	return system, rest
}
