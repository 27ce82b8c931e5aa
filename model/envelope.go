package model

// EnvelopeType distinguishes text replies from generated images.
type EnvelopeType string

const (
	EnvelopeText  EnvelopeType = "text"
	EnvelopeImage EnvelopeType = "image"
)

// Usage contains token usage reported by the text provider.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// WebSearchCall is a web search the provider ran while answering.
type WebSearchCall struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Query  string `json:"query,omitempty"`
}

// FileSearchResult is a single chunk returned by a file search.
type FileSearchResult struct {
	FileID   string  `json:"file_id"`
	Filename string  `json:"filename,omitempty"`
	Score    float64 `json:"score,omitempty"`
	Text     string  `json:"text,omitempty"`
}

// FileSearchCall is a vector store search the provider ran while answering.
type FileSearchCall struct {
	ID      string             `json:"id"`
	Status  string             `json:"status"`
	Queries []string           `json:"queries,omitempty"`
	Results []FileSearchResult `json:"results,omitempty"`
}

// Envelope is the response returned to callers of the chat flow.
// It is built fresh for every message and not modified after return.
type Envelope struct {
	Type            EnvelopeType         `json:"type"`
	Content         string               `json:"content"`
	ImageURL        string               `json:"imageUrl,omitempty"`
	EnhancedPrompt  string               `json:"enhancedPrompt,omitempty"`
	Usage           *Usage               `json:"usage,omitempty"`
	StructuredData  *ChatResponse        `json:"structuredData,omitempty"`
	FunctionCalls   []FunctionCallRecord `json:"functionCalls,omitempty"`
	WebSearchCalls  []WebSearchCall      `json:"webSearchCalls,omitempty"`
	FileSearchCalls []FileSearchCall     `json:"fileSearchCalls,omitempty"`
}

// TextEnvelope creates a plain text envelope.
func TextEnvelope(content string) Envelope {
	return Envelope{Type: EnvelopeText, Content: content}
}
