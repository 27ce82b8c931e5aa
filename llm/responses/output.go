package responses

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ItemKind is the type tag of an output item.
type ItemKind string

const (
	KindMessage             ItemKind = "message"
	KindFunctionCall        ItemKind = "function_call"
	KindWebSearchCall       ItemKind = "web_search_call"
	KindFileSearchCall      ItemKind = "file_search_call"
	KindImageGenerationCall ItemKind = "image_generation_call"
	KindUnknown             ItemKind = "unknown"
)

// OutputItem is one entry of Response.Output. Kind selects which single
// variant pointer is set; unknown kinds keep only Raw.
type OutputItem struct {
	Kind ItemKind
	Type string
	Raw  json.RawMessage

	Message             *OutputMessage
	FunctionCall        *FunctionCall
	WebSearchCall       *WebSearchCall
	FileSearchCall      *FileSearchCall
	ImageGenerationCall *ImageGenerationCall
}

// OutputMessage is an assistant message item.
type OutputMessage struct {
	ID      string          `json:"id"`
	Role    string          `json:"role"`
	Status  string          `json:"status"`
	Content []OutputContent `json:"content"`
}

// Text concatenates the output_text parts.
func (m *OutputMessage) Text() string {
	var b strings.Builder
	for _, c := range m.Content {
		if c.Type == "output_text" {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}

// OutputContent is a content part of an output message.
type OutputContent struct {
	Type        string       `json:"type"`
	Text        string       `json:"text"`
	Refusal     string       `json:"refusal,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Annotation is a citation attached to output text.
type Annotation struct {
	Type     string `json:"type"`
	URL      string `json:"url,omitempty"`
	Title    string `json:"title,omitempty"`
	FileID   string `json:"file_id,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// WebSearchCall is a web search the model performed.
type WebSearchCall struct {
	ID     string           `json:"id"`
	Status string           `json:"status"`
	Action *WebSearchAction `json:"action,omitempty"`
}

// WebSearchAction describes what the search did.
type WebSearchAction struct {
	Type  string `json:"type"`
	Query string `json:"query,omitempty"`
}

// Query returns the searched query, if reported.
func (w WebSearchCall) Query() string {
	if w.Action == nil {
		return ""
	}
	return w.Action.Query
}

// FileSearchCall is a vector store search the model performed.
type FileSearchCall struct {
	ID      string             `json:"id"`
	Status  string             `json:"status"`
	Queries []string           `json:"queries"`
	Results []FileSearchResult `json:"results"`
}

// FileSearchResult is one retrieved chunk.
type FileSearchResult struct {
	FileID   string  `json:"file_id"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

// ImageGenerationCall carries a generated image as base64 in Result.
type ImageGenerationCall struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Result        string `json:"result"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// UnmarshalJSON decodes the item into the variant named by its type field.
func (o *OutputItem) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	*o = OutputItem{Type: head.Type, Raw: append(json.RawMessage(nil), data...)}

	var err error
	switch ItemKind(head.Type) {
	case KindMessage:
		o.Kind, o.Message = KindMessage, &OutputMessage{}
		err = json.Unmarshal(data, o.Message)
	case KindFunctionCall:
		o.Kind, o.FunctionCall = KindFunctionCall, &FunctionCall{}
		err = json.Unmarshal(data, o.FunctionCall)
	case KindWebSearchCall:
		o.Kind, o.WebSearchCall = KindWebSearchCall, &WebSearchCall{}
		err = json.Unmarshal(data, o.WebSearchCall)
	case KindFileSearchCall:
		o.Kind, o.FileSearchCall = KindFileSearchCall, &FileSearchCall{}
		err = json.Unmarshal(data, o.FileSearchCall)
	case KindImageGenerationCall:
		o.Kind, o.ImageGenerationCall = KindImageGenerationCall, &ImageGenerationCall{}
		err = json.Unmarshal(data, o.ImageGenerationCall)
	default:
		o.Kind = KindUnknown
	}
	if err != nil {
		return fmt.Errorf("decode %s output item: %w", head.Type, err)
	}
	return nil
}
