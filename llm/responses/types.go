package responses

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Request is the body of POST /responses.
type Request struct {
	Model              string      `json:"model"`
	Instructions       string      `json:"instructions,omitempty"`
	Input              []InputItem `json:"input"`
	Tools              []Tool      `json:"tools,omitempty"`
	ToolChoice         string      `json:"tool_choice,omitempty"`
	Text               *TextConfig `json:"text,omitempty"`
	PreviousResponseID string      `json:"previous_response_id,omitempty"`
	Stream             bool        `json:"stream,omitempty"`
}

// Role is the author of an input message.
type Role string

const (
	RoleDeveloper Role = "developer"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ContentPart is one part of a multi-part input message.
type ContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// InputText creates an input_text part.
func InputText(text string) ContentPart {
	return ContentPart{Type: "input_text", Text: text}
}

// InputImage creates an input_image part from a URL or data URI.
func InputImage(url string) ContentPart {
	return ContentPart{Type: "input_image", ImageURL: url}
}

// InputMessage is a conversational input. Text is used when Parts is empty.
type InputMessage struct {
	Role  Role
	Text  string
	Parts []ContentPart
}

// FunctionCall is a function call requested by the model. It appears in
// output and is replayed verbatim as input on the follow-up request.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Status    string `json:"status,omitempty"`
}

// FunctionCallOutput returns a function result to the model.
type FunctionCallOutput struct {
	CallID string
	Output string
}

// InputItem is exactly one of a message, a replayed function call or a
// function call output.
type InputItem struct {
	Message            *InputMessage
	FunctionCall       *FunctionCall
	FunctionCallOutput *FunctionCallOutput
}

// Message creates a plain text input message.
func Message(role Role, text string) InputItem {
	return InputItem{Message: &InputMessage{Role: role, Text: text}}
}

// MessageParts creates a multi-part input message.
func MessageParts(role Role, parts ...ContentPart) InputItem {
	return InputItem{Message: &InputMessage{Role: role, Parts: parts}}
}

// CallInput replays a function call on a follow-up request.
func CallInput(call FunctionCall) InputItem {
	call.Status = ""
	return InputItem{FunctionCall: &call}
}

// CallOutput creates a function_call_output input item.
func CallOutput(callID, output string) InputItem {
	return InputItem{FunctionCallOutput: &FunctionCallOutput{CallID: callID, Output: output}}
}

// MarshalJSON encodes the populated variant.
func (i InputItem) MarshalJSON() ([]byte, error) {
	switch {
	case i.Message != nil:
		msg := struct {
			Role    Role `json:"role"`
			Content any  `json:"content"`
		}{Role: i.Message.Role, Content: i.Message.Text}
		if len(i.Message.Parts) > 0 {
			msg.Content = i.Message.Parts
		}
		return json.Marshal(msg)
	case i.FunctionCall != nil:
		return json.Marshal(struct {
			Type string `json:"type"`
			FunctionCall
		}{Type: "function_call", FunctionCall: *i.FunctionCall})
	case i.FunctionCallOutput != nil:
		return json.Marshal(struct {
			Type   string `json:"type"`
			CallID string `json:"call_id"`
			Output string `json:"output"`
		}{Type: "function_call_output", CallID: i.FunctionCallOutput.CallID, Output: i.FunctionCallOutput.Output})
	default:
		return nil, fmt.Errorf("empty input item")
	}
}

// Tool is an entry in the request tools array. Only the fields relevant to
// Type are set.
type Tool struct {
	Type string `json:"type"`

	// web_search_preview
	SearchContextSize string        `json:"search_context_size,omitempty"`
	UserLocation      *UserLocation `json:"user_location,omitempty"`

	// file_search
	VectorStoreIDs []string `json:"vector_store_ids,omitempty"`
	MaxNumResults  int      `json:"max_num_results,omitempty"`

	// function
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	Strict      *bool           `json:"strict,omitempty"`

	// image_generation
	Size          string `json:"size,omitempty"`
	Quality       string `json:"quality,omitempty"`
	Background    string `json:"background,omitempty"`
	PartialImages int    `json:"partial_images,omitempty"`
}

// UserLocation narrows web search results geographically.
type UserLocation struct {
	Type     string `json:"type"`
	Country  string `json:"country,omitempty"`
	City     string `json:"city,omitempty"`
	Region   string `json:"region,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// WebSearchTool is the base web search tool.
func WebSearchTool() Tool {
	return Tool{Type: "web_search_preview"}
}

// FileSearchTool searches the given vector stores.
func FileSearchTool(vectorStoreIDs []string, maxResults int) Tool {
	return Tool{Type: "file_search", VectorStoreIDs: vectorStoreIDs, MaxNumResults: maxResults}
}

// FunctionTool exposes a callable function with a JSON schema.
func FunctionTool(name, description string, parameters json.RawMessage) Tool {
	return Tool{Type: "function", Name: name, Description: description, Parameters: parameters}
}

// ImageGenerationTool asks the model to produce an image.
func ImageGenerationTool(size, quality string) Tool {
	return Tool{Type: "image_generation", Size: size, Quality: quality}
}

// TextConfig controls the text output format.
type TextConfig struct {
	Format TextFormat `json:"format"`
}

// TextFormat is a response format. Type "json_schema" requires Name and Schema.
type TextFormat struct {
	Type   string          `json:"type"`
	Name   string          `json:"name,omitempty"`
	Schema json.RawMessage `json:"schema,omitempty"`
	Strict bool            `json:"strict,omitempty"`
}

// JSONSchemaFormat creates a strict json_schema text format.
func JSONSchemaFormat(name string, schema json.RawMessage) *TextConfig {
	return &TextConfig{Format: TextFormat{Type: "json_schema", Name: name, Schema: schema, Strict: true}}
}

// Usage is the token accounting of a response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Response is the body returned by POST /responses.
type Response struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Model  string       `json:"model"`
	Output []OutputItem `json:"output"`
	Usage  *Usage       `json:"usage,omitempty"`
}

// OutputText concatenates the output_text parts of all message items.
func (r *Response) OutputText() string {
	var b strings.Builder
	for _, item := range r.Output {
		if item.Kind == KindMessage {
			b.WriteString(item.Message.Text())
		}
	}
	return b.String()
}

// FunctionCalls returns the function call items in output order.
func (r *Response) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, item := range r.Output {
		if item.Kind == KindFunctionCall {
			calls = append(calls, *item.FunctionCall)
		}
	}
	return calls
}

// WebSearchCalls returns the web search call items in output order.
func (r *Response) WebSearchCalls() []WebSearchCall {
	var calls []WebSearchCall
	for _, item := range r.Output {
		if item.Kind == KindWebSearchCall {
			calls = append(calls, *item.WebSearchCall)
		}
	}
	return calls
}

// FileSearchCalls returns the file search call items in output order.
func (r *Response) FileSearchCalls() []FileSearchCall {
	var calls []FileSearchCall
	for _, item := range r.Output {
		if item.Kind == KindFileSearchCall {
			calls = append(calls, *item.FileSearchCall)
		}
	}
	return calls
}

// ImageGeneration returns the first completed image generation call, if any.
func (r *Response) ImageGeneration() *ImageGenerationCall {
	for _, item := range r.Output {
		if item.Kind == KindImageGenerationCall && item.ImageGenerationCall.Result != "" {
			return item.ImageGenerationCall
		}
	}
	return nil
}
