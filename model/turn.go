// Package model provides domain types shared across packages.
package model

import "encoding/json"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleDeveloper Role = "developer"
)

// Context window sizes used by the different consumers of conversation history.
const (
	// FunctionCallContextWindow is the number of stored provider turns replayed
	// into a text-response request.
	FunctionCallContextWindow = 6
	// CreativeContextWindow is the number of controller history turns sent to
	// the creative provider.
	CreativeContextWindow = 10
	// HistoryScanWindow bounds how far back the controller looks for an image
	// reference embedded in history.
	HistoryScanWindow = 20
	// ConversationStateCap bounds the provider-side conversation state.
	ConversationStateCap = 20
)

// Turn is a single message in a conversation. Turns are never mutated after creation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserTurn creates a user turn.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AssistantTurn creates an assistant turn.
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// ReferenceImage is an image attached to a user message, kept for later
// image-to-image requests.
type ReferenceImage struct {
	URL         string `json:"url"` // http(s) URL or data URI
	Description string `json:"description"`
}

// FunctionCallRecord is a function executed on behalf of the model.
type FunctionCallRecord struct {
	FunctionName string `json:"function_name"`
	Arguments    string `json:"arguments,omitempty"`
	Result       string `json:"result"`
}

// FunctionDefinition describes a function the text provider may call.
// Parameters is a JSON schema object.
type FunctionDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}
