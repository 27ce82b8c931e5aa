package model

// ChatResponse is the structured output requested from the text provider.
// The JSON schema sent to the provider is reflected from this type, so every
// field is required and no additional properties are allowed.
type ChatResponse struct {
	Content     string           `json:"content" jsonschema:"description=The response to the user"`
	Confidence  float64          `json:"confidence" jsonschema:"minimum=0,maximum=1"`
	Suggestions []string         `json:"suggestions" jsonschema:"description=Follow-up suggestions for the user"`
	Metadata    ResponseMetadata `json:"metadata"`
}

// ResponseMetadata describes how a ChatResponse was produced.
type ResponseMetadata struct {
	Reasoning     string   `json:"reasoning"`
	Sources       []string `json:"sources"`
	FunctionsUsed []string `json:"functions_used"`
	WebSearchUsed bool     `json:"web_search_used"`
	SearchCalls   []string `json:"search_calls"`
}
