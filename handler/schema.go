package handler

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/richinex/genlo/model"
)

// ChatResponseSchemaName is the name of the structured output format.
const ChatResponseSchemaName = "chat_response"

// ChatResponseSchema returns the strict JSON schema of model.ChatResponse.
var ChatResponseSchema = sync.OnceValue(func() json.RawMessage {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	s := r.Reflect(&model.ChatResponse{})
	s.Version = ""
	s.ID = ""

	raw, err := json.Marshal(s)
	if err != nil {
		panic("handler: marshal chat response schema: " + err.Error())
	}
	return raw
})
