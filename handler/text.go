package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/richinex/genlo/classify"
	"github.com/richinex/genlo/internal/jsonx"
	"github.com/richinex/genlo/internal/logx"
	"github.com/richinex/genlo/llm/responses"
	"github.com/richinex/genlo/model"
)

// maxFunctionRounds bounds the function-calling loop.
const maxFunctionRounds = 5

// WebSearchOptions configures the additional web search tool.
type WebSearchOptions struct {
	SearchContextSize string `json:"search_context_size,omitempty"` // low, medium or high
	Country           string `json:"country,omitempty"`
	City              string `json:"city,omitempty"`
	Region            string `json:"region,omitempty"`
	Timezone          string `json:"timezone,omitempty"`
}

// FileSearchOptions configures the file search tool. Empty VectorStoreIDs
// fall back to the handler configuration.
type FileSearchOptions struct {
	VectorStoreIDs []string `json:"vector_store_ids,omitempty"`
	MaxNumResults  int      `json:"max_num_results,omitempty"`
}

// TextRequest is the input of GenerateTextResponse.
// A nil WebSearch or FileSearch defers to the message classifier.
type TextRequest struct {
	Message               string
	EnableFunctionCalling bool
	EnhancedPrompt        string
	SystemInstructions    string
	WebSearch             *bool
	WebSearchOptions      *WebSearchOptions
	FileSearch            *bool
	FileSearchOptions     *FileSearchOptions
}

// TextResult is the output of GenerateTextResponse.
// StructuredData is nil when the output was not valid structured JSON.
type TextResult struct {
	Content         string
	ResponseID      string
	Usage           *model.Usage
	StructuredData  *model.ChatResponse
	FunctionCalls   []model.FunctionCallRecord
	WebSearchCalls  []model.WebSearchCall
	FileSearchCalls []model.FileSearchCall
}

// GenerateTextResponse answers a general text message with a structured
// response, running any functions the model asks for. Provider errors are
// returned; the conversation state only changes on success.
func (h *OpenAI) GenerateTextResponse(ctx context.Context, req TextRequest) (*TextResult, error) {
	webSearch := resolveFlag(req.WebSearch, classify.NeedsWebSearch(req.Message))
	fileSearch := resolveFlag(req.FileSearch, classify.NeedsFileSearch(req.Message))

	input := h.buildInput(req)
	apiReq := responses.Request{
		Model: h.cfg.TextModel,
		Input: input,
		Tools: h.buildTools(req, webSearch, fileSearch),
		Text:  responses.JSONSchemaFormat(ChatResponseSchemaName, ChatResponseSchema()),
	}

	resp, err := h.client.Create(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("text response: %w", err)
	}
	usage := addUsage(nil, resp.Usage)

	var records []model.FunctionCallRecord
	for round := 0; round < maxFunctionRounds; round++ {
		calls := resp.FunctionCalls()
		if len(calls) == 0 || h.functions == nil {
			break
		}

		for _, call := range calls {
			result := h.executeFunction(ctx, call)
			records = append(records, model.FunctionCallRecord{
				FunctionName: call.Name,
				Arguments:    call.Arguments,
				Result:       result,
			})
			apiReq.Input = append(apiReq.Input, responses.CallInput(call), responses.CallOutput(call.CallID, result))
		}

		resp, err = h.client.Create(ctx, apiReq)
		if err != nil {
			return nil, fmt.Errorf("function call follow-up: %w", err)
		}
		usage = addUsage(usage, resp.Usage)
	}
	if pending := resp.FunctionCalls(); len(pending) > 0 {
		return nil, fmt.Errorf("text response: model still requested %d function calls after %d rounds", len(pending), maxFunctionRounds)
	}

	var result *TextResult
	switch {
	case len(records) > 0:
		result = h.parseStructured(resp)
		result.FunctionCalls = records
		if result.StructuredData != nil && len(result.StructuredData.Metadata.FunctionsUsed) == 0 {
			for _, rec := range records {
				result.StructuredData.Metadata.FunctionsUsed = append(result.StructuredData.Metadata.FunctionsUsed, rec.FunctionName)
			}
		}
	case len(resp.WebSearchCalls()) > 0:
		result = h.processWebSearch(resp)
	case len(resp.FileSearchCalls()) > 0:
		result = h.processFileSearch(resp)
	default:
		result = h.parseStructured(resp)
	}
	result.ResponseID = resp.ID
	result.Usage = usage
	if strings.TrimSpace(result.Content) == "" {
		return nil, fmt.Errorf("text response %s: empty content", resp.ID)
	}

	h.recordTurn(resp.ID, req.Message, result.Content)
	return result, nil
}

// buildInput orders the developer instructions, the user content and the
// replayed turns.
func (h *OpenAI) buildInput(req TextRequest) []responses.InputItem {
	var input []responses.InputItem
	if req.SystemInstructions != "" {
		input = append(input, responses.Message(responses.RoleDeveloper, req.SystemInstructions))
	}

	content := req.Message
	if req.EnhancedPrompt != "" && req.EnhancedPrompt != req.Message {
		content = fmt.Sprintf("%s\n\nEnhanced request: %s", req.Message, req.EnhancedPrompt)
	}
	input = append(input, responses.Message(responses.RoleUser, content))

	for _, turn := range h.recentTurns(model.FunctionCallContextWindow) {
		input = append(input, responses.Message(responses.Role(turn.Role), turn.Content))
	}
	return input
}

func (h *OpenAI) buildTools(req TextRequest, webSearch, fileSearch bool) []responses.Tool {
	tools := []responses.Tool{responses.WebSearchTool()}

	if webSearch {
		tool := responses.WebSearchTool()
		tool.SearchContextSize = "medium"
		if opts := req.WebSearchOptions; opts != nil {
			if opts.SearchContextSize != "" {
				tool.SearchContextSize = opts.SearchContextSize
			}
			if opts.Country != "" || opts.City != "" || opts.Region != "" || opts.Timezone != "" {
				tool.UserLocation = &responses.UserLocation{
					Type:     "approximate",
					Country:  opts.Country,
					City:     opts.City,
					Region:   opts.Region,
					Timezone: opts.Timezone,
				}
			}
		}
		tools = append(tools, tool)
	}

	if fileSearch {
		ids := h.cfg.VectorStoreIDs
		maxResults := 0
		if opts := req.FileSearchOptions; opts != nil {
			if len(opts.VectorStoreIDs) > 0 {
				ids = opts.VectorStoreIDs
			}
			maxResults = opts.MaxNumResults
		}
		if len(ids) > 0 {
			tools = append(tools, responses.FileSearchTool(ids, maxResults))
		}
	}

	if req.EnableFunctionCalling && h.functions != nil {
		strict := false
		for _, def := range h.functions.Definitions() {
			tool := responses.FunctionTool(def.Name, def.Description, def.Parameters)
			tool.Strict = &strict
			tools = append(tools, tool)
		}
	}
	return tools
}

// executeFunction runs one call. Failures are reported to the model as the
// function result rather than aborting the request.
func (h *OpenAI) executeFunction(ctx context.Context, call responses.FunctionCall) string {
	args := json.RawMessage(call.Arguments)
	if len(strings.TrimSpace(call.Arguments)) == 0 {
		args = json.RawMessage("{}")
	}

	out, err := h.functions.ExecuteFunction(ctx, call.Name, args)
	if err != nil {
		logx.Warn().Err(err).Str("function", call.Name).Msg("function execution failed")
		return fmt.Sprintf("Error executing %s: %v", call.Name, err)
	}
	return out
}

// parseStructured decodes the output text as a ChatResponse, falling back
// to the raw text.
func (h *OpenAI) parseStructured(resp *responses.Response) *TextResult {
	text := resp.OutputText()
	parsed, err := jsonx.Decode[model.ChatResponse](text)
	if err != nil {
		logx.Warn().Err(err).Str("response_id", resp.ID).Msg("structured output did not parse, using raw text")
		return &TextResult{Content: text}
	}
	return &TextResult{Content: parsed.Content, StructuredData: &parsed}
}

func (h *OpenAI) processWebSearch(resp *responses.Response) *TextResult {
	result := h.parseStructured(resp)
	for _, call := range resp.WebSearchCalls() {
		result.WebSearchCalls = append(result.WebSearchCalls, model.WebSearchCall{
			ID:     call.ID,
			Status: call.Status,
			Query:  call.Query(),
		})
	}

	if sd := result.StructuredData; sd != nil {
		sd.Metadata.WebSearchUsed = true
		if len(sd.Metadata.Sources) == 0 {
			sd.Metadata.Sources = citations(resp, "url_citation")
		}
		if len(sd.Metadata.SearchCalls) == 0 {
			for _, call := range result.WebSearchCalls {
				sd.Metadata.SearchCalls = append(sd.Metadata.SearchCalls, call.ID)
			}
		}
	}
	return result
}

func (h *OpenAI) processFileSearch(resp *responses.Response) *TextResult {
	result := h.parseStructured(resp)
	for _, call := range resp.FileSearchCalls() {
		fc := model.FileSearchCall{ID: call.ID, Status: call.Status, Queries: call.Queries}
		for _, r := range call.Results {
			fc.Results = append(fc.Results, model.FileSearchResult{
				FileID:   r.FileID,
				Filename: r.Filename,
				Score:    r.Score,
				Text:     r.Text,
			})
		}
		result.FileSearchCalls = append(result.FileSearchCalls, fc)
	}

	if sd := result.StructuredData; sd != nil {
		if len(sd.Metadata.Sources) == 0 {
			sd.Metadata.Sources = citations(resp, "file_citation")
		}
		if len(sd.Metadata.SearchCalls) == 0 {
			for _, call := range result.FileSearchCalls {
				sd.Metadata.SearchCalls = append(sd.Metadata.SearchCalls, call.ID)
			}
		}
	}
	return result
}

// citations collects unique annotation targets of the given type.
func citations(resp *responses.Response, kind string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range resp.Output {
		if item.Kind != responses.KindMessage {
			continue
		}
		for _, c := range item.Message.Content {
			for _, a := range c.Annotations {
				if a.Type != kind {
					continue
				}
				ref := a.URL
				if ref == "" {
					ref = a.Filename
				}
				if ref == "" {
					ref = a.FileID
				}
				if ref != "" && !seen[ref] {
					seen[ref] = true
					out = append(out, ref)
				}
			}
		}
	}
	return out
}

func resolveFlag(explicit *bool, inferred bool) bool {
	if explicit != nil {
		return *explicit
	}
	return inferred
}

func addUsage(total *model.Usage, u *responses.Usage) *model.Usage {
	if u == nil {
		return total
	}
	if total == nil {
		total = &model.Usage{}
	}
	total.InputTokens += u.InputTokens
	total.OutputTokens += u.OutputTokens
	total.TotalTokens += u.TotalTokens
	return total
}
