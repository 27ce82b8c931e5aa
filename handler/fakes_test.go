package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/richinex/genlo/llm"
	"github.com/richinex/genlo/llm/responses"
	"github.com/richinex/genlo/model"
)

// fakeProvider is a scripted llm.Provider.
type fakeProvider struct {
	reply string
	err   error
	calls [][]llm.ChatMessage
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-model" }

func (f *fakeProvider) Chat(_ context.Context, messages []llm.ChatMessage) (llm.LLMResponse, error) {
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return llm.LLMResponse{}, f.err
	}
	return llm.LLMResponse{Content: f.reply}, nil
}

// fakeImages records the prompts sent to the images endpoints.
type fakeImages struct {
	prompts []string
	edits   []llm.ImageEditRequest
	err     error
}

func (f *fakeImages) EditImage(_ context.Context, req llm.ImageEditRequest) (*llm.GeneratedImage, error) {
	f.edits = append(f.edits, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.GeneratedImage{Base64: "ZWRpdA=="}, nil
}

// generatorOnly hides any edit capability of the wrapped generator.
type generatorOnly struct {
	llm.ImageGenerator
}

func (f *fakeImages) GenerateImage(_ context.Context, req llm.ImageRequest) (*llm.GeneratedImage, error) {
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.GeneratedImage{Base64: "aW1hZ2U=", RevisedPrompt: "revised"}, nil
}

// fakeFunctions executes every function by echoing its arguments.
type fakeFunctions struct {
	executed []string
	err      error
}

func (f *fakeFunctions) ExecuteFunction(_ context.Context, name string, args json.RawMessage) (string, error) {
	f.executed = append(f.executed, name)
	if f.err != nil {
		return "", f.err
	}
	return "result of " + name + " " + string(args), nil
}

func (f *fakeFunctions) Definitions() []model.FunctionDefinition {
	return []model.FunctionDefinition{{
		Name:        "get_current_time",
		Description: "Current time",
		Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
	}}
}

// responsesServer replays canned Responses API bodies in order and records
// every request body. The last body repeats once the script runs out.
type responsesServer struct {
	*httptest.Server

	mu       sync.Mutex
	script   []string
	status   int
	requests []gjson.Result
}

func newResponsesServer(t *testing.T, script ...string) *responsesServer {
	t.Helper()
	s := &responsesServer{script: script, status: http.StatusOK}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)

		s.mu.Lock()
		s.requests = append(s.requests, gjson.ParseBytes(raw))
		idx := len(s.requests) - 1
		if idx >= len(s.script) {
			idx = len(s.script) - 1
		}
		status := s.status
		body := s.script[idx]
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *responsesServer) client() *responses.Client {
	return responses.New("sk-test", responses.WithBaseURL(s.URL))
}

func (s *responsesServer) request(i int) gjson.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[i]
}

func (s *responsesServer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// messageResponse builds a response whose only output is a message with text.
func messageResponse(id, text string, extra ...map[string]any) string {
	output := make([]any, 0, len(extra)+1)
	for _, e := range extra {
		output = append(output, e)
	}
	output = append(output, map[string]any{
		"type": "message",
		"id":   "msg_" + id,
		"role": "assistant",
		"content": []any{map[string]any{
			"type": "output_text",
			"text": text,
		}},
	})
	raw, _ := json.Marshal(map[string]any{
		"id":     id,
		"status": "completed",
		"output": output,
		"usage":  map[string]any{"input_tokens": 10, "output_tokens": 5, "total_tokens": 15},
	})
	return string(raw)
}

func structuredJSON(content string) string {
	raw, _ := json.Marshal(model.ChatResponse{
		Content:     content,
		Confidence:  0.9,
		Suggestions: []string{"more"},
		Metadata:    model.ResponseMetadata{Reasoning: "because"},
	})
	return string(raw)
}

var errProvider = errors.New("provider unavailable")

func newResponsesClient(url string) *responses.Client {
	return responses.New("sk-test", responses.WithBaseURL(url))
}
