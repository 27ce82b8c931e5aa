package flow

import (
	"context"
	"errors"

	"github.com/richinex/genlo/handler"
	"github.com/richinex/genlo/llm"
	"github.com/richinex/genlo/model"
)

var errBoom = errors.New("boom")

type fakeCreative struct {
	enhanceErr  bool
	creative    string
	creativeErr error
	ack         string
	ackErr      error

	enhanced     []string
	creativeSent [][]model.Turn
	acknowledged []string
}

func (f *fakeCreative) EnhancePrompt(_ context.Context, message, _ string) handler.Enhanced {
	f.enhanced = append(f.enhanced, message)
	if f.enhanceErr {
		return handler.Enhanced{Prompt: message, Degraded: true}
	}
	return handler.Enhanced{Prompt: "enhanced: " + message}
}

func (f *fakeCreative) GenerateCreativeResponse(_ context.Context, turns []model.Turn, _ string) (string, error) {
	f.creativeSent = append(f.creativeSent, turns)
	if f.creativeErr != nil {
		return "", f.creativeErr
	}
	if f.creative == "" {
		return "How about Bean There?", nil
	}
	return f.creative, nil
}

func (f *fakeCreative) Acknowledge(_ context.Context, imagePrompt string) (string, error) {
	f.acknowledged = append(f.acknowledged, imagePrompt)
	if f.ackErr != nil {
		return "", f.ackErr
	}
	if f.ack == "" {
		return "Here is your image.", nil
	}
	return f.ack, nil
}

type imageCall struct {
	reference string
	prompt    string
}

type fakeGenerator struct {
	textErr  error
	imageErr error
	panicMsg string
	block    bool

	textRequests []handler.TextRequest
	images       []imageCall
	fromImage    []imageCall
	cleared      int
	state        handler.ConversationState
}

func (f *fakeGenerator) maybePanic() {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
}

func (f *fakeGenerator) GenerateTextResponse(ctx context.Context, req handler.TextRequest) (*handler.TextResult, error) {
	f.maybePanic()
	f.textRequests = append(f.textRequests, req)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.textErr != nil {
		return nil, f.textErr
	}
	return &handler.TextResult{
		Content:    "It is 10:00.",
		ResponseID: "resp_1",
		Usage:      &model.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
		StructuredData: &model.ChatResponse{
			Content:    "It is 10:00.",
			Confidence: 0.9,
		},
		FunctionCalls: []model.FunctionCallRecord{{FunctionName: "get_current_time", Result: "10:00"}},
	}, nil
}

func (f *fakeGenerator) GenerateImage(_ context.Context, prompt string, _ handler.ImageOptions) (*handler.ImageResult, error) {
	f.maybePanic()
	f.images = append(f.images, imageCall{prompt: prompt})
	if f.imageErr != nil {
		return nil, f.imageErr
	}
	return &handler.ImageResult{Base64: "aW1hZ2U="}, nil
}

func (f *fakeGenerator) GenerateImageFromImage(_ context.Context, reference, prompt string, _ handler.ImageOptions) (*handler.ImageResult, error) {
	f.maybePanic()
	f.fromImage = append(f.fromImage, imageCall{reference: reference, prompt: prompt})
	if f.imageErr != nil {
		return nil, f.imageErr
	}
	return &handler.ImageResult{URL: "https://cdn.example.com/edited.png"}, nil
}

func (f *fakeGenerator) ClearConversationState() {
	f.cleared++
	f.state = handler.ConversationState{}
}

func (f *fakeGenerator) ConversationState() handler.ConversationState {
	return f.state
}

func (f *fakeGenerator) RestoreConversationState(state handler.ConversationState) {
	f.state = state
}

type fakeHQ struct {
	err     error
	prompts []string
}

func (f *fakeHQ) GenerateImage(_ context.Context, req llm.ImageRequest) (*llm.GeneratedImage, error) {
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.GeneratedImage{Base64: "aHE=", MIMEType: "image/jpeg"}, nil
}
