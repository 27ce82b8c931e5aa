package flow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/genlo/handler"
	"github.com/richinex/genlo/model"
)

func newController(c *fakeCreative, g *fakeGenerator, opts Options) *Controller {
	return New(c, g, opts)
}

func TestProcessMessageCreativeScenario(t *testing.T) {
	creative := &fakeCreative{}
	gen := &fakeGenerator{}
	ctrl := newController(creative, gen, Options{})

	env := ctrl.ProcessMessage(context.Background(), Request{Message: "What's a good name for a coffee shop?"})

	assert.Equal(t, model.EnvelopeText, env.Type)
	assert.NotEmpty(t, env.Content)
	assert.Empty(t, env.ImageURL)
	assert.Empty(t, gen.textRequests)
	assert.Empty(t, gen.images)

	history := ctrl.History()
	require.Len(t, history, 2)
	assert.Equal(t, model.UserTurn("What's a good name for a coffee shop?"), history[0])
	assert.Equal(t, model.AssistantTurn(env.Content), history[1])
}

func TestProcessMessageCreativeUsesLastTenTurns(t *testing.T) {
	creative := &fakeCreative{}
	ctrl := newController(creative, &fakeGenerator{}, Options{})

	var prior []model.Turn
	for i := 0; i < 15; i++ {
		prior = append(prior, model.UserTurn("turn"))
	}
	ctrl.ProcessMessage(context.Background(), Request{Message: "write a poem about rain", History: prior})

	require.Len(t, creative.creativeSent, 1)
	sent := creative.creativeSent[0]
	require.Len(t, sent, model.CreativeContextWindow)
	assert.Equal(t, "write a poem about rain", sent[len(sent)-1].Content)
}

func TestProcessMessageImageScenario(t *testing.T) {
	creative := &fakeCreative{ack: "A red bicycle, as requested."}
	gen := &fakeGenerator{}
	ctrl := newController(creative, gen, Options{})

	env := ctrl.ProcessMessage(context.Background(), Request{Message: "generate an image of a red bicycle"})

	assert.Equal(t, model.EnvelopeImage, env.Type)
	assert.Equal(t, "A red bicycle, as requested.", env.Content)
	assert.Equal(t, "data:image/png;base64,aW1hZ2U=", env.ImageURL)
	assert.Equal(t, "enhanced: a red bicycle", env.EnhancedPrompt)

	require.Len(t, gen.images, 1)
	assert.Equal(t, "enhanced: a red bicycle", gen.images[0].prompt)
	assert.Equal(t, []string{"a red bicycle"}, creative.acknowledged)

	history := ctrl.History()
	require.Len(t, history, 2)
	assert.Equal(t, "A red bicycle, as requested. [Image generated]", history[1].Content)
}

func TestProcessMessageImageWithReference(t *testing.T) {
	gen := &fakeGenerator{}
	ctrl := newController(&fakeCreative{}, gen, Options{})

	env := ctrl.ProcessMessage(context.Background(), Request{
		Message:           "draw this in watercolor style",
		ReferenceImageURL: "https://example.com/cat.png",
	})

	assert.Equal(t, model.EnvelopeImage, env.Type)
	require.Len(t, gen.fromImage, 1)
	assert.Equal(t, "https://example.com/cat.png", gen.fromImage[0].reference)
	assert.Empty(t, gen.images)

	refs := ctrl.ReferenceImages()
	require.NotEmpty(t, refs)
	assert.Equal(t, "https://example.com/cat.png", refs[0].URL)
}

func TestLifestyleExplicitReferenceBeatsHistory(t *testing.T) {
	gen := &fakeGenerator{}
	hq := &fakeHQ{}
	ctrl := newController(&fakeCreative{}, gen, Options{HQ: hq})

	history := []model.Turn{
		model.UserTurn("here is my product"),
		model.AssistantTurn("Nice! [Image: https://example.com/newer-in-history.png]"),
	}
	env := ctrl.ProcessMessage(context.Background(), Request{
		Message:           "now i need one with a woman holding it",
		ReferenceImageURL: "https://example.com/explicit.png",
		History:           history,
	})

	assert.Equal(t, model.EnvelopeImage, env.Type)
	require.Len(t, gen.fromImage, 1)
	assert.Equal(t, "https://example.com/explicit.png", gen.fromImage[0].reference)
	assert.Contains(t, gen.fromImage[0].prompt, "smiling woman holding")
	assert.Contains(t, gen.fromImage[0].prompt, "back stretcher massage device")
	assert.Empty(t, hq.prompts)
	assert.Empty(t, gen.images)
}

func TestLifestyleReferenceFromHistory(t *testing.T) {
	gen := &fakeGenerator{}
	ctrl := newController(&fakeCreative{}, gen, Options{})
	ctrl.Restore(Snapshot{
		ReferenceImages: []model.ReferenceImage{{URL: "https://example.com/listed.png"}},
	})

	ctrl.ProcessMessage(context.Background(), Request{
		Message: "product shot please, need one with a person holding it",
		History: []model.Turn{
			model.AssistantTurn("older ![product](https://example.com/old.png)"),
			model.AssistantTurn("newest ![product](https://example.com/new.png)"),
			model.UserTurn("thanks"),
		},
	})

	require.Len(t, gen.fromImage, 1)
	assert.Equal(t, "https://example.com/new.png", gen.fromImage[0].reference)
	assert.Contains(t, gen.fromImage[0].prompt, "relaxed person holding")
}

func TestLifestyleReferenceFromList(t *testing.T) {
	gen := &fakeGenerator{}
	ctrl := newController(&fakeCreative{}, gen, Options{})
	ctrl.Restore(Snapshot{
		ReferenceImages: []model.ReferenceImage{
			{URL: "https://example.com/first.png"},
			{URL: "https://example.com/second.png"},
		},
	})

	ctrl.ProcessMessage(context.Background(), Request{Message: "need one with a woman holding it"})

	require.Len(t, gen.fromImage, 1)
	assert.Equal(t, "https://example.com/second.png", gen.fromImage[0].reference)
}

func TestLifestyleWithoutReferenceUsesHQ(t *testing.T) {
	gen := &fakeGenerator{}
	hq := &fakeHQ{}
	ctrl := newController(&fakeCreative{}, gen, Options{HQ: hq})

	env := ctrl.ProcessMessage(context.Background(), Request{Message: "lifestyle image of the massager in use"})

	assert.Equal(t, model.EnvelopeImage, env.Type)
	assert.Equal(t, "data:image/jpeg;base64,aHE=", env.ImageURL)
	require.Len(t, hq.prompts, 1)
	assert.Empty(t, gen.images)
}

func TestLifestyleHQFailureFallsBack(t *testing.T) {
	gen := &fakeGenerator{}
	hq := &fakeHQ{err: errBoom}
	ctrl := newController(&fakeCreative{}, gen, Options{HQ: hq})

	env := ctrl.ProcessMessage(context.Background(), Request{Message: "lifestyle image of the massager in use"})

	assert.Equal(t, model.EnvelopeImage, env.Type)
	require.Len(t, hq.prompts, 1)
	require.Len(t, gen.images, 1)
	assert.Equal(t, hq.prompts[0], gen.images[0].prompt)
	assert.Equal(t, "data:image/png;base64,aW1hZ2U=", env.ImageURL)
}

func TestGeneratedImagesAreNotReferences(t *testing.T) {
	gen := &fakeGenerator{}
	hq := &fakeHQ{}
	ctrl := newController(&fakeCreative{}, gen, Options{HQ: hq})

	ctrl.ProcessMessage(context.Background(), Request{Message: "generate an image of a red bicycle"})
	assert.Empty(t, ctrl.ReferenceImages())

	env := ctrl.ProcessMessage(context.Background(), Request{Message: "now i need one with a woman holding it"})

	assert.Equal(t, model.EnvelopeImage, env.Type)
	assert.Empty(t, gen.fromImage)
	require.Len(t, hq.prompts, 1)
	assert.Equal(t, "data:image/jpeg;base64,aHE=", env.ImageURL)
	assert.Empty(t, ctrl.ReferenceImages())
}

func TestProcessMessageGeneral(t *testing.T) {
	gen := &fakeGenerator{}
	ctrl := newController(&fakeCreative{}, gen, Options{})

	env := ctrl.ProcessMessage(context.Background(), Request{
		Message:          "what time is it in Tokyo?",
		WebSearchOptions: &handler.WebSearchOptions{SearchContextSize: "high"},
	})

	assert.Equal(t, model.EnvelopeText, env.Type)
	assert.Equal(t, "It is 10:00.", env.Content)
	assert.Equal(t, "enhanced: what time is it in Tokyo?", env.EnhancedPrompt)
	require.NotNil(t, env.Usage)
	assert.Equal(t, 15, env.Usage.TotalTokens)
	require.NotNil(t, env.StructuredData)
	require.Len(t, env.FunctionCalls, 1)

	require.Len(t, gen.textRequests, 1)
	req := gen.textRequests[0]
	assert.True(t, req.EnableFunctionCalling)
	require.NotNil(t, req.WebSearch)
	assert.True(t, *req.WebSearch)
	require.NotNil(t, req.FileSearch)
	assert.False(t, *req.FileSearch)
	assert.Contains(t, req.SystemInstructions, functionInstructions)
	assert.Contains(t, req.SystemInstructions, webSearchInstructions)
	assert.NotContains(t, req.SystemInstructions, fileSearchInstructions)
}

func TestProcessMessageExplicitSearchFlags(t *testing.T) {
	gen := &fakeGenerator{}
	ctrl := newController(&fakeCreative{}, gen, Options{})
	off, on := false, true

	ctrl.ProcessMessage(context.Background(), Request{
		Message:    "latest news about my uploaded files",
		WebSearch:  &off,
		FileSearch: &on,
	})

	require.Len(t, gen.textRequests, 1)
	assert.False(t, *gen.textRequests[0].WebSearch)
	assert.True(t, *gen.textRequests[0].FileSearch)
}

func TestProcessMessageEnhanceDegradedStillAnswers(t *testing.T) {
	gen := &fakeGenerator{}
	ctrl := newController(&fakeCreative{enhanceErr: true}, gen, Options{})

	env := ctrl.ProcessMessage(context.Background(), Request{Message: "explain tcp slow start"})

	assert.Equal(t, "It is 10:00.", env.Content)
	assert.Equal(t, "explain tcp slow start", gen.textRequests[0].EnhancedPrompt)
}

func TestProcessMessageNeverFails(t *testing.T) {
	cases := []struct {
		name     string
		creative *fakeCreative
		gen      *fakeGenerator
		message  string
	}{
		{"creative failure", &fakeCreative{creativeErr: errBoom}, &fakeGenerator{}, "What's a good name for a coffee shop?"},
		{"text failure", &fakeCreative{}, &fakeGenerator{textErr: errBoom}, "explain dns"},
		{"image failure", &fakeCreative{}, &fakeGenerator{imageErr: errBoom}, "generate an image of a red bicycle"},
		{"acknowledge failure", &fakeCreative{ackErr: errBoom}, &fakeGenerator{}, "generate an image of a red bicycle"},
		{"panic", &fakeCreative{}, &fakeGenerator{panicMsg: "nil map"}, "explain dns"},
		{"empty message", &fakeCreative{}, &fakeGenerator{textErr: errBoom}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := newController(tc.creative, tc.gen, Options{})
			var env model.Envelope
			require.NotPanics(t, func() {
				env = ctrl.ProcessMessage(context.Background(), Request{Message: tc.message})
			})
			assert.Equal(t, model.EnvelopeText, env.Type)
			assert.Equal(t, ApologyMessage, env.Content)
			assert.Empty(t, env.ImageURL)
		})
	}
}

func TestProcessMessageTimeout(t *testing.T) {
	gen := &fakeGenerator{block: true}
	ctrl := newController(&fakeCreative{}, gen, Options{Timeout: 20 * time.Millisecond})

	start := time.Now()
	env := ctrl.ProcessMessage(context.Background(), Request{Message: "explain dns"})

	assert.Equal(t, ApologyMessage, env.Content)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestHistoryReplacedWhenProvided(t *testing.T) {
	ctrl := newController(&fakeCreative{}, &fakeGenerator{}, Options{})
	ctrl.ProcessMessage(context.Background(), Request{Message: "explain dns"})
	require.Len(t, ctrl.History(), 2)

	ctrl.ProcessMessage(context.Background(), Request{
		Message: "explain tls",
		History: []model.Turn{model.UserTurn("seeded")},
	})

	history := ctrl.History()
	require.Len(t, history, 3)
	assert.Equal(t, "seeded", history[0].Content)
	assert.Equal(t, "explain tls", history[1].Content)
}

func TestClearHistory(t *testing.T) {
	gen := &fakeGenerator{state: handler.ConversationState{PreviousResponseID: "resp_1"}}
	ctrl := newController(&fakeCreative{}, gen, Options{})
	ctrl.ProcessMessage(context.Background(), Request{
		Message:           "draw this as a poster",
		ReferenceImageURL: "https://example.com/a.png",
	})

	ctrl.ClearHistory()

	assert.Empty(t, ctrl.History())
	assert.Empty(t, ctrl.ReferenceImages())
	assert.Equal(t, 1, gen.cleared)
	assert.Empty(t, gen.state.PreviousResponseID)
}

func TestAccessorsReturnCopies(t *testing.T) {
	ctrl := newController(&fakeCreative{}, &fakeGenerator{}, Options{})
	ctrl.ProcessMessage(context.Background(), Request{
		Message:           "draw this as a poster",
		ReferenceImageURL: "https://example.com/a.png",
	})

	history := ctrl.History()
	history[0].Content = "mutated"
	refs := ctrl.ReferenceImages()
	refs[0].URL = "mutated"

	assert.Equal(t, "draw this as a poster", ctrl.History()[0].Content)
	assert.Equal(t, "https://example.com/a.png", ctrl.ReferenceImages()[0].URL)
}

func TestSnapshotRestore(t *testing.T) {
	gen := &fakeGenerator{}
	ctrl := newController(&fakeCreative{}, gen, Options{})
	ctrl.Restore(Snapshot{
		History:         []model.Turn{model.UserTurn("hi"), model.AssistantTurn("hello")},
		ReferenceImages: []model.ReferenceImage{{URL: "https://example.com/x.png"}},
		Conversation:    handler.ConversationState{PreviousResponseID: "resp_9"},
	})

	snap := ctrl.Snapshot()
	assert.Len(t, snap.History, 2)
	assert.Len(t, snap.ReferenceImages, 1)
	assert.Equal(t, "resp_9", snap.Conversation.PreviousResponseID)
}

func TestSystemInstructions(t *testing.T) {
	assert.Equal(t, baseInstructions, systemInstructions(false, false, false))

	all := systemInstructions(true, true, true)
	assert.True(t, strings.HasPrefix(all, baseInstructions))
	assert.Less(t, strings.Index(all, functionInstructions), strings.Index(all, webSearchInstructions))
	assert.Less(t, strings.Index(all, webSearchInstructions), strings.Index(all, fileSearchInstructions))
}
