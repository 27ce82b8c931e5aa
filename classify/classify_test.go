package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsImageRequest(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected bool
	}{
		{name: "generate_keyword", message: "generate an image of a red bicycle", expected: true},
		{name: "draw_keyword", message: "Draw me a castle at dusk", expected: true},
		{name: "uppercase", message: "GENERATE A LOGO", expected: true},
		{name: "lifestyle_follow_up", message: "now i need one with a woman holding it", expected: true},
		{name: "picture_of", message: "can I get a picture of the device?", expected: true},
		{name: "coffee_shop_name", message: "What's a good name for a coffee shop?", expected: false},
		{name: "plain_question", message: "how do I reset my password", expected: false},
		{name: "empty", message: "", expected: false},
		// Accepted heuristic limitation: no negation or context handling.
		{name: "incidental_match", message: "I need one with good documentation", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsImageRequest(tt.message))
		})
	}
}

func TestIsImageRequest_Deterministic(t *testing.T) {
	inputs := []string{"", "generate", "hello", "need one with", "What's a good name for a coffee shop?"}
	for _, in := range inputs {
		assert.Equal(t, IsImageRequest(in), IsImageRequest(in), in)
		assert.Equal(t, Decide(in, false), Decide(in, false), in)
	}
}

func TestExtractImagePrompt(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected string
	}{
		{name: "generate_image_of", message: "generate an image of a red bicycle", expected: "a red bicycle"},
		{name: "create_picture_showing", message: "Create a picture showing two cats on a sofa", expected: "two cats on a sofa"},
		{name: "image_of_only", message: "I'd love an image of the beach", expected: "the beach"},
		{name: "need_one_with", message: "now i need one with a woman holding it", expected: "a woman holding it"},
		{name: "draw", message: "draw a lighthouse", expected: "a lighthouse"},
		{name: "with_article", message: "put it on a table with a lamp", expected: "a lamp"},
		{name: "trimmed", message: "generate image of   a tree   ", expected: "a tree"},
		{name: "fallback_whole_message", message: "render", expected: "render"},
		{name: "case_preserved", message: "GENERATE AN IMAGE OF Paris", expected: "Paris"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractImagePrompt(tt.message))
		})
	}
}

func TestExtractImagePrompt_FirstPatternWins(t *testing.T) {
	// Matches both the "generate image of" and the "with a" patterns.
	got := ExtractImagePrompt("generate image of a cat with a hat")
	assert.Equal(t, "a cat with a hat", got)
}

func TestIsCreativeRequest(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected bool
	}{
		{name: "good_name", message: "What's a good name for a coffee shop?", expected: true},
		{name: "poem", message: "Write a poem about autumn", expected: true},
		{name: "slogan", message: "need a slogan for my bakery", expected: true},
		{name: "factual", message: "what is the capital of France", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsCreativeRequest(tt.message))
		})
	}
}

func TestToolPredicates(t *testing.T) {
	assert.True(t, NeedsFunctionCalling("what's the weather in Berlin"))
	assert.True(t, NeedsFunctionCalling("Calculate 12 * 7"))
	assert.False(t, NeedsFunctionCalling("tell me about Go"))

	assert.True(t, NeedsWebSearch("what is the latest on the election"))
	assert.True(t, NeedsWebSearch("Search the web for go 1.24 release notes"))
	assert.False(t, NeedsWebSearch("explain recursion"))

	assert.True(t, NeedsFileSearch("summarize my documents on onboarding"))
	assert.True(t, NeedsFileSearch("what does the file I uploaded say"))
	assert.False(t, NeedsFileSearch("explain recursion"))
}

func TestIsLifestyleProductRequest(t *testing.T) {
	assert.True(t, IsLifestyleProductRequest("now i need one with a woman holding it"))
	assert.True(t, IsLifestyleProductRequest("a product shot on marble"))
	assert.True(t, IsLifestyleProductRequest("show it in use at the gym"))
	assert.False(t, IsLifestyleProductRequest("generate an image of a red bicycle"))
}

func TestLifestyleContext(t *testing.T) {
	tests := []struct {
		message  string
		expected string
	}{
		{"a woman holding it", "woman holding"},
		{"a person holding the device", "person holding"},
		{"make it a Lifestyle photo", "lifestyle"},
		{"clean product shot please", "product shot"},
		{"need one with a man", DefaultLifestyleContext},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.expected, LifestyleContext(tt.message))
		})
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name         string
		message      string
		hasReference bool
		expected     Route
	}{
		{
			name:     "creative",
			message:  "What's a good name for a coffee shop?",
			expected: Route{Kind: RouteCreative},
		},
		{
			name:     "plain_image",
			message:  "generate an image of a red bicycle",
			expected: Route{Kind: RouteImage},
		},
		{
			name:         "lifestyle_with_reference",
			message:      "now i need one with a woman holding it",
			hasReference: true,
			expected:     Route{Kind: RouteImage, WithReference: true, Lifestyle: true},
		},
		{
			// Image takes precedence even when creative keywords also match.
			name:     "image_over_creative",
			message:  "draw a story board",
			expected: Route{Kind: RouteImage},
		},
		{
			name:     "general_with_tools",
			message:  "what's the weather and the latest news in my documents",
			expected: Route{Kind: RouteGeneral, FunctionCalling: true, WebSearch: true, FileSearch: true},
		},
		{
			name:     "general_plain",
			message:  "explain how TCP works",
			expected: Route{Kind: RouteGeneral},
		},
		{
			name:         "reference_ignored_off_image_path",
			message:      "explain how TCP works",
			hasReference: true,
			expected:     Route{Kind: RouteGeneral},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Decide(tt.message, tt.hasReference))
		})
	}
}

func TestRouteKindString(t *testing.T) {
	assert.Equal(t, "image", RouteImage.String())
	assert.Equal(t, "creative", RouteCreative.String())
	assert.Equal(t, "general", RouteGeneral.String())
}
