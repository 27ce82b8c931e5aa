// Package classify decides which capability path a chat message takes.
//
// Every function here is a pure, case-insensitive keyword heuristic over the
// raw message text. Results depend only on the input, so routing is
// reproducible and testable without any provider.
package classify

import (
	"regexp"
	"strings"
)

// imagePromptPatterns extract the subject of an image request.
// Order matters: the first pattern that matches wins.
var imagePromptPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:generate|create|make|draw|render|produce)\s+(?:me\s+)?(?:an?\s+)?(?:image|picture|photo|illustration|drawing|rendering)\s+(?:of|showing|with)\s+(.+)`),
	regexp.MustCompile(`(?i)(?:image|picture|photo|illustration)\s+of\s+(.+)`),
	regexp.MustCompile(`(?i)(?:need|want|make)\s+one\s+with\s+(.+)`),
	regexp.MustCompile(`(?i)(?:draw|paint|sketch)\s+(?:me\s+)?(.+)`),
	regexp.MustCompile(`(?i)with\s+(an?\s+.+)`),
}

func containsAny(message string, keywords []string) bool {
	lower := strings.ToLower(message)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IsImageRequest reports whether the message asks for an image.
// Any keyword match counts, however incidental.
func IsImageRequest(message string) bool {
	return containsAny(message, imageKeywords)
}

// IsLifestyleProductRequest reports whether an image request asks for the
// product shown in a lifestyle context (held by a person, in use, and so on).
// It refines IsImageRequest and is only consulted on the image path.
func IsLifestyleProductRequest(message string) bool {
	return containsAny(message, lifestyleKeywords)
}

// IsCreativeRequest reports whether the message asks for creative writing.
func IsCreativeRequest(message string) bool {
	return containsAny(message, creativeKeywords)
}

// NeedsFunctionCalling reports whether the message likely needs a function call.
func NeedsFunctionCalling(message string) bool {
	return containsAny(message, functionKeywords)
}

// NeedsWebSearch reports whether the message likely needs fresh web results.
func NeedsWebSearch(message string) bool {
	return containsAny(message, webSearchKeywords)
}

// NeedsFileSearch reports whether the message refers to the user's files.
func NeedsFileSearch(message string) bool {
	return containsAny(message, fileSearchKeywords)
}

// ExtractImagePrompt returns the subject phrase of an image request,
// or the whole message when no pattern matches.
func ExtractImagePrompt(message string) string {
	for _, re := range imagePromptPatterns {
		if m := re.FindStringSubmatch(message); len(m) > 1 {
			if subject := strings.TrimSpace(m[1]); subject != "" {
				return subject
			}
		}
	}
	return message
}

// LifestyleContext returns the lifestyle context key matched by the message,
// falling back to DefaultLifestyleContext.
func LifestyleContext(message string) string {
	lower := strings.ToLower(message)
	for _, key := range lifestyleContexts {
		if strings.Contains(lower, key) {
			return key
		}
	}
	return DefaultLifestyleContext
}
