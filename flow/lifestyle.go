package flow

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/richinex/genlo/classify"
)

// LifestyleTemplate builds prompts for lifestyle shots of a fixed product.
// Contexts maps a lifestyle keyword to the scene phrase that opens the prompt.
type LifestyleTemplate struct {
	ProductDescription string            `yaml:"product_description"`
	Constraints        []string          `yaml:"constraints"`
	Contexts           map[string]string `yaml:"contexts"`
	DefaultContext     string            `yaml:"default_context"`
}

// DefaultLifestyleTemplate returns a fresh copy of the built-in template.
func DefaultLifestyleTemplate() LifestyleTemplate {
	return LifestyleTemplate{
		ProductDescription: "a black curved back stretcher massage device with an arched frame and rows of raised massage nodes along its inner curve",
		Constraints: []string{
			"Keep the product's exact shape, color, proportions and node layout.",
			"The product must be clearly visible, in sharp focus and correctly scaled to the person.",
			"Natural lighting, realistic skin and materials, no text, logos or watermarks.",
		},
		Contexts: map[string]string{
			"woman holding":  "A photorealistic lifestyle photograph of a smiling woman holding",
			"person holding": "A photorealistic lifestyle photograph of a relaxed person holding",
			"lifestyle":      "A bright, natural lifestyle photograph in a cozy living room featuring",
			"product shot":   "A clean, professional studio product shot on a neutral background of",
		},
		DefaultContext: classify.DefaultLifestyleContext,
	}
}

// LoadLifestyleTemplate reads a YAML template. Fields absent from the file
// keep their built-in values; listed contexts are merged over the defaults.
func LoadLifestyleTemplate(path string) (LifestyleTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LifestyleTemplate{}, fmt.Errorf("read lifestyle template: %w", err)
	}
	return ParseLifestyleTemplate(data)
}

// ParseLifestyleTemplate decodes a YAML template over the defaults.
func ParseLifestyleTemplate(data []byte) (LifestyleTemplate, error) {
	var file LifestyleTemplate
	if err := yaml.Unmarshal(data, &file); err != nil {
		return LifestyleTemplate{}, fmt.Errorf("parse lifestyle template: %w", err)
	}

	t := DefaultLifestyleTemplate()
	if file.ProductDescription != "" {
		t.ProductDescription = file.ProductDescription
	}
	if file.Constraints != nil {
		t.Constraints = file.Constraints
	}
	for key, phrase := range file.Contexts {
		t.Contexts[strings.ToLower(key)] = phrase
	}
	if file.DefaultContext != "" {
		t.DefaultContext = strings.ToLower(file.DefaultContext)
	}
	if _, ok := t.Contexts[t.DefaultContext]; !ok {
		return LifestyleTemplate{}, fmt.Errorf("lifestyle template: default context %q has no phrase", t.DefaultContext)
	}
	return t, nil
}

// Prompt composes the scene phrase for contextKey, the product description,
// the subject extracted from the user message and the fixed constraints.
func (t LifestyleTemplate) Prompt(subject, contextKey string) string {
	phrase, ok := t.Contexts[contextKey]
	if !ok {
		phrase = t.Contexts[t.DefaultContext]
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(phrase + " " + t.ProductDescription))
	b.WriteString(".")
	if subject = strings.TrimSpace(subject); subject != "" {
		b.WriteString(" Scene details: ")
		b.WriteString(strings.TrimSuffix(subject, "."))
		b.WriteString(".")
	}
	for _, c := range t.Constraints {
		b.WriteString(" ")
		b.WriteString(c)
	}
	return b.String()
}
