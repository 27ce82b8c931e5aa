package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/richinex/genlo/classify"
	"github.com/richinex/genlo/handler"
	"github.com/richinex/genlo/internal/logx"
	"github.com/richinex/genlo/llm"
	"github.com/richinex/genlo/model"
)

// ImageGeneratedMarker is appended to the acknowledgement stored in history.
const ImageGeneratedMarker = "[Image generated]"

const (
	baseInstructions = `You are GenLo, a helpful assistant. Answer accurately and concisely.
Reply in the chat_response JSON format: put the answer in "content", rate your confidence from 0 to 1, and offer short follow-up suggestions.`

	functionInstructions = `Functions are available for live data such as the current time, arithmetic and HTTP resources.
Call a function whenever it gives a more accurate answer than memory, then use its result in your reply and list it in metadata.functions_used.`

	webSearchInstructions = `Web search is available. Use it for recent events or facts that may have changed since your training.
Cite the pages you relied on in metadata.sources and set metadata.web_search_used to true.`

	fileSearchInstructions = `File search over the user's uploaded documents is available.
Ground your answer in the retrieved passages, cite the files in metadata.sources, and say so when the documents do not cover the question.`
)

type generatedImage struct {
	url            string
	structuredData *model.ChatResponse
}

func fromResult(r *handler.ImageResult) generatedImage {
	return generatedImage{url: r.DataURI(), structuredData: r.StructuredData}
}

func (c *Controller) handleImage(ctx context.Context, route classify.Route, req Request) (model.Envelope, error) {
	imagePrompt := classify.ExtractImagePrompt(req.Message)

	var (
		img      generatedImage
		enhanced string
		err      error
	)
	switch {
	case route.Lifestyle:
		enhanced = c.lifestyle.Prompt(imagePrompt, classify.LifestyleContext(req.Message))
		if ref := c.effectiveReference(req.ReferenceImageURL); ref != "" {
			logx.Debug().Msg("lifestyle request with reference image")
			img, err = c.fromReference(ctx, ref, enhanced)
		} else {
			img, err = c.generateHQ(ctx, enhanced)
		}
	case route.WithReference:
		enhanced = c.creative.EnhancePrompt(ctx, imagePrompt, "image edit").Prompt
		img, err = c.fromReference(ctx, req.ReferenceImageURL, enhanced)
	default:
		enhanced = c.creative.EnhancePrompt(ctx, imagePrompt, "image").Prompt
		var result *handler.ImageResult
		result, err = c.generator.GenerateImage(ctx, enhanced, c.image)
		if err == nil {
			img = fromResult(result)
		}
	}
	if err != nil {
		return model.Envelope{}, fmt.Errorf("generate image: %w", err)
	}

	ack, err := c.creative.Acknowledge(ctx, imagePrompt)
	if err != nil {
		return model.Envelope{}, fmt.Errorf("acknowledge image: %w", err)
	}
	c.history.Append(model.AssistantTurn(ack + " " + ImageGeneratedMarker))

	return model.Envelope{
		Type:           model.EnvelopeImage,
		Content:        ack,
		ImageURL:       img.url,
		EnhancedPrompt: enhanced,
		StructuredData: img.structuredData,
	}, nil
}

func (c *Controller) fromReference(ctx context.Context, reference, prompt string) (generatedImage, error) {
	result, err := c.generator.GenerateImageFromImage(ctx, reference, prompt, c.image)
	if err != nil {
		return generatedImage{}, err
	}
	return fromResult(result), nil
}

// generateHQ tries the higher quality generator and falls back to the
// default image path on any failure.
func (c *Controller) generateHQ(ctx context.Context, prompt string) (generatedImage, error) {
	if c.hq != nil {
		img, err := c.hq.GenerateImage(ctx, llm.ImageRequest{Prompt: prompt})
		if err == nil && img != nil && img.DataURI() != "" {
			return generatedImage{url: img.DataURI()}, nil
		}
		logx.Warn().Err(err).Msg("high quality image generation failed, falling back")
	}
	result, err := c.generator.GenerateImage(ctx, prompt, c.image)
	if err != nil {
		return generatedImage{}, err
	}
	return fromResult(result), nil
}

func (c *Controller) handleCreative(ctx context.Context) (model.Envelope, error) {
	content, err := c.creative.GenerateCreativeResponse(ctx, c.history.Last(model.CreativeContextWindow), c.persona)
	if err != nil {
		return model.Envelope{}, err
	}
	c.history.Append(model.AssistantTurn(content))
	return model.TextEnvelope(content), nil
}

func (c *Controller) handleGeneral(ctx context.Context, route classify.Route, req Request) (model.Envelope, error) {
	webSearch := flagOr(req.WebSearch, route.WebSearch || req.WebSearchOptions != nil)
	fileSearch := flagOr(req.FileSearch, route.FileSearch || req.FileSearchOptions != nil)

	enhanced := c.creative.EnhancePrompt(ctx, req.Message, "text")

	result, err := c.generator.GenerateTextResponse(ctx, handler.TextRequest{
		Message:               req.Message,
		EnableFunctionCalling: route.FunctionCalling,
		EnhancedPrompt:        enhanced.Prompt,
		SystemInstructions:    systemInstructions(route.FunctionCalling, webSearch, fileSearch),
		WebSearch:             &webSearch,
		WebSearchOptions:      req.WebSearchOptions,
		FileSearch:            &fileSearch,
		FileSearchOptions:     req.FileSearchOptions,
	})
	if err != nil {
		return model.Envelope{}, fmt.Errorf("generate text response: %w", err)
	}
	c.history.Append(model.AssistantTurn(result.Content))

	return model.Envelope{
		Type:            model.EnvelopeText,
		Content:         result.Content,
		EnhancedPrompt:  enhanced.Prompt,
		Usage:           result.Usage,
		StructuredData:  result.StructuredData,
		FunctionCalls:   result.FunctionCalls,
		WebSearchCalls:  result.WebSearchCalls,
		FileSearchCalls: result.FileSearchCalls,
	}, nil
}

func systemInstructions(functions, webSearch, fileSearch bool) string {
	blocks := []string{baseInstructions}
	if functions {
		blocks = append(blocks, functionInstructions)
	}
	if webSearch {
		blocks = append(blocks, webSearchInstructions)
	}
	if fileSearch {
		blocks = append(blocks, fileSearchInstructions)
	}
	return strings.Join(blocks, "\n\n")
}

func flagOr(explicit *bool, inferred bool) bool {
	if explicit != nil {
		return *explicit
	}
	return inferred
}
