package handler

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/richinex/genlo/internal/errx"
	"github.com/richinex/genlo/internal/logx"
	"github.com/richinex/genlo/llm"
	"github.com/richinex/genlo/llm/responses"
	"github.com/richinex/genlo/model"
)

const (
	// MaxImagePromptLength is the hard cap on text-to-image prompts.
	MaxImagePromptLength = 4000
	// MaxReferencePromptLength caps the combined image-to-image prompt.
	MaxReferencePromptLength = 3950

	// ReferenceSuffix is appended to every image-to-image prompt.
	ReferenceSuffix = " Maintain exact product design, colors, and features from reference image."

	truncationMarker = "..."

	maxReferenceImageBytes = 20 << 20
)

// ImageOptions tunes a single image request. Empty fields use the handler defaults.
type ImageOptions struct {
	Size          string
	Quality       string
	PartialImages int // streaming only
}

// ImageResult is a generated image. Base64 is set unless the provider
// only returned a URL.
type ImageResult struct {
	Base64         string
	URL            string
	RevisedPrompt  string
	ResponseID     string // set on the responses API path
	StructuredData *model.ChatResponse
}

// DataURI returns the image as a data URI, or its URL when no bytes are inline.
func (r *ImageResult) DataURI() string {
	if r.Base64 == "" {
		return r.URL
	}
	return "data:image/png;base64," + r.Base64
}

// TruncatePrompt cuts prompt to at most limit characters, replacing the
// tail with "..." when it is too long.
func TruncatePrompt(prompt string, limit int) string {
	if utf8.RuneCountInString(prompt) <= limit {
		return prompt
	}
	keep := limit - len(truncationMarker)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(prompt)
	return string(runes[:keep]) + truncationMarker
}

func (h *OpenAI) capPrompt(prompt string, limit int) string {
	truncated := TruncatePrompt(prompt, limit)
	if truncated != prompt {
		logx.Warn().
			Int("length", utf8.RuneCountInString(prompt)).
			Int("limit", limit).
			Msg("image prompt truncated")
	}
	return truncated
}

func (h *OpenAI) options(opts ImageOptions) ImageOptions {
	if opts.Size == "" {
		opts.Size = h.cfg.ImageSize
	}
	if opts.Quality == "" {
		opts.Quality = h.cfg.ImageQuality
	}
	return opts
}

// GenerateImage creates an image from a text prompt.
func (h *OpenAI) GenerateImage(ctx context.Context, prompt string, opts ImageOptions) (*ImageResult, error) {
	prompt = h.capPrompt(prompt, MaxImagePromptLength)
	opts = h.options(opts)

	var result *ImageResult
	if h.cfg.ImageAPI == ImageAPIImages {
		img, err := h.images.GenerateImage(ctx, llm.ImageRequest{
			Prompt:  prompt,
			Model:   h.cfg.ImageModel,
			Size:    opts.Size,
			Quality: opts.Quality,
		})
		if err != nil {
			return nil, fmt.Errorf("generate image: %w", err)
		}
		result = &ImageResult{Base64: img.Base64, URL: img.URL, RevisedPrompt: img.RevisedPrompt}
	} else {
		var err error
		result, err = h.imageViaResponses(ctx, responses.Request{
			Model: h.cfg.TextModel,
			Input: []responses.InputItem{responses.Message(responses.RoleUser, prompt)},
		}, opts)
		if err != nil {
			return nil, fmt.Errorf("generate image: %w", err)
		}
	}

	result.StructuredData = imageMetadata(prompt, result, h.cfg.ImageAPI)
	return result, nil
}

// GenerateImageFromImage creates an image from a reference image (URL,
// data URI or raw base64) and a prompt. The images API is used when the
// image backend is also an llm.ImageEditor; otherwise the Responses API is.
func (h *OpenAI) GenerateImageFromImage(ctx context.Context, reference, prompt string, opts ImageOptions) (*ImageResult, error) {
	budget := MaxReferencePromptLength - utf8.RuneCountInString(ReferenceSuffix)
	combined := h.capPrompt(prompt, budget) + ReferenceSuffix
	opts = h.options(opts)

	var result *ImageResult
	if editor, ok := h.images.(llm.ImageEditor); ok && h.cfg.ImageAPI == ImageAPIImages {
		data, mimeType, err := h.loadReference(ctx, reference)
		if err != nil {
			return nil, fmt.Errorf("image from image: %w", err)
		}
		edited, err := editor.EditImage(ctx, llm.ImageEditRequest{
			Image:    data,
			MIMEType: mimeType,
			Prompt:   combined,
			Model:    h.cfg.ImageModel,
			Size:     opts.Size,
			Quality:  opts.Quality,
		})
		if err != nil {
			return nil, fmt.Errorf("image from image: %w", err)
		}
		result = &ImageResult{Base64: edited.Base64, URL: edited.URL, RevisedPrompt: edited.RevisedPrompt}
	} else {
		var err error
		result, err = h.imageViaResponses(ctx, responses.Request{
			Model: h.cfg.TextModel,
			Input: []responses.InputItem{
				responses.MessageParts(responses.RoleUser,
					responses.InputText(combined),
					responses.InputImage(imageURL(reference)),
				),
			},
		}, opts)
		if err != nil {
			return nil, fmt.Errorf("image from image: %w", err)
		}
	}

	result.StructuredData = imageMetadata(combined, result, h.cfg.ImageAPI)
	return result, nil
}

// EditImageWithPreviousResponse edits the image of an earlier response by
// threading its id instead of resending history.
func (h *OpenAI) EditImageWithPreviousResponse(ctx context.Context, previousResponseID, prompt string, opts ImageOptions) (*ImageResult, error) {
	if previousResponseID == "" {
		return nil, fmt.Errorf("edit image: previous response id is required")
	}
	prompt = h.capPrompt(prompt, MaxImagePromptLength)

	result, err := h.imageViaResponses(ctx, responses.Request{
		Model:              h.cfg.TextModel,
		Input:              []responses.InputItem{responses.Message(responses.RoleUser, prompt)},
		PreviousResponseID: previousResponseID,
	}, h.options(opts))
	if err != nil {
		return nil, fmt.Errorf("edit image: %w", err)
	}
	result.StructuredData = imageMetadata(prompt, result, ImageAPIResponses)
	return result, nil
}

// GenerateImageStream generates an image over a streamed response, calling
// onPartial for every partial image. It fails with errx.ErrNoFinalImage
// when the stream ends without a completed image.
func (h *OpenAI) GenerateImageStream(ctx context.Context, prompt string, opts ImageOptions, onPartial func(index int, b64 string)) (*ImageResult, error) {
	prompt = h.capPrompt(prompt, MaxImagePromptLength)
	opts = h.options(opts)
	if opts.PartialImages == 0 {
		opts.PartialImages = 2
	}

	tool := responses.ImageGenerationTool(opts.Size, opts.Quality)
	tool.PartialImages = opts.PartialImages

	var result ImageResult
	err := h.client.Stream(ctx, responses.Request{
		Model: h.cfg.TextModel,
		Input: []responses.InputItem{responses.Message(responses.RoleUser, prompt)},
		Tools: []responses.Tool{tool},
	}, func(ev responses.Event) error {
		switch ev.Type {
		case "response.created":
			result.ResponseID = ev.Get("response.id").String()
		case "response.image_generation_call.partial_image":
			if onPartial != nil {
				onPartial(int(ev.Get("partial_image_index").Int()), ev.Get("partial_image_b64").String())
			}
		case "response.output_item.done":
			if ev.Get("item.type").String() == string(responses.KindImageGenerationCall) {
				if b64 := ev.Get("item.result").String(); b64 != "" {
					result.Base64 = b64
					result.RevisedPrompt = ev.Get("item.revised_prompt").String()
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("stream image: %w", err)
	}
	if result.Base64 == "" {
		return nil, errx.ErrNoFinalImage
	}

	result.StructuredData = imageMetadata(prompt, &result, ImageAPIResponses)
	return &result, nil
}

func (h *OpenAI) imageViaResponses(ctx context.Context, req responses.Request, opts ImageOptions) (*ImageResult, error) {
	req.Tools = []responses.Tool{responses.ImageGenerationTool(opts.Size, opts.Quality)}
	req.ToolChoice = "required"

	resp, err := h.client.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	call := resp.ImageGeneration()
	if call == nil {
		return nil, fmt.Errorf("response %s contained no generated image", resp.ID)
	}
	return &ImageResult{Base64: call.Result, RevisedPrompt: call.RevisedPrompt, ResponseID: resp.ID}, nil
}

// loadReference returns the bytes and MIME type of a reference image.
func (h *OpenAI) loadReference(ctx context.Context, reference string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(reference, "data:"):
		return decodeDataURI(reference)
	case strings.HasPrefix(reference, "http://"), strings.HasPrefix(reference, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reference, nil)
		if err != nil {
			return nil, "", fmt.Errorf("build reference request: %w", err)
		}
		resp, err := h.cfg.ReferenceClient.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("fetch reference image: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("fetch reference image: status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxReferenceImageBytes))
		if err != nil {
			return nil, "", fmt.Errorf("read reference image: %w", err)
		}
		mimeType := resp.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = http.DetectContentType(data)
		}
		return data, mimeType, nil
	default:
		data, err := base64.StdEncoding.DecodeString(reference)
		if err != nil {
			return nil, "", fmt.Errorf("decode reference image: %w", err)
		}
		return data, http.DetectContentType(data), nil
	}
}

func decodeDataURI(uri string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, "", fmt.Errorf("unsupported data URI")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data URI: %w", err)
	}
	return data, strings.TrimSuffix(header, ";base64"), nil
}

// imageURL turns raw base64 into a data URI; URLs and data URIs pass through.
func imageURL(reference string) string {
	if strings.HasPrefix(reference, "data:") || strings.HasPrefix(reference, "http://") || strings.HasPrefix(reference, "https://") {
		return reference
	}
	return "data:image/png;base64," + reference
}

func imageMetadata(prompt string, result *ImageResult, api ImageAPI) *model.ChatResponse {
	content := prompt
	if result.RevisedPrompt != "" {
		content = result.RevisedPrompt
	}
	return &model.ChatResponse{
		Content:     content,
		Confidence:  1,
		Suggestions: []string{},
		Metadata: model.ResponseMetadata{
			Reasoning:     fmt.Sprintf("image generated via the %s API", api),
			Sources:       []string{},
			FunctionsUsed: []string{},
			SearchCalls:   []string{},
		},
	}
}
