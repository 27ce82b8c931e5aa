// Responses API client for OpenAI.
//
// Information Hiding:
// - Endpoint paths, authentication headers and JSON encoding
// - Provider error bodies, mapped to errx.ProviderError
// - Server-sent event framing of streamed responses

package responses

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/richinex/genlo/internal/errx"
)

const (
	// DefaultBaseURL is the public OpenAI API.
	DefaultBaseURL = "https://api.openai.com/v1"

	providerName = "openai"

	// maxEventSize bounds a single SSE event; partial images are large.
	maxEventSize = 32 << 20
)

// Client talks to the Responses and image edit endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client. Deadlines come from the request context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a Client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create issues a non-streaming request.
func (c *Client) Create(ctx context.Context, req Request) (*Response, error) {
	req.Stream = false
	resp, err := c.postJSON(ctx, "/responses", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// Event is one server-sent event of a streamed response.
type Event struct {
	Type string
	Data []byte
}

// Get reads a field of the event payload by gjson path.
func (e Event) Get(path string) gjson.Result {
	return gjson.GetBytes(e.Data, path)
}

// Stream issues a streaming request and calls fn for every event in order.
// A non-nil error from fn stops the stream and is returned.
func (c *Client) Stream(ctx context.Context, req Request, fn func(Event) error) error {
	req.Stream = true
	resp, err := c.postJSON(ctx, "/responses", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxEventSize)

	var eventName string
	var data bytes.Buffer
	dispatch := func() error {
		defer func() {
			eventName = ""
			data.Reset()
		}()
		if data.Len() == 0 || bytes.Equal(data.Bytes(), []byte("[DONE]")) {
			return nil
		}
		ev := Event{Data: append([]byte(nil), data.Bytes()...)}
		ev.Type = ev.Get("type").String()
		if ev.Type == "" {
			ev.Type = eventName
		}
		if err := streamError(ev); err != nil {
			return err
		}
		return fn(ev)
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if err := dispatch(); err != nil {
				return err
			}
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read event stream: %w", err)
	}
	return dispatch()
}

func streamError(ev Event) error {
	switch ev.Type {
	case "error":
		return fmt.Errorf("%s stream error: %s", providerName, ev.Get("message").String())
	case "response.failed":
		return fmt.Errorf("%s stream failed: %s", providerName, ev.Get("response.error.message").String())
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return c.do(httpReq)
}

// do sends the request and turns non-2xx responses into a ProviderError.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", providerName, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	message := gjson.GetBytes(body, "error.message").String()
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	return nil, errx.NewProviderError(providerName, resp.StatusCode, message)
}
