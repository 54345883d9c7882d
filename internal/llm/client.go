package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"pdfmobile/internal/extract"
	"pdfmobile/internal/reduce"
)

// DefaultBaseURL points at a llama.cpp-style server on the local loopback.
const DefaultBaseURL = "http://127.0.0.1:8080"

// Client talks to an OpenAI-compatible chat-completions endpoint. The wire
// structs are go-openai's; the transport is a plain HTTP POST so the
// streaming read loop can apply the frame rules the reducer depends on
// (skip malformed data frames, stop at the [DONE] sentinel).
type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// ChunkObserver receives each content delta together with the completion
// re-derived from the cumulative buffer. Invocations are strictly in
// arrival order; each sees an append-superset of the previous buffer.
type ChunkObserver func(delta string, c Completion)

// Request is a single-use completion job.
type Request struct {
	Extraction extract.Extraction
	MaxTokens  int
	Stream     bool
	Observer   ChunkObserver
}

// Completion is the reduced outcome of one completion: the derived HTML
// payload and reasoning excerpt, the one-way reasoning latch, and the
// model/usage metadata the backend reported.
type Completion struct {
	HTML         string
	Reasoning    string
	HasReasoning bool
	Model        string
	Usage        *openai.Usage
}

// Complete runs one completion against the endpoint. When req.Stream is
// set the response body is consumed as server-sent events and req.Observer
// is invoked per content delta; otherwise a single JSON body is decoded
// and reduced once. Cancel the context to abort a streaming read; the
// error then wraps ErrCancelled.
func (c *Client) Complete(ctx context.Context, req Request) (Completion, error) {
	payload := c.buildRequest(req)
	resp, err := c.post(ctx, payload)
	if err != nil {
		return Completion{}, err
	}
	defer resp.Body.Close()

	if req.Stream {
		return c.consumeStream(ctx, resp.Body, req.Observer)
	}
	return c.consumeSingle(resp.Body)
}

// buildRequest assembles the chat request: one system message holding the
// modality instruction and one user message carrying the extraction.
func (c *Client) buildRequest(req Request) openai.ChatCompletionRequest {
	out := openai.ChatCompletionRequest{
		Model:     c.Model,
		MaxTokens: req.MaxTokens,
		Stream:    req.Stream,
	}
	if req.Stream {
		out.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}

	switch req.Extraction.Kind {
	case extract.KindImages:
		parts := make([]openai.ChatMessagePart, 0, len(req.Extraction.Pages)+1)
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: userPromptVision,
		})
		for _, page := range req.Extraction.Pages {
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: page.DataURL()},
			})
		}
		out.Messages = []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPromptVision},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		}
	default:
		out.Messages = []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPromptText},
			{Role: openai.ChatMessageRoleUser, Content: req.Extraction.Text},
		}
	}
	return out
}

// post issues the completions request and classifies failures per the
// error taxonomy. A non-2xx body is drained (bounded) for diagnostics.
func (c *Client) post(ctx context.Context, payload openai.ChatCompletionRequest) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("llm: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm: new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		return nil, &TransportError{Err: err}
	}
	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		return nil, &EndpointError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       strings.TrimSpace(string(slurp)),
		}
	}
	return resp, nil
}

// consumeSingle decodes the one-shot response and runs the reducer's final
// pass over the raw completion text.
func (c *Client) consumeSingle(body io.Reader) (Completion, error) {
	var resp openai.ChatCompletionResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return Completion{}, &MalformedResponseError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return Completion{}, &MalformedResponseError{Err: fmt.Errorf("response has no choices")}
	}
	raw := resp.Choices[0].Message.Content
	derived := reduce.Derive(raw)
	out := Completion{
		HTML:         derived.HTML,
		Reasoning:    derived.Reasoning,
		HasReasoning: reduce.HasReasoning(raw),
		Model:        resp.Model,
	}
	if resp.Usage.TotalTokens > 0 || resp.Usage.PromptTokens > 0 {
		u := resp.Usage
		out.Usage = &u
	}
	return out, nil
}

// endpoint normalizes the configured base URL: missing scheme gets https,
// an unset base falls back to the local loopback default, and a single
// trailing /v1 is not doubled.
func (c *Client) endpoint() string {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	base = strings.TrimRight(base, "/")
	base = strings.TrimSuffix(base, "/v1")
	return base + "/v1/chat/completions"
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return defaultHTTPClient
}

// defaultHTTPClient has no overall timeout: streamed completions routinely
// run for minutes. Dial and TLS handshakes are still bounded.
var defaultHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	},
}
