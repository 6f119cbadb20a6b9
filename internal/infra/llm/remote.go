// Remote HTTP adapter: an OpenAI-style chat-completions client.
// Endpoint used: POST {base}/v1/chat/completions with a bearer token.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// EnvModelBaseURL is re-read on every call so the endpoint can be rotated
// (e.g. a fresh tunnel URL) without restarting the service.
const EnvModelBaseURL = "MODEL_BASE_URL"

const (
	headerContentType   = "Content-Type"
	headerAuthorization = "Authorization"
	mimeJSON            = "application/json"

	chatCompletionsPath = "/v1/chat/completions"
)

// RemoteBackend implements Backend against an OpenAI-compatible endpoint.
type RemoteBackend struct {
	cfg        Config
	httpClient *http.Client
}

// NewRemoteBackend creates a RemoteBackend. The client carries no timeout:
// the inference call has no deadline of its own and is bounded only by the
// request context.
func NewRemoteBackend(cfg Config) *RemoteBackend {
	return &RemoteBackend{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

// --- wire types ---

type chatCompletionsRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatChoice struct {
	Index   int     `json:"index"`
	Message Message `json:"message"`
}

type chatCompletionsResponse struct {
	Choices []chatChoice `json:"choices"`
}

// GetResponse posts the conversation to {base}/v1/chat/completions.
//
// A non-success HTTP status does not produce an error: the response body,
// status code, final URL and headers come back in the Result so the caller
// sees the raw failure. No retry is attempted. Transport and
// request-building faults return a non-nil error instead.
func (b *RemoteBackend) GetResponse(ctx context.Context, messages []Message) (Result, error) {
	body, err := json.Marshal(chatCompletionsRequest{
		Model:       b.cfg.Model,
		Messages:    messages,
		Temperature: b.cfg.Params.Temperature,
		MaxTokens:   b.cfg.Params.MaxTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("llm remote: marshal request: %w", err)
	}

	url := b.baseURL() + chatCompletionsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("llm remote: build request: %w", err)
	}
	req.Header.Set(headerContentType, mimeJSON)
	req.Header.Set(headerAuthorization, "Bearer "+b.cfg.APIKey)

	start := time.Now()
	resp, err := b.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return Result{}, fmt.Errorf("llm remote: post %s: %w", chatCompletionsPath, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("llm remote: read response: %w", err)
	}

	finalURL := resp.Request.URL.String()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{
			StatusCode: resp.StatusCode,
			Source:     finalURL,
			Error:      errorBody(raw),
			Headers:    resp.Header.Clone(),
			Duration:   elapsed,
		}, nil
	}

	var completion chatCompletionsResponse
	if decodeErr := json.Unmarshal(raw, &completion); decodeErr != nil {
		return Result{}, fmt.Errorf("llm remote: decode response: %w", decodeErr)
	}
	if len(completion.Choices) == 0 {
		return Result{}, fmt.Errorf("llm remote: no choices in completion response")
	}

	return Result{
		StatusCode: resp.StatusCode,
		Source:     finalURL,
		Content:    completion.Choices[0].Message.Content,
		Duration:   elapsed,
	}, nil
}

// Meta returns static metadata for trace records.
func (b *RemoteBackend) Meta() Meta {
	return Meta{Mode: ModeRemote, Model: b.cfg.Model, Params: b.cfg.Params}
}

// --- helpers ---

// baseURL resolves the endpoint root, preferring the environment over the
// construction-time fallback. Deliberately not cached.
func (b *RemoteBackend) baseURL() string {
	if v := os.Getenv(EnvModelBaseURL); v != "" {
		return v
	}
	return b.cfg.BaseURL
}

// errorBody normalizes a failure body: compacted JSON when the body parses
// as JSON, raw trimmed text otherwise.
func errorBody(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if json.Valid(trimmed) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err == nil {
			return buf.String()
		}
	}
	return string(trimmed)
}
