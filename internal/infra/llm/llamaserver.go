// llama.cpp server engine. In local mode the model runs in a llama-server
// process on the same host; this Engine posts the flattened prompt to its
// /completion endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// LlamaServerEngine implements Engine against a llama.cpp server instance.
type LlamaServerEngine struct {
	baseURL    string
	httpClient *http.Client
}

// NewLlamaServerEngine creates an engine for the llama.cpp server at
// baseURL (e.g. "http://127.0.0.1:8080"). Like the remote backend, the
// client carries no timeout of its own.
func NewLlamaServerEngine(baseURL string) *LlamaServerEngine {
	return &LlamaServerEngine{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

type llamaCompletionRequest struct {
	Prompt      string   `json:"prompt"`
	NPredict    int      `json:"n_predict"`
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p"`
	Stop        []string `json:"stop,omitempty"`
}

type llamaCompletionResponse struct {
	Content string `json:"content"`
}

// Generate runs one completion for the given text prompt.
func (e *LlamaServerEngine) Generate(ctx context.Context, prompt string, params SamplingParams) (string, error) {
	body, err := json.Marshal(llamaCompletionRequest{
		Prompt:      prompt,
		NPredict:    params.MaxTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
		Stop:        params.Stop,
	})
	if err != nil {
		return "", fmt.Errorf("llama engine: marshal request: %w", err)
	}

	url := e.baseURL + "/completion"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llama engine: build request: %w", err)
	}
	req.Header.Set(headerContentType, mimeJSON)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llama engine: post /completion: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("llama engine: status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var completion llamaCompletionResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&completion); decodeErr != nil {
		return "", fmt.Errorf("llama engine: decode response: %w", decodeErr)
	}

	return completion.Content, nil
}
