// Package llm defines the model-backend abstraction used by the generation
// services. All types here are shared between the Backend interface and the
// remote/local adapters.
package llm

import (
	"net/http"
	"time"
)

// Conversation roles. The ordered message sequence is chronological,
// oldest first.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single turn in a conversation (role + content).
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Mode selects the inference strategy at construction time. It is a
// deployment-time decision, not a per-request one.
type Mode string

const (
	// ModeRemote reaches the model through an OpenAI-style HTTP endpoint.
	ModeRemote Mode = "remote"
	// ModeLocal runs inference on a locally hosted engine.
	ModeLocal Mode = "local"
)

// SamplingParams are the fixed generation parameters sent with every call.
type SamplingParams struct {
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p"`
	MaxTokens   int      `json:"max_tokens"`
	Stop        []string `json:"stop,omitempty"`
}

// DefaultSamplingParams mirrors the production deployment of the Ko-Alpha
// model. The remote wire format carries temperature and max_tokens only;
// top_p and stop apply to the local engine.
func DefaultSamplingParams() SamplingParams {
	return SamplingParams{
		Temperature: 0.7,
		TopP:        0.9,
		MaxTokens:   256,
		Stop:        []string{"\n\n", "</s>"},
	}
}

// DefaultModel is the model identifier used when MODEL_NAME is not set.
const DefaultModel = "allganize/Llama-3-Alpha-Ko-8B-Instruct"

// Config is the immutable backend configuration, chosen once at process
// start and shared read-only for the process lifetime.
type Config struct {
	Mode    Mode
	Model   string
	BaseURL string // fallback when MODEL_BASE_URL is unset (remote mode)
	APIKey  string // bearer token for the remote endpoint
	Params  SamplingParams
}

// Meta describes the backend identity, read by the pipeline for trace
// records and the environment tag.
type Meta struct {
	Mode   Mode
	Model  string
	Params SamplingParams
}

// Result is the uniform outcome of one inference call. Exactly one of
// Content/Error is populated depending on whether StatusCode indicates
// success. Both adapters produce this shape so callers stay backend-agnostic.
type Result struct {
	StatusCode int
	Source     string // final URL for remote calls, "local" otherwise
	Content    string
	Error      string
	Headers    http.Header   // response headers on remote failures
	Duration   time.Duration // round-trip latency of the inference call
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
