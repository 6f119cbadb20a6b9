package trace

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a trace.
type Status string

const (
	StatusOpen      Status = "open"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Trace is one observability record per generation request. It carries the
// request input, the final output, and a free-form metadata blob; model call
// details live in the child Generation records.
type Trace struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Environment string          `json:"environment"`
	Status      Status          `json:"status"`
	Input       json.RawMessage `json:"input,omitempty"`
	Output      json.RawMessage `json:"output,omitempty"`
	Error       string          `json:"error,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Generation records a single model interaction within a trace. Traces carry
// one generation per pipeline stage, so the raw and cleaned outputs of the
// same model call are separate rows sharing messages and params.
type Generation struct {
	ID          string          `json:"id"`
	TraceID     string          `json:"trace_id"`
	Name        string          `json:"name"`
	PromptName  string          `json:"prompt_name,omitempty"`
	Messages    json.RawMessage `json:"messages,omitempty"`
	Content     string          `json:"content,omitempty"`
	Model       string          `json:"model,omitempty"`
	ModelParams json.RawMessage `json:"model_params,omitempty"`
	TokensIn    *int64          `json:"tokens_in,omitempty"`
	TokensOut   *int64          `json:"tokens_out,omitempty"`
	DurationMS  int64           `json:"duration_ms"`
	StartedAt   time.Time       `json:"started_at"`
	EndedAt     time.Time       `json:"ended_at"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
