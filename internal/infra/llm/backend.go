// Backend interface and mode factory. Adapters (remote HTTP, local engine)
// implement the same contract so the generation pipeline never branches on
// the deployment mode after startup.
package llm

import (
	"context"
	"fmt"
)

// Backend is the model-agnostic inference contract.
//
// GetResponse turns an ordered message sequence into a Result. Failures of
// the model itself — a non-success HTTP status, a local generation error —
// come back as a structured Result with the Error field set and a nil error,
// so the caller has one uniform failure channel. A non-nil error is reserved
// for faults outside the model call proper (request building, transport).
type Backend interface {
	GetResponse(ctx context.Context, messages []Message) (Result, error)

	// Meta returns static metadata about the backend (mode, model, params).
	Meta() Meta
}

// Engine is the locally hosted inference collaborator used by ModeLocal.
// It consumes a flattened text prompt, not structured messages.
type Engine interface {
	Generate(ctx context.Context, prompt string, params SamplingParams) (string, error)
}

// New selects and constructs the Backend for the configured mode. Called
// once at process startup; the result is injected into the services that
// need it.
func New(cfg Config, engine Engine) (Backend, error) {
	switch cfg.Mode {
	case ModeRemote:
		return NewRemoteBackend(cfg), nil
	case ModeLocal:
		if engine == nil {
			return nil, fmt.Errorf("llm: local mode requires an inference engine")
		}
		return NewLocalBackend(cfg, engine), nil
	default:
		return nil, fmt.Errorf("llm: unknown backend mode %q (want %q or %q)", cfg.Mode, ModeRemote, ModeLocal)
	}
}
