// Local adapter: flattens the conversation through the chat template and
// hands the text prompt to an in-process Engine. Engine failures never
// escape as errors — they are converted into a structured Result so the
// pipeline sees the same failure channel for both modes.
package llm

import (
	"context"
	"fmt"
	"time"
)

// LocalSource identifies results served by the local engine.
const LocalSource = "local"

// LocalBackend implements Backend on top of a locally hosted Engine.
type LocalBackend struct {
	cfg    Config
	engine Engine
}

// NewLocalBackend creates a LocalBackend around the given engine.
func NewLocalBackend(cfg Config, engine Engine) *LocalBackend {
	return &LocalBackend{cfg: cfg, engine: engine}
}

// GetResponse flattens messages into a text prompt and runs one generation.
// Any engine error — or panic — becomes a Result with StatusCode 500 and
// the failure text in Error; the returned error is always nil.
func (b *LocalBackend) GetResponse(ctx context.Context, messages []Message) (result Result, _ error) {
	prompt := ApplyChatTemplate(messages)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = Result{
				StatusCode: 500,
				Source:     LocalSource,
				Error:      fmt.Sprintf("generation panic: %v", r),
				Duration:   time.Since(start),
			}
		}
	}()

	text, err := b.engine.Generate(ctx, prompt, b.cfg.Params)
	elapsed := time.Since(start)
	if err != nil {
		return Result{
			StatusCode: 500,
			Source:     LocalSource,
			Error:      err.Error(),
			Duration:   elapsed,
		}, nil
	}

	return Result{
		StatusCode: 200,
		Source:     LocalSource,
		Content:    text,
		Duration:   elapsed,
	}, nil
}

// Meta returns static metadata for trace records.
func (b *LocalBackend) Meta() Meta {
	return Meta{Mode: ModeLocal, Model: b.cfg.Model, Params: b.cfg.Params}
}
