// Package botpost generates social-bot board posts. The pipeline calls the
// model backend once per request, cleans the raw output, and records every
// step to the trace store.
package botpost

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/sobot-ai/sobot/internal/domain/trace"
	"github.com/sobot-ai/sobot/internal/infra/llm"
)

// TraceName is the trace opened for every post-generation request.
const TraceName = "bot_posts_service"

// MinPosts is the minimum number of prior posts a request must carry; the
// model needs enough recent context to match the board's voice.
const MinPosts = 5

const (
	genOriginal = "generate_bot_post_original"
	genCleaned  = "generate_bot_post_cleaned"
)

var (
	// ErrInvalidPostCount rejects requests with fewer than MinPosts prior
	// posts. Maps to a client error outward.
	ErrInvalidPostCount = errors.New("invalid number of posts")

	// ErrGenerationFailed is the generic failure returned for any internal
	// error. Detail goes to the log and the trace, never to the caller.
	ErrGenerationFailed = errors.New("bot post generation failed")
)

// Post is one prior post summary from the board.
type Post struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// GeneratePostInput is a post-generation request.
type GeneratePostInput struct {
	BoardType string `json:"board_type"`
	Posts     []Post `json:"posts"`
}

// GeneratePostOutput is the generated post with the bot identity attached.
type GeneratePostOutput struct {
	BoardType string  `json:"board_type"`
	User      Persona `json:"user"`
	Content   string  `json:"content"`
}

// ModelBackend is the slice of the llm backend the pipeline needs.
type ModelBackend interface {
	GetResponse(ctx context.Context, messages []llm.Message) (llm.Result, error)
	Meta() llm.Meta
}

// Recorder is the slice of the trace service the pipeline needs.
type Recorder interface {
	Begin(ctx context.Context, name string, input, metadata json.RawMessage) (*trace.Trace, error)
	RecordGeneration(ctx context.Context, g *trace.Generation) error
	Finish(ctx context.Context, traceID string, output json.RawMessage) error
	Fail(ctx context.Context, traceID, errMsg string, metadata json.RawMessage) error
}

// Service runs the post-generation pipeline.
type Service struct {
	backend  ModelBackend
	recorder Recorder
	prompts  *PromptBuilder
	persona  Persona
	logger   *slog.Logger
}

// NewService wires the pipeline. logger may be nil (slog.Default is used).
func NewService(backend ModelBackend, recorder Recorder, persona Persona, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backend:  backend,
		recorder: recorder,
		prompts:  NewPromptBuilder(persona),
		persona:  persona,
		logger:   logger,
	}
}

// stageState carries whatever intermediate values exist when a failure is
// recorded. Stages not yet reached report "unknown".
type stageState struct {
	messages string
	original string
	cleaned  string
}

func newStageState() stageState {
	return stageState{messages: "unknown", original: "unknown", cleaned: "unknown"}
}

func (s stageState) metadata() json.RawMessage {
	raw, err := json.Marshal(map[string]string{
		"messages":         s.messages,
		"original_content": s.original,
		"cleaned_content":  s.cleaned,
	})
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}

// GeneratePost runs the full pipeline for one request.
//
// A backend Result carrying a model-level error does not fail the request:
// it flows through as empty original content and is visible in the trace.
// Validation failures return ErrInvalidPostCount; everything else is logged,
// recorded on the trace with partial stage context, and surfaced as
// ErrGenerationFailed.
func (s *Service) GeneratePost(ctx context.Context, in GeneratePostInput) (*GeneratePostOutput, error) {
	if len(in.Posts) < MinPosts {
		return nil, ErrInvalidPostCount
	}

	meta := s.backend.Meta()
	state := newStageState()

	input, err := json.Marshal(in.Posts)
	if err != nil {
		return nil, s.fail(ctx, "", state, err)
	}
	traceMeta, err := json.Marshal(map[string]any{
		"board_type": in.BoardType,
		"post_count": len(in.Posts),
	})
	if err != nil {
		return nil, s.fail(ctx, "", state, err)
	}

	tr, err := s.recorder.Begin(ctx, TraceName, input, traceMeta)
	if err != nil {
		return nil, s.fail(ctx, "", state, err)
	}

	promptName, messages := s.prompts.Build(in.BoardType, in.Posts)
	if raw, marshalErr := json.Marshal(messages); marshalErr == nil {
		state.messages = string(raw)
	}

	params, err := json.Marshal(meta.Params)
	if err != nil {
		return nil, s.fail(ctx, tr.ID, state, err)
	}

	started := time.Now().UTC()
	result, err := s.backend.GetResponse(ctx, messages)
	ended := time.Now().UTC()
	if err != nil {
		return nil, s.fail(ctx, tr.ID, state, err)
	}
	if result.Error != "" {
		s.logger.Warn("model call returned an error result",
			"status_code", result.StatusCode,
			"source", result.Source,
			"error", result.Error,
			"trace_id", tr.ID,
		)
	}

	original := result.Content
	state.original = original

	err = s.recorder.RecordGeneration(ctx, &trace.Generation{
		TraceID:     tr.ID,
		Name:        genOriginal,
		PromptName:  promptName,
		Messages:    json.RawMessage(state.messages),
		Content:     original,
		Model:       meta.Model,
		ModelParams: params,
		DurationMS:  result.Duration.Milliseconds(),
		StartedAt:   started,
		EndedAt:     ended,
		Error:       result.Error,
	})
	if err != nil {
		return nil, s.fail(ctx, tr.ID, state, err)
	}

	cleanStarted := time.Now().UTC()
	cleaned := CleanResponse(original)
	cleanEnded := time.Now().UTC()
	state.cleaned = cleaned

	err = s.recorder.RecordGeneration(ctx, &trace.Generation{
		TraceID:     tr.ID,
		Name:        genCleaned,
		PromptName:  promptName,
		Messages:    json.RawMessage(state.messages),
		Content:     cleaned,
		Model:       meta.Model,
		ModelParams: params,
		DurationMS:  cleanEnded.Sub(cleanStarted).Milliseconds(),
		StartedAt:   cleanStarted,
		EndedAt:     cleanEnded,
	})
	if err != nil {
		return nil, s.fail(ctx, tr.ID, state, err)
	}

	output, err := json.Marshal(map[string]string{"content": cleaned})
	if err != nil {
		return nil, s.fail(ctx, tr.ID, state, err)
	}
	if err := s.recorder.Finish(ctx, tr.ID, output); err != nil {
		return nil, s.fail(ctx, tr.ID, state, err)
	}

	return &GeneratePostOutput{
		BoardType: in.BoardType,
		User:      s.persona,
		Content:   cleaned,
	}, nil
}

// fail logs the cause with full detail, marks the trace failed with the
// stage context, and returns the generic outward error.
func (s *Service) fail(ctx context.Context, traceID string, state stageState, cause error) error {
	s.logger.Error("bot post generation failed",
		"error", cause,
		"trace_id", traceID,
	)

	if traceID != "" {
		if failErr := s.recorder.Fail(ctx, traceID, cause.Error(), state.metadata()); failErr != nil {
			s.logger.Error("marking trace failed", "error", failErr, "trace_id", traceID)
		}
	}

	return ErrGenerationFailed
}
