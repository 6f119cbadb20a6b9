package trace_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sobot-ai/sobot/internal/domain/trace"
	"github.com/sobot-ai/sobot/internal/infra/eventbus"
	"github.com/sobot-ai/sobot/internal/infra/sqlite"
)

func newTestService(t *testing.T) (*trace.Service, *eventbus.Bus) {
	t.Helper()

	db, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close() //nolint:errcheck
	})
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}

	bus := eventbus.New()
	return trace.NewService(db, bus, "test"), bus
}

func TestService_BeginOpensTrace(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	tr, err := svc.Begin(ctx, "generate_bot_post", json.RawMessage(`{"persona":"luna"}`), nil)
	if err != nil {
		t.Fatalf("Begin() error = %v; want nil", err)
	}

	if tr.ID == "" {
		t.Error("Begin() returned empty trace ID")
	}
	if tr.Status != trace.StatusOpen {
		t.Errorf("status = %q; want %q", tr.Status, trace.StatusOpen)
	}
	if tr.Environment != "test" {
		t.Errorf("environment = %q; want %q", tr.Environment, "test")
	}
	if string(tr.Metadata) != "{}" {
		t.Errorf("nil metadata normalized to %q; want {}", tr.Metadata)
	}

	got, gens, err := svc.GetByID(ctx, tr.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v; want nil", err)
	}
	if string(got.Input) != `{"persona":"luna"}` {
		t.Errorf("input = %s; want original payload", got.Input)
	}
	if len(gens) != 0 {
		t.Errorf("new trace has %d generations; want 0", len(gens))
	}
}

func TestService_RecordGeneration(t *testing.T) {
	t.Parallel()

	svc, bus := newTestService(t)
	ctx := context.Background()
	recorded := bus.Subscribe(eventbus.TopicGenerationRecorded)

	tr, err := svc.Begin(ctx, "generate_bot_post", nil, nil)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	started := time.Now().UTC().Add(-200 * time.Millisecond)
	gen := &trace.Generation{
		TraceID:     tr.ID,
		Name:        "generate_bot_post_original",
		PromptName:  "bot_posts_v1",
		Messages:    json.RawMessage(`[{"role":"user","content":"hi"}]`),
		Content:     "1. first post",
		Model:       "test-model",
		ModelParams: json.RawMessage(`{"temperature":0.7}`),
		DurationMS:  200,
		StartedAt:   started,
		EndedAt:     started.Add(200 * time.Millisecond),
	}
	if err := svc.RecordGeneration(ctx, gen); err != nil {
		t.Fatalf("RecordGeneration() error = %v; want nil", err)
	}
	if gen.ID == "" {
		t.Error("RecordGeneration() did not assign an ID")
	}

	_, gens, err := svc.GetByID(ctx, tr.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(gens) != 1 {
		t.Fatalf("generations = %d; want 1", len(gens))
	}
	got := gens[0]
	if got.Name != "generate_bot_post_original" {
		t.Errorf("name = %q; want generate_bot_post_original", got.Name)
	}
	if got.Content != "1. first post" {
		t.Errorf("content = %q", got.Content)
	}
	if got.TokensIn != nil || got.TokensOut != nil {
		t.Errorf("tokens = (%v, %v); want both nil (backends report no usage)", got.TokensIn, got.TokensOut)
	}
	if got.DurationMS != 200 {
		t.Errorf("duration_ms = %d; want 200", got.DurationMS)
	}
	if got.StartedAt.IsZero() || got.EndedAt.IsZero() {
		t.Error("started_at/ended_at not round-tripped")
	}

	select {
	case evt := <-recorded:
		if evt.Payload != gen.ID {
			t.Errorf("event payload = %v; want generation ID %q", evt.Payload, gen.ID)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("no generation.recorded event published")
	}
}

func TestService_FinishCompletesTrace(t *testing.T) {
	t.Parallel()

	svc, bus := newTestService(t)
	ctx := context.Background()
	completed := bus.Subscribe(eventbus.TopicTraceCompleted)

	tr, err := svc.Begin(ctx, "generate_bot_post", nil, nil)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if err := svc.Finish(ctx, tr.ID, json.RawMessage(`{"response":"ok"}`)); err != nil {
		t.Fatalf("Finish() error = %v; want nil", err)
	}

	got, _, err := svc.GetByID(ctx, tr.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != trace.StatusCompleted {
		t.Errorf("status = %q; want %q", got.Status, trace.StatusCompleted)
	}
	if string(got.Output) != `{"response":"ok"}` {
		t.Errorf("output = %s; want final payload", got.Output)
	}

	select {
	case <-completed:
	case <-time.After(100 * time.Millisecond):
		t.Error("no trace.completed event published")
	}
}

func TestService_FailMarksTrace(t *testing.T) {
	t.Parallel()

	svc, bus := newTestService(t)
	ctx := context.Background()
	failed := bus.Subscribe(eventbus.TopicTraceFailed)

	tr, err := svc.Begin(ctx, "generate_bot_post", nil, nil)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	meta := json.RawMessage(`{"original_content":"unknown"}`)
	if err := svc.Fail(ctx, tr.ID, "model call failed at generation", meta); err != nil {
		t.Fatalf("Fail() error = %v; want nil", err)
	}

	got, _, err := svc.GetByID(ctx, tr.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != trace.StatusFailed {
		t.Errorf("status = %q; want %q", got.Status, trace.StatusFailed)
	}
	if got.Error != "model call failed at generation" {
		t.Errorf("error = %q", got.Error)
	}
	if string(got.Metadata) != string(meta) {
		t.Errorf("metadata = %s; want failure context %s", got.Metadata, meta)
	}

	select {
	case <-failed:
	case <-time.After(100 * time.Millisecond):
		t.Error("no trace.failed event published")
	}
}

func TestService_FinishUnknownTrace(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	err := svc.Finish(context.Background(), "no-such-id", nil)
	if !errors.Is(err, trace.ErrNotFound) {
		t.Errorf("Finish(unknown) error = %v; want ErrNotFound", err)
	}
}

func TestService_GetByIDNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	_, _, err := svc.GetByID(context.Background(), "no-such-id")
	if !errors.Is(err, trace.ErrNotFound) {
		t.Errorf("GetByID(unknown) error = %v; want ErrNotFound", err)
	}
}

func TestService_ListNewestFirst(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Begin(ctx, "generate_bot_post", nil, nil)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	second, err := svc.Begin(ctx, "generate_bot_chat", nil, nil)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	traces, err := svc.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("List() error = %v; want nil", err)
	}
	if len(traces) != 2 {
		t.Fatalf("List() returned %d traces; want 2", len(traces))
	}
	if traces[0].ID != second.ID || traces[1].ID != first.ID {
		t.Errorf("List() order = [%s, %s]; want newest first [%s, %s]",
			traces[0].ID, traces[1].ID, second.ID, first.ID)
	}

	limited, err := svc.List(ctx, 1, 1)
	if err != nil {
		t.Fatalf("List(1, 1) error = %v", err)
	}
	if len(limited) != 1 || limited[0].ID != first.ID {
		t.Errorf("List(1, 1) = %v; want the older trace only", limited)
	}
}

func TestService_NilBusIsSafe(t *testing.T) {
	t.Parallel()

	db, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close() //nolint:errcheck
	})
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}

	svc := trace.NewService(db, nil, "")
	ctx := context.Background()

	tr, err := svc.Begin(ctx, "generate_bot_post", nil, nil)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if tr.Environment != "development" {
		t.Errorf("environment = %q; want default development", tr.Environment)
	}
	if err := svc.Finish(ctx, tr.ID, nil); err != nil {
		t.Fatalf("Finish() with nil bus error = %v; want nil", err)
	}
}
