// Package trace persists observability records for generation requests.
// All writes are append-or-finalize; a trace is opened, generations are
// attached, and the trace is closed exactly once as completed or failed.
package trace

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sobot-ai/sobot/internal/infra/eventbus"
	"github.com/sobot-ai/sobot/pkg/uuid"
)

// ErrNotFound is returned when a trace id does not exist.
var ErrNotFound = errors.New("trace not found")

// timeFormat is the canonical column format for all timestamp columns.
// Fixed-width fractional seconds keep lexicographic order chronological,
// which ORDER BY created_at relies on.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Service stores traces and generations in SQLite and publishes lifecycle
// events on the bus.
type Service struct {
	db          *sql.DB
	bus         eventbus.EventBus
	environment string
}

// NewService creates a trace service. bus may be nil when no consumers are
// wired (events are then skipped).
func NewService(db *sql.DB, bus eventbus.EventBus, environment string) *Service {
	if environment == "" {
		environment = "development"
	}
	return &Service{db: db, bus: bus, environment: environment}
}

// Begin opens a new trace in the open state and returns it.
func (s *Service) Begin(ctx context.Context, name string, input, metadata json.RawMessage) (*Trace, error) {
	now := time.Now().UTC()
	t := &Trace{
		ID:          uuid.NewV7().String(),
		Name:        name,
		Environment: s.environment,
		Status:      StatusOpen,
		Input:       normalizeJSON(input, []byte("{}")),
		Metadata:    normalizeJSON(metadata, []byte("{}")),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO traces (id, name, environment, status, input, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Environment, string(t.Status),
		string(t.Input), string(t.Metadata),
		now.Format(timeFormat), now.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("trace.Begin: insert: %w", err)
	}

	return t, nil
}

// RecordGeneration appends a generation record to an existing trace.
// ID and CreatedAt are assigned here; the caller provides everything else.
func (s *Service) RecordGeneration(ctx context.Context, g *Generation) error {
	g.ID = uuid.NewV7().String()
	g.CreatedAt = time.Now().UTC()
	g.Messages = normalizeJSON(g.Messages, []byte("[]"))
	g.ModelParams = normalizeJSON(g.ModelParams, []byte("{}"))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generations (
			id, trace_id, name, prompt_name, messages, content, model,
			model_params, tokens_in, tokens_out, duration_ms,
			started_at, ended_at, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.TraceID, g.Name, g.PromptName,
		string(g.Messages), g.Content, g.Model, string(g.ModelParams),
		g.TokensIn, g.TokensOut, g.DurationMS,
		formatTime(g.StartedAt), formatTime(g.EndedAt),
		g.Error, g.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("trace.RecordGeneration: insert: %w", err)
	}

	s.publish(eventbus.TopicGenerationRecorded, g.ID)
	return nil
}

// Finish closes the trace as completed with the final output.
func (s *Service) Finish(ctx context.Context, traceID string, output json.RawMessage) error {
	if err := s.close(ctx, traceID, StatusCompleted, normalizeJSON(output, []byte("{}"))); err != nil {
		return err
	}
	s.publish(eventbus.TopicTraceCompleted, traceID)
	return nil
}

// Fail closes the trace as failed with the error message. When metadata is
// non-empty it replaces the trace metadata, so callers can attach whatever
// partial context they had at the point of failure.
func (s *Service) Fail(ctx context.Context, traceID, errMsg string, metadata json.RawMessage) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE traces
		SET status = ?, error = ?, updated_at = ?,
		    metadata = CASE WHEN ? != '' THEN ? ELSE metadata END
		WHERE id = ?`,
		string(StatusFailed), errMsg, time.Now().UTC().Format(timeFormat),
		string(metadata), string(metadata), traceID,
	)
	if err != nil {
		return fmt.Errorf("trace.Fail: update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("trace.Fail: rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.publish(eventbus.TopicTraceFailed, traceID)
	return nil
}

// GetByID returns a trace with its generations, oldest generation first.
func (s *Service) GetByID(ctx context.Context, id string) (*Trace, []Generation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, environment, status, input, output, error, metadata, created_at, updated_at
		FROM traces WHERE id = ?`, id)

	t, err := scanTrace(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("trace.GetByID: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trace_id, name, prompt_name, messages, content, model,
		       model_params, tokens_in, tokens_out, duration_ms,
		       started_at, ended_at, error, created_at
		FROM generations WHERE trace_id = ? ORDER BY created_at, id`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("trace.GetByID: query generations: %w", err)
	}
	defer rows.Close()

	var gens []Generation
	for rows.Next() {
		g, scanErr := scanGeneration(rows)
		if scanErr != nil {
			return nil, nil, fmt.Errorf("trace.GetByID: scan generation: %w", scanErr)
		}
		gens = append(gens, g)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("trace.GetByID: iterate generations: %w", err)
	}

	return t, gens, nil
}

// List returns traces newest first, without their generations.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Trace, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, environment, status, input, output, error, metadata, created_at, updated_at
		FROM traces ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("trace.List: query: %w", err)
	}
	defer rows.Close()

	traces := []Trace{}
	for rows.Next() {
		t, scanErr := scanTrace(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("trace.List: scan: %w", scanErr)
		}
		traces = append(traces, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trace.List: iterate: %w", err)
	}

	return traces, nil
}

// --- internal ---

func (s *Service) close(ctx context.Context, traceID string, status Status, output json.RawMessage) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE traces SET status = ?, output = ?, updated_at = ?
		WHERE id = ?`,
		string(status), string(output),
		time.Now().UTC().Format(timeFormat), traceID,
	)
	if err != nil {
		return fmt.Errorf("trace.close: update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("trace.close: rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) publish(topic, payload string) {
	if s.bus != nil {
		s.bus.Publish(topic, payload)
	}
}

// scanner abstracts sql.Row and sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanTrace(row scanner) (*Trace, error) {
	var (
		t                          Trace
		status                     string
		input, output, metadata    string
		createdAtRaw, updatedAtRaw string
	)
	err := row.Scan(
		&t.ID, &t.Name, &t.Environment, &status,
		&input, &output, &t.Error, &metadata,
		&createdAtRaw, &updatedAtRaw,
	)
	if err != nil {
		return nil, err
	}

	t.Status = Status(status)
	t.Input = json.RawMessage(input)
	t.Output = json.RawMessage(output)
	t.Metadata = json.RawMessage(metadata)
	t.CreatedAt = parseTime(createdAtRaw)
	t.UpdatedAt = parseTime(updatedAtRaw)
	return &t, nil
}

func scanGeneration(row scanner) (Generation, error) {
	var (
		g                    Generation
		messages, params     string
		startedRaw, endedRaw string
		createdAtRaw         string
	)
	err := row.Scan(
		&g.ID, &g.TraceID, &g.Name, &g.PromptName,
		&messages, &g.Content, &g.Model, &params,
		&g.TokensIn, &g.TokensOut, &g.DurationMS,
		&startedRaw, &endedRaw, &g.Error, &createdAtRaw,
	)
	if err != nil {
		return Generation{}, err
	}

	g.Messages = json.RawMessage(messages)
	g.ModelParams = json.RawMessage(params)
	g.StartedAt = parseTime(startedRaw)
	g.EndedAt = parseTime(endedRaw)
	g.CreatedAt = parseTime(createdAtRaw)
	return g, nil
}

// normalizeJSON returns raw when it is non-empty, fallback otherwise.
func normalizeJSON(raw, fallback json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return fallback
	}
	return raw
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

// parseTime tolerates both our RFC3339 writes and SQLite's datetime('now')
// defaults; unparseable values come back as the zero time.
func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(timeFormat, raw); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", raw); err == nil {
		return t
	}
	return time.Time{}
}
