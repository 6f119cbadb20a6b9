// tracedump: offline inspection of the sobot trace store.
// Reads the SQLite database directly and prints traces as YAML, so
// generation history can be reviewed without the service running.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sobot-ai/sobot/internal/domain/trace"
	"github.com/sobot-ai/sobot/internal/infra/sqlite"
)

type dumpTrace struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Status      string `yaml:"status"`
	Input       string `yaml:"input,omitempty"`
	Output      string `yaml:"output,omitempty"`
	Error       string `yaml:"error,omitempty"`
	Metadata    string `yaml:"metadata,omitempty"`
	CreatedAt   string `yaml:"created_at"`
}

type dumpGeneration struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	PromptName string `yaml:"prompt_name,omitempty"`
	Content    string `yaml:"content,omitempty"`
	Model      string `yaml:"model,omitempty"`
	Params     string `yaml:"model_params,omitempty"`
	DurationMS int64  `yaml:"duration_ms"`
	Error      string `yaml:"error,omitempty"`
}

type dumpEntry struct {
	Trace       dumpTrace        `yaml:"trace"`
	Generations []dumpGeneration `yaml:"generations,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("tracedump", flag.ContinueOnError)
	fs.SetOutput(errOut)

	dbPath := fs.String("db", "data/sobot.sqlite", "Path to the trace database")
	traceID := fs.String("id", "", "Dump a single trace by id (with generations)")
	limit := fs.Int("limit", 20, "Number of traces to dump (newest first)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	db, err := sqlite.NewDB(*dbPath)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err) //nolint:errcheck
		return 1
	}
	defer db.Close()

	svc := trace.NewService(db, nil, "")
	ctx := context.Background()

	var entries []dumpEntry
	if *traceID != "" {
		tr, gens, getErr := svc.GetByID(ctx, *traceID)
		if getErr != nil {
			fmt.Fprintf(errOut, "error: %v\n", getErr) //nolint:errcheck
			return 1
		}
		entries = []dumpEntry{toDumpEntry(*tr, gens)}
	} else {
		traces, listErr := svc.List(ctx, *limit, 0)
		if listErr != nil {
			fmt.Fprintf(errOut, "error: %v\n", listErr) //nolint:errcheck
			return 1
		}
		for _, tr := range traces {
			entries = append(entries, toDumpEntry(tr, nil))
		}
	}

	raw, err := yaml.Marshal(entries)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err) //nolint:errcheck
		return 1
	}
	fmt.Fprint(out, string(raw)) //nolint:errcheck
	return 0
}

func toDumpEntry(tr trace.Trace, gens []trace.Generation) dumpEntry {
	entry := dumpEntry{Trace: dumpTrace{
		ID:          tr.ID,
		Name:        tr.Name,
		Environment: tr.Environment,
		Status:      string(tr.Status),
		Input:       string(tr.Input),
		Output:      string(tr.Output),
		Error:       tr.Error,
		Metadata:    string(tr.Metadata),
		CreatedAt:   tr.CreatedAt.Format(time.RFC3339),
	}}
	for _, g := range gens {
		entry.Generations = append(entry.Generations, dumpGeneration{
			ID:         g.ID,
			Name:       g.Name,
			PromptName: g.PromptName,
			Content:    g.Content,
			Model:      g.Model,
			Params:     string(g.ModelParams),
			DurationMS: g.DurationMS,
			Error:      g.Error,
		})
	}
	return entry
}
