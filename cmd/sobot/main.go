// sobot - social bot content generation service

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sobot-ai/sobot/internal/api"
	"github.com/sobot-ai/sobot/internal/domain/botchat"
	"github.com/sobot-ai/sobot/internal/domain/botpost"
	"github.com/sobot-ai/sobot/internal/domain/trace"
	"github.com/sobot-ai/sobot/internal/infra/config"
	"github.com/sobot-ai/sobot/internal/infra/eventbus"
	"github.com/sobot-ai/sobot/internal/infra/llm"
	"github.com/sobot-ai/sobot/internal/infra/sqlite"
	"github.com/sobot-ai/sobot/internal/server"
	"github.com/sobot-ai/sobot/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("sobot", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")
	envFile := fs.String("env", "", "Path to a .env file (optional)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	if fs.Arg(0) == "serve" {
		if err := serve(*envFile); err != nil {
			fmt.Fprintf(out, "error: %v\n", err) //nolint:errcheck
			return 1
		}
		return 0
	}

	// Default: print version
	fmt.Fprintln(out, version.String()) //nolint:errcheck
	return 0
}

// serve wires the full service: config, storage, model backend, domain
// services, router, and the HTTP server with graceful shutdown.
func serve(envFile string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load(envFile)

	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o750); err != nil {
			return fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	if err := sqlite.MigrateUp(db); err != nil {
		db.Close()
		return err
	}

	var engine llm.Engine
	if cfg.BackendMode == llm.ModeLocal {
		engine = llm.NewLlamaServerEngine(cfg.LlamaServerURL)
	}
	backend, err := llm.New(cfg.BackendConfig(), engine)
	if err != nil {
		db.Close()
		return err
	}

	persona, err := botpost.LoadPersona(cfg.PersonaPath)
	if err != nil {
		db.Close()
		return err
	}

	bus := eventbus.New()
	go logTraceEvents(bus, logger)

	recorder := trace.NewService(db, bus, string(cfg.BackendMode))
	deps := api.Deps{
		BotPosts: botpost.NewService(backend, recorder, persona, logger),
		BotChats: botchat.NewService(logger),
		Traces:   recorder,
	}

	srv := server.New(api.NewRouter(deps), db, server.Config{
		Host:         cfg.HTTPHost,
		Port:         cfg.HTTPPort,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}, logger)

	logger.Info("sobot starting",
		"version", version.Version,
		"backend_mode", string(cfg.BackendMode),
		"model", cfg.ModelName,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(context.Background())
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		logger.Info("signal received", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
	}

	return nil
}

// logTraceEvents consumes trace lifecycle events and logs them.
func logTraceEvents(bus *eventbus.Bus, logger *slog.Logger) {
	completed := bus.Subscribe(eventbus.TopicTraceCompleted)
	failed := bus.Subscribe(eventbus.TopicTraceFailed)
	recorded := bus.Subscribe(eventbus.TopicGenerationRecorded)

	for {
		select {
		case evt := <-completed:
			logger.Info("trace completed", "trace_id", evt.Payload)
		case evt := <-failed:
			logger.Warn("trace failed", "trace_id", evt.Payload)
		case evt := <-recorded:
			logger.Debug("generation recorded", "generation_id", evt.Payload)
		}
	}
}

func printHelp(out io.Writer) {
	helpText := `sobot - social bot content generation service

Usage:
  sobot [options] [command]

Options:
  --version    Show version information
  --help       Show this help message
  --env PATH   Load environment variables from a .env file

Commands:
  serve        Start the HTTP server

Examples:
  sobot --version
  sobot serve
  sobot --env .env.local serve`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
