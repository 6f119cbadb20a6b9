// Package server manages the HTTP server lifecycle.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns default HTTP server configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server wraps the HTTP server and owns the database connection's shutdown.
type Server struct {
	config Config
	db     *sql.DB
	http   *http.Server
	logger *slog.Logger
}

// New creates an HTTP server serving handler. logger may be nil.
func New(handler http.Handler, db *sql.DB, config Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		config: config,
		db:     db,
		http:   httpServer,
		logger: logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(_ context.Context) error {
	s.logger.Info("starting HTTP server", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server and closes the database.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("database close error: %w", err)
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}
