package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/comigor/ideavault/internal/agent"
	"github.com/comigor/ideavault/internal/config"
	"github.com/comigor/ideavault/internal/history"
	"github.com/comigor/ideavault/internal/llm"
	"github.com/comigor/ideavault/internal/logger"
	"github.com/comigor/ideavault/internal/server"
	"github.com/comigor/ideavault/internal/session"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.L.Debug("no .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink := history.Open(ctx, cfg.Database)
	defer func() {
		if err := sink.Close(); err != nil {
			logger.L.Error("failed to close submissions store", "error", err)
		}
	}()
	if err := sink.EnsureSchema(ctx); err != nil {
		logger.L.Warn("failed to create submissions schema", "error", err)
	}

	// Initialize LLM client
	if cfg.LLM.APIKey == "" {
		logger.L.Warn("no API key configured; completions will fail")
	}
	completer := llm.NewCompleter(llm.NewClient(cfg.LLM))
	a := agent.New(completer, sink, cfg.LLM)

	sessions := session.NewRegistry(agent.SystemPrompt, cfg.Session.TTL)
	go sessions.Run(ctx, cfg.Session.SweepInterval)

	srv, err := server.New(cfg, sessions, a)
	if err != nil {
		logger.L.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	// replies stream for as long as the model takes, so no WriteTimeout
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.L.Info("starting server", "address", httpServer.Addr, "model", cfg.LLM.Model, "database", cfg.Database.Driver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Error("failed to start server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	stop()

	logger.L.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.L.Error("server forced to shutdown", "error", err)
	}
}
