package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insightviz/internal/api"
	"insightviz/internal/config"
	"insightviz/internal/llm"
	"insightviz/internal/logging"
	"insightviz/internal/report"
	"insightviz/internal/service"

	"github.com/spf13/cobra"
)

const shutdownGrace = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return serve(cmd.Context(), cfg)
}

func newModel(cfg *config.Config) (*llm.Service, error) {
	return llm.NewService(llm.Config{
		Provider:         cfg.Provider,
		APIKey:           cfg.APIKey,
		Model:            cfg.Model,
		GeminiBaseURL:    cfg.GeminiBaseURL,
		OllamaBaseURL:    cfg.OllamaBaseURL,
		Timeout:          cfg.ModelTimeout(),
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerTimeout:   cfg.BreakerTimeout(),
	})
}

func serve(ctx context.Context, cfg *config.Config) error {
	model, err := newModel(cfg)
	if err != nil {
		return err
	}
	insights := service.NewInsightService(model, service.NewExportService(nil), report.NewAssembler(nil))
	handler := api.NewHandler(insights, model, cfg.MaxBodyBytes())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(handler, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		// Rendering happens after the model answers, so allow for both.
		WriteTimeout: cfg.ModelTimeout() + 2*time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info().
			Add(logging.Component("server")).
			Add(logging.Str("addr", srv.Addr)).
			Add(logging.Str("provider", model.Provider())).
			Add(logging.Str("model", model.Model())).
			Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info().Add(logging.Component("server")).Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
