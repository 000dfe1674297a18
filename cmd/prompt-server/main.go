// cmd/prompt-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"art-of-prompting/internal/api"
	"art-of-prompting/internal/common/config"
	"art-of-prompting/internal/common/logger"
	"art-of-prompting/internal/common/observability"
	"art-of-prompting/internal/comparison"
	"art-of-prompting/internal/modelclient"
	"art-of-prompting/internal/models"
	"art-of-prompting/internal/prompt"
	"art-of-prompting/internal/report"
	"art-of-prompting/internal/rolestore"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting prompt server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("database", cfg.Database.Driver),
		zap.String("inference", cfg.Inference.BaseURL),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Role store with retry ---
	var backend *rolestore.Backend
	err = retryWithBackoff(func() error {
		var err error
		backend, err = rolestore.OpenBackend(ctx, cfg, log)
		return err
	}, 10, time.Second, zapLog, "Database connection")
	if err != nil {
		zapLog.Fatal("database failed after retries", zap.Error(err))
	}
	defer backend.Close()
	zapLog.Info("Role store ready", zap.Bool("cache", backend.Cache != nil))

	// --- Models ---
	mcfg := modelclient.NewConfig(cfg.Inference)
	generator, err := modelclient.New(mcfg, log)
	if err != nil {
		zapLog.Fatal("model client init failed", zap.Error(err))
	}

	modelList := make([]models.ModelInfo, 0, len(cfg.Inference.Models))
	for _, m := range cfg.Inference.Models {
		modelList = append(modelList, models.ModelInfo{ID: m.ID, Label: m.Label})
	}
	orchestrator := comparison.NewOrchestrator(generator, modelList, log,
		comparison.WithMaxConcurrency(cfg.Inference.MaxConcurrency),
		comparison.WithRecorder(obs),
	)

	// --- Reports ---
	renderer, err := report.NewRenderer(cfg.Report)
	if err != nil {
		zapLog.Fatal("report renderer init failed", zap.Error(err))
	}
	reports := report.NewGenerator(cfg.Report, renderer, log)

	// --- HTTP ---
	deps := api.Dependencies{
		Roles:    backend.Reader(),
		Composer: prompt.NewComposer(cfg.Prompt.ClosingInstruction),
		Comparer: orchestrator,
		Reports:  reports,
		Database: backend.SQL,
		Formats:  cfg.Prompt.Formats,
		Styles:   cfg.Prompt.Styles,
		Logger:   log,
	}
	// only the ollama backend can list installed models
	if lister, ok := generator.(modelclient.ModelLister); ok {
		deps.Inference = lister
	}

	server := api.NewServer(api.NewHandler(deps),
		api.WithServerConfig(cfg.Server),
		api.WithLogger(zapLog),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		zapLog.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	if err := server.Shutdown(context.Background()); err != nil {
		zapLog.Error("Error during HTTP shutdown", zap.Error(err))
	}
	zapLog.Info("Prompt server stopped gracefully")
}
