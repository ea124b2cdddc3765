package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/procurely/negotiator/catalog"
	"github.com/procurely/negotiator/config"
	"github.com/procurely/negotiator/httpapi"
	"github.com/procurely/negotiator/llm"
	"github.com/procurely/negotiator/negotiation"
	"github.com/procurely/negotiator/observability"
)

func main() {
	var (
		envFile  = flag.String("env-file", ".env", "Path to env file (ignored when absent)")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging to stderr")
		eventLog = flag.String("event-log", "", "Append workflow events as JSON lines to this file")
	)
	flag.Parse()

	// Missing env file is fine; real deployments set the environment directly.
	_ = godotenv.Load(*envFile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var observer observability.Observer = observability.NewSlogObserver(logger)
	if *eventLog != "" {
		file, err := os.OpenFile(*eventLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("Failed to open event log: %v", err)
		}
		defer file.Close()
		fileLogger := slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
		observer = observability.NewMultiObserver(observer, observability.NewSlogObserver(fileLogger))
	}

	llmClient, err := buildLLMClient(cfg)
	if err != nil {
		log.Fatalf("Failed to build LLM client: %v", err)
	}

	vendorAPI := catalog.NewHTTPClient(cfg.VendorBaseURL, cfg.VendorTeamID, cfg.VendorTimeout)

	workflow, err := negotiation.New(
		negotiation.Config{
			MaxParallelVendors: cfg.MaxParallelVendors,
			SecondRoundLimit:   cfg.SecondRoundLimit,
		},
		vendorAPI,
		llmClient,
		negotiation.WithObserver(observer),
	)
	if err != nil {
		log.Fatalf("Failed to build workflow: %v", err)
	}

	api := httpapi.New(workflow, cfg.Environment, httpapi.WithObserver(observer))
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("negotiator listening", "addr", cfg.HTTPAddr, "environment", cfg.Environment)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}

func buildLLMClient(cfg *config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.LLMTimeout), nil
	case config.ProviderGemini:
		return llm.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, errors.New("unknown LLM provider " + cfg.LLMProvider)
	}
}
