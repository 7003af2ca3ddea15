// Command irrigo runs the smart irrigation decision service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/agrisense/irrigo/internal/adapters/filewatcher"
	"github.com/agrisense/irrigo/internal/adapters/history"
	"github.com/agrisense/irrigo/internal/adapters/llm"
	"github.com/agrisense/irrigo/internal/adapters/loader"
	"github.com/agrisense/irrigo/internal/adapters/weather"
	"github.com/agrisense/irrigo/internal/config"
	"github.com/agrisense/irrigo/internal/domain/ports"
	"github.com/agrisense/irrigo/internal/domain/usecases"
	httpserver "github.com/agrisense/irrigo/internal/infrastructure/http"
)

func main() {
	configPath := flag.String("config", envOrDefault("IRRIGO_CONFIG", "config.yaml"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server exited", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	guidelineSource := loader.NewGuidelineLoader(cfg.Guidelines.Dir, logger)
	docs, err := guidelineSource.LoadGuidelines(ctx)
	if err != nil {
		return fmt.Errorf("loading guidelines: %w", err)
	}
	logger.Info("guidelines loaded",
		zap.Int("documents", len(docs)),
		zap.String("dir", cfg.Guidelines.Dir))

	retriever := usecases.NewRetriever(docs)

	historyStore, closeHistory, err := buildHistoryStore(cfg.History, logger)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer closeHistory()

	weatherClient := weather.NewClient(cfg.Weather.Provider, cfg.Weather.APIKey, logger)

	var llmService ports.LLMService
	llmModel := ""
	if cfg.LLM.APIKey != "" {
		gemini, err := llm.NewGeminiAdapter(ctx, cfg.LLM.APIKey, cfg.LLM.Model, logger)
		if err != nil {
			logger.Warn("Gemini unavailable, running rule-engine-only", zap.Error(err))
		} else {
			llmService = gemini
			llmModel = gemini.Model()
			if gemini.CheckConnection(ctx) {
				logger.Info("Gemini connected", zap.String("model", llmModel))
			} else {
				logger.Warn("Gemini connection check failed, responses will fall back to rule-based reasoning",
					zap.String("model", llmModel))
			}
		}
	} else {
		logger.Info("no GEMINI_API_KEY set, running rule-engine-only")
	}

	engine := usecases.NewEngine()
	planner := usecases.NewPlanner(
		engine,
		retriever,
		usecases.NewPromptBuilder(),
		historyStore,
		weatherClient,
		llmService,
		logger,
	)

	if cfg.Guidelines.Watch {
		if err := watchGuidelines(ctx, cfg.Guidelines.Dir, guidelineSource, retriever, logger); err != nil {
			logger.Warn("guideline hot-reload disabled", zap.Error(err))
		}
	}

	server := httpserver.NewServer(
		planner,
		engine,
		retriever,
		historyStore,
		weatherClient,
		llmModel,
		logger,
		cfg.Server.Addr,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)
	return server.Start(ctx)
}

// buildHistoryStore picks the configured backend. The file backend is
// the default; sqlite keeps the same rolling-window semantics in a
// database file.
func buildHistoryStore(cfg config.HistoryConfig, logger *zap.Logger) (ports.HistoryStore, func(), error) {
	switch cfg.Backend {
	case "sqlite":
		store, err := history.NewSQLiteStore(cfg.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case "", "file":
		return history.NewFileStore(cfg.Path, logger), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}

// watchGuidelines reloads the guideline corpus into the retriever
// whenever a .txt file in the directory changes.
func watchGuidelines(ctx context.Context, dir string, source ports.GuidelineSource, retriever *usecases.Retriever, logger *zap.Logger) error {
	watcher, err := filewatcher.NewFSNotifyWatcher([]string{".txt"}, logger)
	if err != nil {
		return err
	}

	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		watcher.Stop()
		return err
	}

	go func() {
		defer watcher.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				docs, err := source.LoadGuidelines(ctx)
				if err != nil {
					logger.Warn("guideline reload failed",
						zap.String("path", event.Path), zap.Error(err))
					continue
				}
				retriever.SetDocuments(docs)
				logger.Info("guidelines reloaded",
					zap.String("path", event.Path),
					zap.Int("documents", len(docs)))
			}
		}
	}()
	return nil
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
