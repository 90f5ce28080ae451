// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ayzen-labs/leadminer/internal/ai"
	"github.com/ayzen-labs/leadminer/internal/api"
	"github.com/ayzen-labs/leadminer/internal/chat"
	"github.com/ayzen-labs/leadminer/internal/collect"
	"github.com/ayzen-labs/leadminer/internal/config"
	"github.com/ayzen-labs/leadminer/internal/database"
	"github.com/ayzen-labs/leadminer/internal/fetcher"
	"github.com/ayzen-labs/leadminer/internal/logging"
	"github.com/ayzen-labs/leadminer/internal/notify"
	"github.com/ayzen-labs/leadminer/internal/pipeline"
	"github.com/ayzen-labs/leadminer/internal/progress"
	"github.com/ayzen-labs/leadminer/internal/progress/sinks"
	"github.com/ayzen-labs/leadminer/internal/queue"
	"github.com/ayzen-labs/leadminer/internal/registry"
	"github.com/ayzen-labs/leadminer/internal/scraper"
	"github.com/ayzen-labs/leadminer/internal/search"
	"github.com/ayzen-labs/leadminer/internal/storage"
)

// App wires every long-lived service for one process. Optional backends
// (Telegram, Postgres, GCS, Pub/Sub, the AI client) degrade to no-ops when
// unconfigured so a bare binary still runs complete pipelines.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Hub      *progress.Hub
	Registry *registry.Registry
	Server   *api.Server

	database database.Provider
	storage  storage.Provider
	queue    queue.Provider
}

// New builds the container. It fails fast when a configured backend cannot
// be reached.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if err := os.MkdirAll(cfg.Scraper.ResultsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}

	a := &App{Config: cfg, Logger: logger}
	if err := a.initProviders(ctx); err != nil {
		return nil, err
	}

	store := sinks.NewStoreSink()
	promSink, err := sinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("init progress metrics: %w", err)
	}
	a.Hub = progress.NewHub(
		progress.Config{Logger: logger},
		sinks.NewLogSink(logger),
		promSink,
		store,
	)

	runner := pipeline.New(pipeline.Deps{
		Search:  a.searchProvider(),
		Fetcher: a.fetcher(),
		AI:      a.aiClient(),
		Notify:  a.notifier(),
		Logger:  logger,
		CollectOpts: []collect.Option{
			collect.WithSearchDelay(cfg.SearchDelay()),
		},
	})

	a.Registry = registry.New(runner, a.Hub, store, logger,
		registry.WithFinishedHook(a.persistRun),
	)

	a.Server = api.NewServer(a.Registry, a.assistant(), api.Config{
		ResultsDir:     cfg.Scraper.ResultsDir,
		APIKey:         cfg.Server.APIKey,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout(),
	}, logger)

	return a, nil
}

func (a *App) initProviders(ctx context.Context) error {
	cfg := a.Config

	a.database = database.NoOpProvider{}
	if cfg.DB.DSN != "" {
		db, err := database.NewPostgresProvider(ctx, cfg.DB.DSN)
		if err != nil {
			return fmt.Errorf("init database: %w", err)
		}
		a.Logger.Info("run history database connected")
		a.database = db
	}

	a.storage = storage.NoOpProvider{}
	if cfg.Storage.GCSBucket != "" {
		gcs, err := storage.NewGCSProvider(ctx, cfg.Storage.GCSBucket, a.Logger)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		a.Logger.Info("artifact mirroring enabled", zap.String("bucket", cfg.Storage.GCSBucket))
		a.storage = gcs
	}

	a.queue = queue.NoOpProvider{}
	if cfg.PubSub.ProjectID != "" {
		ps, err := queue.NewPubSubProvider(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName, a.Logger)
		if err != nil {
			return fmt.Errorf("init queue: %w", err)
		}
		a.Logger.Info("run event publishing enabled", zap.String("topic", cfg.PubSub.TopicName))
		a.queue = ps
	}

	return nil
}

func (a *App) searchProvider() scraper.SearchProvider {
	return search.NewDuckDuckGo(search.Config{
		BaseURL:   a.Config.Scraper.SearchBaseURL,
		Timeout:   a.Config.FetchTimeout(),
		QPS:       a.Config.Scraper.SearchQPS,
		UserAgent: a.Config.Scraper.UserAgent,
	})
}

func (a *App) fetcher() scraper.Fetcher {
	return fetcher.New(fetcher.Config{Timeout: a.Config.FetchTimeout()})
}

func (a *App) aiClient() ai.Client {
	if a.Config.AI.APIKey == "" {
		return nil
	}
	return ai.NewClient(a.Config.AI.APIKey)
}

func (a *App) notifier() scraper.Notifier {
	if a.Config.Telegram.BotToken == "" {
		return nil
	}
	tg, err := notify.NewTelegram(a.Config.Telegram.BotToken, a.Config.Telegram.ChatID, a.Logger)
	if err != nil {
		a.Logger.Warn("telegram disabled", zap.Error(err))
		return nil
	}
	a.Logger.Info("telegram notifications enabled")
	return tg
}

func (a *App) assistant() *chat.Assistant {
	return chat.NewAssistant(a.aiClient(), a.Config.AI.Model)
}

// persistRun records each terminal run in the optional backends. It runs on
// the run's goroutine after the summary is final.
func (a *App) persistRun(ctx context.Context, id string, cfg scraper.RunConfig, summary scraper.RunSummary) {
	finished := time.Now().UTC()

	if err := a.database.SaveRun(ctx, database.RunRecord{
		ID:         id,
		Config:     cfg,
		Summary:    summary,
		FinishedAt: finished,
	}); err != nil {
		a.Logger.Warn("save run history", zap.String("run_id", id), zap.Error(err))
	}

	storage.MirrorArtifacts(ctx, a.storage, a.Logger, id, summary.Artifacts)

	if err := a.queue.Publish(ctx, queue.RunEvent{
		RunID:      id,
		UserName:   cfg.UserName,
		Outcome:    string(summary.Outcome),
		Contacts:   summary.Contacts,
		FinishedAt: finished,
	}); err != nil {
		a.Logger.Warn("publish run event", zap.String("run_id", id), zap.Error(err))
	}
}

// Close shuts services down in dependency order: runs first, then the hub
// that carries their progress, then the outbound providers.
func (a *App) Close(ctx context.Context) {
	if err := a.Registry.Shutdown(ctx); err != nil {
		a.Logger.Warn("registry shutdown", zap.Error(err))
	}
	if err := a.Hub.Close(ctx); err != nil {
		a.Logger.Warn("progress hub shutdown", zap.Error(err))
	}
	if err := a.database.Close(); err != nil {
		a.Logger.Warn("close database", zap.Error(err))
	}
	if err := a.queue.Close(); err != nil {
		a.Logger.Warn("close queue", zap.Error(err))
	}
	_ = a.Logger.Sync()
}
