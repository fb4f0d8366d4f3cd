package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"MarketRadar/internal/classify"
	"MarketRadar/internal/config"
	"MarketRadar/internal/domain"
	"MarketRadar/internal/infrastructure/llm"
	"MarketRadar/internal/infrastructure/push"
	"MarketRadar/internal/infrastructure/report"
	"MarketRadar/internal/infrastructure/source"
	"MarketRadar/internal/infrastructure/storage"
	"MarketRadar/internal/logging"
	"MarketRadar/internal/ports"
	"MarketRadar/internal/retry"
	"MarketRadar/internal/usecase"
)

// Application wires configuration to the ingestion and report pipelines.
// Lifecycle is: constructed before the first cycle, closed after the last.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	db         *sql.DB
	aggregator *usecase.Aggregator
	report     *usecase.ReportPipeline
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	httpClient, err := newHTTPClient(cfg.Network)
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open dedup store: %w", err)
	}
	store := storage.NewSQLiteStore(db)
	if err := store.Init(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init dedup store: %w", err)
	}
	if count, err := store.Count(ctx); err == nil {
		baseLogger.Info("dedup ledger loaded", "entries", count)
	}

	classifier := classify.New(cfg.Keywords.Exclude, []classify.Group{
		{Category: domain.CategoryFunding, Terms: cfg.Keywords.Funding},
		{Category: domain.CategoryStartup, Terms: cfg.Keywords.Startup},
		{Category: domain.CategoryTechnology, Terms: cfg.Keywords.Technology},
	})

	adapters := buildAdapters(cfg, httpClient, classifier, baseLogger)
	aggregator := usecase.NewAggregator(adapters, store, classifier,
		cfg.Scheduler.CycleTimeout(), baseLogger.With("component", "aggregator"))

	var pipeline *usecase.ReportPipeline
	if cfg.Gemini.APIKey != "" {
		var notifier ports.Notifier
		if cfg.Push.Token != "" {
			notifier = push.NewNotifier(cfg.Push, httpClient)
		}
		pipeline = usecase.NewReportPipeline(
			llm.NewGeminiClient(cfg.Gemini, nil),
			report.NewHTMLWriter(cfg.Report.OutputDir),
			notifier,
			retry.Policy{Attempts: cfg.Retry.Attempts, Delay: cfg.Retry.Delay()},
			baseLogger.With("component", "report"),
		)
	} else {
		baseLogger.Warn("gemini api key missing, reports disabled")
	}

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		db:         db,
		aggregator: aggregator,
		report:     pipeline,
	}, nil
}

// RunCycle executes one monitoring pass: ingest, then report if configured.
func (a *Application) RunCycle(ctx context.Context) error {
	cycle, err := a.aggregator.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("run cycle: %w", err)
	}

	if a.report != nil {
		if err := a.report.Deliver(ctx, cycle); err != nil {
			return fmt.Errorf("deliver report: %w", err)
		}
	}
	return nil
}

// Close releases the store handle.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func buildAdapters(cfg config.Config, httpClient *http.Client, classifier *classify.Classifier, logger *slog.Logger) []ports.SourceAdapter {
	var adapters []ports.SourceAdapter

	if len(cfg.GitHub.Keywords) > 0 {
		adapters = append(adapters, source.NewGitHubAdapter(httpClient, cfg.GitHub,
			logger.With("component", "source.github")))
	}

	if cfg.HackerNews.TopStories > 0 {
		adapters = append(adapters, source.NewHackerNewsAdapter(httpClient, cfg.HackerNews,
			classifier, logger.With("component", "source.hackernews")))
	}

	if cfg.XSearch.SessionCookie != "" && len(cfg.Keywords.Pain) > 0 {
		adapters = append(adapters, source.NewXSearchAdapter(httpClient, cfg.XSearch,
			cfg.Keywords.Pain, nil, logger.With("component", "source.x")))
	}

	var feeds []source.Feed
	for _, feed := range cfg.Feeds {
		if feed.HTML {
			adapters = append(adapters, source.NewPapersAdapter(httpClient, feed.Name,
				feed.URL, logger.With("component", "source.papers")))
			continue
		}
		feeds = append(feeds, source.Feed{
			Name:     feed.Name,
			URL:      feed.URL,
			Category: domain.Category(feed.Category),
		})
	}
	if len(feeds) > 0 {
		adapters = append(adapters, source.NewRSSAdapter(httpClient, feeds,
			logger.With("component", "source.rss")))
	}

	return adapters
}

func newHTTPClient(cfg config.NetworkConfig) (*http.Client, error) {
	client := &http.Client{Timeout: cfg.Timeout()}
	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url %s: %w", cfg.ProxyURL, err)
		}
		client.Transport = &http.Transport{Proxy: http.ProxyURL(proxy)}
	}
	return client, nil
}
