// Package app wires the acquisition pipelines from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sayouzone/sayou-healthcare/internal/checkpoint"
	"github.com/sayouzone/sayou-healthcare/internal/config"
	"github.com/sayouzone/sayou-healthcare/internal/crawler"
	"github.com/sayouzone/sayou-healthcare/internal/deliver"
	"github.com/sayouzone/sayou-healthcare/internal/fetcher"
	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
	"github.com/sayouzone/sayou-healthcare/internal/logging"
	"github.com/sayouzone/sayou-healthcare/internal/metrics"
	"github.com/sayouzone/sayou-healthcare/internal/notify"
	"github.com/sayouzone/sayou-healthcare/internal/scheduler"
	"github.com/sayouzone/sayou-healthcare/internal/storage"
	"github.com/sayouzone/sayou-healthcare/internal/warehouse"
)

// App holds the wired pipeline dependencies.
type App struct {
	Cfg       config.Config
	Logger    *zap.Logger
	Deliverer *deliver.Deliverer

	gcsClient *gcstorage.Client
	warehouse healthdata.Warehouse
	notifier  healthdata.Notifier
	crawlers  map[healthdata.SourceKind]crawler.Crawler
}

// Build creates the application's dependencies from configuration.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	metrics.Init()

	app := &App{Cfg: cfg, Logger: logger}
	logger.Info("building application dependencies",
		zap.String("storage", cfg.Storage.Provider),
		zap.String("warehouse", cfg.Warehouse.Provider),
	)

	blobs, err := app.setupStorage(ctx)
	if err != nil {
		return nil, err
	}
	if err := app.setupWarehouse(ctx); err != nil {
		return nil, err
	}
	if err := app.setupNotifier(ctx); err != nil {
		return nil, err
	}

	var checkpoints *checkpoint.Writer
	if cfg.Checkpoint.Dir != "" {
		checkpoints, err = checkpoint.NewWriter(cfg.Checkpoint.Dir)
		if err != nil {
			return nil, fmt.Errorf("checkpoint writer init failed: %w", err)
		}
	}

	app.Deliverer = deliver.New(blobs, app.warehouse, checkpoints, app.notifier, logger.Named("deliver"))
	app.setupCrawlers()
	return app, nil
}

func (a *App) setupStorage(ctx context.Context) (healthdata.BlobStore, error) {
	switch a.Cfg.Storage.Provider {
	case "gcs":
		a.Logger.Info("using GCS storage provider", zap.String("bucket", a.Cfg.Storage.GCSBucket))
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		a.gcsClient = client
		store, err := storage.NewGCS(client, storage.GCSConfig{
			Bucket: a.Cfg.Storage.GCSBucket,
			Prefix: a.Cfg.Storage.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
		return store, nil
	case "local":
		a.Logger.Info("using local storage provider", zap.String("dir", a.Cfg.Storage.LocalDir))
		return storage.NewLocal(a.Cfg.Storage.LocalDir)
	default:
		a.Logger.Info("using in-memory storage provider")
		return storage.NewMemory(), nil
	}
}

func (a *App) setupWarehouse(ctx context.Context) error {
	switch a.Cfg.Warehouse.Provider {
	case "bigquery":
		a.Logger.Info("using BigQuery warehouse",
			zap.String("project", a.Cfg.Warehouse.ProjectID),
			zap.String("dataset", a.Cfg.Warehouse.Dataset),
		)
		wh, err := warehouse.NewBigQuery(ctx, a.Cfg.Warehouse.ProjectID, a.Cfg.Warehouse.Dataset)
		if err != nil {
			return fmt.Errorf("bigquery warehouse init failed: %w", err)
		}
		a.warehouse = wh
	case "postgres":
		a.Logger.Info("using Postgres warehouse")
		wh, err := warehouse.NewPostgres(ctx, a.Cfg.Warehouse.PostgresDSN)
		if err != nil {
			return fmt.Errorf("postgres warehouse init failed: %w", err)
		}
		a.warehouse = wh
	default:
		a.Logger.Info("using noop warehouse")
		a.warehouse = warehouse.NewNoop()
	}
	return nil
}

func (a *App) setupNotifier(ctx context.Context) error {
	if !a.Cfg.Notify.Enabled {
		a.notifier = notify.NewNoop()
		return nil
	}
	a.Logger.Info("using Pub/Sub notifier", zap.String("topic", a.Cfg.Notify.Topic))
	n, err := notify.NewPubSub(ctx, a.Cfg.Notify.ProjectID, a.Cfg.Notify.Topic, "healthcare-crawler")
	if err != nil {
		return fmt.Errorf("pubsub notifier init failed: %w", err)
	}
	a.notifier = n
	return nil
}

func (a *App) setupCrawlers() {
	deps := crawler.Deps{Logger: a.Logger.Named("crawler")}
	a.crawlers = map[healthdata.SourceKind]crawler.Crawler{
		healthdata.SourceNedrug: crawler.NewNedrug(crawler.NedrugConfig{
			ExcelURL: a.Cfg.Sources.Nedrug.ExcelURL,
			PageSize: a.Cfg.Sources.Nedrug.PageSize,
		}, a.newFetcher(healthdata.SourceNedrug, healthdata.ArtifactSpreadsheet), deps),

		healthdata.SourceHiraDownload: crawler.NewHiraDownload(crawler.HiraDownloadConfig{
			ListingURL:  a.Cfg.Sources.Hira.ListingURL,
			DownloadURL: a.Cfg.Sources.Hira.DownloadURL,
		}, a.newFetcher(healthdata.SourceHiraDownload, healthdata.ArtifactSpreadsheet), deps),

		healthdata.SourceHiraOpenData: crawler.NewHiraOpenData(crawler.HiraOpenDataConfig{
			PageURL:   a.Cfg.Sources.Hira.OpenDataURL,
			UploadURL: a.Cfg.Sources.Hira.UploadURL,
		}, a.newFetcher(healthdata.SourceHiraOpenData, healthdata.ArtifactArchive), deps),

		healthdata.SourceHealth: crawler.NewHealth(crawler.HealthConfig{
			SearchURL: a.Cfg.Sources.Health.SearchURL,
			PageSize:  a.Cfg.Sources.Health.PageSize,
		}, a.newFetcher(healthdata.SourceHealth, healthdata.ArtifactMarkup), deps),
	}
}

func (a *App) newFetcher(source healthdata.SourceKind, kind healthdata.ArtifactKind) *fetcher.Fetcher {
	return fetcher.New(fetcher.Config{
		Source:      source,
		UserAgent:   a.Cfg.HTTP.UserAgent,
		Timeout:     a.Cfg.Timeout(),
		Delay:       a.Cfg.Delay(),
		MaxRetries:  a.Cfg.HTTP.MaxRetries,
		BackoffBase: time.Duration(a.Cfg.HTTP.BackoffInitialMs) * time.Millisecond,
		BackoffMax:  time.Duration(a.Cfg.HTTP.BackoffMaxMs) * time.Millisecond,
		Kind:        kind,
	}, a.Logger.Named("fetcher"))
}

// Crawler returns the pipeline for one source.
func (a *App) Crawler(source healthdata.SourceKind) (crawler.Crawler, error) {
	c, ok := a.crawlers[source]
	if !ok {
		return nil, fmt.Errorf("unknown source %q", source)
	}
	return c, nil
}

// Crawlers lists every wired pipeline in a stable order.
func (a *App) Crawlers() []crawler.Crawler {
	order := []healthdata.SourceKind{
		healthdata.SourceNedrug,
		healthdata.SourceHiraDownload,
		healthdata.SourceHiraOpenData,
		healthdata.SourceHealth,
	}
	out := make([]crawler.Crawler, 0, len(order))
	for _, source := range order {
		out = append(out, a.crawlers[source])
	}
	return out
}

// ScheduleJobs pairs each pipeline with its configured cadence.
func (a *App) ScheduleJobs() []scheduler.Job {
	return []scheduler.Job{
		{Crawler: a.crawlers[healthdata.SourceNedrug], Cron: a.Cfg.Schedule.Nedrug},
		{Crawler: a.crawlers[healthdata.SourceHiraDownload], Cron: a.Cfg.Schedule.Hira},
		{Crawler: a.crawlers[healthdata.SourceHiraOpenData], Cron: a.Cfg.Schedule.HiraOpenData},
		{Crawler: a.crawlers[healthdata.SourceHealth], Cron: a.Cfg.Schedule.Health},
	}
}

// ServeMetrics runs the metrics/health listener until ctx is canceled.
func (a *App) ServeMetrics(ctx context.Context) error {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              a.Cfg.Metrics.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("metrics listener started", zap.String("addr", a.Cfg.Metrics.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close gracefully shuts down the application's clients.
func (a *App) Close() {
	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			a.Logger.Warn("notifier close failed", zap.Error(err))
		}
	}
	if a.warehouse != nil {
		if err := a.warehouse.Close(); err != nil {
			a.Logger.Warn("warehouse close failed", zap.Error(err))
		}
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			a.Logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}
