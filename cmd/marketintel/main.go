// Package main wires together the market intelligence service binary.
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
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/seoscout/marketintel/internal/api"
	"github.com/seoscout/marketintel/internal/audit"
	"github.com/seoscout/marketintel/internal/clock/system"
	"github.com/seoscout/marketintel/internal/config"
	"github.com/seoscout/marketintel/internal/dataforseo"
	"github.com/seoscout/marketintel/internal/discovery"
	"github.com/seoscout/marketintel/internal/dispatcher"
	"github.com/seoscout/marketintel/internal/id/uuid"
	"github.com/seoscout/marketintel/internal/intel"
	"github.com/seoscout/marketintel/internal/logging"
	"github.com/seoscout/marketintel/internal/profiler"
	memorypublisher "github.com/seoscout/marketintel/internal/publisher/memory"
	pubsubpublisher "github.com/seoscout/marketintel/internal/publisher/pubsub"
	queueMemory "github.com/seoscout/marketintel/internal/queue/memory"
	"github.com/seoscout/marketintel/internal/searchatlas"
	"github.com/seoscout/marketintel/internal/siteprobe"
	"github.com/seoscout/marketintel/internal/storage/gcs"
	"github.com/seoscout/marketintel/internal/storage/local"
	memoryStorage "github.com/seoscout/marketintel/internal/storage/memory"
	"github.com/seoscout/marketintel/internal/storage/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildReportStore(ctx, cfg)
	if err != nil {
		logger.Fatal("report store init failed", zap.Error(err))
	}
	defer closeStore()

	artifacts, err := buildArtifactStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("artifact store init failed", zap.Error(err))
	}

	publisher, err := buildPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("publisher init failed", zap.Error(err))
	}

	queue := queueMemory.NewQueue(cfg.Audit.QueueDepth)
	clock := system.New()
	idGen := uuid.New()

	primary := dataforseo.New(dataforseo.Config{
		BaseURL:  cfg.DataForSEO.BaseURL,
		Login:    cfg.DataForSEO.Login,
		Password: cfg.DataForSEO.Password,
		Timeout:  cfg.ProviderTimeout(),
	}, logger.Named("dataforseo"))

	var fallback intel.FallbackSource
	if cfg.SearchAtlas.APIKey != "" {
		fallback = searchatlas.New(searchatlas.Config{
			BaseURL: cfg.SearchAtlas.BaseURL,
			APIKey:  cfg.SearchAtlas.APIKey,
		}, logger.Named("searchatlas"))
	}

	disc := discovery.New(primary, discovery.Config{
		PerLocale:      cfg.Audit.PerLocale,
		MaxCompetitors: cfg.Audit.MaxCompetitors,
	}, logger.Named("discovery"))
	prof := profiler.New(primary, fallback, logger.Named("profiler")).
		WithKeywordLimit(cfg.Audit.KeywordLimit)
	prober := siteprobe.New(siteprobe.Config{}, logger.Named("siteprobe"))

	engine := audit.New(primary, disc, prof, prober, clock, audit.Config{
		NearbyLocales: cfg.Audit.NearbyLocales,
		SeedCount:     cfg.Audit.SeedCount,
	}, logger.Named("audit"))

	workerCfg := audit.WorkerConfig{
		ContentType:    cfg.Storage.ContentType,
		ArtifactPrefix: cfg.Storage.Prefix,
		Topic:          cfg.PubSub.TopicName,
	}
	var workers []*audit.Worker
	for i := 0; i < cfg.Audit.Workers; i++ {
		workers = append(workers, audit.NewWorker(
			queue,
			store,
			artifacts,
			publisher,
			engine,
			clock,
			workerCfg,
			logger.Named("worker").With(zap.Int("index", i)),
		))
	}
	dispatch := dispatcher.New(queue, workers)

	apiServer := api.NewServer(store, dispatch, idGen, clock, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("dispatcher started", zap.Int("workers", cfg.Audit.Workers))
		dispatch.Run(ctx)
	}()

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	queue.Close()
	logger.Info("shutdown complete")
}

func buildReportStore(ctx context.Context, cfg config.Config) (intel.ReportStore, func(), error) {
	if cfg.Database.DSN == "" {
		return memoryStorage.NewReportStore(), func() {}, nil
	}
	store, err := postgres.NewReportStore(ctx, postgres.ReportStoreConfig{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime(),
	})
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func buildArtifactStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (intel.ArtifactStore, error) {
	if cfg.Storage.GCSBucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		return gcs.New(client, gcs.Config{Bucket: cfg.Storage.GCSBucket})
	}
	if cfg.Storage.LocalDir != "" {
		return local.New(local.Config{BaseDir: cfg.Storage.LocalDir})
	}
	logger.Info("no bucket or local directory configured, storing artifacts in memory")
	return memoryStorage.NewArtifactStore(), nil
}

func buildPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (intel.Publisher, error) {
	if cfg.PubSub.ProjectID == "" {
		logger.Info("no pubsub project configured, using in-memory publisher")
		return memorypublisher.New(), nil
	}
	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return pubsubpublisher.New(client)
}
