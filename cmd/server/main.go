package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/api"
	"github.com/andresuchdata/budget-engine/backend-go/internal/cache"
	"github.com/andresuchdata/budget-engine/backend-go/internal/config"
	"github.com/andresuchdata/budget-engine/backend-go/internal/drive"
	"github.com/andresuchdata/budget-engine/backend-go/internal/export"
	"github.com/andresuchdata/budget-engine/backend-go/internal/pipeline"
	"github.com/andresuchdata/budget-engine/backend-go/internal/pipeline/movements"
	"github.com/andresuchdata/budget-engine/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/budget-engine/backend-go/internal/service"
	"github.com/andresuchdata/budget-engine/backend-go/internal/storage"
	"github.com/andresuchdata/budget-engine/backend-go/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg := config.Load()

	logger.SetLevel(cfg.Server.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if _, err := postgres.Migrate(ctx, db.DB.DB); err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	resultCache, err := cache.NewResultCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Result cache unavailable, continuing without it")
		resultCache = cache.NewNoopResultCache()
	}

	movementRepo := postgres.NewMovementRepository(db)
	budgets := service.NewBudgetService(movementRepo, resultCache, cfg.Forecast, cfg.Compliance)
	shelves := service.NewShelfService(movementRepo, resultCache, cfg.Forecast, cfg.Shelf)

	var publisher *export.Publisher
	if cfg.Storage.Enabled {
		store, err := storage.NewMinioClient(ctx, cfg.Storage)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Object storage unavailable, exports will not be published")
		} else {
			publisher = export.NewPublisher(store, cfg.Storage.ExportPrefix)
		}
	}

	runs := pipeline.NewRepository(db.DB)
	orchestrator := pipeline.NewOrchestrator(runs, movementRepo, ingestConfig(cfg)).
		OnComplete(resultCache.InvalidateAll)
	movementPipeline := movements.New(movements.Config{DefaultStore: cfg.App.DefaultStore})

	services := &api.Services{
		Budget:  budgets,
		Shelf:   shelves,
		Catalog: service.NewCatalogService(movementRepo),
		Export:  service.NewExportService(budgets, shelves, publisher),
		Runs:    runs,
		Ping:    db.PingContext,
	}

	if cfg.Drive.Enabled {
		watcher, err := newDriveWatcher(ctx, cfg, func(ctx context.Context, paths []string) error {
			_, err := orchestrator.Run(ctx, movementPipeline, paths)
			return err
		})
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Drive sync disabled")
		} else {
			services.Poller = watcher
			go watcher.Run(ctx)
		}
	}

	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func ingestConfig(cfg *config.Config) pipeline.PipelineConfig {
	pc := pipeline.DefaultPipelineConfig("movements")
	if cfg.App.Workers > 0 {
		pc.WorkerCount = cfg.App.Workers
	}
	if cfg.App.BatchSize > 0 {
		pc.BatchRows = cfg.App.BatchSize
	}
	return pc
}

func newDriveWatcher(ctx context.Context, cfg *config.Config, ingest func(context.Context, []string) error) (*drive.Watcher, error) {
	svc, err := drive.NewService(ctx, cfg.Drive.CredentialsJSON)
	if err != nil {
		return nil, err
	}
	folderID, err := svc.FindFolderByPath(ctx, cfg.Drive.FolderPath)
	if err != nil {
		return nil, err
	}
	opts := drive.DownloadOptions{FolderID: folderID, DownloadDir: cfg.App.ImportDir}
	interval := time.Duration(cfg.Drive.PollSeconds) * time.Second
	return drive.NewWatcher(drive.NewDownloader(svc), opts, interval, ingest), nil
}
