package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lk2023060901/file-storage-backend/internal/archive"
	collectionbiz "github.com/lk2023060901/file-storage-backend/internal/collection/biz"
	collectiondata "github.com/lk2023060901/file-storage-backend/internal/collection/data"
	collectionservice "github.com/lk2023060901/file-storage-backend/internal/collection/service"
	"github.com/lk2023060901/file-storage-backend/internal/data"
	filebiz "github.com/lk2023060901/file-storage-backend/internal/file/biz"
	filedata "github.com/lk2023060901/file-storage-backend/internal/file/data"
	fileservice "github.com/lk2023060901/file-storage-backend/internal/file/service"
	"github.com/lk2023060901/file-storage-backend/internal/filestore"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/metrics"
	"github.com/lk2023060901/file-storage-backend/internal/search"
	"github.com/lk2023060901/file-storage-backend/internal/server"
	stagingbiz "github.com/lk2023060901/file-storage-backend/internal/staging/biz"
	stagingdata "github.com/lk2023060901/file-storage-backend/internal/staging/data"
	stagingservice "github.com/lk2023060901/file-storage-backend/internal/staging/service"
	tagbiz "github.com/lk2023060901/file-storage-backend/internal/tagtemplate/biz"
	tagdata "github.com/lk2023060901/file-storage-backend/internal/tagtemplate/data"
	tagservice "github.com/lk2023060901/file-storage-backend/internal/tagtemplate/service"
	"go.uber.org/zap"
)

func runServe(configFile string) error {
	config, log, err := setup(configFile)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("config loaded successfully", zap.String("config", configFile))

	m := metrics.New()

	// Initialize data layer
	d, cleanup, err := data.NewData(config, log)
	if err != nil {
		return err
	}
	defer cleanup()

	if sqlDB, err := d.DB.SQL(); err == nil {
		m.WatchDB(config.Database.DBName, sqlDB)
	}

	store, err := filestore.New(config.Storage, log, m)
	if err != nil {
		return fmt.Errorf("failed to initialize file store: %w", err)
	}

	var index search.Index = search.NewNoop(log)
	if config.Search.Enabled {
		index = search.NewRedisIndex(d.Redis, config.Search, m, log.Named("search"))
	}

	var mirror archive.Mirror = archive.Disabled{}
	if config.Archive.Enabled {
		archiver, err := archive.New(config.Archive, d.MinIO, m, log)
		if err != nil {
			return fmt.Errorf("failed to initialize archiver: %w", err)
		}
		defer func() {
			if err := archiver.Shutdown(); err != nil {
				log.Warn("archiver shutdown", zap.Error(err))
			}
		}()
		mirror = archiver
	}

	// Initialize repositories
	templateRepo, err := tagdata.NewCachedRepo(tagdata.NewTagTemplateRepo(d.DB), config.Templates.CacheSize)
	if err != nil {
		return err
	}
	fileRepo := filedata.NewFileRepo(d.DB)
	stagingRepo := stagingdata.NewStagingRepo(d.DB)
	collectionRepo := collectiondata.NewCollectionRepo(d.DB)

	// Initialize use cases
	templateUseCase := tagbiz.NewTagTemplateUseCase(templateRepo)
	fileUseCase := filebiz.NewFileUseCase(d.DB, fileRepo, templateRepo, store, index, mirror, config.Search.Limit, log)
	stagingUseCase := stagingbiz.NewStagingUseCase(d.DB, stagingRepo, fileRepo, store, index, mirror, log)
	collectionUseCase := collectionbiz.NewCollectionUseCase(d.DB, collectionRepo, fileRepo, log)

	sweeper := stagingbiz.NewSweeper(stagingUseCase, config.Sweeper, m, log)
	if config.Sweeper.Enabled {
		if err := sweeper.Start(context.Background()); err != nil {
			return fmt.Errorf("failed to start sweeper: %w", err)
		}
		defer sweeper.Stop()
	}

	checks := map[string]server.HealthCheck{"database": d.DB.Ping}
	if d.Redis != nil {
		checks["redis"] = d.Redis.Ping
	}
	if d.MinIO != nil {
		checks["minio"] = d.MinIO.Ping
	}

	httpServer := server.NewHTTPServer(config, log, m, checks,
		stagingservice.NewStagingService(stagingUseCase, log),
		fileservice.NewFileService(fileUseCase, log),
		tagservice.NewTagTemplateService(templateUseCase, log),
		collectionservice.NewCollectionService(collectionUseCase, log),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
	return nil
}
