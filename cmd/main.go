package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	api "github.com/fontcap/fontcap-server/internal/api/http"
	"github.com/fontcap/fontcap-server/internal/config"
	"github.com/fontcap/fontcap-server/internal/installer"
	"github.com/fontcap/fontcap-server/internal/logger"
	"github.com/fontcap/fontcap-server/internal/repository/postgres"
	"github.com/fontcap/fontcap-server/internal/server"
	"github.com/fontcap/fontcap-server/internal/service"
	storage "github.com/fontcap/fontcap-server/internal/storage/minio"
	"github.com/fontcap/fontcap-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	fontRepo := postgres.NewFontRepository(db)
	deviceRepo := postgres.NewDeviceRepository(db)
	assocRepo := postgres.NewAssociationRepository(db)
	queueRepo := postgres.NewSyncQueueRepository(db)
	settingsRepo := postgres.NewSettingsRepository(db)

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to create minio client", "error", err)
	}
	storageClient, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket)
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}

	fontInstaller, err := installer.NewLocal(cfg.Sync.FontDir, logger)
	if err != nil {
		logger.Fatal("failed to initialize font installer", "error", err)
	}

	resolver := token.NewJWT(cfg.JWT.Secret)

	catalogService := service.NewCatalog(fontRepo, userRepo, storageClient, logger, service.CatalogConfig{
		UploadURLTTL:        cfg.Sync.UploadURLTTL,
		DownloadURLTTL:      cfg.Sync.DownloadURLTTL,
		DefaultStorageLimit: cfg.Sync.DefaultStorageLimit,
	})
	deviceService := service.NewDevices(deviceRepo, userRepo, logger, cfg.Sync.OfflineThreshold)
	registrarService := service.NewRegistrar(fontRepo, deviceRepo, assocRepo, queueRepo, logger)
	reconcilerService := service.NewReconciler(fontRepo, deviceRepo, assocRepo, queueRepo, storageClient, fontInstaller, logger, service.ReconcilerConfig{
		Workers:         cfg.Sync.Workers,
		RetryAttempts:   cfg.Sync.RetryAttempts,
		RetryBaseDelay:  cfg.Sync.RetryBaseDelay,
		PageSize:        cfg.Sync.PageSize,
		ProbeAheadPages: cfg.Sync.ProbeAheadPages,
		DownloadURLTTL:  cfg.Sync.DownloadURLTTL,
	})
	settingsService := service.NewSettings(settingsRepo, logger)

	handler := api.NewHandler(catalogService, deviceService, registrarService, reconcilerService, settingsService, resolver, logger)
	httpServer := server.NewHTTPServer(handler.Init(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl server.Listener
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("starting server", "address", httpServer.Address())
		if err := httpServer.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
