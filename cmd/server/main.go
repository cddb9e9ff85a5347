package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PlateWatch-ANPR/Ingest-Service/internal/api"
	"github.com/PlateWatch-ANPR/Ingest-Service/internal/api/handlers"
	"github.com/PlateWatch-ANPR/Ingest-Service/internal/configuration"
	"github.com/PlateWatch-ANPR/Ingest-Service/internal/pipeline"
	"github.com/PlateWatch-ANPR/Ingest-Service/internal/services"
	"github.com/PlateWatch-ANPR/Ingest-Service/pkg/logger"
)

func main() {
	cfg := configuration.Load()

	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal("invalid timezone", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	googleClient, err := services.NewGoogleHTTPClient(context.Background(), cfg.Google.CredentialsFile)
	if err != nil {
		log.Fatal("failed to initialize Google credentials", zap.Error(err))
	}

	recognizer := services.NewVisionClient(googleClient, cfg.CallTimeout)

	var archive pipeline.Archive
	switch cfg.ArchiveBackend {
	case "minio":
		minioArchive, err := services.NewMinioArchive(
			cfg.MinIO.Endpoint,
			cfg.MinIO.AccessKey,
			cfg.MinIO.SecretKey,
			cfg.MinIO.BucketName,
			cfg.MinIO.PublicURL,
			cfg.MinIO.UseSSL,
			cfg.CallTimeout,
		)
		if err != nil {
			log.Fatal("failed to initialize MinIO archive", zap.Error(err))
		}
		archive = minioArchive
	default:
		driveClient := services.NewDriveClient(googleClient, cfg.CallTimeout)
		archive = services.NewDriveArchive(driveClient, cfg.Google.RootFolderName)
	}

	var ledger pipeline.Ledger
	switch cfg.LedgerBackend {
	case "postgres":
		pgLedger, err := services.NewPostgresLedger(cfg.Database.ConnectionString(), cfg.CallTimeout)
		if err != nil {
			log.Fatal("failed to initialize Postgres ledger", zap.Error(err))
		}
		defer pgLedger.Close()
		ledger = pgLedger
	default:
		if cfg.Google.SpreadsheetID == "" {
			log.Fatal("SPREADSHEET_ID is required for the sheets ledger backend")
		}
		ledger = services.NewSheetsLedger(googleClient, cfg.Google.SpreadsheetID, cfg.CallTimeout)
	}

	var events pipeline.Publisher
	if cfg.NATSURL != "" {
		publisher, err := services.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Warn("failed to connect to NATS, events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			events = publisher
		}
	}

	var scanner handlers.Scanner
	if cfg.CLAMAVURL != "" {
		scanner = services.NewClamAVScanner(cfg.CLAMAVURL)
	}

	p := pipeline.New(recognizer, archive, ledger, events, log)
	h := handlers.NewIngestHandler(p, scanner, location, log)

	setupGracefulShutdown(log)

	r := gin.Default()
	api.RegisterRoutes(r, h)

	log.Info("server starting",
		zap.String("port", cfg.Server.Port),
		zap.String("archive_backend", cfg.ArchiveBackend),
		zap.String("ledger_backend", cfg.LedgerBackend),
	)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

func setupGracefulShutdown(log *zap.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("shutting down gracefully")
		os.Exit(0)
	}()
}
