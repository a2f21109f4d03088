package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"paperledger/internal/config"
	"paperledger/internal/domain"
	"paperledger/internal/handler"
	"paperledger/internal/llm"
	_ "paperledger/internal/llm/ollama"
	_ "paperledger/internal/llm/openai"
	"paperledger/internal/logger"
	"paperledger/internal/ocr"
	"paperledger/internal/port"
	"paperledger/internal/repository/postgres"
	"paperledger/internal/router"
	"paperledger/internal/service"
	"paperledger/internal/storage/local"
	s3storage "paperledger/internal/storage/s3"
)

const shutdownTimeout = 2 * time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	docRepo := postgres.NewDocumentRepo(db)
	itemRepo := postgres.NewItemRepo(db)
	tagRepo := postgres.NewTagRepo(db)

	// Initialize storage
	files, err := newFileStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize file store: %w", err)
	}

	// Initialize extraction backends
	textExtractor := ocr.NewExtractor(newOCRBackend(&cfg.OCR),
		ocr.WithRasterizer(ocr.NewFitzRasterizer(cfg.OCR.PDFDPI)),
		ocr.WithLogger(zl.Named("ocr")))
	structured, err := llm.New(&cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM provider: %w", err)
	}

	// Initialize services
	authSvc := service.NewAuthService(cfg.JWT)
	pipelineLog := zl.Named("pipeline")
	pipelineSvc := service.NewPipelineService(docRepo, itemRepo, tagRepo, files, textExtractor, structured,
		service.WithPipelineLogger(pipelineLog),
		service.WithTransitionHook(func(docID int64, from, to domain.ProcessingStatus) {
			pipelineLog.Debug("status changed",
				zap.Int64("document_id", docID),
				zap.String("from", string(from)),
				zap.String("to", string(to)))
		}))

	queue := service.NewProcessingQueue(pipelineSvc, service.ProcessingQueueConfig{
		DequeueWait: cfg.Queue.DequeueWait,
		RunTimeout:  cfg.Queue.RunTimeout,
	}, zl.Named("queue"))
	queue.Start()

	// Initialize handlers
	docH := handler.NewDocumentHandler(pipelineSvc, queue)
	healthH := handler.NewHealthHandler(map[string]handler.Probe{
		"database": db.PingContext,
		"ocr":      textExtractor.Ping,
		"llm":      structured.Ping,
	})

	// Setup router
	r := router.Setup(zl, cfg.CORS.AllowedOrigins, authSvc, docH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		zl.Info("server starting",
			zap.String("addr", cfg.Server.Port),
			zap.String("environment", cfg.Server.Environment),
			zap.String("llm_model", structured.Model()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-quit:
		zl.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("http shutdown failed", zap.Error(err))
	}
	if err := queue.Stop(ctx); err != nil {
		zl.Warn("processing queue did not drain before timeout", zap.Error(err))
	}
	return nil
}

func newFileStore(cfg *config.Config) (port.FileStore, error) {
	if cfg.Storage.Backend == "s3" {
		return s3storage.NewS3Client(&cfg.S3, cfg.Storage.UploadsDir)
	}
	return local.NewStore(cfg.Storage.UploadsDir), nil
}

func newOCRBackend(cfg *config.OCRConfig) ocr.Backend {
	if cfg.Backend == "tesseract" {
		return ocr.NewTesseractBackend(cfg.Language)
	}
	return ocr.NewRemoteBackend(cfg.URL, cfg.Timeout())
}
