package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/talahq/docintake/constants"
	"github.com/talahq/docintake/internal/async"
	"github.com/talahq/docintake/internal/classify"
	"github.com/talahq/docintake/internal/common"
	"github.com/talahq/docintake/internal/fields"
	"github.com/talahq/docintake/internal/ocr"
	"github.com/talahq/docintake/internal/pipeline"
	"github.com/talahq/docintake/internal/storage"
	"github.com/talahq/docintake/internal/textract"
	"github.com/talahq/docintake/internal/validate"

	repo "github.com/talahq/docintake/internal/repository"
)

// pollInterval controls how often the daemon picks up freshly registered
// documents that have not entered the pipeline yet.
const pollInterval = 5 * time.Second

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, pool, err := repo.Open(ctx, repo.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(db, pool, logger)

	if err := repo.HealthCheck(ctx, db, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	docsRepo := repo.NewDocumentRepository(db, logger)
	jobsRepo := repo.NewPipelineJobRepository(db, logger)
	resultsRepo := repo.NewExtractionResultRepository(db, logger)

	var store storage.Backend
	switch cfg.Storage.Backend {
	case "object":
		store = storage.NewObjectBackend(cfg.Storage.ObjectURL)
	default:
		store = storage.NewFSBackend(cfg.Storage.RootDir)
	}

	runner := &ocr.ExecRunner{}
	primary := ocr.NewTesseract(ocr.TesseractConfig{
		Binary:      cfg.OCR.Tesseract,
		Lang:        cfg.OCR.TesseractLang,
		TessdataDir: cfg.OCR.TessdataDir,
		PSM:         6,
	}, runner)
	var secondary ocr.Engine
	if cfg.OCR.SecondaryURL != "" {
		secondary = ocr.NewHTTPEngine(cfg.OCR.SecondaryURL)
	}
	extractor := textract.NewExtractor(textract.Config{
		Pdftoppm:     cfg.OCR.Pdftoppm,
		DocConverter: cfg.OCR.DocConverter,
		DPI:          cfg.OCR.DPI,
		MaxPages:     cfg.OCR.MaxPages,
	}, runner, primary, secondary, logger)

	tables, err := classify.LoadTables()
	if err != nil {
		logger.Error("failed to load classification tables", "error", err)
		os.Exit(1)
	}
	classifier := classify.NewClassifier(tables, logger)

	keywords, err := fields.LoadKeywordTables()
	if err != nil {
		logger.Error("failed to load keyword tables", "error", err)
		os.Exit(1)
	}
	registry := fields.NewRegistry(
		fields.NewCVExtractor(logger),
		fields.NewAssessmentExtractor(logger),
		fields.NewInterviewExtractor(keywords, logger),
		fields.NewOtherExtractor(),
	)
	validator := validate.NewValidator(cfg.Pipeline.DefaultCountryCode, logger)

	orch, err := pipeline.NewOrchestrator(cfg.Pipeline,
		docsRepo, jobsRepo, resultsRepo, store,
		extractor, classifier, registry, validator, logger)
	if err != nil {
		logger.Error("failed to build orchestrator", "error", err)
		os.Exit(1)
	}

	queue := async.NewPipelineQueue(orch, logger,
		async.WithWorkers(cfg.Pipeline.Workers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
		async.WithProcessTimeout(cfg.Pipeline.RunTimeout),
	)

	// Pick up registered documents that have not entered the pipeline.
	go pollUploaded(ctx, docsRepo, queue, logger)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	logger.Info("intaked listening", "addr", cfg.Server.GRPCAddr, "storage", store.Name())
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	queue.Shutdown(context.Background())
	grpcServer.GracefulStop()
}

func pollUploaded(ctx context.Context, docs repo.DocumentRepository, queue async.Queue, logger *slog.Logger) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		pending, err := docs.ListByStatus(ctx, constants.JobStatusUploaded, 100)
		if err != nil {
			logger.Error("failed to list uploaded documents", "error", err)
			continue
		}
		for _, d := range pending {
			_ = queue.Enqueue(ctx, async.Job{
				DocumentID:  d.ID,
				SubmittedAt: time.Now(),
			})
		}
	}
}
