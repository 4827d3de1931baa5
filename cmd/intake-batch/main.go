// intake-batch processes a directory of documents end to end and writes an
// XLSX summary. It runs against SQLite, so no server or Postgres is needed.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/talahq/docintake/constants"
	"github.com/talahq/docintake/internal/classify"
	"github.com/talahq/docintake/internal/common"
	"github.com/talahq/docintake/internal/export"
	"github.com/talahq/docintake/internal/fields"
	"github.com/talahq/docintake/internal/ocr"
	"github.com/talahq/docintake/internal/pipeline"
	"github.com/talahq/docintake/internal/storage"
	"github.com/talahq/docintake/internal/textract"
	"github.com/talahq/docintake/internal/validate"

	repo "github.com/talahq/docintake/internal/repository"
)

func main() {
	var (
		dir    = flag.String("dir", ".", "directory of documents to process")
		dbPath = flag.String("db", "", "SQLite database path; empty runs in memory")
		out    = flag.String("out", "intake-summary.xlsx", "summary workbook path")
		fromS  = flag.String("from", "", "only export documents registered on/after this date (YYYY-MM-DD)")
		toS    = flag.String("to", "", "only export documents registered on/before this date (YYYY-MM-DD)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(*dir, *dbPath, *out, *fromS, *toS, logger); err != nil {
		logger.Error("batch run failed", "error", err)
		os.Exit(1)
	}
}

func run(dir, dbPath, out, fromS, toS string, logger *slog.Logger) error {
	cfg := common.LoadConfig()
	ctx := context.Background()

	from, err := parseDateFlag(fromS)
	if err != nil {
		return err
	}
	to, err := parseDateFlag(toS)
	if err != nil {
		return err
	}

	db, err := repo.OpenSQLite(ctx, dbPath, logger)
	if err != nil {
		return common.WrapError(err, "open database")
	}
	defer func() { _ = db.Close() }()

	docsRepo := repo.NewDocumentRepository(db, logger)
	jobsRepo := repo.NewPipelineJobRepository(db, logger)
	resultsRepo := repo.NewExtractionResultRepository(db, logger)
	store := storage.NewFSBackend(dir)

	runner := &ocr.ExecRunner{}
	primary := ocr.NewTesseract(ocr.TesseractConfig{
		Binary:      cfg.OCR.Tesseract,
		Lang:        cfg.OCR.TesseractLang,
		TessdataDir: cfg.OCR.TessdataDir,
		PSM:         6,
	}, runner)
	extractor := textract.NewExtractor(textract.Config{
		Pdftoppm:     cfg.OCR.Pdftoppm,
		DocConverter: cfg.OCR.DocConverter,
		DPI:          cfg.OCR.DPI,
		MaxPages:     cfg.OCR.MaxPages,
	}, runner, primary, nil, logger)

	tables, err := classify.LoadTables()
	if err != nil {
		return err
	}
	keywords, err := fields.LoadKeywordTables()
	if err != nil {
		return err
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
		extractor, classify.NewClassifier(tables, logger), registry, validator, logger)
	if err != nil {
		return err
	}

	processed, failed := 0, 0
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		doc, _, err := orch.Register(ctx, d.Name(), rel, data, constants.CategoryOther)
		if err != nil {
			logger.Warn("skipping file", "path", rel, "error", err)
			failed++
			return nil
		}
		if _, err := orch.Process(ctx, doc.ID); err != nil {
			logger.Warn("processing failed", "path", rel, "error", err)
			failed++
			return nil
		}
		processed++
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", dir, err)
	}

	exporter := export.NewService(docsRepo, jobsRepo, logger)
	book, err := exporter.ExportSummaryXLSX(ctx, from, to)
	if err != nil {
		return fmt.Errorf("export summary: %w", err)
	}
	if err := os.WriteFile(out, book, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	logger.Info("batch run finished", "processed", processed, "failed", failed, "summary", out)
	return nil
}

func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return &t, nil
}
