// Package export produces XLSX summaries of processed documents for
// downstream review.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/talahq/docintake/internal/fields"
	"github.com/talahq/docintake/internal/repository"
)

// Service is a tiny façade over repositories that produces XLSX bytes for exports.
type Service struct {
	docs   repository.DocumentRepository
	jobs   repository.PipelineJobRepository
	logger *slog.Logger
}

func NewService(docs repository.DocumentRepository, jobs repository.PipelineJobRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, jobs: jobs, logger: logger}
}

// ExportSummaryXLSX returns an XLSX workbook (as bytes) with one row per
// document in the date window, joined to its latest pipeline job.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> every document.
func (s *Service) ExportSummaryXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 23, 59, 59, 0, time.UTC)
		toDate = &t
	}

	docs, err := s.docs.ListCreatedBetween(ctx, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Documents"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Filename",
		"Content Type",
		"Document Type",
		"Status",
		"Confidence",
		"Needs Review",
		"Recommendation",
		"Last Error",
		"Registered",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, d := range docs {
		job, err := s.jobs.GetLatest(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("query latest job for %s: %w", d.ID, err)
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, d.Filename)
		write(2, string(d.ContentType))
		write(4, string(d.Status))
		write(9, d.CreatedAt.Format("2006-01-02"))

		if job != nil {
			if job.DocumentType != nil {
				write(3, *job.DocumentType)
			}
			write(4, string(job.Status))
			if job.Confidence != nil {
				write(5, fmt.Sprintf("%.2f", *job.Confidence))
			}
			write(6, job.NeedsReview)
			write(7, recommendationFromJob(job.ParseResult))
			if job.LastError != nil {
				write(8, truncate(*job.LastError, 140))
			}
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 36) // filename
	_ = f.SetColWidth(sheet, "B", "D", 16) // type + status
	_ = f.SetColWidth(sheet, "E", "F", 12)
	_ = f.SetColWidth(sheet, "G", "G", 16) // recommendation
	_ = f.SetColWidth(sheet, "H", "H", 48) // error
	_ = f.SetColWidth(sheet, "I", "I", 14) // date

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// recommendationFromJob digs the interview recommendation out of a stored
// parse result; empty for other document types.
func recommendationFromJob(parseResult json.RawMessage) string {
	if len(parseResult) == 0 {
		return ""
	}
	var rec fields.Record
	if err := json.Unmarshal(parseResult, &rec); err != nil {
		return ""
	}
	if rec.Interview == nil {
		return ""
	}
	return rec.Interview.Recommendation
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
