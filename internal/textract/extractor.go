package textract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/talahq/docintake/constants"
	"github.com/talahq/docintake/internal/common"
	"github.com/talahq/docintake/internal/ocr"
)

type Config struct {
	Pdftoppm     string // binary name or absolute path; if empty -> "pdftoppm"
	DocConverter string // e.g. "soffice"; empty disables OCR fallback for non-PDF documents
	DPI          int    // rasterization DPI for scanned documents, default 300
	MaxPages     int    // pages rasterized for the OCR fallback pass, default 5
}

// Extractor picks a per-format strategy and applies the OCR fallback policy.
type Extractor struct {
	cfg       Config
	runner    ocr.Runner
	primary   ocr.Engine
	secondary ocr.Engine
	logger    *slog.Logger
}

func NewExtractor(cfg Config, runner ocr.Runner, primary, secondary ocr.Engine, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ocr.ExecRunner{}
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 5
	}
	return &Extractor{cfg: cfg, runner: runner, primary: primary, secondary: secondary, logger: logger}
}

// Extract runs the strategy for contentType, then the OCR fallback pass when
// the native text holds fewer than MinNativeChars non-whitespace characters.
// Whichever result is longer wins; the method field records the winner.
func (e *Extractor) Extract(ctx context.Context, path string, contentType constants.ContentType) (Result, error) {
	start := time.Now()
	e.logger.Debug("starting text extraction", "path", path, "content_type", contentType)

	var res Result
	var nativeErr error
	switch contentType {
	case constants.Image:
		res, err := e.extractImage(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.PDF:
		res, nativeErr = e.extractPDF(path)
	case constants.WordDocument:
		res, nativeErr = e.extractWord(path)
	case constants.Spreadsheet:
		res, nativeErr = e.extractSpreadsheet(path)
	case constants.PlainText:
		res, nativeErr = e.extractPlainText(path)
	case constants.RichText:
		res, nativeErr = e.extractRTF(path)
	default:
		e.logger.Error("unsupported content type for extraction", "content_type", contentType)
		return Result{}, fmt.Errorf("%w: %s", common.ErrUnsupportedDocument, contentType)
	}
	res.ContentType = contentType

	if nativeErr != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("native extraction failed: %v", nativeErr))
	}

	if nativeErr != nil || nonWhitespaceLen(res.Text) < MinNativeChars {
		ocrRes, ocrErr := e.ocrDocument(ctx, path, contentType)
		switch {
		case ocrErr == nil && len(strings.TrimSpace(ocrRes.Text)) > len(strings.TrimSpace(res.Text)):
			ocrRes.ContentType = contentType
			ocrRes.LikelyScanned = true
			ocrRes.Warnings = append(res.Warnings, ocrRes.Warnings...)
			ocrRes.Metadata = res.Metadata
			ocrRes.Duration = time.Since(start)
			e.logger.Info("ocr fallback won", "path", path, "method", ocrRes.Method,
				"native_len", len(res.Text), "ocr_len", len(ocrRes.Text))
			return ocrRes, nil
		case ocrErr != nil && nativeErr != nil:
			return res, fmt.Errorf("%w: native: %v; ocr: %v", common.ErrExtraction, nativeErr, ocrErr)
		case ocrErr != nil:
			res.Warnings = append(res.Warnings, fmt.Sprintf("ocr fallback failed: %v", ocrErr))
		}
	}

	if nativeErr == nil && contentType == constants.PDF && nonWhitespaceLen(res.Text) < MinNativeChars {
		res.LikelyScanned = true
	}
	res.Duration = time.Since(start)
	return res, nil
}

func (e *Extractor) extractImage(ctx context.Context, path string) (Result, error) {
	rec, engine, err := e.recognize(ctx, path)
	if err != nil {
		return Result{ContentType: constants.Image}, err
	}
	return Result{
		Text:          normalizeText(rec.Text),
		Pages:         1,
		ContentType:   constants.Image,
		Method:        MethodImageOCR,
		OCRConfidence: rec.Confidence(),
		Warnings:      []string{"engine: " + engine},
	}, nil
}

// recognize tries the primary OCR engine, then the secondary. Both being
// unavailable or failing is an ExtractionError.
func (e *Extractor) recognize(ctx context.Context, imagePath string) (ocr.Recognition, string, error) {
	if e.primary == nil && e.secondary == nil {
		return ocr.Recognition{}, "", fmt.Errorf("%w: no ocr engine configured", common.ErrExtraction)
	}
	var firstErr error
	if e.primary != nil {
		rec, err := e.primary.Recognize(ctx, imagePath)
		if err == nil {
			return rec, e.primary.Name(), nil
		}
		firstErr = err
		e.logger.Warn("primary ocr engine failed", "engine", e.primary.Name(), "error", err)
	}
	if e.secondary != nil {
		rec, err := e.secondary.Recognize(ctx, imagePath)
		if err == nil {
			return rec, e.secondary.Name(), nil
		}
		if firstErr == nil {
			firstErr = err
		} else {
			firstErr = fmt.Errorf("%v; secondary: %v", firstErr, err)
		}
	}
	return ocr.Recognition{}, "", fmt.Errorf("%w: %v", common.ErrExtraction, firstErr)
}

// ocrDocument rasterizes the first MaxPages pages and OCRs each. Non-PDF
// documents are first converted to PDF through the configured converter.
func (e *Extractor) ocrDocument(ctx context.Context, path string, contentType constants.ContentType) (Result, error) {
	method := MethodPDFOCR
	pdfPath := path

	tmpDir, err := os.MkdirTemp("", "di-ocr-*")
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("failed to remove temp dir", "path", tmpDir, "error", err)
		}
	}()

	if contentType != constants.PDF {
		method = MethodDocOCR
		if e.cfg.DocConverter == "" {
			return Result{}, fmt.Errorf("no document converter configured for %s", contentType)
		}
		// soffice --headless --convert-to pdf --outdir <tmp> <in>
		_, errb, err := e.runner.Run(ctx, e.cfg.DocConverter,
			"--headless", "--convert-to", "pdf", "--outdir", tmpDir, path)
		if err != nil {
			return Result{}, fmt.Errorf("convert to pdf: %w (%s)", err, errb)
		}
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		pdfPath = filepath.Join(tmpDir, base+".pdf")
		if _, err := os.Stat(pdfPath); err != nil {
			return Result{}, fmt.Errorf("conversion produced no output: %v", err)
		}
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png -l <maxPages> <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-r", fmt.Sprintf("%d", e.cfg.DPI), "-png",
		"-l", fmt.Sprintf("%d", e.cfg.MaxPages), pdfPath, prefix)
	if err != nil {
		return Result{}, fmt.Errorf("rasterize: %w (%s)", err, errb)
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return Result{}, fmt.Errorf("rasterization produced no pages")
	}

	var b strings.Builder
	var warns []string
	var confs []float32
	for _, img := range matches {
		rec, engine, err := e.recognize(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(rec.Text)
		if c := rec.Confidence(); c > 0 {
			confs = append(confs, c)
		}
		warns = append(warns, "engine: "+engine)
	}
	if strings.TrimSpace(b.String()) == "" {
		return Result{}, fmt.Errorf("%w: ocr produced no text", common.ErrExtraction)
	}

	var conf float32
	if len(confs) > 0 {
		var sum float64
		for _, c := range confs {
			sum += float64(c)
		}
		conf = float32(sum / float64(len(confs)))
	}

	return Result{
		Text:          normalizeText(b.String()),
		Pages:         len(matches),
		Method:        method,
		OCRConfidence: conf,
		Warnings:      warns,
	}, nil
}

func nonWhitespaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// normalizeText collapses runs of blank lines and trims trailing spaces,
// leaving page break markers intact.
func normalizeText(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := 0
	for _, ln := range lines {
		ln = strings.TrimRight(ln, " \t\r")
		if strings.TrimSpace(ln) == "" {
			blank++
			if blank > 1 {
				continue
			}
			ln = ""
		} else {
			blank = 0
		}
		out = append(out, ln)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
