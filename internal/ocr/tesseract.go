package ocr

import (
	"fmt"
	"strconv"
	"strings"

	"context"
)

// TesseractConfig configures the exec-backed tesseract engine.
type TesseractConfig struct {
	Binary      string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "eng+spa"
	TessdataDir string
	PSM         int // e.g., 6 is good for a uniform block of text
	OEM         int // 1 = LSTM; leave 0 to use default
}

// Tesseract is the primary OCR engine: a local tesseract binary driven
// through a Runner so tests can stub it.
type Tesseract struct {
	cfg    TesseractConfig
	runner Runner
}

func NewTesseract(cfg TesseractConfig, runner Runner) *Tesseract {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng+spa"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Tesseract{cfg: cfg, runner: runner}
}

func (t *Tesseract) Name() string { return "tesseract" }

// Recognize runs tesseract in TSV mode: one pass yields both the text and
// per-word confidences.
func (t *Tesseract) Recognize(ctx context.Context, imagePath string) (Recognition, error) {
	args := []string{imagePath, "stdout", "-l", t.cfg.Lang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", fmt.Sprintf("%d", t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, errb, err := t.runner.Run(ctx, t.cfg.Binary, args...)
	if err != nil {
		return Recognition{}, fmt.Errorf("tesseract: %w (%s)", err, truncate(string(errb), 512))
	}
	return parseTSV(string(out)), nil
}

// parseTSV pulls word text and word confidence from tesseract's TSV output.
// Layout rows (conf == -1) only contribute line breaks.
func parseTSV(tsv string) Recognition {
	var rec Recognition
	var b strings.Builder
	lines := strings.Split(tsv, "\n")
	for i, ln := range lines {
		if i == 0 || len(ln) == 0 {
			continue // skip header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := cols[10]
		word := cols[11]
		if confStr == "" || confStr == "-1" {
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteString("\n")
			}
			continue
		}
		if strings.TrimSpace(word) == "" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil {
			rec.TokenConfidences = append(rec.TokenConfidences, float32(v/100.0))
		}
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteString(" ")
		}
		b.WriteString(word)
	}
	rec.Text = strings.TrimSpace(b.String())
	return rec
}
