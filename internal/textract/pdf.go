package textract

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// extractPDF reads native PDF text page by page and collects document
// metadata when present. A thin result is not an error here; the caller
// decides whether to fall back to OCR.
func (e *Extractor) extractPDF(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("open pdf: %w", err)
	}

	pages := r.NumPage()
	var b strings.Builder
	var warns []string
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		txt, err := p.GetPlainText(nil)
		if err != nil {
			warns = append(warns, fmt.Sprintf("page %d: %v", i, err))
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n")
		}
		b.WriteString(txt)
	}

	meta := map[string]string{}
	if t := r.Trailer(); !t.IsNull() {
		if info := t.Key("Info"); !info.IsNull() {
			for _, k := range []string{"Author", "Creator", "Producer", "Title"} {
				if v := info.Key(k); v.Kind() == pdf.String {
					if s := strings.TrimSpace(v.RawString()); s != "" {
						meta[strings.ToLower(k)] = s
					}
				}
			}
		}
	}

	text := normalizeText(b.String())
	return Result{
		Text:          text,
		Pages:         pages,
		Method:        MethodPDFText,
		LikelyScanned: nonWhitespaceLen(text) < MinNativeChars,
		Warnings:      warns,
		Metadata:      meta,
	}, nil
}
