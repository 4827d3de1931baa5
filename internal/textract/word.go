package textract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/richardlehane/mscfb"
)

// extractWord handles both Word container generations: OOXML (.docx, a ZIP)
// and the legacy OLE compound file (.doc).
func (e *Extractor) extractWord(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	if bytes.HasPrefix(data, []byte{0x50, 0x4B}) {
		return extractDocx(data)
	}
	return extractLegacyDoc(data)
}

// extractDocx streams word/document.xml: paragraph text first, then table
// cell text row-wise with cells joined by " | " (score sheets arrive as
// tables, so their structure matters).
func extractDocx(data []byte) (Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("open docx: %w", err)
	}
	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return Result{}, err
			}
			docXML, err = io.ReadAll(rc)
			_ = rc.Close()
			if err != nil {
				return Result{}, err
			}
			break
		}
	}
	if len(docXML) == 0 {
		return Result{}, fmt.Errorf("no document.xml found in docx")
	}

	var paragraphs []string
	var tableRows []string

	dec := xml.NewDecoder(bytes.NewReader(docXML))
	var para strings.Builder
	var cell strings.Builder
	var row []string
	tableDepth := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "tab":
				if tableDepth > 0 {
					cell.WriteString("\t")
				} else {
					para.WriteString("\t")
				}
			case "br":
				if tableDepth == 0 {
					para.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth--
			case "p":
				if tableDepth == 0 {
					if s := strings.TrimSpace(para.String()); s != "" {
						paragraphs = append(paragraphs, s)
					}
					para.Reset()
				} else if cell.Len() > 0 {
					cell.WriteString(" ")
				}
			case "tc":
				row = append(row, strings.TrimSpace(cell.String()))
				cell.Reset()
			case "tr":
				if tableDepth > 0 && len(row) > 0 {
					tableRows = append(tableRows, strings.Join(row, " | "))
					row = nil
				}
			}
		case xml.CharData:
			if tableDepth > 0 {
				cell.Write(t)
			} else {
				para.Write(t)
			}
		}
	}

	parts := paragraphs
	parts = append(parts, tableRows...)
	text := normalizeText(strings.Join(parts, "\n"))
	return Result{Text: text, Pages: 1, Method: MethodDocxText}, nil
}

// extractLegacyDoc opens the OLE compound container and scans the
// WordDocument stream for printable runs. Crude, but enough signal for
// classification, and the OCR fallback covers the rest.
func extractLegacyDoc(data []byte) (Result, error) {
	cf, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("open compound file: %w", err)
	}
	var stream []byte
	for entry, err := cf.Next(); err == nil; entry, err = cf.Next() {
		if entry.Name == "WordDocument" {
			stream, err = io.ReadAll(entry)
			if err != nil {
				return Result{}, err
			}
			break
		}
	}
	if len(stream) == 0 {
		return Result{}, fmt.Errorf("no WordDocument stream found")
	}
	return Result{Text: printableRuns(stream, 4), Pages: 1, Method: MethodDocText}, nil
}

// printableRuns keeps runs of at least minRun printable characters,
// joining them with newlines. Handles both 1-byte and UTF-16LE stretches.
func printableRuns(b []byte, minRun int) string {
	var out []string
	var run []rune
	flush := func() {
		if len(run) >= minRun {
			out = append(out, strings.TrimSpace(string(run)))
		}
		run = run[:0]
	}
	printable := func(r rune) bool {
		return r == ' ' || r == '\t' || (r >= 0x20 && r < 0x7F) || (r >= 0xC0 && r <= 0x17F)
	}
	for i := 0; i < len(b); i++ {
		r := rune(b[i])
		// UTF-16LE ASCII looks like "X\x00": fold the NUL away
		if i+1 < len(b) && b[i+1] == 0x00 && printable(r) {
			run = append(run, r)
			i++
			continue
		}
		if printable(r) {
			run = append(run, r)
			continue
		}
		flush()
	}
	flush()
	return strings.Join(out, "\n")
}
