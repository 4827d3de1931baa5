// Package detect determines a document's canonical content type from its
// filename, an untrusted client-declared MIME type, and magic-byte sniffing.
// Extension wins; sniffing breaks ties and covers missing extensions.
package detect

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"unicode/utf8"

	"github.com/talahq/docintake/constants"
)

var (
	magicPDF  = []byte("%PDF-")
	magicZIP  = []byte{0x50, 0x4B, 0x03, 0x04}
	magicOLE  = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	magicPNG  = []byte{0x89, 0x50, 0x4E, 0x47}
	magicJPEG = []byte{0xFF, 0xD8, 0xFF}
	magicTIFL = []byte{0x49, 0x49, 0x2A, 0x00}
	magicTIFB = []byte{0x4D, 0x4D, 0x00, 0x2A}
	magicRTF  = []byte(`{\rtf`)
)

// Detect resolves the canonical content type for a document. It is pure:
// no filesystem or network access beyond the bytes it is handed.
func Detect(filename, declaredMIME string, data []byte) constants.ContentType {
	byExt := constants.MapExtToContentType(filepath.Ext(filename))

	sniffed := sniff(data)

	// Extension-derived type is preferred, but a sniff that flatly
	// contradicts it wins: clients routinely misname files.
	switch {
	case byExt != constants.Unknown && sniffed == constants.Unknown:
		return byExt
	case byExt != constants.Unknown && sniffed != constants.Unknown:
		if compatible(byExt, sniffed) {
			return byExt
		}
		return sniffed
	case sniffed != constants.Unknown:
		return sniffed
	}

	// Last resort: the client's declaration.
	return constants.MapMIMEToContentType(declaredMIME)
}

// compatible reports whether a sniffed type can plausibly carry the
// extension-derived one (e.g. docx and xlsx both sniff as ZIP containers).
func compatible(byExt, sniffed constants.ContentType) bool {
	if byExt == sniffed {
		return true
	}
	switch sniffed {
	case constants.WordDocument, constants.Spreadsheet:
		// OLE and ZIP containers host both Word and spreadsheet formats.
		return byExt == constants.WordDocument || byExt == constants.Spreadsheet
	case constants.PlainText:
		// Plain-text sniffing is weak; trust the extension.
		return byExt == constants.PlainText || byExt == constants.RichText
	}
	return false
}

func sniff(data []byte) constants.ContentType {
	if len(data) < 4 {
		return constants.Unknown
	}
	switch {
	case bytes.HasPrefix(data, magicPDF):
		return constants.PDF
	case bytes.HasPrefix(data, magicRTF):
		return constants.RichText
	case bytes.HasPrefix(data, magicPNG), bytes.HasPrefix(data, magicJPEG),
		bytes.HasPrefix(data, magicTIFL), bytes.HasPrefix(data, magicTIFB):
		return constants.Image
	case bytes.HasPrefix(data, magicZIP):
		return sniffZip(data)
	case bytes.HasPrefix(data, magicOLE):
		// legacy Office container; Word is the common case here
		return constants.WordDocument
	}
	if looksLikeText(data) {
		return constants.PlainText
	}
	return constants.Unknown
}

// sniffZip distinguishes OOXML Word documents from spreadsheets by the
// well-known part names inside the container.
func sniffZip(data []byte) constants.ContentType {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return constants.Unknown
	}
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			return constants.WordDocument
		case "xl/workbook.xml":
			return constants.Spreadsheet
		}
	}
	return constants.Unknown
}

func looksLikeText(data []byte) bool {
	sample := data
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	if bytes.IndexByte(sample, 0x00) >= 0 {
		// NUL bytes before checking UTF-16: BOM-led text is still text
		if len(sample) >= 2 && (sample[0] == 0xFF && sample[1] == 0xFE || sample[0] == 0xFE && sample[1] == 0xFF) {
			return true
		}
		return false
	}
	return utf8.Valid(sample) || len(bytes.TrimSpace(sample)) > 0 && asciiRatio(sample) > 0.9
}

func asciiRatio(b []byte) float64 {
	if len(b) == 0 {
		return 0
	}
	printable := 0
	for _, c := range b {
		if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c < 0x7F) {
			printable++
		}
	}
	return float64(printable) / float64(len(b))
}
