package textract

import (
	"bytes"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// extractPlainText decodes a text file after a byte-level encoding guess.
// Decoding never fails: undecodable bytes are substituted, not raised.
func (e *Extractor) extractPlainText(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	text, warn := decodeBytes(data)
	res := Result{Text: normalizeText(text), Pages: 1, Method: MethodPlainText}
	if warn != "" {
		res.Warnings = append(res.Warnings, warn)
	}
	return res, nil
}

// decodeBytes handles UTF-8 (with or without BOM), UTF-16 via BOM, and
// falls back to Windows-1252 for everything else.
func decodeBytes(data []byte) (string, string) {
	switch {
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE,
		len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF:
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		if out, err := dec.Bytes(data); err == nil {
			return string(out), ""
		}
		return string(data), "utf-16 decode failed, raw bytes kept"
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return string(data[3:]), ""
	case utf8.Valid(data):
		return string(data), ""
	default:
		dec := charmap.Windows1252.NewDecoder()
		out, err := dec.Bytes(data)
		if err != nil {
			// strip invalid bytes rather than raise
			return strings.ToValidUTF8(string(data), "�"), "invalid bytes substituted"
		}
		return string(out), "decoded as windows-1252"
	}
}

var (
	reRTFControl = regexp.MustCompile(`\\[a-zA-Z]+-?\d* ?`)
	reRTFHex     = regexp.MustCompile(`\\'[0-9a-fA-F]{2}`)
)

// extractRTF strips RTF control words and groups, leaving the visible text.
func (e *Extractor) extractRTF(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	s := string(data)
	s = reRTFHex.ReplaceAllString(s, " ")
	s = reRTFControl.ReplaceAllString(s, "")
	s = strings.NewReplacer("{", "", "}", "", "\\", "").Replace(s)
	return Result{Text: normalizeText(s), Pages: 1, Method: MethodRTFText}, nil
}
