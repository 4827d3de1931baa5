package constants

import "strings"

// ContentType is the canonical detected format for an uploaded document.
type ContentType string

const (
	PDF          ContentType = "PDF"
	WordDocument ContentType = "WORD"
	Spreadsheet  ContentType = "SPREADSHEET"
	Image        ContentType = "IMAGE"
	PlainText    ContentType = "TEXT"
	RichText     ContentType = "RTF"
	Unknown      ContentType = "UNKNOWN"
)

// ContentTypes holds the allowed values for the content_type field in Document.
var ContentTypes = []string{
	string(PDF),
	string(WordDocument),
	string(Spreadsheet),
	string(Image),
	string(PlainText),
	string(RichText),
	string(Unknown),
}

// extToContentType maps normalized extensions to their canonical content type.
var extToContentType = map[string]ContentType{
	"pdf":  PDF,
	"doc":  WordDocument,
	"docx": WordDocument,
	"xls":  Spreadsheet,
	"xlsx": Spreadsheet,
	"jpg":  Image,
	"jpeg": Image,
	"png":  Image,
	"tif":  Image,
	"tiff": Image,
	"txt":  PlainText,
	"md":   PlainText,
	"rtf":  RichText,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToContentType returns the canonical content type for a file extension,
// or Unknown when the extension carries no signal.
func MapExtToContentType(ext string) ContentType {
	if ct, ok := extToContentType[NormalizeExt(ext)]; ok {
		return ct
	}
	return Unknown
}

// MapMIMEToContentType maps a client-declared MIME type to the canonical
// content type. The declaration is untrusted and only consulted when the
// extension is missing or ambiguous.
func MapMIMEToContentType(mime string) ContentType {
	m := strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	switch {
	case m == "application/pdf":
		return PDF
	case m == "application/msword",
		m == "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return WordDocument
	case m == "application/vnd.ms-excel",
		m == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return Spreadsheet
	case m == "application/rtf", m == "text/rtf":
		return RichText
	case strings.HasPrefix(m, "image/"):
		return Image
	case strings.HasPrefix(m, "text/"):
		return PlainText
	}
	return Unknown
}
