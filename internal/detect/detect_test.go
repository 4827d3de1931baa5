package detect

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talahq/docintake/constants"
)

func zipWith(names ...string) []byte {
	// Minimal ZIP local-header prefix plus part names, enough for sniffing.
	var buf bytes.Buffer
	for _, n := range names {
		buf.Write([]byte{'P', 'K', 0x03, 0x04})
		buf.Write(make([]byte, 22))
		buf.WriteByte(byte(len(n)))
		buf.WriteByte(0)
		buf.WriteByte(0)
		buf.WriteByte(0)
		buf.WriteString(n)
	}
	return buf.Bytes()
}

func TestDetectByExtension(t *testing.T) {
	tests := []struct {
		filename string
		data     []byte
		want     constants.ContentType
	}{
		{"resume.pdf", []byte("%PDF-1.7 rest"), constants.PDF},
		{"notes.txt", []byte("plain text here"), constants.PlainText},
		{"report.rtf", []byte(`{\rtf1\ansi hello}`), constants.RichText},
		{"scan.png", append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 16)...), constants.Image},
		{"photo.jpg", append([]byte{0xFF, 0xD8, 0xFF}, make([]byte, 16)...), constants.Image},
		{"data.xlsx", zipWith("xl/workbook.xml"), constants.Spreadsheet},
		{"letter.docx", zipWith("word/document.xml"), constants.WordDocument},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.filename, "", tt.data))
		})
	}
}

func TestDetectMagicOverridesWrongExtension(t *testing.T) {
	// A PDF renamed to .txt is still a PDF.
	got := Detect("mislabeled.txt", "", []byte("%PDF-1.4 content streams"))
	assert.Equal(t, constants.PDF, got)
}

func TestDetectUnknownExtensionFallsBackToSniffing(t *testing.T) {
	assert.Equal(t, constants.PDF, Detect("blob.xyz", "", []byte("%PDF-1.5")))
	assert.Equal(t, constants.PlainText, Detect("blob.xyz", "", []byte("just some readable words\nacross lines")))
}

func TestDetectDeclaredMIMEIsLastResort(t *testing.T) {
	// Binary junk with no extension and no magic: the declared MIME decides.
	junk := []byte{0x00, 0x01, 0x02, 0x03, 0xFE, 0xFF, 0x00, 0x00}
	assert.Equal(t, constants.PDF, Detect("payload", "application/pdf", junk))
	assert.Equal(t, constants.Unknown, Detect("payload", "application/octet-stream", junk))
}

func TestDetectUTF16Text(t *testing.T) {
	data := append([]byte{0xFF, 0xFE}, []byte("h\x00i\x00 \x00t\x00h\x00e\x00r\x00e\x00")...)
	assert.Equal(t, constants.PlainText, Detect("memo.txt", "", data))
}

func TestDetectEmptyInput(t *testing.T) {
	assert.Equal(t, constants.Unknown, Detect("", "", nil))
}
