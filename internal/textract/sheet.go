package textract

import (
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractSpreadsheet reads every sheet row-wise, cells joined by " | ",
// matching the table treatment in Word documents: assessment score sheets
// keep their row structure either way.
func (e *Extractor) extractSpreadsheet(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = f.Close() }()

	wb, err := excelize.OpenReader(f)
	if err != nil {
		return Result{}, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer func() { _ = wb.Close() }()

	var b strings.Builder
	var warns []string
	sheets := wb.GetSheetList()
	for _, sheet := range sheets {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			warns = append(warns, fmt.Sprintf("sheet %q: %v", sheet, err))
			continue
		}
		if len(sheets) > 1 {
			b.WriteString(sheet + "\n")
		}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " | "))
			if line == "" {
				continue
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return Result{
		Text:     normalizeText(b.String()),
		Pages:    len(sheets),
		Method:   MethodSheetText,
		Warnings: warns,
	}, nil
}
