package export

import (
	"bytes"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Report"

// XLSX renders the table into a single worksheet.
func XLSX(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(t.Sheet)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}
	if len(t.Headers) > 0 {
		last, err := excelize.ColumnNumberToName(len(t.Headers))
		if err != nil {
			return nil, err
		}
		_ = f.SetColWidth(sheet, "A", last, 18)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sheetName trims names to the 31 characters Excel allows.
func sheetName(name string) string {
	if name == "" {
		return defaultSheet
	}
	r := []rune(name)
	if len(r) > 31 {
		r = r[:31]
	}
	return string(r)
}
