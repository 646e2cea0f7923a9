package export

import (
	"bytes"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin    = 10.0
	pdfRowHeight = 6.0
)

// PDF renders the table on landscape A4 pages, repeating the header after
// each page break.
func PDF(t Table) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AddPage()

	if t.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(0, 8, t.Title)
		pdf.Ln(10)
	}

	pageW, pageH := pdf.GetPageSize()
	cols := len(t.Headers)
	if cols == 0 {
		cols = 1
	}
	colW := (pageW - 2*pdfMargin) / float64(cols)
	fontSize := 9.0
	if cols > 8 {
		fontSize = 7
	}

	header := func() {
		pdf.SetFont("Arial", "B", fontSize)
		for _, h := range t.Headers {
			pdf.CellFormat(colW, pdfRowHeight, h, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", fontSize)
	}
	header()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, row := range t.Rows {
		if pdf.GetY()+pdfRowHeight > pageH-pdfMargin {
			pdf.AddPage()
			header()
		}
		for i := 0; i < len(t.Headers); i++ {
			value := ""
			if i < len(row) {
				value = tr(row[i])
			}
			pdf.CellFormat(colW, pdfRowHeight, fit(pdf, value, colW), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fit truncates text that would overflow its cell.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > limit {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
