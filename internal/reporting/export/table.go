// Package export renders report tables as CSV, XLSX and PDF documents.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fuel-dashboard/internal/observability/metrics"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ErrUnsupportedFormat is returned for unknown formats.
var ErrUnsupportedFormat = errors.New("export: unsupported format")

// ParseFormat parses a format name, case-insensitive.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Table is a rectangular report ready to render.
type Table struct {
	Title   string
	Sheet   string
	Headers []string
	Rows    [][]string
}

// Filename builds a download name like "user_detail_2026-06-01.csv".
func Filename(base string, f Format, at time.Time) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "report"
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	return fmt.Sprintf("%s_%s.%s", base, at.UTC().Format("2006-01-02"), f)
}

// Render renders the table in the given format.
func Render(t Table, f Format) (data []byte, err error) {
	start := time.Now()
	defer func() {
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultError
		}
		metrics.ObserveExport(string(f), result, time.Since(start))
	}()

	switch f {
	case FormatCSV:
		return CSV(t)
	case FormatXLSX:
		return XLSX(t)
	case FormatPDF:
		return PDF(t)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}
