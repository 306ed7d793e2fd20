package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Format names a supported export encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ErrUnsupportedFormat is returned by RendererFor for unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Table is the content of one export. Every row must have one cell per column.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// Renderer encodes a table onto w.
type Renderer interface {
	Render(w io.Writer, table Table) error
	ContentType() string
	Extension() string
}

// ParseFormat normalises a user supplied format. Empty means CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// RendererFor returns the renderer for f.
func RendererFor(f Format) (Renderer, error) {
	switch f {
	case FormatCSV:
		return CSV{}, nil
	case FormatPDF:
		return PDF{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

func (t Table) validate() error {
	if len(t.Columns) == 0 {
		return errors.New("export table has no columns")
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("export row %d has %d cells, want %d", i, len(row), len(t.Columns))
		}
	}
	return nil
}
