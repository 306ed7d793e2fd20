package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSV renders a header line followed by one record per row. The title is not written.
type CSV struct{}

// ContentType implements Renderer.
func (CSV) ContentType() string { return "text/csv; charset=utf-8" }

// Extension implements Renderer.
func (CSV) Extension() string { return "csv" }

// Render implements Renderer.
func (CSV) Render(w io.Writer, table Table) error {
	if err := table.validate(); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := writer.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}
