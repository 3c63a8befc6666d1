package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Table defines tabular export content.
type Table struct {
	Headers []string
	Rows    [][]string
}

// CSVExporter renders Table records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the table.
func (e *CSVExporter) Render(table Table) ([]byte, error) {
	if len(table.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(table.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range table.Rows {
		record := make([]string, len(table.Headers))
		for i := range table.Headers {
			if i < len(row) {
				record[i] = row[i]
			}
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
