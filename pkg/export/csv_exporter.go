package export

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	// Quoted lists columns that are always wrapped in double quotes.
	Quoted []string
}

func (d Dataset) quoted() map[string]bool {
	out := make(map[string]bool, len(d.Quoted))
	for _, h := range d.Quoted {
		out[h] = true
	}
	return out
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the header row followed by one line per row. Fields in
// Dataset.Quoted, and any field that would otherwise break the row, are
// quoted with embedded quotes doubled.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	quoted := data.quoted()
	buf := &bytes.Buffer{}
	w := bufio.NewWriter(buf)

	writeRecord(w, data.Headers, func(int) bool { return false })
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		writeRecord(w, record, func(i int) bool { return quoted[data.Headers[i]] })
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRecord(w *bufio.Writer, fields []string, force func(int) bool) {
	for i, field := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		field = flattenLine(field)
		if force(i) || needsQuotes(field) {
			w.WriteByte('"')
			w.WriteString(strings.ReplaceAll(field, `"`, `""`))
			w.WriteByte('"')
			continue
		}
		w.WriteString(field)
	}
	w.WriteByte('\n')
}

// flattenLine keeps every record on one physical line.
func flattenLine(field string) string {
	if !strings.ContainsAny(field, "\r\n") {
		return field
	}
	return strings.Join(strings.Fields(field), " ")
}

func needsQuotes(field string) bool {
	if field == "" {
		return false
	}
	return strings.ContainsAny(field, ",\"") || field[0] == ' ' || field[0] == '\t'
}
