package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxLineBytes bounds a single CSV line.
const maxLineBytes = 1 << 20

// RowFunc receives one trimmed record and its 1-based line number.
type RowFunc func(line int, fields []string)

// RowErrorFunc receives a record the reader could not parse.
type RowErrorFunc func(line int, err error)

// ReadRows streams the records of r to onRow, skipping the header line and
// blank lines. Records may have any number of fields. Every physical line is
// one record, so a malformed line is passed to onError on its own and the
// following lines are still read. Only read failures of r itself are returned.
func ReadRows(r io.Reader, onRow RowFunc, onError RowErrorFunc) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	header := true
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		if header {
			header = false
			continue
		}
		record, err := parseLine(text)
		if err != nil {
			if onError != nil {
				onError(line, err)
			}
			continue
		}
		fields := make([]string, len(record))
		for i, f := range record {
			fields[i] = strings.TrimSpace(f)
		}
		onRow(line, fields)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read csv: %w", err)
	}
	return nil
}

// parseLine reads one line as a CSV record. Bare quotes inside unquoted
// fields are tolerated; an unterminated quoted field is an error.
func parseLine(text string) ([]string, error) {
	record, err := readRecord(text, false)
	if errors.Is(err, csv.ErrBareQuote) {
		return readRecord(text, true)
	}
	return record, err
}

func readRecord(text string, lazy bool) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = lazy
	reader.TrimLeadingSpace = true
	record, err := reader.Read()
	if err != nil {
		return nil, err
	}
	return record, nil
}
