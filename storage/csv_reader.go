package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"covid-etl/models"
)

// CSVReader reads raw rows from a delimited file with a header line.
type CSVReader struct {
	path      string
	delimiter rune
	limit     int
}

// NewCSVReader returns a reader for path. A positive limit caps the number of
// data rows returned; zero or negative reads the whole file.
func NewCSVReader(path string, delimiter rune, limit int) *CSVReader {
	if delimiter == 0 {
		delimiter = ','
	}
	return &CSVReader{path: path, delimiter: delimiter, limit: limit}
}

// ReadRows opens the file and returns its rows. Failures wrap models.ErrEmptyInput.
func (r *CSVReader) ReadRows() ([]models.RawRow, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w: %w", r.path, models.ErrEmptyInput, err)
	}
	defer f.Close()

	rows, err := r.decode(f)
	if err != nil {
		return nil, fmt.Errorf("csv: read %q: %w: %w", r.path, models.ErrEmptyInput, err)
	}
	return rows, nil
}

func (r *CSVReader) decode(src io.Reader) ([]models.RawRow, error) {
	cr := csv.NewReader(src)
	cr.Comma = r.delimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header line")
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []models.RawRow
	for r.limit <= 0 || len(rows) < r.limit {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", len(rows)+2, err)
		}

		row := make(models.RawRow, len(header))
		for i, col := range header {
			if i >= len(fields) || strings.TrimSpace(fields[i]) == "" {
				row[col] = nil
				continue
			}
			row[col] = fields[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
