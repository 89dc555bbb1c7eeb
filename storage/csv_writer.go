package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"covid-etl/models"
)

// CSVWriter exports cleaned records to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{
		models.ColDate, models.ColCity, "confirmed", "deaths", models.ColPopulation,
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends the records to the file and returns the number written.
func (c *CSVWriter) Write(records []*models.Record) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int64
	for _, r := range records {
		date, population := "", ""
		if r.Date != nil {
			date = r.Date.Format("2006-01-02")
		}
		if r.EstimatedPopulation != nil {
			population = strconv.FormatInt(*r.EstimatedPopulation, 10)
		}
		row := []string{
			date,
			r.City,
			strconv.FormatInt(r.Confirmed, 10),
			strconv.FormatInt(r.Deaths, 10),
			population,
		}
		if err := c.writer.Write(row); err != nil {
			return n, fmt.Errorf("csv: write row: %w", err)
		}
		n++
	}

	c.writer.Flush()
	return n, c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
