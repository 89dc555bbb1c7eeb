package storage

import (
	"context"

	"covid-etl/models"
)

// RowSource delivers the raw rows for one pipeline run.
type RowSource interface {
	ReadRows() ([]models.RawRow, error)
}

// RecordWriter is the interface any storage backend must satisfy.
// Write returns the number of rows written.
type RecordWriter interface {
	Write(ctx context.Context, records []*models.Record) (int64, error)
	Close() error
}
