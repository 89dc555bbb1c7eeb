package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"covid-etl/models"
	"covid-etl/utils"
)

const batchSize = 50

// dialect captures the differences between the supported SQL backends.
type dialect struct {
	driver      string
	schema      []string
	placeholder func(n int) string
}

var dialects = map[string]dialect{
	"postgres": {
		driver: "postgres",
		schema: []string{`
			CREATE TABLE IF NOT EXISTS covid_data (
				id                   SERIAL PRIMARY KEY,
				date                 DATE,
				city                 TEXT   NOT NULL,
				confirmed            BIGINT NOT NULL CHECK (confirmed >= 0),
				deaths               BIGINT NOT NULL CHECK (deaths >= 0),
				estimated_population BIGINT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_covid_data_city ON covid_data(city)`,
		},
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	},
	"sqlite": {
		driver: "sqlite",
		schema: []string{`
			CREATE TABLE IF NOT EXISTS covid_data (
				id                   INTEGER PRIMARY KEY AUTOINCREMENT,
				date                 DATE,
				city                 TEXT    NOT NULL,
				confirmed            INTEGER NOT NULL CHECK (confirmed >= 0),
				deaths               INTEGER NOT NULL CHECK (deaths >= 0),
				estimated_population INTEGER
			)`,
			`CREATE INDEX IF NOT EXISTS idx_covid_data_city ON covid_data(city)`,
		},
		placeholder: func(int) string { return "?" },
	},
}

// SQLWriter persists cleaned records to the covid_data table.
type SQLWriter struct {
	db      *sql.DB
	dialect dialect

	// ReplaceExisting deletes previous rows before each Write.
	ReplaceExisting bool
}

// NewSQLWriter opens a connection for driver ("postgres" or "sqlite"), pings it
// using retry, creates the schema and returns a ready-to-use SQLWriter.
func NewSQLWriter(driver, dsn string, retry *utils.RetryConfig) (*SQLWriter, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("sql: unsupported driver %q", driver)
	}

	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1}
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", driver, err)
	}

	if err := retry.Do(driver+" ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", driver, err)
	}

	w := &SQLWriter{db: db, dialect: d}
	if err := w.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: migrate: %w", driver, err)
	}
	return w, nil
}

func (w *SQLWriter) migrate() error {
	for _, stmt := range w.dialect.schema {
		if _, err := w.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Write inserts all records in batches inside a single transaction and returns
// the number of rows written. Nothing is committed if any batch fails.
func (w *SQLWriter) Write(ctx context.Context, records []*models.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin: %w", w.dialect.driver, err)
	}
	defer func() { _ = tx.Rollback() }()

	if w.ReplaceExisting {
		if _, err := tx.ExecContext(ctx, "DELETE FROM covid_data"); err != nil {
			return 0, fmt.Errorf("%s: clear: %w", w.dialect.driver, err)
		}
	}

	var written int64
	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))
		n, err := w.insertBatch(ctx, tx, records[i:end])
		if err != nil {
			return 0, fmt.Errorf("%s: insert batch at %d: %w", w.dialect.driver, i, err)
		}
		written += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", w.dialect.driver, err)
	}
	return written, nil
}

func (w *SQLWriter) insertBatch(ctx context.Context, tx *sql.Tx, batch []*models.Record) (int64, error) {
	const cols = 5
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*cols)

	for idx, r := range batch {
		ph := make([]string, cols)
		for c := range ph {
			ph[c] = w.dialect.placeholder(idx*cols + c + 1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		valueArgs = append(valueArgs, recordArgs(r)...)
	}

	query := fmt.Sprintf(
		"INSERT INTO covid_data (date, city, confirmed, deaths, estimated_population) VALUES %s",
		strings.Join(valueStrings, ","))

	res, err := tx.ExecContext(ctx, query, valueArgs...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return int64(len(batch)), nil
	}
	return n, nil
}

// recordArgs maps nil optional fields to SQL NULL.
func recordArgs(r *models.Record) []any {
	var date, population any
	if r.Date != nil {
		date = *r.Date
	}
	if r.EstimatedPopulation != nil {
		population = *r.EstimatedPopulation
	}
	return []any{date, r.City, r.Confirmed, r.Deaths, population}
}

// Count returns the number of rows currently stored.
func (w *SQLWriter) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := w.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM covid_data").Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: count: %w", w.dialect.driver, err)
	}
	return n, nil
}

func (w *SQLWriter) Close() error {
	return w.db.Close()
}
