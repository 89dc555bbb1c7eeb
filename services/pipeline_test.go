package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covid-etl/models"
)

type fakeSource struct {
	rows []models.RawRow
	err  error
}

func (s *fakeSource) ReadRows() ([]models.RawRow, error) { return s.rows, s.err }

type fakeWriter struct {
	written []*models.Record
	err     error
}

func (w *fakeWriter) Write(_ context.Context, records []*models.Record) (int64, error) {
	if w.err != nil {
		return 0, w.err
	}
	w.written = append(w.written, records...)
	return int64(len(records)), nil
}

func (w *fakeWriter) Close() error { return nil }

func newTestPipeline(t *testing.T, src *fakeSource, w *fakeWriter) *Pipeline {
	logger := newTestLogger()
	p := &Pipeline{
		Source:      src,
		Cleaner:     NewCleaner(logger),
		Analyzer:    NewAnalyzer(logger),
		Reporter:    NewReporter(logger, 10),
		ReportPath:  filepath.Join(t.TempDir(), "covid_report.txt"),
		CleanShards: 2,
		Logger:      logger,
		now:         func() time.Time { return time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
	if w != nil {
		p.Writer = w
	}
	return p
}

func TestPipelineRun(t *testing.T) {
	src := &fakeSource{rows: []models.RawRow{
		row("2020-03-27", "Recife", "10", "1", "1653461"),
		row("2020-03-27", nil, "10", "1", "1"),
		row("2020-03-28", "Olinda", "4", "-1", "393115"),
		row("2020-03-28", "Olinda", "3", "0", "393115"),
	}}
	w := &fakeWriter{}
	p := newTestPipeline(t, src, w)

	res, report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, w.written, 2)

	onDisk, err := os.ReadFile(p.ReportPath)
	require.NoError(t, err)
	assert.Equal(t, string(onDisk), report)
	assert.Contains(t, report, "Generated at: 01/01/2021 00:00:00")
	assert.Equal(t, models.CityCases{City: "Recife", Confirmed: 10}, res.MaxCases)
	assert.Equal(t, models.CityCases{City: "Olinda", Confirmed: 3}, res.MinCases)
}

func TestPipelineWithoutWriter(t *testing.T) {
	src := &fakeSource{rows: []models.RawRow{row(nil, "Natal", 1, 0, nil)}}

	res, _, err := newTestPipeline(t, src, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Natal", res.MaxCases.City)
}

func TestPipelineAborts(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		ctx     context.Context
		src     *fakeSource
		w       *fakeWriter
		wantErr error
	}{
		{
			name:    "extraction failure",
			ctx:     context.Background(),
			src:     &fakeSource{err: models.ErrEmptyInput},
			w:       &fakeWriter{},
			wantErr: models.ErrEmptyInput,
		},
		{
			name:    "nothing survives cleaning",
			ctx:     context.Background(),
			src:     &fakeSource{rows: []models.RawRow{row(nil, "X", "-1", "0", nil)}},
			w:       &fakeWriter{},
			wantErr: models.ErrEmptyCleanedSet,
		},
		{
			name:    "persistence failure",
			ctx:     context.Background(),
			src:     &fakeSource{rows: []models.RawRow{row(nil, "X", "1", "0", nil)}},
			w:       &fakeWriter{err: assert.AnError},
			wantErr: assert.AnError,
		},
		{
			name:    "cancelled",
			ctx:     cancelled,
			src:     &fakeSource{rows: []models.RawRow{row(nil, "X", "1", "0", nil)}},
			w:       &fakeWriter{},
			wantErr: context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, report, err := newTestPipeline(t, tt.src, tt.w).Run(tt.ctx)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Nil(t, res)
			assert.Empty(t, report)
			assert.Empty(t, tt.w.written)
		})
	}
}
