package services

import (
	"context"
	"fmt"
	"time"

	"covid-etl/models"
	"covid-etl/storage"
	"covid-etl/utils"
)

// Pipeline sequences extraction, cleaning, analysis, persistence and reporting.
// Each stage runs once; any failure ends the run.
type Pipeline struct {
	Source   storage.RowSource
	Cleaner  *Cleaner
	Analyzer *Analyzer
	Reporter *Reporter
	// Writer may be nil, in which case persistence is skipped.
	Writer storage.RecordWriter
	// Export, when set, receives a CSV copy of the cleaned records.
	Export *storage.CSVWriter

	ReportPath  string
	CleanShards int
	Logger      *utils.Logger

	now func() time.Time
}

// Run executes the pipeline and returns the analysis it reported on together
// with the report text written to ReportPath.
func (p *Pipeline) Run(ctx context.Context) (*models.AnalysisResult, string, error) {
	rows, err := p.Source.ReadRows()
	if err != nil {
		return nil, "", fmt.Errorf("extract: %w", err)
	}
	p.Logger.Info("[pipeline] Extracted %d raw rows", len(rows))

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	records := p.Cleaner.CleanSharded(rows, p.CleanShards)
	if len(records) == 0 {
		return nil, "", fmt.Errorf("clean: %w", models.ErrEmptyCleanedSet)
	}

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	result, err := p.Analyzer.Analyze(records)
	if err != nil {
		return nil, "", fmt.Errorf("analyze: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if p.Writer != nil {
		n, err := p.Writer.Write(ctx, records)
		if err != nil {
			return nil, "", fmt.Errorf("persist: %w", err)
		}
		p.Logger.Info("[pipeline] %d records stored (table: covid_data)", n)
	} else {
		p.Logger.Warn("[pipeline] Database disabled, skipping persistence")
	}

	if p.Export != nil {
		n, err := p.Export.Write(records)
		if err != nil {
			return nil, "", fmt.Errorf("export: %w", err)
		}
		p.Logger.Info("[pipeline] %d cleaned records exported to CSV", n)
	}

	now := p.now
	if now == nil {
		now = time.Now
	}
	report, err := p.Reporter.WriteFile(p.ReportPath, result, now())
	if err != nil {
		return nil, "", fmt.Errorf("report: %w", err)
	}
	return result, report, nil
}
