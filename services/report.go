package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"covid-etl/models"
	"covid-etl/utils"
)

// Reporter renders an AnalysisResult as a plain-text report.
type Reporter struct {
	logger *utils.Logger
	// TopN limits the population section; zero or less shows every city.
	TopN int
}

func NewReporter(logger *utils.Logger, topN int) *Reporter {
	return &Reporter{logger: logger, TopN: topN}
}

// Render writes the report for r to w.
func (rp *Reporter) Render(w io.Writer, r *models.AnalysisResult, generatedAt time.Time) error {
	sep := strings.Repeat("=", 41)
	thin := strings.Repeat("=", 40)
	var b strings.Builder

	fmt.Fprintf(&b, "\nCOVID-19 DATA ANALYSIS REPORT\n%s\n\n", sep)
	fmt.Fprintf(&b, "Generated at: %s\n\n", generatedAt.Format("02/01/2006 15:04:05"))

	fmt.Fprintf(&b, "1. TOTAL DEATHS BY CITY:\n%s\n", thin)
	deaths := newReportTable("City", "Deaths")
	for _, d := range r.DeathsByCity {
		deaths.AppendRow(table.Row{d.City, d.Deaths})
	}
	b.WriteString(deaths.Render())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "2. ESTIMATED POPULATION:\n%s\n", thin)
	pops := r.PopulationByCity
	if rp.TopN > 0 && len(pops) > rp.TopN {
		pops = pops[:rp.TopN]
	}
	population := newReportTable("City", "Inhabitants")
	for _, p := range pops {
		population.AppendRow(table.Row{p.City, formatPopulation(p.Population)})
	}
	b.WriteString(population.Render())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "3. CITY WITH MOST CASES:\n%s\n%s: %d cases\n\n", thin, r.MaxCases.City, r.MaxCases.Confirmed)
	fmt.Fprintf(&b, "4. CITY WITH FEWEST CASES:\n%s\n%s: %d cases\n\n", thin, r.MinCases.City, r.MinCases.Confirmed)

	fmt.Fprintf(&b, "%s\nReport generated automatically by the COVID-19 data analysis pipeline.\n", sep)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteFile renders the report into path, creating parent directories, and
// returns the rendered text.
func (rp *Reporter) WriteFile(path string, r *models.AnalysisResult, generatedAt time.Time) (string, error) {
	var b strings.Builder
	if err := rp.Render(&b, r, generatedAt); err != nil {
		return "", fmt.Errorf("report: render: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("report: create output dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("report: write %q: %w", path, err)
	}

	rp.logger.Info("[report] Report written to %s", path)
	return b.String(), nil
}

func newReportTable(header ...any) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row(header))
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	return t
}

func formatPopulation(p *int64) string {
	if p == nil {
		return "n/a"
	}
	return strconv.FormatInt(*p, 10)
}
