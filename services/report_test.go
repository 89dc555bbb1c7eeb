package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covid-etl/models"
)

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		DeathsByCity: []models.CityDeaths{
			{City: "Recife", Deaths: 10},
			{City: "Olinda", Deaths: 1},
		},
		PopulationByCity: []models.CityPopulation{
			{City: "Recife", Population: pop(1653461)},
			{City: "Olinda", Population: pop(393115)},
			{City: "Caruaru", Population: nil},
		},
		MaxCases: models.CityCases{City: "Recife", Confirmed: 150},
		MinCases: models.CityCases{City: "Olinda", Confirmed: 2},
	}
}

func TestReporterRenderSections(t *testing.T) {
	rp := NewReporter(newTestLogger(), 10)
	var b strings.Builder

	at := time.Date(2020, 7, 4, 9, 30, 0, 0, time.UTC)
	require.NoError(t, rp.Render(&b, sampleResult(), at))
	out := b.String()

	assert.Contains(t, out, "Generated at: 04/07/2020 09:30:00")
	assert.Contains(t, out, "1. TOTAL DEATHS BY CITY:")
	assert.Contains(t, out, "1653461")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "Recife: 150 cases")
	assert.Contains(t, out, "Olinda: 2 cases")

	assert.Less(t, strings.Index(out, "Recife"), strings.Index(out, "Olinda"))
	assert.Less(t, strings.Index(out, "1."), strings.Index(out, "2."))
	assert.Less(t, strings.Index(out, "3. CITY WITH MOST CASES"), strings.Index(out, "4. CITY WITH FEWEST CASES"))
}

func TestReporterTopN(t *testing.T) {
	rp := NewReporter(newTestLogger(), 1)
	var b strings.Builder
	require.NoError(t, rp.Render(&b, sampleResult(), time.Now()))

	assert.NotContains(t, b.String(), "393115")
	assert.NotContains(t, b.String(), "n/a")
}

func TestReporterWriteFile(t *testing.T) {
	rp := NewReporter(newTestLogger(), 10)
	path := filepath.Join(t.TempDir(), "nested", "covid_report.txt")

	text, err := rp.WriteFile(path, sampleResult(), time.Now())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, text, string(data))
}
