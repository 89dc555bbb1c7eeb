package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covid-etl/models"
)

const sampleCSV = "\ufeffcity,city_ibge_code,date,epidemiological_week,estimated_population,last_available_confirmed,last_available_deaths\n" +
	"Rio Branco,1200401,2020-03-17,202012,413418,3,0\n" +
	"São Paulo,3550308,2020-03-17,202012,,164,1\n" +
	",,2020-03-18,202012,,1,0\n" +
	"Recife,2611606,2020-03-18,202012,1653461,5,0\n"

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCSVReaderReadsAllRows(t *testing.T) {
	path := writeTemp(t, "caso_full.csv", sampleCSV)

	rows, err := NewCSVReader(path, ',', 0).ReadRows()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "Rio Branco", rows[0][models.ColCity])
	assert.Equal(t, "413418", rows[0][models.ColPopulation])
	assert.Nil(t, rows[1][models.ColPopulation])
	assert.Nil(t, rows[2][models.ColCity])
	assert.Equal(t, "5", rows[3][models.ColConfirmed])
}

func TestCSVReaderRespectsLimit(t *testing.T) {
	path := writeTemp(t, "caso_full.csv", sampleCSV)

	rows, err := NewCSVReader(path, ',', 2).ReadRows()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "São Paulo", rows[1][models.ColCity])
}

func TestCSVReaderCustomDelimiterAndShortLines(t *testing.T) {
	path := writeTemp(t, "semi.csv", "city;last_available_confirmed;last_available_deaths\nNatal;4\n")

	rows, err := NewCSVReader(path, ';', 0).ReadRows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Natal", rows[0][models.ColCity])
	assert.Nil(t, rows[0][models.ColDeaths])
}

func TestCSVReaderFailures(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.csv") }},
		{"empty file", func(t *testing.T) string { return writeTemp(t, "empty.csv", "") }},
		{"bad quoting", func(t *testing.T) string { return writeTemp(t, "bad.csv", "city\n\"unterminated\n") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := NewCSVReader(tt.path(t), ',', 0).ReadRows()
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrEmptyInput))
			assert.Nil(t, rows)
		})
	}
}

func TestCSVWriterWritesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "clean.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	date := time.Date(2020, 3, 17, 0, 0, 0, 0, time.UTC)
	pop := int64(413418)
	n, err := w.Write([]*models.Record{
		{Date: &date, City: "Rio Branco", Confirmed: 3, Deaths: 0, EstimatedPopulation: &pop},
		{City: "São Paulo", Confirmed: 164, Deaths: 1},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{
		"date,city,confirmed,deaths,estimated_population",
		"2020-03-17,Rio Branco,3,0,413418",
		",São Paulo,164,1,",
	}, lines)
}
