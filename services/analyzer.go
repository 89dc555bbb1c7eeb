package services

import (
	"fmt"
	"sort"

	"covid-etl/models"
	"covid-etl/utils"
)

// Analyzer reduces a cleaned record set into an AnalysisResult.
type Analyzer struct {
	logger *utils.Logger
}

func NewAnalyzer(logger *utils.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// Analyze computes deaths per city, the population table and the case extrema.
// The input slice is read but never reordered or modified.
func (a *Analyzer) Analyze(records []*models.Record) (*models.AnalysisResult, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("analyzer: %w", models.ErrAnalysis)
	}

	result := &models.AnalysisResult{
		DeathsByCity:     deathsByCity(records),
		PopulationByCity: populationByCity(records),
	}
	result.MaxCases, result.MinCases = caseExtrema(records)

	a.logger.Info("[analyzer] %d records → %d cities | max %s (%d) | min %s (%d)",
		len(records), len(result.DeathsByCity),
		result.MaxCases.City, result.MaxCases.Confirmed,
		result.MinCases.City, result.MinCases.Confirmed)
	return result, nil
}

// deathsByCity sums deaths per city. Groups are kept in first-seen order so the
// stable sort resolves equal totals by first appearance.
func deathsByCity(records []*models.Record) []models.CityDeaths {
	index := make(map[string]int)
	var totals []models.CityDeaths

	for _, r := range records {
		i, ok := index[r.City]
		if !ok {
			i = len(totals)
			index[r.City] = i
			totals = append(totals, models.CityDeaths{City: r.City})
		}
		totals[i].Deaths += r.Deaths
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Deaths > totals[j].Deaths
	})
	return totals
}

// populationByCity keeps the first population seen for each city and orders
// the table by population descending, unknown populations last.
func populationByCity(records []*models.Record) []models.CityPopulation {
	seen := make(map[string]struct{})
	var pops []models.CityPopulation

	for _, r := range records {
		if _, dup := seen[r.City]; dup {
			continue
		}
		seen[r.City] = struct{}{}
		pops = append(pops, models.CityPopulation{City: r.City, Population: r.EstimatedPopulation})
	}

	sort.SliceStable(pops, func(i, j int) bool {
		pi, pj := pops[i].Population, pops[j].Population
		switch {
		case pi == nil:
			return false
		case pj == nil:
			return true
		}
		return *pi > *pj
	})
	return pops
}

// caseExtrema finds the records with the most and fewest confirmed cases in one
// pass. Only a strictly greater (or smaller) value replaces the current holder.
func caseExtrema(records []*models.Record) (maxCases, minCases models.CityCases) {
	first := models.CityCases{City: records[0].City, Confirmed: records[0].Confirmed}
	maxCases, minCases = first, first

	for _, r := range records[1:] {
		if r.Confirmed > maxCases.Confirmed {
			maxCases = models.CityCases{City: r.City, Confirmed: r.Confirmed}
		}
		if r.Confirmed < minCases.Confirmed {
			minCases = models.CityCases{City: r.City, Confirmed: r.Confirmed}
		}
	}
	return maxCases, minCases
}
