package models

// CityDeaths is the summed death count for one city.
type CityDeaths struct {
	City   string
	Deaths int64
}

// CityPopulation is the canonical population for one city; nil when unknown.
type CityPopulation struct {
	City       string
	Population *int64
}

// CityCases pairs a city with the confirmed count of a single record.
type CityCases struct {
	City      string
	Confirmed int64
}

// AnalysisResult holds the aggregates computed over one cleaned record set.
// It is built once per run and never modified afterwards.
type AnalysisResult struct {
	// DeathsByCity is ordered by total deaths descending, ties by first appearance.
	DeathsByCity []CityDeaths
	// PopulationByCity has one entry per city, ordered by population descending
	// with unknown populations last.
	PopulationByCity []CityPopulation
	MaxCases         CityCases
	MinCases         CityCases
}

// DeathsFor returns the death total for city and whether the city is present.
func (r *AnalysisResult) DeathsFor(city string) (int64, bool) {
	for _, d := range r.DeathsByCity {
		if d.City == city {
			return d.Deaths, true
		}
	}
	return 0, false
}
