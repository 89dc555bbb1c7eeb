package models

import (
	"errors"
	"time"
)

// Column names expected in the source file.
const (
	ColDate       = "date"
	ColCity       = "city"
	ColConfirmed  = "last_available_confirmed"
	ColDeaths     = "last_available_deaths"
	ColPopulation = "estimated_population"
)

var (
	// ErrEmptyInput means the source rows could not be obtained at all.
	ErrEmptyInput = errors.New("input rows could not be obtained")
	// ErrEmptyCleanedSet means cleaning produced zero records.
	ErrEmptyCleanedSet = errors.New("no valid records after cleaning")
	// ErrAnalysis is returned when aggregates are requested over an empty record set.
	ErrAnalysis = errors.New("cannot analyze an empty record set")
)

// RawRow is one untyped row as delivered by the source adapter.
// Absent cells are either missing keys or nil values.
type RawRow map[string]any

// Record is a cleaned, validated row ready for aggregation and storage.
// Date and EstimatedPopulation are nil when the source value could not be parsed.
type Record struct {
	Date                *time.Time
	City                string `validate:"required"`
	Confirmed           int64  `validate:"gte=0"`
	Deaths              int64  `validate:"gte=0"`
	EstimatedPopulation *int64 `validate:"omitnil,gte=0"`
}
