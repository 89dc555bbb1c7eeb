package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"covid-etl/models"
	"covid-etl/utils"
)

// dateLayouts are tried in order when a date cell is a string.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// Cleaner transforms raw source rows into validated Records.
type Cleaner struct {
	logger   *utils.Logger
	validate *validator.Validate
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Clean converts rows to Records, preserving input order. Rows that fail a
// mandatory field are dropped; optional fields that fail to parse become nil.
func (c *Cleaner) Clean(rows []models.RawRow) []*models.Record {
	result := c.cleanRows(rows)
	c.logger.Info("[cleaner] Cleaned %d → %d records (dropped %d)",
		len(rows), len(result), len(rows)-len(result))
	return result
}

// CleanSharded cleans contiguous shards of rows concurrently and concatenates
// the results in shard order. The output is identical to Clean(rows).
func (c *Cleaner) CleanSharded(rows []models.RawRow, shards int) []*models.Record {
	if shards <= 1 || len(rows) < 2 {
		return c.Clean(rows)
	}
	if shards > len(rows) {
		shards = len(rows)
	}

	size := (len(rows) + shards - 1) / shards
	parts := make([][]*models.Record, (len(rows)+size-1)/size)
	pool := utils.NewWorkerPool(shards)

	for i := range parts {
		chunk := rows[i*size : min((i+1)*size, len(rows))]
		pool.Submit(func() {
			parts[i] = c.cleanRows(chunk)
		})
	}
	pool.Wait()

	result := make([]*models.Record, 0, len(rows))
	for _, p := range parts {
		result = append(result, p...)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d records in %d shards (dropped %d)",
		len(rows), len(result), len(parts), len(rows)-len(result))
	return result
}

func (c *Cleaner) cleanRows(rows []models.RawRow) []*models.Record {
	result := make([]*models.Record, 0, len(rows))
	for i, row := range rows {
		rec, reason := c.cleanRow(row)
		if rec == nil {
			c.logger.Debug("[cleaner] Dropping row %d: %s", i, reason)
			continue
		}
		result = append(result, rec)
	}
	return result
}

// cleanRow returns the Record for row, or nil and the reason it was rejected.
func (c *Cleaner) cleanRow(row models.RawRow) (*models.Record, string) {
	city, confirmedRaw, deathsRaw := row[models.ColCity], row[models.ColConfirmed], row[models.ColDeaths]
	mandatory := []struct {
		col string
		val any
	}{
		{models.ColCity, city},
		{models.ColConfirmed, confirmedRaw},
		{models.ColDeaths, deathsRaw},
	}
	for _, m := range mandatory {
		if isMissing(m.val) {
			return nil, "missing " + m.col
		}
	}

	rec := &models.Record{City: textValue(city)}

	if d, ok := parseDate(row[models.ColDate]); ok {
		rec.Date = &d
	}

	confirmed, ok := parseCount(confirmedRaw)
	if !ok {
		return nil, fmt.Sprintf("non-numeric %s %v", models.ColConfirmed, confirmedRaw)
	}
	deaths, ok := parseCount(deathsRaw)
	if !ok {
		return nil, fmt.Sprintf("non-numeric %s %v", models.ColDeaths, deathsRaw)
	}
	rec.Confirmed, rec.Deaths = confirmed, deaths

	if pop, ok := parseCount(row[models.ColPopulation]); ok && pop >= 0 {
		rec.EstimatedPopulation = &pop
	}

	if rec.Confirmed < 0 || rec.Deaths < 0 {
		return nil, fmt.Sprintf("negative counts (confirmed=%d, deaths=%d)", rec.Confirmed, rec.Deaths)
	}

	if err := c.validate.Struct(rec); err != nil {
		return nil, err.Error()
	}
	return rec, ""
}

func isMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

func textValue(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// parseCount coerces v to an integer. Integral floats and numeric strings such
// as "12.0" or "1e3" are accepted; fractions, NaN and infinities are not.
func parseCount(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float32:
		return floatToCount(float64(x))
	case float64:
		return floatToCount(x)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return floatToCount(f)
	}
	return 0, false
}

func floatToCount(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func parseDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return *x, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
