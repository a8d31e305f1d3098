package engine

import (
	"fmt"
	"math"
	"sort"
)

// TopK selects the K entities with the largest metric total inside an
// inclusive year range.
type TopK struct {
	YearColumn   string
	YearMin      int
	YearMax      int
	GroupColumn  string
	MetricColumn string
	K            int
}

// EntityTotal is one entry of the per-entity aggregate.
type EntityTotal struct {
	Entity string  `json:"entity"`
	Total  float64 `json:"total"`
	Rows   int     `json:"rows"`
}

// Ranking is the result of Rank.
type Ranking struct {
	// Table holds the range-filtered rows of the selected entities.
	Table *Table
	// Top is the selected entities, highest total first.
	Top []EntityTotal
	// Entities is the number of distinct entities inside the year range.
	Entities int
	// InRange is the number of rows that passed the year filter.
	InRange int
	// DroppedYears counts rows skipped for a missing or non-numeric year.
	DroppedYears int
	// NonNumericMetrics counts present but non-numeric or non-finite metric
	// cells summed as 0.
	NonNumericMetrics int
}

// Validate checks the query against t. Errors are reported in the order
// schema, range, argument.
func (q TopK) Validate(t *Table) error {
	if err := RequireColumns(t, q.YearColumn, q.GroupColumn, q.MetricColumn); err != nil {
		return err
	}
	if q.YearMin > q.YearMax {
		return &RangeError{Min: q.YearMin, Max: q.YearMax}
	}
	if q.K <= 0 {
		return fmt.Errorf("%w: k must be >= 1, got %d", ErrInvalidArgument, q.K)
	}
	return nil
}

// SelectTopK returns the rows of t inside the year range that belong to the
// K entities with the largest metric totals, in their original order.
func SelectTopK(t *Table, q TopK) (*Table, error) {
	r, err := Rank(t, q)
	if err != nil {
		return nil, err
	}
	return r.Table, nil
}

// Rank is SelectTopK with the aggregate and filter diagnostics attached.
func Rank(t *Table, q TopK) (*Ranking, error) {
	if err := q.Validate(t); err != nil {
		return nil, err
	}

	yearIdx := t.index[q.YearColumn]
	groupIdx := t.index[q.GroupColumn]
	metricIdx := t.index[q.MetricColumn]
	lo, hi := float64(q.YearMin), float64(q.YearMax)

	res := &Ranking{}

	// 1. Range filter (inclusive, null/non-numeric years dropped)
	inRange := make([]int, 0, len(t.rows))
	for i, row := range t.rows {
		y, ok := row[yearIdx].Float()
		if !ok {
			res.DroppedYears++
			continue
		}
		if y < lo || y > hi {
			continue
		}
		inRange = append(inRange, i)
	}
	res.InRange = len(inRange)

	// 2. Aggregate per entity, keeping first-encounter order
	pos := make(map[string]int)
	var totals []EntityTotal
	for _, i := range inRange {
		row := t.rows[i]
		key, ok := row[groupIdx].Text()
		if !ok {
			continue
		}
		j, seen := pos[key]
		if !seen {
			j = len(totals)
			pos[key] = j
			totals = append(totals, EntityTotal{Entity: key})
		}
		m := row[metricIdx]
		if v, ok := m.Float(); ok && !math.IsInf(v, 0) {
			totals[j].Total += v
		} else if m.Kind != KindNull {
			res.NonNumericMetrics++
		}
		totals[j].Rows++
	}
	res.Entities = len(totals)

	// 3. Rank: descending total, ties keep first-encounter order
	sort.SliceStable(totals, func(a, b int) bool { return totals[a].Total > totals[b].Total })
	if len(totals) > q.K {
		totals = totals[:q.K]
	}
	res.Top = totals

	// 4. Final selection over the range-filtered rows
	selected := make(map[string]struct{}, len(totals))
	for _, e := range totals {
		selected[e.Entity] = struct{}{}
	}
	keep := make([]int, 0, len(inRange))
	for _, i := range inRange {
		key, ok := t.rows[i][groupIdx].Text()
		if !ok {
			continue
		}
		if _, hit := selected[key]; hit {
			keep = append(keep, i)
		}
	}
	res.Table = t.selectRows(keep)
	return res, nil
}
