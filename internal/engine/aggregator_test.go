package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emissions builds an Entity/Year/CO2 table from (entity, year, co2) triples.
// An empty string stands for a missing cell.
func emissions(t *testing.T, rows ...[3]string) *Table {
	t.Helper()
	vals := make([][]Value, len(rows))
	for i, r := range rows {
		vals[i] = []Value{ParseValue(r[0]), ParseValue(r[1]), ParseValue(r[2])}
	}
	return NewTable([]string{"Entity", "Year", "CO2"}, vals)
}

func query(k int) TopK {
	return TopK{
		YearColumn:   "Year",
		YearMin:      2000,
		YearMax:      2019,
		GroupColumn:  "Entity",
		MetricColumn: "CO2",
		K:            k,
	}
}

func entities(tbl *Table) []string {
	var out []string
	for i := 0; i < tbl.Len(); i++ {
		v, _ := tbl.Cell(i, "Entity")
		key, _ := v.Text()
		out = append(out, key)
	}
	return out
}

func TestSelectTopKScenario(t *testing.T) {
	tbl := emissions(t,
		[3]string{"A", "2001", "10"},
		[3]string{"B", "2001", "20"},
		[3]string{"A", "2002", "5"},
	)

	r, err := Rank(tbl, query(1))
	require.NoError(t, err)

	require.Len(t, r.Top, 1)
	assert.Equal(t, EntityTotal{Entity: "B", Total: 20, Rows: 1}, r.Top[0])
	assert.Equal(t, 2, r.Entities)

	require.Equal(t, 1, r.Table.Len())
	assert.Equal(t, []string{"B"}, entities(r.Table))
	co2, _ := r.Table.Cell(0, "CO2")
	assert.Equal(t, "20", co2.Raw)
}

func TestSelectTopKUsesRangeFilteredRows(t *testing.T) {
	tbl := emissions(t,
		[3]string{"A", "1999", "1000"},
		[3]string{"A", "2000", "1"},
		[3]string{"B", "2019", "2"},
		[3]string{"A", "2020", "1000"},
	)

	out, err := SelectTopK(tbl, query(1))
	require.NoError(t, err)

	// A's out-of-range rows neither count toward its total nor survive.
	assert.Equal(t, []string{"B"}, entities(out))
}

func TestSelectTopKPreservesRowOrder(t *testing.T) {
	tbl := emissions(t,
		[3]string{"C", "2003", "1"},
		[3]string{"A", "2001", "50"},
		[3]string{"B", "2002", "40"},
		[3]string{"A", "2002", "50"},
		[3]string{"C", "2004", "1"},
		[3]string{"B", "2001", "40"},
	)

	out, err := SelectTopK(tbl, query(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "A", "B"}, entities(out))

	var years []float64
	for i := 0; i < out.Len(); i++ {
		y, _ := out.Cell(i, "Year")
		f, _ := y.Float()
		years = append(years, f)
	}
	assert.Equal(t, []float64{2001, 2002, 2002, 2001}, years)
}

func TestSelectTopKTieBreakIsFirstAppearance(t *testing.T) {
	tbl := emissions(t,
		[3]string{"Late", "1990", "999"},
		[3]string{"Y", "2005", "10"},
		[3]string{"X", "2006", "10"},
		[3]string{"Late", "2007", "10"},
	)

	for i := 0; i < 20; i++ {
		r, err := Rank(tbl, query(2))
		require.NoError(t, err)
		require.Len(t, r.Top, 2)
		assert.Equal(t, "Y", r.Top[0].Entity)
		assert.Equal(t, "X", r.Top[1].Entity)
	}
}

func TestSelectTopKBoundaries(t *testing.T) {
	tbl := emissions(t,
		[3]string{"A", "2009", "1"},
		[3]string{"B", "2010", "2"},
		[3]string{"C", "2011", "3"},
	)

	t.Run("single year", func(t *testing.T) {
		q := query(5)
		q.YearMin, q.YearMax = 2010, 2010
		out, err := SelectTopK(tbl, q)
		require.NoError(t, err)
		assert.Equal(t, []string{"B"}, entities(out))
	})

	t.Run("k larger than entity count", func(t *testing.T) {
		r, err := Rank(tbl, query(10))
		require.NoError(t, err)
		assert.Len(t, r.Top, 3)
		assert.Equal(t, 3, r.Table.Len())
	})

	t.Run("empty range", func(t *testing.T) {
		q := query(3)
		q.YearMin, q.YearMax = 1900, 1901
		out, err := SelectTopK(tbl, q)
		require.NoError(t, err)
		assert.Equal(t, 0, out.Len())
		assert.Equal(t, tbl.Columns(), out.Columns())
	})
}

func TestSelectTopKMissingValues(t *testing.T) {
	tbl := emissions(t,
		[3]string{"A", "", "100"},
		[3]string{"A", "soon", "100"},
		[3]string{"A", "2001", ""},
		[3]string{"A", "2002", "3"},
		[3]string{"B", "2001", "2"},
		[3]string{"B", "2002", "n/a"},
		[3]string{"C", "2003", "lots"},
		[3]string{"", "2003", "500"},
	)

	r, err := Rank(tbl, query(3))
	require.NoError(t, err)

	assert.Equal(t, 2, r.DroppedYears)
	assert.Equal(t, 1, r.NonNumericMetrics)
	assert.Equal(t, []EntityTotal{
		{Entity: "A", Total: 3, Rows: 2},
		{Entity: "B", Total: 2, Rows: 2},
		{Entity: "C", Total: 0, Rows: 1},
	}, r.Top)

	// Missing metrics count as 0 but keep their rows; rows without an entity never match.
	assert.Equal(t, []string{"A", "A", "B", "B", "C"}, entities(r.Table))
}

func TestSelectTopKErrors(t *testing.T) {
	tbl := emissions(t, [3]string{"A", "2001", "1"})

	t.Run("missing column", func(t *testing.T) {
		q := query(1)
		q.MetricColumn = "Value_co2_emissions_kt_by_country"
		_, err := SelectTopK(tbl, q)
		require.ErrorIs(t, err, ErrSchema)

		var se *SchemaError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, []string{"Value_co2_emissions_kt_by_country"}, se.Missing)
	})

	t.Run("reversed range", func(t *testing.T) {
		q := query(1)
		q.YearMin, q.YearMax = 2019, 2000
		_, err := SelectTopK(tbl, q)
		require.ErrorIs(t, err, ErrRange)
	})

	t.Run("non-positive k", func(t *testing.T) {
		for _, k := range []int{0, -3} {
			_, err := SelectTopK(tbl, query(k))
			require.ErrorIs(t, err, ErrInvalidArgument)
		}
	})

	t.Run("schema checked before range", func(t *testing.T) {
		q := query(0)
		q.YearMin, q.YearMax = 2019, 2000
		q.GroupColumn = "Country"
		_, err := SelectTopK(tbl, q)
		require.ErrorIs(t, err, ErrSchema)
	})
}

func TestSelectTopKProperties(t *testing.T) {
	var rows [][3]string
	names := []string{"N", "M", "O", "P", "Q", "R", "S"}
	for i := 0; i < 140; i++ {
		year := 1995 + i%30
		rows = append(rows, [3]string{
			names[(i*5)%len(names)],
			NumberValue(float64(year)).Raw,
			NumberValue(float64((i * 37) % 11)).Raw,
		})
	}
	tbl := emissions(t, rows...)

	for k := 1; k <= len(names)+1; k++ {
		r, err := Rank(tbl, query(k))
		require.NoError(t, err)

		distinct := map[string]bool{}
		for i := 0; i < r.Table.Len(); i++ {
			v, _ := r.Table.Cell(i, "Entity")
			key, _ := v.Text()
			distinct[key] = true

			y, _ := r.Table.Cell(i, "Year")
			f, ok := y.Float()
			require.True(t, ok)
			assert.True(t, f >= 2000 && f <= 2019)
		}
		assert.LessOrEqual(t, len(distinct), k)

		for i := 1; i < len(r.Top); i++ {
			assert.GreaterOrEqual(t, r.Top[i-1].Total, r.Top[i].Total)
		}
	}
}

func TestSelectTopKInfiniteMetricsCountAsZero(t *testing.T) {
	tbl := emissions(t,
		[3]string{"A", "2001", "1"},
		[3]string{"N", "2001", "inf"},
		[3]string{"N", "2002", "-inf"},
		[3]string{"B", "2001", "50"},
	)

	r, err := Rank(tbl, query(1))
	require.NoError(t, err)
	require.Len(t, r.Top, 1)
	assert.Equal(t, EntityTotal{Entity: "B", Total: 50, Rows: 1}, r.Top[0])
	assert.Equal(t, 2, r.NonNumericMetrics)

	all, err := Rank(tbl, query(3))
	require.NoError(t, err)
	assert.Equal(t, []EntityTotal{
		{Entity: "B", Total: 50, Rows: 1},
		{Entity: "A", Total: 1, Rows: 1},
		{Entity: "N", Total: 0, Rows: 2},
	}, all.Top)
}
