package sink

import (
	"math"
	"sort"

	"sustaindash/internal/engine"
	"sustaindash/internal/models"
)

// ChartSink renders a line chart with one trace per series value.
type ChartSink struct {
	X      string
	Y      string
	Series string
	Title  string
}

var _ Sink[models.Figure] = (*ChartSink)(nil)

type point struct {
	x float64
	y *float64
}

// Consume never fails: a table that cannot be plotted yields the empty figure.
func (s *ChartSink) Consume(t *engine.Table) (models.Figure, error) {
	return s.Render(t), nil
}

// Render builds the figure. Rows with a missing series or a non-numeric or
// infinite x are skipped; a missing or infinite y leaves a gap in its line. Series keep first-appearance
// order and points are sorted by x.
func (s *ChartSink) Render(t *engine.Table) models.Figure {
	if t == nil || t.Len() == 0 || !engine.HasColumns(t, s.X, s.Y, s.Series) {
		return models.EmptyFigure()
	}
	xi, yi, si := t.ColumnIndex(s.X), t.ColumnIndex(s.Y), t.ColumnIndex(s.Series)

	// 1. Group points by series
	var order []string
	groups := make(map[string][]point)
	for r := 0; r < t.Len(); r++ {
		row := t.Row(r)
		key, ok := row[si].Text()
		if !ok {
			continue
		}
		x, ok := row[xi].Float()
		if !ok || math.IsInf(x, 0) {
			continue
		}
		p := point{x: x}
		if y, ok := row[yi].Float(); ok && !math.IsInf(y, 0) {
			p.y = &y
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}
	if len(order) == 0 {
		return models.EmptyFigure()
	}

	// 2. One trace per series, sorted along x
	fig := models.Figure{
		Data: make([]models.Trace, 0, len(order)),
		Layout: models.Layout{
			XAxis:  &models.Axis{Title: models.Title{Text: s.X}},
			YAxis:  &models.Axis{Title: models.Title{Text: s.Y}},
			Legend: &models.Legend{Title: models.Title{Text: s.Series}},
		},
	}
	if s.Title != "" {
		fig.Layout.Title = &models.Title{Text: s.Title}
	}
	for _, key := range order {
		pts := groups[key]
		sort.SliceStable(pts, func(a, b int) bool { return pts[a].x < pts[b].x })

		tr := models.Trace{
			Type: "scatter",
			Mode: "lines",
			Name: key,
			X:    make([]float64, len(pts)),
			Y:    make([]*float64, len(pts)),
		}
		for i, p := range pts {
			tr.X[i] = p.x
			tr.Y[i] = p.y
		}
		fig.Data = append(fig.Data, tr)
	}
	return fig
}
