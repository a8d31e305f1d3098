package pipeline

import (
	"github.com/go-logr/logr"

	"sustaindash/internal/engine"
	"sustaindash/internal/metrics"
	"sustaindash/internal/models"
	"sustaindash/internal/sink"
)

const chartJob = "dashboard"

// ChartConfig names the column roles of the dashboard chart.
type ChartConfig struct {
	EntityColumn string
	YearColumn   string
	ValueColumn  string
	Title        string
}

// DefaultChartConfig plots the renewable share per entity over the years.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		EntityColumn: "Entity",
		YearColumn:   "Year",
		ValueColumn:  "Renewable energy share in the total final energy consumption (%)",
		Title:        "Renewable Energy Share Over Time",
	}
}

// Required lists the columns an upload must have, in check order.
func (c ChartConfig) Required() []string {
	return []string{c.EntityColumn, c.YearColumn, c.ValueColumn}
}

// Chart turns one uploaded file into a figure. It holds no per-upload state.
type Chart struct {
	Config  ChartConfig
	Log     logr.Logger
	Metrics metrics.Backend
}

// Render loads name/data into a fresh table and plots it. On any failure it
// returns the empty figure together with the error that caused it, so the
// caller can stay fail-open while still logging the reason.
func (c *Chart) Render(name string, data []byte) (models.Figure, error) {
	m := metrics.OrNop(c.Metrics)

	var tbl *engine.Table
	err := step(m, chartJob, "load", func() (err error) {
		tbl, err = engine.NewLoader(c.Log).LoadBytes(name, data)
		return err
	})
	if err != nil {
		return models.EmptyFigure(), err
	}
	metrics.RecordRows(m, chartJob, "loaded", tbl.Len())

	err = step(m, chartJob, "validate", func() error {
		return engine.RequireColumns(tbl, c.Config.Required()...)
	})
	if err != nil {
		return models.EmptyFigure(), err
	}

	s := &sink.ChartSink{
		X:      c.Config.YearColumn,
		Y:      c.Config.ValueColumn,
		Series: c.Config.EntityColumn,
		Title:  c.Config.Title,
	}
	var fig models.Figure
	err = step(m, chartJob, "render", func() (err error) {
		fig, err = s.Consume(tbl)
		return err
	})
	if err != nil {
		return models.EmptyFigure(), err
	}
	return fig, nil
}
