package pipeline

import (
	"fmt"

	"github.com/go-logr/logr"

	"sustaindash/internal/engine"
	"sustaindash/internal/metrics"
	"sustaindash/internal/sink"
)

const batchJob = "topemitters"

// BatchConfig holds the parameters of a top-emitters run.
type BatchConfig struct {
	Input        string
	Output       string
	ArrowOutput  string
	EntityColumn string
	YearColumn   string
	MetricColumn string
	YearMin      int
	YearMax      int
	K            int
	DropColumns  []string
}

// DefaultBatchConfig filters the sustainable-energy dataset down to the five
// largest CO2 emitters over 2000-2019 (2020 data is incomplete).
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		Input:        "data/global-data-on-sustainable-energy.csv",
		Output:       "data/top_5_countries.csv",
		EntityColumn: "Entity",
		YearColumn:   "Year",
		MetricColumn: "Value_co2_emissions_kt_by_country",
		YearMin:      2000,
		YearMax:      2019,
		K:            5,
		DropColumns: []string{
			"Financial flows to developing countries (US $)",
			"Renewable-electricity-generating-capacity-per-capita",
		},
	}
}

// BatchResult describes a finished run.
type BatchResult struct {
	Output      string
	ArrowOutput string
	Top         []engine.EntityTotal
	Rows        int
	Dropped     int
}

// Batch runs the filter end to end. Any error aborts before an output file is
// written; outputs are replaced atomically.
type Batch struct {
	Config  BatchConfig
	Log     logr.Logger
	Metrics metrics.Backend
}

// Run executes load → validate → rank → project → write.
func (b *Batch) Run() (*BatchResult, error) {
	cfg := b.Config
	m := metrics.OrNop(b.Metrics)
	log := b.Log.WithValues("input", cfg.Input)

	var (
		tbl     *engine.Table
		ranking *engine.Ranking
		res     = &BatchResult{}
	)

	// 1. Load
	err := step(m, batchJob, "load", func() (err error) {
		tbl, err = engine.NewLoader(log).Load(cfg.Input)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordRows(m, batchJob, "loaded", tbl.Len())

	// 2. Validate
	err = step(m, batchJob, "validate", func() error {
		return engine.RequireColumns(tbl, cfg.YearColumn, cfg.EntityColumn, cfg.MetricColumn)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Input, err)
	}

	// 3. Rank
	err = step(m, batchJob, "rank", func() (err error) {
		ranking, err = engine.Rank(tbl, engine.TopK{
			YearColumn:   cfg.YearColumn,
			YearMin:      cfg.YearMin,
			YearMax:      cfg.YearMax,
			GroupColumn:  cfg.EntityColumn,
			MetricColumn: cfg.MetricColumn,
			K:            cfg.K,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordRows(m, batchJob, "in_range", ranking.InRange)
	metrics.RecordRows(m, batchJob, "dropped_year", ranking.DroppedYears)
	metrics.RecordRows(m, batchJob, "selected", ranking.Table.Len())
	if ranking.DroppedYears > 0 {
		log.Info("rows without a numeric year were skipped", "count", ranking.DroppedYears)
	}
	for i, e := range ranking.Top {
		log.V(1).Info("selected entity", "rank", i+1, "entity", e.Entity, "total", e.Total, "rows", e.Rows)
	}

	// 4. Project
	out := ranking.Table.Drop(cfg.DropColumns...)

	// 5. Write
	err = step(m, batchJob, "write", func() (err error) {
		res.Output, err = (&sink.FileSink{Path: cfg.Output}).Consume(out)
		if err != nil || cfg.ArrowOutput == "" {
			return err
		}
		res.ArrowOutput, err = (&sink.ArrowSink{Path: cfg.ArrowOutput}).Consume(out)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordRows(m, batchJob, "written", out.Len())

	res.Top = ranking.Top
	res.Rows = out.Len()
	res.Dropped = ranking.DroppedYears
	return res, nil
}
