// Command topemitters keeps the countries with the highest cumulative CO2
// emissions in a sustainable-energy CSV and writes them to a new CSV.
//
// Usage:
//
//	go run ./cmd/topemitters data/global-data-on-sustainable-energy.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"sustaindash/internal/logging"
	"sustaindash/internal/metrics"
	"sustaindash/internal/metrics/prom"
	"sustaindash/internal/pipeline"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	def := pipeline.DefaultBatchConfig()

	fs := flag.NewFlagSet("topemitters", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: topemitters [flags] [input.csv]")
		fs.PrintDefaults()
	}
	out := fs.String("out", def.Output, "output CSV path")
	arrowOut := fs.String("arrow", "", "also write the result as an Arrow IPC file")
	k := fs.Int("k", def.K, "number of entities to keep")
	from := fs.Int("from", def.YearMin, "first year, inclusive")
	to := fs.Int("to", def.YearMax, "last year, inclusive")
	entity := fs.String("entity", def.EntityColumn, "entity column")
	year := fs.String("year", def.YearColumn, "year column")
	metric := fs.String("metric", def.MetricColumn, "metric column summed per entity")
	drop := fs.String("drop", strings.Join(def.DropColumns, ","), "comma-separated columns to remove from the output")
	gateway := fs.String("pushgateway-url", "", "push run metrics to this Pushgateway")
	verbosity := fs.Int("v", 0, "log verbosity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return fmt.Errorf("expected at most one input file, got %d", fs.NArg())
	}

	cfg := def
	if fs.NArg() == 1 {
		cfg.Input = fs.Arg(0)
	}
	cfg.Output = *out
	cfg.ArrowOutput = *arrowOut
	cfg.K = *k
	cfg.YearMin, cfg.YearMax = *from, *to
	cfg.EntityColumn, cfg.YearColumn, cfg.MetricColumn = *entity, *year, *metric
	cfg.DropColumns = splitList(*drop)

	log := logging.New(stderr, *verbosity)

	var mb metrics.Backend = metrics.Nop{}
	if *gateway != "" {
		pb, err := prom.NewBackend(prom.WithPushgateway(*gateway, "topemitters"))
		if err != nil {
			return err
		}
		mb = pb
	}

	res, err := (&pipeline.Batch{Config: cfg, Log: log, Metrics: mb}).Run()
	if ferr := mb.Flush(); ferr != nil {
		log.Error(ferr, "metrics push failed")
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Top %d countries data saved to %s\n", cfg.K, res.Output)
	if res.ArrowOutput != "" {
		fmt.Fprintf(stdout, "Arrow copy saved to %s\n", res.ArrowOutput)
	}
	return nil
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
