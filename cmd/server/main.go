// Command server runs the upload-and-chart dashboard.
//
// Usage:
//
//	go run ./cmd/server -addr :8050
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"sustaindash/internal/api"
	"sustaindash/internal/logging"
	"sustaindash/internal/metrics/prom"
	"sustaindash/internal/pipeline"
)

// server is the part of *echo.Echo that run drives; tests swap it out.
type server interface {
	Start(address string) error
	Shutdown(ctx context.Context) error
}

var newServer = func(cfg api.ServerConfig, h *api.Handler, log logr.Logger) server {
	return api.NewServer(cfg, h, log)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", ":8050", "listen address")
	maxUpload := fs.String("max-upload", "32M", "maximum request body size")
	rps := fs.Float64("rate", 20, "chart requests per second per client IP (0 disables)")
	verbosity := fs.Int("v", 0, "log verbosity")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := logging.New(stderr, *verbosity)

	// 1. Wire dependencies explicitly
	mb, err := prom.NewBackend()
	if err != nil {
		return err
	}
	chart := &pipeline.Chart{
		Config:  pipeline.DefaultChartConfig(),
		Log:     log.WithName("chart"),
		Metrics: mb,
	}
	h := api.NewHandler(chart, log.WithName("api"), mb.Handler())
	srv := newServer(api.ServerConfig{MaxUpload: *maxUpload, Rate: *rps}, h, log.WithName("http"))

	// 2. Serve until the context ends, then drain
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server ready", "addr", *addr)
		if err := srv.Start(*addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
