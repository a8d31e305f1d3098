package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sustaindash/internal/api"
)

type fakeServer struct {
	startErr error
	addr     string
	stopped  chan struct{}
	once     sync.Once
}

func (f *fakeServer) Start(addr string) error {
	f.addr = addr
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.once.Do(func() { close(f.stopped) })
	return nil
}

func withFake(t *testing.T, f *fakeServer) *api.ServerConfig {
	t.Helper()
	var got api.ServerConfig
	orig := newServer
	t.Cleanup(func() { newServer = orig })
	newServer = func(cfg api.ServerConfig, h *api.Handler, log logr.Logger) server {
		got = cfg
		return f
	}
	return &got
}

func TestRunShutsDownOnCancel(t *testing.T) {
	f := &fakeServer{stopped: make(chan struct{})}
	cfg := withFake(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	var logs bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- run(ctx, []string{"-addr", "127.0.0.1:9999", "-max-upload", "1M"}, &logs) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after cancel")
	}
	assert.Equal(t, "127.0.0.1:9999", f.addr)
	assert.Equal(t, "1M", cfg.MaxUpload)
	assert.Equal(t, 20.0, cfg.Rate)
	assert.Contains(t, logs.String(), "server ready")
}

func TestRunStartError(t *testing.T) {
	f := &fakeServer{startErr: errors.New("address in use"), stopped: make(chan struct{})}
	withFake(t, f)

	err := run(context.Background(), nil, &bytes.Buffer{})
	require.EqualError(t, err, "address in use")
	assert.Equal(t, ":8050", f.addr)
}

func TestRunBadFlag(t *testing.T) {
	err := run(context.Background(), []string{"-bogus"}, &bytes.Buffer{})
	assert.Error(t, err)
}
