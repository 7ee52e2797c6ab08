package main

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	applog "expensetracker/internal/log"
)

// drainingServer stops listening as soon as Shutdown starts, like
// http.Server, and finishes Shutdown only when release is closed.
type drainingServer struct {
	closed   chan struct{}
	release  chan struct{}
	finished atomic.Bool
}

func (s *drainingServer) ListenAndServe() error {
	<-s.closed
	return http.ErrServerClosed
}

func (s *drainingServer) Shutdown(context.Context) error {
	close(s.closed)
	<-s.release
	s.finished.Store(true)
	return nil
}

func TestServeWaitsForDrain(t *testing.T) {
	srv := &drainingServer{closed: make(chan struct{}), release: make(chan struct{})}
	logger := applog.New(applog.Config{Output: io.Discard})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, logger) }()
	cancel()

	<-srv.closed
	select {
	case err := <-done:
		t.Fatalf("serve returned %v while requests were still draining", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(srv.release)
	if err := <-done; err != nil {
		t.Fatalf("serve() error = %v", err)
	}
	if !srv.finished.Load() {
		t.Error("serve returned before Shutdown finished")
	}
}
