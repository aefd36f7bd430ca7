package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInOrderClosesStoresAfterServerDrains(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	var drained atomic.Bool
	var order []string
	steps := []shutdownStep{
		{name: "http-server", op: func(context.Context) error {
			time.Sleep(50 * time.Millisecond)
			drained.Store(true)
			order = append(order, "http-server")
			return nil
		}},
		{name: "postgres", op: func(context.Context) error {
			assert.True(t, drained.Load(), "pool closed before the server drained")
			order = append(order, "postgres")
			return nil
		}},
		{name: "telemetry", op: func(context.Context) error {
			order = append(order, "telemetry")
			return nil
		}},
	}

	require.NoError(t, inOrder(steps, logger)(context.Background()))
	assert.Equal(t, []string{"http-server", "postgres", "telemetry"}, order)
}

func TestInOrderKeepsGoingAfterFailure(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	boom := errors.New("boom")

	var telemetryRan bool
	err := inOrder([]shutdownStep{
		{name: "redis", op: func(context.Context) error { return boom }},
		{name: "telemetry", op: func(context.Context) error {
			telemetryRan = true
			return nil
		}},
	}, logger)(context.Background())

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "redis")
	assert.True(t, telemetryRan)
}

func TestInOrderWaitsForInFlightRequest(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	started := make(chan struct{})
	var finished atomic.Bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		time.Sleep(100 * time.Millisecond)
		finished.Store(true)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(ts.Close)

	done := make(chan error, 1)
	go func() {
		resp, err := http.Get(ts.URL)
		if err == nil {
			_ = resp.Body.Close()
		}
		done <- err
	}()
	<-started

	var storeClosedEarly atomic.Bool
	steps := []shutdownStep{
		{name: "http-server", op: ts.Config.Shutdown},
		{name: "postgres", op: func(context.Context) error {
			storeClosedEarly.Store(!finished.Load())
			return nil
		}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, inOrder(steps, logger)(ctx))
	require.NoError(t, <-done)
	assert.False(t, storeClosedEarly.Load())
}

func TestStoresWithoutBackingConnectionsHaveNoClosers(t *testing.T) {
	assert.Empty(t, (&stores{}).closers())
}
