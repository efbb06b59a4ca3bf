package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocx/rmos/internal/events"
	"github.com/ocx/rmos/internal/feasibility"
	"github.com/ocx/rmos/internal/kernel"
	"github.com/ocx/rmos/internal/store"
)

func testServerWithEvents(t *testing.T) (*Server, *events.EventBus) {
	t.Helper()
	reg := testRegistry(t)
	engine := feasibility.NewEngine(reg)
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	pool := kernel.NewWorkerPool(2)
	bus := events.NewEventBus()
	return NewServer(reg, engine, st, nil, pool, nil, NewRunEventEmitter(bus)), bus
}

func TestStreamRunsUnavailableWithoutEvents(t *testing.T) {
	s := testServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/rmos/runs/stream", nil)
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestStreamRunsUnavailableOverRedis(t *testing.T) {
	s := testServer(t)
	s.events = NewRunEventEmitter(&redisEmitter{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/rmos/runs/stream", nil)
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestStreamRunsDeliversRunCreatedEvent(t *testing.T) {
	s, bus := testServerWithEvents(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/rmos/runs/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.ServeHTTP(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return bus.SubscriberCount() > 0 }, time.Second, time.Millisecond)

	feasRec := postJSON(t, s, "/api/rmos/feasibility", goodFeasibilityBody())
	require.Equal(t, http.StatusOK, feasRec.Code)

	require.Eventually(t, func() bool { return rec.Body.Len() > 0 }, time.Second, time.Millisecond)
	cancel()
	<-done

	assert.Contains(t, rec.Body.String(), "event: run.created")
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
}
