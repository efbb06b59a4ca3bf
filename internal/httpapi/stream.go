package httpapi

import (
	"net/http"
)

// handleStreamRuns serves GET /api/rmos/runs/stream: a Server-Sent
// Events feed of run.created/run.blocked/run.error notifications, so a
// collaborator can react to new artifacts without polling GET /runs.
// Only available when run events are in-memory (Bus() is non-nil);
// a Redis-backed deployment has no single process to subscribe against.
func (s *Server) handleStreamRuns(w http.ResponseWriter, r *http.Request) {
	if s.events == nil || s.events.Bus() == nil {
		writeError(w, http.StatusNotImplemented, "STREAM_UNAVAILABLE", "run event stream is not available in this deployment")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "streaming unsupported")
		return
	}

	bus := s.events.Bus()
	ch := bus.Subscribe(r.URL.Query()["type"]...)
	defer bus.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			frame, err := event.SSEFormat()
			if err != nil {
				continue
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
