package httpapi

import (
	"context"
	"encoding/json"
	"log"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ocx/rmos/internal/events"
	"github.com/ocx/rmos/internal/store"
)

// RunEventEmitter publishes lightweight notifications alongside every
// persisted RunArtifact so collaborators outside the core (the browser
// client, art-studio tools) can react without polling GET /runs. It
// wraps events.EventEmitter: in-memory by default, Redis pub/sub when
// configured.
type RunEventEmitter struct {
	bus events.EventEmitter
}

// NewRunEventEmitter wraps bus (an in-memory events.EventBus or a
// Redis-backed emitter from NewRedisRunEventBus) for RMOS's three
// run-lifecycle event types.
func NewRunEventEmitter(bus events.EventEmitter) *RunEventEmitter {
	return &RunEventEmitter{bus: bus}
}

func (e *RunEventEmitter) emit(eventType string, a store.RunArtifact) {
	e.bus.Emit(eventType, "/api/rmos", a.RunID, map[string]interface{}{
		"run_id":      a.RunID,
		"kind":        string(a.Kind),
		"status":      string(a.Status),
		"tool_id":     a.ToolID,
		"material_id": a.MaterialID,
		"machine_id":  a.MachineID,
		"risk_bucket": string(a.Feasibility.RiskBucket),
	})
}

// Created notifies subscribers a new OK artifact was written.
func (e *RunEventEmitter) Created(a store.RunArtifact) { e.emit("run.created", a) }

// Blocked notifies subscribers a BLOCKED artifact was written.
func (e *RunEventEmitter) Blocked(a store.RunArtifact) { e.emit("run.blocked", a) }

// Errored notifies subscribers an ERROR artifact was written.
func (e *RunEventEmitter) Errored(a store.RunArtifact) { e.emit("run.error", a) }

// Bus returns the underlying in-memory bus, or nil when run events are
// published to Redis instead (a Redis-backed deployment has no
// in-process subscriber list to stream from; each instance would only
// see its own publishes, not the whole fleet's).
func (e *RunEventEmitter) Bus() *events.EventBus {
	bus, _ := e.bus.(*events.EventBus)
	return bus
}

// redisEmitter adapts a go-redis client to events.EventEmitter by
// publishing each CloudEvent-shaped payload to a channel named after
// the event type, for cross-process fanout across multiple façade
// instances.
type redisEmitter struct {
	client *goredis.Client
	prefix string
}

// NewRedisRunEventBus builds an events.EventEmitter that publishes to
// Redis instead of holding subscribers in-process, for multi-instance
// deployments of the façade.
func NewRedisRunEventBus(client *goredis.Client, channelPrefix string) events.EventEmitter {
	if channelPrefix == "" {
		channelPrefix = "rmos:events:"
	}
	return &redisEmitter{client: client, prefix: channelPrefix}
}

func (r *redisEmitter) Emit(eventType, source, subject string, data map[string]interface{}) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":    eventType,
		"source":  source,
		"subject": subject,
		"data":    data,
	})
	if err != nil {
		log.Printf("httpapi: encode run event %s: %v", eventType, err)
		return
	}
	if err := r.client.Publish(context.Background(), r.prefix+eventType, payload).Err(); err != nil {
		log.Printf("httpapi: publish run event %s: %v", eventType, err)
	}
}
