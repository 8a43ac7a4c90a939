package realtime

import (
	"encoding/json"
	"log/slog"

	"github.com/ledgerstream/ledgerstream/internal/core/domain"
)

// Dispatcher drains the event bus and fans each event out to every matching
// subscriber. One event is serialized once, then enqueued per client; each
// client's writePump delivers independently, so a stalled peer delays
// nobody else. A failed enqueue means a dead connection and triggers an
// immediate unsubscribe, never a retry and never an error on the ledger
// write path.
type Dispatcher struct {
	events   <-chan domain.Event
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher wires the dispatcher to a bus subscription and the registry.
func NewDispatcher(events <-chan domain.Event, registry *Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		events:   events,
		registry: registry,
		logger:   logger,
	}
}

// Run consumes events until the bus closes. It is meant to run on its own
// goroutine; exactly one dispatcher drains a given subscription, which is
// what preserves per-subscriber event ordering.
func (d *Dispatcher) Run() {
	for event := range d.events {
		d.dispatch(event)
	}
	d.logger.Info("Broadcast dispatcher stopped")
}

func (d *Dispatcher) dispatch(event domain.Event) {
	frame := FrameForEvent(event)
	payload, err := json.Marshal(frame)
	if err != nil {
		d.logger.Error("Failed to serialize event frame", slog.String("frame_type", frame.Type), slog.String("error", err.Error()))
		return
	}

	clients := d.registry.Matching(event.EventAccountID())
	for _, client := range clients {
		if client.Enqueue(payload) {
			continue
		}
		d.logger.Warn("Dropping dead subscriber", slog.String("client_id", client.ID()))
		d.registry.Unsubscribe(client)
		client.Close()
	}
}
