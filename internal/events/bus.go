package events

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ledgerstream/ledgerstream/internal/core/domain"
	portssvc "github.com/ledgerstream/ledgerstream/internal/core/ports/services"
)

// Bus is the in-process publish point between the ledger write path and the
// delivery layer. Publish never blocks and never fails: each subscriber gets
// a bounded queue, and when a queue is full the oldest undelivered event for
// that subscriber is dropped. Backpressure favors ledger liveness over
// delivery completeness.
type Bus struct {
	logger   *slog.Logger
	capacity int
	dropped  atomic.Uint64

	mu     sync.Mutex
	subs   []chan domain.Event
	closed bool
}

// NewBus creates a bus whose subscriber queues hold capacity events each.
func NewBus(capacity int, logger *slog.Logger) *Bus {
	if capacity < 1 {
		capacity = 1
	}
	return &Bus{
		logger:   logger,
		capacity: capacity,
	}
}

var _ portssvc.EventPublisher = (*Bus)(nil)

// Subscribe attaches a consumer and returns its event queue. The channel is
// closed by Close.
func (b *Bus) Subscribe() <-chan domain.Event {
	ch := make(chan domain.Event, b.capacity)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Publish hands the event to every subscriber queue without ever blocking
// the caller. The bus lock is held across the non-blocking sends, which
// keeps Publish from racing a concurrent Close on the same channels.
func (b *Bus) Publish(event domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	for _, ch := range b.subs {
		select {
		case ch <- event:
			continue
		default:
		}

		// Queue full: evict the oldest queued event, then retry once. The
		// retry can still lose to a concurrent publisher, in which case this
		// event is the one dropped instead.
		select {
		case <-ch:
		default:
		}
		b.dropped.Add(1)
		b.logger.Debug("Event bus queue full, dropped oldest event",
			slog.String("account_id", event.EventAccountID()),
			slog.Uint64("dropped_total", b.dropped.Load()),
		)
		select {
		case ch <- event:
		default:
		}
	}
}

// Dropped reports how many events have been evicted from full queues.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close closes all subscriber queues. Publish becomes a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
