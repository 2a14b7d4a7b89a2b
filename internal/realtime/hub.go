package realtime

import (
	"context"
	"log/slog"
	"sync"
)

// DefaultBuffer is the per-subscription queue length.
const DefaultBuffer = 64

// Publisher is the write side used by services after a successful commit.
type Publisher interface {
	Publish(ctx context.Context, ev ChangeEvent) error
}

// Hub fans change events out to in-process subscriptions. With a Bus
// attached, published events travel through the bus first so every server
// instance delivers them.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	bus    Bus
	closed bool
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// UseBus starts forwarding bus traffic into the hub and routes subsequent
// Publish calls through the bus.
func (h *Hub) UseBus(ctx context.Context, bus Bus) error {
	if err := bus.StartForwarder(ctx, h.Broadcast); err != nil {
		return err
	}
	h.mu.Lock()
	h.bus = bus
	h.mu.Unlock()
	return nil
}

// Publish delivers ev to every matching subscription. If the bus rejects the
// event it is still delivered locally.
func (h *Hub) Publish(ctx context.Context, ev ChangeEvent) error {
	h.mu.RLock()
	bus := h.bus
	h.mu.RUnlock()

	if bus != nil {
		err := bus.Publish(ctx, ev)
		if err == nil {
			return nil
		}
		slog.Warn("Failed to publish change event to bus, delivering locally", "table", ev.Table, "error", err)
	}
	h.Broadcast(ev)
	return nil
}

// Broadcast hands ev to subscriptions owned by ev.OwnerID whose filter
// matches. A subscriber with a full queue misses the event and is told to
// resync.
func (h *Hub) Broadcast(ev ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if sub.owner != ev.OwnerID || !sub.filter.Matches(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			slog.Warn("Dropping change event; subscriber buffer full", "table", ev.Table, "owner", ev.OwnerID)
			select {
			case sub.resync <- struct{}{}:
			default:
			}
		}
	}
}

// Subscribe registers a subscription for ownerID. The caller must Close it.
func (h *Hub) Subscribe(ownerID string, f Filter) *Subscription {
	sub := &Subscription{
		hub:    h,
		owner:  ownerID,
		filter: f,
		ch:     make(chan ChangeEvent, h.buffer),
		resync: make(chan struct{}, 1),
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub
	}
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	slog.Debug("Change subscription opened", "owner", ownerID, "table", f.Table, "filter", f.Expr())
	return sub
}

// Len returns the number of open subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every open subscription and refuses new ones, so streaming
// handlers return before the server drains connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.ch)
	}
	slog.Debug("Change hub closed")
}

// Subscription is a live, owner-scoped event feed.
type Subscription struct {
	hub    *Hub
	owner  string
	filter Filter
	ch     chan ChangeEvent
	resync chan struct{}
}

// Events is closed once the subscription is closed.
func (s *Subscription) Events() <-chan ChangeEvent { return s.ch }

func (s *Subscription) Filter() Filter { return s.filter }

// Resync signals that at least one event was dropped since the last signal.
// Signals coalesce; the subscriber should reload what it displays.
func (s *Subscription) Resync() <-chan struct{} { return s.resync }

// Close detaches the subscription. It is safe to call more than once.
func (s *Subscription) Close() error {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	if _, ok := s.hub.subs[s]; !ok {
		return nil
	}
	delete(s.hub.subs, s)
	close(s.ch)
	slog.Debug("Change subscription closed", "owner", s.owner, "table", s.filter.Table)
	return nil
}
