// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package engine

import (
	"log/slog"
	"sync"
)

// Broadcaster distributes engine events to subscribers. Subscribers are
// external layers (rendering, audio, UI); a stalled subscriber loses
// events rather than stalling the simulation.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string][]chan Event
}

// NewBroadcaster creates a new broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[string][]chan Event),
	}
}

// Subscribe creates a channel for receiving events on a stream. Use
// ArenaStream(id) for one arena or StreamAll for everything.
func (b *Broadcaster) Subscribe(stream string) chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 100)
	b.subs[stream] = append(b.subs[stream], ch)
	return ch
}

// Unsubscribe removes a channel from a stream and closes it.
func (b *Broadcaster) Unsubscribe(stream string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[stream]
	for i, sub := range subs {
		if sub == ch {
			b.subs[stream] = append(subs[:i], subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Broadcast sends an event to subscribers of its arena stream and of the
// all-stream. Delivery is best effort: if a subscriber's buffer is full
// the event is dropped with a warning, because the simulation must never
// block on a consumer.
func (b *Broadcaster) Broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, stream := range []string{event.Stream(), StreamAll} {
		for _, ch := range b.subs[stream] {
			select {
			case ch <- event:
			default:
				slog.Warn("engine event dropped: subscriber buffer full",
					"stream", stream,
					"event_id", event.ID.String(),
					"event_type", event.Type,
				)
			}
		}
	}
}
