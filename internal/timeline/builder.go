// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package timeline

import (
	"sort"

	"github.com/samber/oops"

	"github.com/ghostloop/ghostloop/internal/arena"
)

// Builder accumulates events and finalizes them into an immutable Timeline.
// It is the only way to construct a Timeline: the recorder, the codec, and
// the boss script compiler all go through it.
type Builder struct {
	key    Key
	length arena.Tick
	events []Event
}

// NewBuilder creates a builder for the given key. length is the logical
// cycle duration; zero falls back to the default cycle.
func NewBuilder(key Key, length arena.Tick) *Builder {
	if length <= 0 {
		length = arena.DefaultCycleTicks
	}
	return &Builder{key: key, length: length}
}

// Append adds an event. Events may arrive in any order; Build sorts them.
func (b *Builder) Append(ev Event) *Builder {
	b.events = append(b.events, ev)
	return b
}

// Len returns the number of events appended so far.
func (b *Builder) Len() int { return len(b.events) }

// Build validates, sorts, and freezes the accumulated events into a
// Timeline spanning exactly the logical length. Events past the end of the
// cycle are rejected; a last event ending before the cycle end leaves an
// implicit idle tail.
func (b *Builder) Build() (*Timeline, error) {
	events := make([]Event, len(b.events))
	copy(events, b.events)

	// Stable sort preserves capture order for same-tick events, which is
	// part of the recorded tie-break.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start < events[j].Start
	})

	var maxSpan arena.Tick = 1
	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			return nil, oops.Code("INVALID_EVENT").With("key", b.key.String()).Wrap(err)
		}
		if ev.Start >= b.length {
			return nil, oops.Code("INVALID_EVENT").
				With("key", b.key.String()).
				With("start", int32(ev.Start)).
				With("length", int32(b.length)).
				Errorf("event starts after end of cycle")
		}
		if ev.End > b.length {
			return nil, oops.Code("INVALID_EVENT").
				With("key", b.key.String()).
				With("end", int32(ev.End)).
				Errorf("event extends past end of cycle")
		}
		if span := ev.End - ev.Start; span > maxSpan {
			maxSpan = span
		}
	}

	return &Timeline{
		key:     b.key,
		events:  events,
		length:  b.length,
		maxSpan: maxSpan,
	}, nil
}
