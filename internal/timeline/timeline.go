// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package timeline

import (
	"sort"

	"github.com/ghostloop/ghostloop/internal/arena"
)

// Timeline is an immutable, finalized recording of one actor's intents for
// one arena. The logical length is always exactly one cycle: any gap after
// the last event is an implicit idle tail. Replacement is a whole-value
// swap, never an in-place edit; there is no mutation API.
type Timeline struct {
	key    Key
	events []Event // sorted by Start
	length arena.Tick

	// maxSpan is the longest event duration, used to bound the backward
	// scan in EventsActiveAt.
	maxSpan arena.Tick
}

// Key returns the (actor, arena) key.
func (t *Timeline) Key() Key { return t.key }

// Length returns the logical duration in ticks. Always exactly one cycle.
func (t *Timeline) Length() arena.Tick { return t.length }

// Len returns the number of recorded events.
func (t *Timeline) Len() int { return len(t.events) }

// Events returns a copy of the event list in start order.
func (t *Timeline) Events() []Event {
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

// EventsActiveAt returns the events spanning tick at, i.e. those with
// Start <= at < End. Instantaneous events are never active; they only
// appear in EventsStartingIn. Lookup is a binary search plus a bounded
// backward scan.
func (t *Timeline) EventsActiveAt(at arena.Tick) []Event {
	// First index with Start > at.
	hi := sort.Search(len(t.events), func(i int) bool {
		return t.events[i].Start > at
	})

	var out []Event
	for i := hi - 1; i >= 0; i-- {
		ev := t.events[i]
		if ev.Start+t.maxSpan <= at {
			break
		}
		if ev.Start <= at && at < ev.End {
			out = append(out, ev)
		}
	}
	// Restore start order after the backward scan.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// EventsStartingIn returns the events with Start in [from,to), in start
// order. This is the per-tick query: the playback driver calls it with the
// previous and current clock positions.
func (t *Timeline) EventsStartingIn(from, to arena.Tick) []Event {
	if to <= from {
		return nil
	}
	lo := sort.Search(len(t.events), func(i int) bool {
		return t.events[i].Start >= from
	})
	hi := sort.Search(len(t.events), func(i int) bool {
		return t.events[i].Start >= to
	})
	if lo >= hi {
		return nil
	}
	out := make([]Event, hi-lo)
	copy(out, t.events[lo:hi])
	return out
}

// Equal reports whether two timelines have the same key, length, and exact
// event list. Used by the round-trip tests and the vault.
func (t *Timeline) Equal(o *Timeline) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.key != o.key || t.length != o.length || len(t.events) != len(o.events) {
		return false
	}
	for i := range t.events {
		if t.events[i] != o.events[i] {
			return false
		}
	}
	return true
}
