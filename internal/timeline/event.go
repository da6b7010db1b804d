// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

// Package timeline implements the immutable intent recording format: the
// event model, the binary-search query surface, the builder, and the wire
// codec. Timelines capture intent, not resulting state, so replay stays
// frame-exact regardless of downstream changes.
package timeline

import (
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/ghostloop/ghostloop/internal/arena"
)

// EventKind discriminates the intent event union. Kind values double as
// wire opcodes and must never be renumbered.
type EventKind uint8

const (
	KindMove EventKind = iota + 1
	KindAbilityStart
	KindAbilityEnd
	KindDeath
)

func (k EventKind) String() string {
	switch k {
	case KindMove:
		return "move"
	case KindAbilityStart:
		return "ability_start"
	case KindAbilityEnd:
		return "ability_end"
	case KindDeath:
		return "death"
	default:
		return "unknown"
	}
}

// Event is one recorded unit of intent. It is a tagged variant: Kind says
// which payload fields are meaningful.
//
//	KindMove:         Dir, Start, End (coalesced direction run, End exclusive)
//	KindAbilityStart: Slot, Target, Hold, Start
//	KindAbilityEnd:   Slot, Start
//	KindDeath:        Pos, Start
//
// Instantaneous events carry End == Start.
type Event struct {
	Kind  EventKind
	Start arena.Tick
	End   arena.Tick

	Dir    arena.Direction // KindMove
	Slot   uint8           // KindAbilityStart, KindAbilityEnd
	Target arena.Cell      // KindAbilityStart
	Hold   arena.Tick      // KindAbilityStart
	Pos    arena.Cell      // KindDeath
}

// Move constructs a coalesced movement event for [start,end).
func Move(dir arena.Direction, start, end arena.Tick) Event {
	return Event{Kind: KindMove, Dir: dir, Start: start, End: end}
}

// AbilityStart constructs an ability cast event.
func AbilityStart(slot uint8, target arena.Cell, hold, start arena.Tick) Event {
	return Event{Kind: KindAbilityStart, Slot: slot, Target: target, Hold: hold, Start: start, End: start}
}

// AbilityEnd constructs an ability release event.
func AbilityEnd(slot uint8, start arena.Tick) Event {
	return Event{Kind: KindAbilityEnd, Slot: slot, Start: start, End: start}
}

// Death constructs a death fact at the given position. Death facts are
// retained in the timeline for replay fidelity.
func Death(pos arena.Cell, start arena.Tick) Event {
	return Event{Kind: KindDeath, Pos: pos, Start: start, End: start}
}

// Instant reports whether the event has no duration.
func (e Event) Instant() bool { return e.End <= e.Start }

// Validate checks payload and timing consistency.
func (e Event) Validate() error {
	switch e.Kind {
	case KindMove:
		if e.End <= e.Start {
			return fmt.Errorf("move event at %d has non-positive duration", e.Start)
		}
	case KindAbilityStart:
		if e.Hold < 0 {
			return fmt.Errorf("ability start at %d has negative hold", e.Start)
		}
	case KindAbilityEnd, KindDeath:
		// instantaneous, no payload constraints
	default:
		return fmt.Errorf("unknown event kind %d", e.Kind)
	}
	if e.Start < 0 {
		return fmt.Errorf("event start %d is negative", e.Start)
	}
	return nil
}

// Key identifies a timeline: one recording per (actor, arena) pair.
// Timelines for distinct keys are fully independent.
type Key struct {
	Actor ulid.ULID
	Arena arena.ID
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%d", k.Actor, k.Arena)
}
