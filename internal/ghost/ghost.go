// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

// Package ghost drives finalized timelines against an arena clock. The
// driver is a pure function of (timeline, clock position): it never
// consults wall-clock time or any state outside those two inputs. That is
// the determinism contract that makes every loop reproduce exactly.
package ghost

import (
	"github.com/oklog/ulid/v2"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/combat"
	"github.com/ghostloop/ghostloop/internal/timeline"
)

// Ghost binds an actor to a finalized timeline. The only mutable state is
// the playback cursor: the last clock position already emitted.
type Ghost struct {
	Actor    ulid.ULID
	Timeline *timeline.Timeline

	cursor arena.Tick
}

// New creates a ghost positioned before the start of the cycle, so the
// first Advance emits events starting at tick 0.
func New(actor ulid.ULID, tl *timeline.Timeline) *Ghost {
	return &Ghost{Actor: actor, Timeline: tl, cursor: -1}
}

// Restart rewinds the playback cursor to before tick 0. Called on every
// cycle wrap, and when a recording start discards the arena's in-flight
// playback state.
func (g *Ghost) Restart() {
	g.cursor = -1
}

// Driver turns timeline queries into the same intents a live actor would
// produce. One driver serves every ghost in every arena.
type Driver struct {
	stepEvery arena.Tick
}

// DefaultStepEvery is the movement cadence: one cell per this many ticks
// while a move event is active.
const DefaultStepEvery = 4

// NewDriver creates a driver. stepEvery <= 0 falls back to the default.
func NewDriver(stepEvery arena.Tick) *Driver {
	if stepEvery <= 0 {
		stepEvery = DefaultStepEvery
	}
	return &Driver{stepEvery: stepEvery}
}

// Advance emits the ghost's intents for the clock position pos. joinIndex
// is the actor's roster join order, carried on each intent as the stable
// resolution tie-break.
//
// Discrete events (ability start/end, death) fire once, on the tick their
// start time is first reached. An active move event emits a step intent on
// its start tick and every stepEvery ticks thereafter, which is exactly the
// cadence live input capture produced.
func (d *Driver) Advance(g *Ghost, pos arena.Tick, joinIndex int) []combat.Intent {
	from := g.cursor
	g.cursor = pos
	if pos < from {
		// The clock wrapped without an explicit Restart; treat it as one.
		from = -1
	}

	var intents []combat.Intent

	for _, ev := range g.Timeline.EventsStartingIn(from+1, pos+1) {
		if ev.Kind == timeline.KindMove {
			continue // movement is emitted from the active scan below
		}
		intents = append(intents, combat.Intent{
			Actor: g.Actor, JoinIndex: joinIndex, Event: ev,
		})
	}

	for _, ev := range g.Timeline.EventsActiveAt(pos) {
		if ev.Kind != timeline.KindMove {
			continue
		}
		if (pos-ev.Start)%d.stepEvery != 0 {
			continue
		}
		intents = append(intents, combat.Intent{
			Actor: g.Actor, JoinIndex: joinIndex, Event: ev,
		})
	}

	return intents
}
