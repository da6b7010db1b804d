// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package record

import (
	"github.com/oklog/ulid/v2"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/timeline"
)

// SampleKind discriminates capture samples from the input layer.
type SampleKind uint8

const (
	SampleMove SampleKind = iota + 1
	SampleAbilityStart
	SampleAbilityEnd
	SampleDeath
)

// Sample is one unit of raw input, stamped with the arena-local tick at
// which it occurred. Movement samples arrive once per tick while a
// direction is held; the session coalesces them.
type Sample struct {
	Kind   SampleKind
	Tick   arena.Tick
	Dir    arena.Direction // SampleMove
	Slot   uint8           // SampleAbilityStart, SampleAbilityEnd
	Target arena.Cell      // SampleAbilityStart
	Hold   arena.Tick      // SampleAbilityStart
	Pos    arena.Cell      // SampleDeath
}

// Session is the transient capture state for one recording. It exists only
// between Start and commit/cancel, and is never persisted.
type Session struct {
	actor ulid.ULID
	arena *arena.Arena

	events   []timeline.Event
	openMove *timeline.Event

	// pendingSwitch marks an actor-switch interrupt awaiting confirmation.
	// Capture continues unaffected until the player answers.
	pendingSwitch bool
}

// Actor returns the recording actor's ID.
func (s *Session) Actor() ulid.ULID { return s.actor }

// Arena returns the arena being recorded in.
func (s *Session) Arena() *arena.Arena { return s.arena }

// PendingSwitch reports whether an actor-switch confirmation is open.
func (s *Session) PendingSwitch() bool { return s.pendingSwitch }

// capture folds one sample into the session. Consecutive same-direction
// movement samples collapse into a single event whose end extends on each
// repeat; a direction change closes the run and opens a new one. Ability
// and death samples are always discrete: cast placement is
// gameplay-relevant and recorded at full fidelity.
func (s *Session) capture(sample Sample) {
	switch sample.Kind {
	case SampleMove:
		if s.openMove != nil && s.openMove.Dir == sample.Dir && s.openMove.End >= sample.Tick {
			s.openMove.End = sample.Tick + 1
			return
		}
		s.flushMove()
		ev := timeline.Move(sample.Dir, sample.Tick, sample.Tick+1)
		s.openMove = &ev

	case SampleAbilityStart:
		s.flushMove()
		s.events = append(s.events, timeline.AbilityStart(sample.Slot, sample.Target, sample.Hold, sample.Tick))

	case SampleAbilityEnd:
		s.flushMove()
		s.events = append(s.events, timeline.AbilityEnd(sample.Slot, sample.Tick))

	case SampleDeath:
		s.flushMove()
		s.events = append(s.events, timeline.Death(sample.Pos, sample.Tick))
	}
}

// flushMove closes the open movement run, if any.
func (s *Session) flushMove() {
	if s.openMove != nil {
		s.events = append(s.events, *s.openMove)
		s.openMove = nil
	}
}

// finalize builds the immutable timeline: captured events plus the implicit
// idle tail out to the full cycle length.
func (s *Session) finalize(cycleTicks arena.Tick) (*timeline.Timeline, error) {
	s.flushMove()
	b := timeline.NewBuilder(timeline.Key{Actor: s.actor, Arena: s.arena.ID}, cycleTicks)
	for _, ev := range s.events {
		b.Append(ev)
	}
	return b.Build()
}
