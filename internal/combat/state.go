// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package combat

import (
	"github.com/oklog/ulid/v2"

	"github.com/ghostloop/ghostloop/internal/arena"
)

// ActorState is the mutable per-actor runtime state for one arena. It is
// owned by the engine and mutated only inside the resolver's effect pass
// (and by movement application, which precedes the snapshot).
type ActorState struct {
	Actor  *arena.Actor
	Pos    arena.Cell
	Health int
	Shield int
	Alive  bool
	DiedAt arena.Tick
	// LevelLost marks that this life has already cost a roster level.
	// Reset on revival and on cycle-wrap respawn.
	LevelLost bool
}

// Respawn resets the state for a fresh cycle: alive at the spawn cell with
// full health.
func (s *ActorState) Respawn(spawn arena.Cell, maxHealth int) {
	s.Pos = spawn
	s.Health = maxHealth
	s.Shield = 0
	s.Alive = true
	s.DiedAt = 0
	s.LevelLost = false
}

// stateView is the immutable per-actor view taken during the snapshot pass.
type stateView struct {
	Pos   arena.Cell
	Alive bool
}

// snapshot captures position and alive state for every actor. The effect
// pass reads only this view, never live state.
func snapshot(states map[ulid.ULID]*ActorState) map[ulid.ULID]stateView {
	views := make(map[ulid.ULID]stateView, len(states))
	for id, s := range states {
		views[id] = stateView{Pos: s.Pos, Alive: s.Alive}
	}
	return views
}
