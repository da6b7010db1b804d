// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

// Package arena contains the fixed simulation zones: grid geometry, the
// actor roster, and the per-arena cyclic clock. Everything here is ticked
// explicitly; nothing reads wall-clock time.
package arena

import (
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ID identifies one of the fixed arenas. Arenas are created at world init
// and never destroyed.
type ID uint8

// Tick is a simulation time unit. All clocks, event timestamps, and queries
// use ticks internally; seconds only appear at the serialization boundary.
type Tick int32

// Default simulation parameters. The cycle is two minutes of simulated time.
const (
	DefaultTickRate       = 20 // ticks per second
	DefaultCycleSeconds   = 120
	DefaultCycleTicks     = Tick(DefaultTickRate * DefaultCycleSeconds)
	DefaultCountdownTicks = Tick(DefaultTickRate * 3)
)

// MaxRosterSize caps the number of simultaneously active actors per arena.
const MaxRosterSize = 40

// Cell is a grid position. Multiple actors may occupy one cell; there is no
// collision between actors.
type Cell struct {
	X uint16
	Y uint16
}

// Direction is a movement heading.
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
)

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// ParseDirection maps a direction word to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "north":
		return North, true
	case "east":
		return East, true
	case "south":
		return South, true
	case "west":
		return West, true
	default:
		return North, false
	}
}

// delta returns the per-step offset for the direction. North decreases Y
// (screen coordinates).
func (d Direction) delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	case West:
		return -1, 0
	default:
		return 0, 0
	}
}

// Grid describes arena bounds. Cells range over [0,Width) x [0,Height).
type Grid struct {
	Width  uint16
	Height uint16
}

// Contains reports whether the cell is inside the grid.
func (g Grid) Contains(c Cell) bool {
	return c.X < g.Width && c.Y < g.Height
}

// Step moves one cell in the given direction. A step that would leave the
// grid is a no-op and returns the original cell with ok=false.
func (g Grid) Step(c Cell, d Direction) (Cell, bool) {
	dx, dy := d.delta()
	nx := int(c.X) + dx
	ny := int(c.Y) + dy
	if nx < 0 || ny < 0 || nx >= int(g.Width) || ny >= int(g.Height) {
		return c, false
	}
	return Cell{X: uint16(nx), Y: uint16(ny)}, true
}

// Center returns the middle cell of the grid, the default spawn point.
func (g Grid) Center() Cell {
	return Cell{X: g.Width / 2, Y: g.Height / 2}
}

// Arena is one simulation zone: a grid, an independent clock, and a roster
// of bound actor IDs in join order. Join order is the stable tie-break for
// same-tick effect resolution.
type Arena struct {
	ID    ID
	Name  string
	Grid  Grid
	Clock *Clock

	roster []ulid.ULID
	boss   ulid.ULID
}

// New creates an arena with the given clock.
func New(id ID, name string, grid Grid, clock *Clock) *Arena {
	return &Arena{ID: id, Name: name, Grid: grid, Clock: clock}
}

// Bind adds an actor to the roster. Binding is idempotent; rebinding an
// already bound actor keeps its original join order.
func (a *Arena) Bind(actorID ulid.ULID) error {
	for _, id := range a.roster {
		if id == actorID {
			return nil
		}
	}
	if len(a.roster) >= MaxRosterSize {
		return oops.Code("ROSTER_FULL").
			With("arena", a.ID).
			With("actor", actorID.String()).
			Errorf("arena roster is full (%d actors)", MaxRosterSize)
	}
	a.roster = append(a.roster, actorID)
	return nil
}

// Unbind removes an actor from the roster. Unknown actors are ignored.
func (a *Arena) Unbind(actorID ulid.ULID) {
	for i, id := range a.roster {
		if id == actorID {
			a.roster = append(a.roster[:i], a.roster[i+1:]...)
			return
		}
	}
}

// Roster returns the bound actor IDs in join order. The returned slice is a
// copy and safe to modify.
func (a *Arena) Roster() []ulid.ULID {
	out := make([]ulid.ULID, len(a.roster))
	copy(out, a.roster)
	return out
}

// Bound reports whether the actor is on the roster.
func (a *Arena) Bound(actorID ulid.ULID) bool {
	for _, id := range a.roster {
		if id == actorID {
			return true
		}
	}
	return false
}

// JoinIndex returns the actor's position in join order, or -1 if unbound.
func (a *Arena) JoinIndex(actorID ulid.ULID) int {
	for i, id := range a.roster {
		if id == actorID {
			return i
		}
	}
	return -1
}

// BindBoss sets the boss actor for this arena. The boss shares the same
// timeline substrate as recorded actors.
func (a *Arena) BindBoss(actorID ulid.ULID) {
	a.boss = actorID
}

// Boss returns the bound boss actor ID, or a zero ULID if none.
func (a *Arena) Boss() ulid.ULID {
	return a.boss
}
