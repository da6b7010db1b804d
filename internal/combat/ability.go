// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

// Package combat implements the death/revival resolver shared by live and
// ghost execution. Each tick runs in two passes: a snapshot pass that fixes
// every actor's position and alive state, then an effect pass that
// evaluates ability intents against that snapshot. Cross-timeline causality
// is therefore order-independent within a tick.
package combat

import "github.com/ghostloop/ghostloop/internal/arena"

// AbilityKind is the tagged variant over ability behaviors. Dispatch is an
// explicit switch, never dynamic dispatch, so replay stays deterministic
// and serialization stays trivial.
type AbilityKind uint8

const (
	AbilityStrike AbilityKind = iota
	AbilityHeal
	AbilityGuard
	AbilityRevive
)

func (k AbilityKind) String() string {
	switch k {
	case AbilityStrike:
		return "strike"
	case AbilityHeal:
		return "heal"
	case AbilityGuard:
		return "guard"
	case AbilityRevive:
		return "revive"
	default:
		return "unknown"
	}
}

// Ability is a resolved ability definition from the content catalog.
type Ability struct {
	ID    string
	Name  string
	Kind  AbilityKind
	Power int
	// Radius is the Chebyshev distance around the target cell affected by
	// strike and heal abilities. Revive always targets the exact cell.
	Radius int
}

// AbilityLookup resolves ability IDs to definitions. Implemented by the
// content catalog.
type AbilityLookup interface {
	Ability(id string) (Ability, bool)
}

// withinRadius reports whether cell c is within the ability radius of the
// target cell.
func withinRadius(c, target arena.Cell, radius int) bool {
	dx := int(c.X) - int(target.X)
	if dx < 0 {
		dx = -dx
	}
	dy := int(c.Y) - int(target.Y)
	if dy < 0 {
		dy = -dy
	}
	if dx < dy {
		dx = dy
	}
	return dx <= radius
}
