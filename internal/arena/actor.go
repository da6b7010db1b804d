// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package arena

import (
	"github.com/oklog/ulid/v2"
)

// Class is an actor archetype. The class determines which abilities may be
// equipped in which slots (see the content catalog).
type Class string

const (
	ClassHunter Class = "hunter"
	ClassWarden Class = "warden"
	ClassOracle Class = "oracle"
	ClassBoss   Class = "boss"
)

// MaxAbilitySlots caps the equipped abilities per actor.
const MaxAbilitySlots = 4

// Mode says what is driving an actor. An actor is exactly one of these at
// any time.
type Mode uint8

const (
	ModeIdle Mode = iota
	ModeLive
	ModeGhost
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeLive:
		return "live"
	case ModeGhost:
		return "ghost"
	default:
		return "unknown"
	}
}

// Actor is a roster member. Actors are owned by the Roster and referenced,
// never owned, by arenas.
type Actor struct {
	ID        ulid.ULID
	Name      string
	Class     Class
	Level     int
	MaxHealth int
	Abilities []string // equipped ability IDs by slot index; len <= MaxAbilitySlots
	Mode      Mode
}

// NewActor creates a validated actor with a generated ID.
func NewActor(name string, class Class, level, maxHealth int, abilities []string) (*Actor, error) {
	a := &Actor{
		ID:        ulid.Make(),
		Name:      name,
		Class:     class,
		Level:     level,
		MaxHealth: maxHealth,
		Abilities: abilities,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks the actor's required fields.
func (a *Actor) Validate() error {
	if a.ID.IsZero() {
		return &ValidationError{Field: "id", Message: "cannot be zero"}
	}
	if a.Name == "" {
		return &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if a.Level < 1 {
		return &ValidationError{Field: "level", Message: "must be at least 1"}
	}
	if a.MaxHealth < 1 {
		return &ValidationError{Field: "max_health", Message: "must be at least 1"}
	}
	if len(a.Abilities) > MaxAbilitySlots {
		return &ValidationError{Field: "abilities", Message: "too many ability slots"}
	}
	return nil
}

// AbilityAt returns the equipped ability ID for a slot, or "" if the slot is
// empty or out of range.
func (a *Actor) AbilityAt(slot int) string {
	if slot < 0 || slot >= len(a.Abilities) {
		return ""
	}
	return a.Abilities[slot]
}

// DecrementLevel lowers the actor's level by one, flooring at 1. Called on
// the first death per life.
func (a *Actor) DecrementLevel() {
	if a.Level > 1 {
		a.Level--
	}
}

// Roster owns every actor in the system.
type Roster struct {
	actors map[ulid.ULID]*Actor
	order  []ulid.ULID
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{actors: make(map[ulid.ULID]*Actor)}
}

// Add registers an actor. Re-adding an existing ID replaces the actor but
// keeps its original order.
func (r *Roster) Add(a *Actor) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if _, ok := r.actors[a.ID]; !ok {
		r.order = append(r.order, a.ID)
	}
	r.actors[a.ID] = a
	return nil
}

// Get returns the actor for an ID, or nil if unknown.
func (r *Roster) Get(id ulid.ULID) *Actor {
	return r.actors[id]
}

// Len returns the number of actors.
func (r *Roster) Len() int { return len(r.actors) }

// All returns the actors in registration order.
func (r *Roster) All() []*Actor {
	out := make([]*Actor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.actors[id])
	}
	return out
}

// ValidationError describes an invalid actor field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Message
}
