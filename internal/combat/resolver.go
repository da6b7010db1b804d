// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package combat

import (
	"sort"

	"github.com/oklog/ulid/v2"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/timeline"
)

// Intent is one unit of input for a tick, produced identically by live
// capture and ghost playback. JoinIndex is the actor's roster join order in
// the arena; together with the ability slot it forms the stable tie-break
// for same-tick effects.
type Intent struct {
	Actor     ulid.ULID
	JoinIndex int
	Event     timeline.Event
}

// OutcomeKind discriminates resolver outcomes.
type OutcomeKind uint8

const (
	OutcomeMoved OutcomeKind = iota
	OutcomeDamaged
	OutcomeHealed
	OutcomeGuarded
	OutcomeDied
	OutcomeRevived
	OutcomeReviveMiss
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeMoved:
		return "moved"
	case OutcomeDamaged:
		return "damaged"
	case OutcomeHealed:
		return "healed"
	case OutcomeGuarded:
		return "guarded"
	case OutcomeDied:
		return "died"
	case OutcomeRevived:
		return "revived"
	case OutcomeReviveMiss:
		return "revive_miss"
	default:
		return "unknown"
	}
}

// Outcome is one resolved effect. A revive miss is a valid recorded
// outcome, not an error.
type Outcome struct {
	Kind   OutcomeKind
	Actor  ulid.ULID // the actor affected
	Source ulid.ULID // the caster, for ability outcomes
	Cell   arena.Cell
	Amount int
	Tick   arena.Tick
}

// Resolver applies intents for one tick against one arena. The same
// resolver instance serves live input and ghost playback; there is no
// behavioral divergence between the two.
type Resolver struct {
	abilities AbilityLookup
	buffs     *arena.BuffSet
}

// NewResolver creates a resolver. buffs may be nil to disable global buffs.
func NewResolver(abilities AbilityLookup, buffs *arena.BuffSet) *Resolver {
	return &Resolver{abilities: abilities, buffs: buffs}
}

// Resolve runs one tick for an arena.
//
// Pass 1 applies movement and fixes the snapshot: every actor's position
// and alive state as of tick t. Pass 2 evaluates ability effects against
// that snapshot in the stable order (roster join index, then ability slot),
// mutating live state. Effects within a tick therefore never observe each
// other's results.
func (r *Resolver) Resolve(
	ar *arena.Arena,
	roster *arena.Roster,
	states map[ulid.ULID]*ActorState,
	intents []Intent,
	tick arena.Tick,
	totalTick arena.Tick,
) []Outcome {
	ordered := make([]Intent, len(intents))
	copy(ordered, intents)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].JoinIndex != ordered[j].JoinIndex {
			return ordered[i].JoinIndex < ordered[j].JoinIndex
		}
		return ordered[i].Event.Slot < ordered[j].Event.Slot
	})

	var outcomes []Outcome

	// Pass 1: movement and recorded death facts, then snapshot.
	for _, in := range ordered {
		st := states[in.Actor]
		if st == nil {
			continue
		}
		switch in.Event.Kind {
		case timeline.KindMove:
			if !st.Alive {
				continue
			}
			next, ok := ar.Grid.Step(st.Pos, in.Event.Dir)
			if !ok {
				continue
			}
			st.Pos = next
			outcomes = append(outcomes, Outcome{
				Kind: OutcomeMoved, Actor: in.Actor, Cell: next, Tick: tick,
			})
		case timeline.KindDeath:
			// A replayed death fact is authoritative: it pins the corpse to
			// the recorded position so revival targeting stays frame-exact.
			if !st.Alive {
				st.Pos = in.Event.Pos
				continue
			}
			st.Pos = in.Event.Pos
			outcomes = append(outcomes, r.kill(roster, st, in.Actor, tick)...)
		}
	}

	views := snapshot(states)

	// Pass 2: ability effects against the snapshot.
	damageScale, healScale := 1.0, 1.0
	if r.buffs != nil {
		damageScale, healScale = r.buffs.Scales(ar.ID, totalTick)
	}

	for _, in := range ordered {
		if in.Event.Kind != timeline.KindAbilityStart {
			continue
		}
		caster := roster.Get(in.Actor)
		if caster == nil {
			continue
		}
		if view, ok := views[in.Actor]; !ok || !view.Alive {
			continue
		}
		abilityID := caster.AbilityAt(int(in.Event.Slot))
		if abilityID == "" {
			continue
		}
		ability, ok := r.abilities.Ability(abilityID)
		if !ok {
			continue
		}
		outcomes = append(outcomes, r.applyAbility(roster, states, views, in, ability, damageScale, healScale, tick)...)
	}

	return outcomes
}

// applyAbility dispatches one ability cast over the tagged kind.
func (r *Resolver) applyAbility(
	roster *arena.Roster,
	states map[ulid.ULID]*ActorState,
	views map[ulid.ULID]stateView,
	in Intent,
	ability Ability,
	damageScale, healScale float64,
	tick arena.Tick,
) []Outcome {
	target := in.Event.Target
	var outcomes []Outcome

	switch ability.Kind {
	case AbilityStrike:
		amount := int(float64(ability.Power) * damageScale)
		for _, id := range orderedActors(views) {
			view := views[id]
			if id == in.Actor || !view.Alive || !withinRadius(view.Pos, target, ability.Radius) {
				continue
			}
			st := states[id]
			outcomes = append(outcomes, r.damage(roster, st, id, in.Actor, amount, tick)...)
		}

	case AbilityHeal:
		amount := int(float64(ability.Power) * healScale)
		for _, id := range orderedActors(views) {
			view := views[id]
			if !view.Alive || !withinRadius(view.Pos, target, ability.Radius) {
				continue
			}
			st := states[id]
			actor := roster.Get(id)
			if st == nil || actor == nil {
				continue
			}
			st.Health += amount
			if st.Health > actor.MaxHealth {
				st.Health = actor.MaxHealth
			}
			outcomes = append(outcomes, Outcome{
				Kind: OutcomeHealed, Actor: id, Source: in.Actor,
				Cell: view.Pos, Amount: amount, Tick: tick,
			})
		}

	case AbilityGuard:
		st := states[in.Actor]
		if st != nil {
			st.Shield += ability.Power
			outcomes = append(outcomes, Outcome{
				Kind: OutcomeGuarded, Actor: in.Actor, Source: in.Actor,
				Amount: ability.Power, Tick: tick,
			})
		}

	case AbilityRevive:
		// Revive targets a cell, not an actor. A dead actor on that exact
		// cell in the snapshot returns to life and resumes its own timeline
		// from this tick forward. No corpse is a revive miss: a valid,
		// recorded outcome.
		corpse, found := deadActorAt(views, target)
		if !found {
			outcomes = append(outcomes, Outcome{
				Kind: OutcomeReviveMiss, Source: in.Actor,
				Cell: target, Tick: tick,
			})
			break
		}
		st := states[corpse]
		actor := roster.Get(corpse)
		if st == nil || actor == nil {
			break
		}
		st.Alive = true
		st.Health = reviveHealth(actor.MaxHealth)
		st.LevelLost = false
		outcomes = append(outcomes, Outcome{
			Kind: OutcomeRevived, Actor: corpse, Source: in.Actor,
			Cell: target, Amount: st.Health, Tick: tick,
		})
	}

	return outcomes
}

// damage applies a hit to live state, consuming shield first.
func (r *Resolver) damage(roster *arena.Roster, st *ActorState, id, source ulid.ULID, amount int, tick arena.Tick) []Outcome {
	if st == nil || !st.Alive {
		return nil
	}
	if st.Shield > 0 {
		absorbed := min(st.Shield, amount)
		st.Shield -= absorbed
		amount -= absorbed
	}
	st.Health -= amount
	outcomes := []Outcome{{
		Kind: OutcomeDamaged, Actor: id, Source: source,
		Cell: st.Pos, Amount: amount, Tick: tick,
	}}
	if st.Health <= 0 {
		outcomes = append(outcomes, r.kill(roster, st, id, tick)...)
	}
	return outcomes
}

// kill marks an actor dead and charges the once-per-life level cost.
func (r *Resolver) kill(roster *arena.Roster, st *ActorState, id ulid.ULID, tick arena.Tick) []Outcome {
	st.Alive = false
	st.Health = 0
	st.Shield = 0
	st.DiedAt = tick
	if !st.LevelLost {
		st.LevelLost = true
		if actor := roster.Get(id); actor != nil {
			actor.DecrementLevel()
		}
	}
	return []Outcome{{Kind: OutcomeDied, Actor: id, Cell: st.Pos, Tick: tick}}
}

// deadActorAt finds a dead actor whose snapshot position is exactly the
// cell. With multiple corpses on one cell the smallest actor ID wins, which
// is stable across replays.
func deadActorAt(views map[ulid.ULID]stateView, cell arena.Cell) (ulid.ULID, bool) {
	var best ulid.ULID
	found := false
	for id, view := range views {
		if view.Alive || view.Pos != cell {
			continue
		}
		if !found || id.Compare(best) < 0 {
			best = id
			found = true
		}
	}
	return best, found
}

// orderedActors returns snapshot actor IDs in sorted order so area effects
// resolve identically on every replay regardless of map iteration.
func orderedActors(views map[ulid.ULID]stateView) []ulid.ULID {
	ids := make([]ulid.ULID, 0, len(views))
	for id := range views {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })
	return ids
}

func reviveHealth(maxHealth int) int {
	h := maxHealth / 2
	if h < 1 {
		h = 1
	}
	return h
}
