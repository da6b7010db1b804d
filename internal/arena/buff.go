// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package arena

// Buff is a global read-only combat modifier. Buffs are shared across
// arenas but carry an independent expiry per arena, measured in each
// arena's own total ticks.
type Buff struct {
	ID          string
	DamageScale float64
	HealScale   float64
	Duration    Tick

	// expiry is keyed by arena and holds the arena-local total tick at
	// which the buff lapses.
	expiry map[ID]Tick
}

// NewBuff creates an inactive buff with the given scales and duration.
func NewBuff(id string, damageScale, healScale float64, duration Tick) *Buff {
	return &Buff{
		ID:          id,
		DamageScale: damageScale,
		HealScale:   healScale,
		Duration:    duration,
		expiry:      make(map[ID]Tick),
	}
}

// Activate starts the buff's timer for one arena at the arena's current
// total tick count.
func (b *Buff) Activate(arena ID, atTotalTick Tick) {
	b.expiry[arena] = atTotalTick + b.Duration
}

// ActiveIn reports whether the buff is still running for an arena at the
// given arena-local total tick.
func (b *Buff) ActiveIn(arena ID, atTotalTick Tick) bool {
	exp, ok := b.expiry[arena]
	return ok && atTotalTick < exp
}

// BuffSet holds the global buffs consulted during ability resolution.
type BuffSet struct {
	buffs []*Buff
}

// NewBuffSet creates an empty buff set.
func NewBuffSet() *BuffSet {
	return &BuffSet{}
}

// Add registers a buff.
func (s *BuffSet) Add(b *Buff) {
	s.buffs = append(s.buffs, b)
}

// Scales returns the combined damage and heal multipliers for an arena at
// the given arena-local total tick. Inactive buffs contribute nothing.
func (s *BuffSet) Scales(arena ID, atTotalTick Tick) (damage, heal float64) {
	damage, heal = 1.0, 1.0
	for _, b := range s.buffs {
		if b.ActiveIn(arena, atTotalTick) {
			damage *= b.DamageScale
			heal *= b.HealScale
		}
	}
	return damage, heal
}
