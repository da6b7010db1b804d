// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package arena_test

import (
	"fmt"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostloop/ghostloop/internal/arena"
)

func TestGridStep(t *testing.T) {
	g := arena.Grid{Width: 4, Height: 4}

	tests := []struct {
		name   string
		from   arena.Cell
		dir    arena.Direction
		want   arena.Cell
		wantOK bool
	}{
		{"north decreases y", arena.Cell{X: 2, Y: 2}, arena.North, arena.Cell{X: 2, Y: 1}, true},
		{"south increases y", arena.Cell{X: 2, Y: 2}, arena.South, arena.Cell{X: 2, Y: 3}, true},
		{"east increases x", arena.Cell{X: 2, Y: 2}, arena.East, arena.Cell{X: 3, Y: 2}, true},
		{"west decreases x", arena.Cell{X: 2, Y: 2}, arena.West, arena.Cell{X: 1, Y: 2}, true},
		{"north off edge is a no-op", arena.Cell{X: 0, Y: 0}, arena.North, arena.Cell{X: 0, Y: 0}, false},
		{"east off edge is a no-op", arena.Cell{X: 3, Y: 1}, arena.East, arena.Cell{X: 3, Y: 1}, false},
		{"south off edge is a no-op", arena.Cell{X: 1, Y: 3}, arena.South, arena.Cell{X: 1, Y: 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := g.Step(tt.from, tt.dir)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestParseDirection(t *testing.T) {
	for _, d := range []arena.Direction{arena.North, arena.East, arena.South, arena.West} {
		got, ok := arena.ParseDirection(d.String())
		require.True(t, ok)
		assert.Equal(t, d, got)
	}
	_, ok := arena.ParseDirection("up")
	assert.False(t, ok)
}

func TestArenaRoster(t *testing.T) {
	ar := arena.New(1, "Hollow Span", arena.Grid{Width: 8, Height: 8}, arena.NewClock(arena.ClockConfig{}))

	first := ulid.Make()
	second := ulid.Make()
	require.NoError(t, ar.Bind(first))
	require.NoError(t, ar.Bind(second))

	t.Run("join order is bind order", func(t *testing.T) {
		assert.Equal(t, 0, ar.JoinIndex(first))
		assert.Equal(t, 1, ar.JoinIndex(second))
		assert.Equal(t, []ulid.ULID{first, second}, ar.Roster())
	})

	t.Run("rebind is idempotent", func(t *testing.T) {
		require.NoError(t, ar.Bind(first))
		assert.Equal(t, 0, ar.JoinIndex(first))
		assert.Len(t, ar.Roster(), 2)
	})

	t.Run("unbind preserves remaining order", func(t *testing.T) {
		third := ulid.Make()
		require.NoError(t, ar.Bind(third))
		ar.Unbind(second)
		assert.Equal(t, -1, ar.JoinIndex(second))
		assert.Equal(t, 1, ar.JoinIndex(third))
		ar.Unbind(second) // unknown actor is ignored
	})

	t.Run("roster caps out", func(t *testing.T) {
		full := arena.New(2, "Rift", arena.Grid{Width: 8, Height: 8}, arena.NewClock(arena.ClockConfig{}))
		for i := 0; i < arena.MaxRosterSize; i++ {
			require.NoError(t, full.Bind(ulid.Make()))
		}
		err := full.Bind(ulid.Make())
		require.Error(t, err)
		oopsErr, ok := oops.AsOops(err)
		require.True(t, ok)
		assert.Equal(t, "ROSTER_FULL", oopsErr.Code())
	})
}

func TestActorValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*arena.Actor)
		wantField string
	}{
		{"empty name", func(a *arena.Actor) { a.Name = "" }, "name"},
		{"zero level", func(a *arena.Actor) { a.Level = 0 }, "level"},
		{"zero health", func(a *arena.Actor) { a.MaxHealth = 0 }, "max_health"},
		{"too many slots", func(a *arena.Actor) {
			a.Abilities = make([]string, arena.MaxAbilitySlots+1)
		}, "abilities"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := arena.NewActor("Sable", arena.ClassHunter, 3, 100, nil)
			require.NoError(t, err)
			tt.mutate(a)
			err = a.Validate()
			var verr *arena.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestActorLevelLoss(t *testing.T) {
	a, err := arena.NewActor("Sable", arena.ClassHunter, 2, 100, nil)
	require.NoError(t, err)

	a.DecrementLevel()
	assert.Equal(t, 1, a.Level)
	a.DecrementLevel()
	assert.Equal(t, 1, a.Level, "level floors at 1")
}

func TestAbilityAt(t *testing.T) {
	a, err := arena.NewActor("Wick", arena.ClassOracle, 1, 80, []string{"mend", "raise"})
	require.NoError(t, err)

	assert.Equal(t, "mend", a.AbilityAt(0))
	assert.Equal(t, "raise", a.AbilityAt(1))
	assert.Empty(t, a.AbilityAt(2))
	assert.Empty(t, a.AbilityAt(-1))
}

func TestBuffScales(t *testing.T) {
	set := arena.NewBuffSet()
	surge := arena.NewBuff("surge", 1.5, 1.0, 100)
	set.Add(surge)

	t.Run("inactive by default", func(t *testing.T) {
		damage, heal := set.Scales(1, 0)
		assert.Equal(t, 1.0, damage)
		assert.Equal(t, 1.0, heal)
	})

	t.Run("active only in its arena and window", func(t *testing.T) {
		surge.Activate(1, 50)
		damage, _ := set.Scales(1, 50)
		assert.Equal(t, 1.5, damage)
		damage, _ = set.Scales(1, 149)
		assert.Equal(t, 1.5, damage)
		damage, _ = set.Scales(1, 150)
		assert.Equal(t, 1.0, damage, "expired at duration boundary")
		damage, _ = set.Scales(2, 60)
		assert.Equal(t, 1.0, damage, "other arenas are unaffected")
	})

	t.Run("scales stack multiplicatively", func(t *testing.T) {
		second := arena.NewBuff("focus", 2.0, 1.25, 100)
		set.Add(second)
		second.Activate(1, 60)
		damage, heal := set.Scales(1, 80)
		assert.InDelta(t, 3.0, damage, 1e-9)
		assert.InDelta(t, 1.25, heal, 1e-9)
	})
}

func ExampleGrid_Center() {
	g := arena.Grid{Width: 21, Height: 13}
	fmt.Println(g.Center())
	// Output: {10 6}
}
