// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package script_test

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/script"
	"github.com/ghostloop/ghostloop/internal/timeline"
)

const hollowWarden = `
// Opening pattern for the first arena boss.
boss "Hollow Warden" arena 1 {
	at 0 move east for 2;
	at 2.5 cast 1 at (10, 10) hold 0.6;
	at 3.1 release 1;
	at 60 cast 0 at (12, 8);
	at 110 die at (12, 8);
}
`

func TestParse(t *testing.T) {
	s, err := script.Parse(hollowWarden)
	require.NoError(t, err)

	assert.Equal(t, "Hollow Warden", s.Name)
	assert.Equal(t, uint8(1), s.Arena)
	require.Len(t, s.Steps, 5)
	assert.NotNil(t, s.Steps[0].Action.Move)
	assert.Equal(t, "east", s.Steps[0].Action.Move.Dir)
	assert.InDelta(t, 2.5, s.Steps[1].At, 1e-9)
	require.NotNil(t, s.Steps[1].Action.Cast)
	require.NotNil(t, s.Steps[1].Action.Cast.Hold)
	assert.InDelta(t, 0.6, *s.Steps[1].Action.Cast.Hold, 1e-9)
	assert.NotNil(t, s.Steps[4].Action.Die)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing boss name", `boss arena 1 { }`},
		{"unknown direction", `boss "X" arena 1 { at 0 move up for 2; }`},
		{"zero move duration", `boss "X" arena 1 { at 0 move east for 0; }`},
		{"slot out of range", `boss "X" arena 1 { at 0 cast 7 at (1, 1); }`},
		{"missing semicolon", `boss "X" arena 1 { at 0 release 1 }`},
		{"garbage", `bozz "X" { }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := script.Parse(tt.src)
			assert.Error(t, err)
		})
	}
}

func TestCompile(t *testing.T) {
	boss := ulid.Make()
	tl, err := script.Compile(hollowWarden, boss, 20, 2400)
	require.NoError(t, err)

	assert.Equal(t, timeline.Key{Actor: boss, Arena: 1}, tl.Key())
	assert.Equal(t, arena.Tick(2400), tl.Length())

	events := tl.Events()
	require.Len(t, events, 5)

	assert.Equal(t, timeline.Move(arena.East, 0, 40), events[0])

	assert.Equal(t, timeline.KindAbilityStart, events[1].Kind)
	assert.Equal(t, arena.Tick(50), events[1].Start, "2.5s at 20Hz")
	assert.Equal(t, arena.Tick(12), events[1].Hold)
	assert.Equal(t, arena.Cell{X: 10, Y: 10}, events[1].Target)

	assert.Equal(t, timeline.AbilityEnd(1, 62), events[2])
	assert.Equal(t, timeline.KindAbilityStart, events[3].Kind)
	assert.Equal(t, timeline.Death(arena.Cell{X: 12, Y: 8}, 2200), events[4])
}

func TestCompileRejectsStepsPastCycleEnd(t *testing.T) {
	src := `boss "X" arena 1 { at 130 cast 0 at (1, 1); }`
	_, err := script.Compile(src, ulid.Make(), 20, 2400)
	require.Error(t, err, "a step at 130s does not fit a 120s cycle")
}

func TestCompiledTimelineQueriesLikeARecording(t *testing.T) {
	tl, err := script.Compile(hollowWarden, ulid.Make(), 20, 2400)
	require.NoError(t, err)

	active := tl.EventsActiveAt(20)
	require.Len(t, active, 1)
	assert.Equal(t, timeline.KindMove, active[0].Kind)

	starting := tl.EventsStartingIn(50, 63)
	require.Len(t, starting, 2)
	assert.Equal(t, timeline.KindAbilityStart, starting[0].Kind)
	assert.Equal(t, timeline.KindAbilityEnd, starting[1].Kind)
}
