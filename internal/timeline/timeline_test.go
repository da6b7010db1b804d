// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package timeline_test

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/timeline"
)

func testKey() timeline.Key {
	return timeline.Key{Actor: ulid.Make(), Arena: 1}
}

func mustBuild(t *testing.T, b *timeline.Builder) *timeline.Timeline {
	t.Helper()
	tl, err := b.Build()
	require.NoError(t, err)
	return tl
}

func TestBuilderSortsAndFreezes(t *testing.T) {
	b := timeline.NewBuilder(testKey(), 100)
	b.Append(timeline.AbilityEnd(1, 60))
	b.Append(timeline.Move(arena.North, 0, 40))
	b.Append(timeline.AbilityStart(1, arena.Cell{X: 5, Y: 5}, 0, 40))

	tl := mustBuild(t, b)
	events := tl.Events()
	require.Len(t, events, 3)
	assert.Equal(t, arena.Tick(0), events[0].Start)
	assert.Equal(t, arena.Tick(40), events[1].Start)
	assert.Equal(t, arena.Tick(60), events[2].Start)
	assert.Equal(t, arena.Tick(100), tl.Length())
}

func TestBuilderPreservesCaptureOrderForSameTick(t *testing.T) {
	b := timeline.NewBuilder(testKey(), 100)
	b.Append(timeline.AbilityStart(2, arena.Cell{}, 0, 10))
	b.Append(timeline.AbilityStart(0, arena.Cell{}, 0, 10))

	tl := mustBuild(t, b)
	events := tl.Events()
	assert.Equal(t, uint8(2), events[0].Slot, "same-tick events keep append order")
	assert.Equal(t, uint8(0), events[1].Slot)
}

func TestBuilderRejectsOutOfCycleEvents(t *testing.T) {
	t.Run("start past end", func(t *testing.T) {
		b := timeline.NewBuilder(testKey(), 100)
		b.Append(timeline.AbilityEnd(0, 100))
		_, err := b.Build()
		require.Error(t, err)
	})

	t.Run("end past cycle", func(t *testing.T) {
		b := timeline.NewBuilder(testKey(), 100)
		b.Append(timeline.Move(arena.East, 90, 101))
		_, err := b.Build()
		require.Error(t, err)
	})

	t.Run("move ending exactly at cycle end is fine", func(t *testing.T) {
		b := timeline.NewBuilder(testKey(), 100)
		b.Append(timeline.Move(arena.East, 90, 100))
		mustBuild(t, b)
	})

	t.Run("inverted move span", func(t *testing.T) {
		b := timeline.NewBuilder(testKey(), 100)
		b.Append(timeline.Move(arena.East, 50, 40))
		_, err := b.Build()
		require.Error(t, err)
	})
}

func TestBuilderEmptyTimeline(t *testing.T) {
	tl := mustBuild(t, timeline.NewBuilder(testKey(), 100))
	assert.Zero(t, tl.Len())
	assert.Equal(t, arena.Tick(100), tl.Length(), "an empty recording is a full idle cycle")
	assert.Empty(t, tl.EventsActiveAt(50))
}

func TestEventsActiveAt(t *testing.T) {
	b := timeline.NewBuilder(testKey(), 200)
	b.Append(timeline.Move(arena.North, 0, 40))
	b.Append(timeline.AbilityStart(1, arena.Cell{X: 10, Y: 10}, 0, 40))
	b.Append(timeline.Move(arena.East, 30, 50))
	tl := mustBuild(t, b)

	t.Run("spanning events are active over [start,end)", func(t *testing.T) {
		active := tl.EventsActiveAt(35)
		require.Len(t, active, 2)
		assert.Equal(t, arena.North, active[0].Dir)
		assert.Equal(t, arena.East, active[1].Dir)

		assert.Len(t, tl.EventsActiveAt(0), 1)
		assert.Len(t, tl.EventsActiveAt(39), 2)
		assert.Len(t, tl.EventsActiveAt(49), 1)
		assert.Empty(t, tl.EventsActiveAt(50), "end tick is exclusive")
	})

	t.Run("instantaneous events are never active", func(t *testing.T) {
		for _, ev := range tl.EventsActiveAt(40) {
			assert.NotEqual(t, timeline.KindAbilityStart, ev.Kind)
		}
	})
}

func TestEventsStartingIn(t *testing.T) {
	b := timeline.NewBuilder(testKey(), 200)
	b.Append(timeline.Move(arena.North, 0, 10))
	b.Append(timeline.AbilityStart(0, arena.Cell{}, 0, 10))
	b.Append(timeline.AbilityEnd(0, 20))
	b.Append(timeline.Death(arena.Cell{X: 3, Y: 3}, 100))
	tl := mustBuild(t, b)

	assert.Len(t, tl.EventsStartingIn(0, 200), 4)
	assert.Len(t, tl.EventsStartingIn(0, 10), 1, "upper bound is exclusive")
	assert.Len(t, tl.EventsStartingIn(10, 21), 2)
	assert.Empty(t, tl.EventsStartingIn(21, 100))
	assert.Empty(t, tl.EventsStartingIn(50, 50))
	assert.Empty(t, tl.EventsStartingIn(60, 40))
}

func TestTimelineEqual(t *testing.T) {
	key := testKey()
	build := func() *timeline.Timeline {
		b := timeline.NewBuilder(key, 100)
		b.Append(timeline.Move(arena.North, 0, 10))
		return mustBuild(t, b)
	}

	assert.True(t, build().Equal(build()))

	other := timeline.NewBuilder(key, 100)
	other.Append(timeline.Move(arena.South, 0, 10))
	assert.False(t, build().Equal(mustBuild(t, other)))

	var nilTL *timeline.Timeline
	assert.True(t, nilTL.Equal(nil))
	assert.False(t, build().Equal(nil))
}

func TestEventsAreIndependentCopies(t *testing.T) {
	b := timeline.NewBuilder(testKey(), 100)
	b.Append(timeline.Move(arena.North, 0, 10))
	tl := mustBuild(t, b)

	events := tl.Events()
	events[0].Dir = arena.South

	assert.Equal(t, arena.North, tl.Events()[0].Dir, "mutating the copy must not touch the timeline")
}
