// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package arena_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostloop/ghostloop/internal/arena"
)

func newTestClock() *arena.Clock {
	return arena.NewClock(arena.ClockConfig{CycleTicks: 10, CountdownTicks: 3})
}

func TestClockLifecycle(t *testing.T) {
	c := newTestClock()
	assert.Equal(t, arena.PhaseIdle, c.Phase())

	c.Tick(5)
	assert.Equal(t, arena.PhaseIdle, c.Phase(), "idle clocks do not advance")
	assert.Equal(t, arena.Tick(0), c.Pos())

	c.StartCountdown()
	assert.Equal(t, arena.PhaseCountdown, c.Phase())

	c.Tick(2)
	assert.Equal(t, arena.PhaseCountdown, c.Phase())

	c.Tick(1)
	assert.Equal(t, arena.PhaseRunning, c.Phase())
	assert.Equal(t, arena.Tick(0), c.Pos(), "running starts at position 0")
}

func TestClockCountdownCallback(t *testing.T) {
	c := newTestClock()
	fired := 0
	c.OnCountdownDone(func() { fired++ })

	c.StartCountdown()
	for i := 0; i < 5; i++ {
		c.Tick(1)
	}
	assert.Equal(t, 1, fired)
	assert.Equal(t, arena.Tick(2), c.Pos())
}

func TestClockWrap(t *testing.T) {
	c := newTestClock()
	wraps := 0
	c.OnWrap(func() { wraps++ })

	c.StartCountdown()
	c.Tick(3) // countdown done, pos 0

	for i := 0; i < 10; i++ {
		c.Tick(1)
	}
	assert.Equal(t, 1, wraps, "one wrap per completed cycle")
	assert.Equal(t, arena.Tick(0), c.Pos())

	c.Tick(25)
	assert.Equal(t, 3, wraps, "a large dt wraps once per elapsed cycle")
	assert.Equal(t, arena.Tick(5), c.Pos())
}

func TestClockPausePreservesResidual(t *testing.T) {
	t.Run("mid-cycle", func(t *testing.T) {
		c := newTestClock()
		c.StartCountdown()
		c.Tick(3)
		c.Tick(4) // pos 4

		c.Pause()
		require.True(t, c.Paused())
		c.Tick(100)
		assert.Equal(t, arena.Tick(4), c.Pos(), "paused clocks hold position exactly")

		c.Resume()
		c.Tick(1)
		assert.Equal(t, arena.Tick(5), c.Pos())
	})

	t.Run("mid-countdown", func(t *testing.T) {
		c := newTestClock()
		c.StartCountdown()
		c.Tick(1)

		c.Pause()
		c.Tick(50)
		assert.Equal(t, arena.PhaseCountdown, c.Phase())

		c.Resume()
		c.Tick(2)
		assert.Equal(t, arena.PhaseRunning, c.Phase(), "countdown residual survives the pause")
	})
}

func TestClockStartCountdownForcesFromAnyPhase(t *testing.T) {
	c := newTestClock()
	c.StartCountdown()
	c.Tick(3)
	c.Tick(7) // pos 7, mid-cycle

	c.StartCountdown()
	assert.Equal(t, arena.PhaseCountdown, c.Phase())
	assert.Equal(t, arena.Tick(0), c.Pos(), "in-flight progress is discarded")
}

func TestClockReset(t *testing.T) {
	c := newTestClock()
	c.StartCountdown()
	c.Tick(3)
	c.Tick(2)

	c.Reset()
	assert.Equal(t, arena.PhaseIdle, c.Phase())
	assert.Equal(t, arena.Tick(0), c.Pos())
}

func TestClockIndependence(t *testing.T) {
	a := newTestClock()
	b := newTestClock()
	a.StartCountdown()
	b.StartCountdown()

	a.Tick(3)
	a.Tick(6)
	b.Tick(3)
	b.Tick(2)

	assert.Equal(t, arena.Tick(6), a.Pos())
	assert.Equal(t, arena.Tick(2), b.Pos(), "clocks never synchronize with each other")
}
