// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package arena

// ClockPhase is a state of the arena clock machine.
type ClockPhase uint8

const (
	PhaseIdle ClockPhase = iota
	PhaseCountdown
	PhaseRunning
)

func (p ClockPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCountdown:
		return "countdown"
	case PhaseRunning:
		return "running"
	default:
		return "unknown"
	}
}

// ClockConfig parameterizes a clock. Zero values fall back to defaults.
type ClockConfig struct {
	CycleTicks     Tick
	CountdownTicks Tick
}

// Clock is the per-arena cyclic timer: Idle -> Countdown -> Running, with an
// orthogonal paused flag. It is an explicitly-ticked state machine; there is
// no goroutine and no wall-clock access.
//
// Position is always in [0,CycleTicks) while running. Wrapping from the end
// of the cycle back to 0 invokes the wrap callback once per completed cycle.
type Clock struct {
	phase     ClockPhase
	pos       Tick
	countdown Tick
	paused    bool

	cycleTicks     Tick
	countdownTicks Tick

	onWrap          func()
	onCountdownDone func()
}

// NewClock creates a clock in the Idle phase at position 0.
func NewClock(cfg ClockConfig) *Clock {
	if cfg.CycleTicks <= 0 {
		cfg.CycleTicks = DefaultCycleTicks
	}
	if cfg.CountdownTicks <= 0 {
		cfg.CountdownTicks = DefaultCountdownTicks
	}
	return &Clock{
		phase:          PhaseIdle,
		cycleTicks:     cfg.CycleTicks,
		countdownTicks: cfg.CountdownTicks,
	}
}

// OnWrap registers the cycle-completion callback, invoked synchronously from
// Tick once per wrap.
func (c *Clock) OnWrap(fn func()) { c.onWrap = fn }

// OnCountdownDone registers the callback fired when the countdown elapses
// and the clock enters Running at position 0.
func (c *Clock) OnCountdownDone(fn func()) { c.onCountdownDone = fn }

// Phase returns the current phase.
func (c *Clock) Phase() ClockPhase { return c.phase }

// Pos returns the current cycle position in ticks. Always in [0,CycleTicks).
func (c *Clock) Pos() Tick {
	c.checkBounds()
	return c.pos
}

// CycleTicks returns the configured cycle length.
func (c *Clock) CycleTicks() Tick { return c.cycleTicks }

// Paused reports whether the clock is paused.
func (c *Clock) Paused() bool { return c.paused }

// Pause freezes the clock. Residual position is preserved exactly.
func (c *Clock) Pause() { c.paused = true }

// Resume unfreezes the clock.
func (c *Clock) Resume() { c.paused = false }

// StartCountdown forces the clock into the Countdown phase from any phase,
// resetting position to 0. In-flight cycle progress for this arena is
// discarded; other arenas are unaffected.
func (c *Clock) StartCountdown() {
	c.phase = PhaseCountdown
	c.pos = 0
	c.countdown = c.countdownTicks
}

// Reset returns the clock to Idle at position 0.
func (c *Clock) Reset() {
	c.phase = PhaseIdle
	c.pos = 0
	c.countdown = 0
}

// Tick advances the clock by dt ticks. A paused or idle clock does not
// advance. Countdown completion and cycle wraps fire their callbacks
// synchronously, in order, before Tick returns.
func (c *Clock) Tick(dt Tick) {
	if dt <= 0 || c.paused {
		return
	}
	c.checkBounds()

	if c.phase == PhaseCountdown {
		if dt < c.countdown {
			c.countdown -= dt
			return
		}
		dt -= c.countdown
		c.countdown = 0
		c.phase = PhaseRunning
		c.pos = 0
		if c.onCountdownDone != nil {
			c.onCountdownDone()
		}
	}

	if c.phase != PhaseRunning {
		return
	}

	c.pos += dt
	for c.pos >= c.cycleTicks {
		c.pos -= c.cycleTicks
		if c.onWrap != nil {
			c.onWrap()
		}
	}
}

// checkBounds enforces the [0,CycleTicks) invariant. Behavior differs by
// build tag: debug builds panic, release builds resynchronize (see
// desync_debug.go / desync_release.go).
func (c *Clock) checkBounds() {
	if c.pos >= 0 && c.pos < c.cycleTicks {
		return
	}
	c.pos = c.desync(c.pos)
}
