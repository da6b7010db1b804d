// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package engine

import (
	"context"
	"log/slog"
	"time"
)

// Loop drives the engine at a fixed tick rate against wall-clock time.
// When the process stalls (GC pause, laptop sleep) it catches up by running
// extra ticks, clamped so a long stall never turns into a runaway burst;
// offline estimation covers anything beyond the clamp.
type Loop struct {
	engine   *Engine
	interval time.Duration
	maxBurst int
	logger   *slog.Logger
}

// NewLoop creates a loop ticking at tickRate ticks per second. The burst
// clamp is one second's worth of ticks.
func NewLoop(e *Engine, tickRate int, logger *slog.Logger) *Loop {
	if tickRate <= 0 {
		tickRate = e.cfg.TickRate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		engine:   e,
		interval: time.Second / time.Duration(tickRate),
		maxBurst: tickRate,
		logger:   logger,
	}
}

// Run ticks the engine until the context is cancelled. It always returns
// the context's error.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			steps := int(now.Sub(last) / l.interval)
			if steps <= 0 {
				continue
			}
			if steps > l.maxBurst {
				l.logger.Warn("tick backlog clamped",
					"backlog", steps, "burst", l.maxBurst)
				steps = l.maxBurst
				last = now
			} else {
				last = last.Add(time.Duration(steps) * l.interval)
			}
			for i := 0; i < steps; i++ {
				l.engine.Tick(ctx)
			}
		}
	}
}
