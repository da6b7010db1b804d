// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/engine"
)

func TestLoopTicksUntilCancelled(t *testing.T) {
	f := newFixture(t)
	f.engine.Arena(1).Clock.StartCountdown()

	loop := engine.NewLoop(f.engine, 200, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := loop.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// 150ms at 200 ticks/s is well past the 4-tick countdown.
	assert.Equal(t, arena.PhaseRunning, f.engine.Arena(1).Clock.Phase())
	assert.Positive(t, f.engine.Arena(1).Clock.Pos())
}
