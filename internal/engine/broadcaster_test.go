// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package engine_test

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/engine"
)

func TestBroadcaster(t *testing.T) {
	defer goleak.VerifyNone(t)

	newEvent := func(arenaID arena.ID) engine.Event {
		return engine.Event{
			ID:    ulid.Make(),
			Type:  engine.EventCycleCompleted,
			Arena: arenaID,
		}
	}

	t.Run("delivers to arena stream and all stream", func(t *testing.T) {
		b := engine.NewBroadcaster()
		arenaCh := b.Subscribe(engine.ArenaStream(1))
		allCh := b.Subscribe(engine.StreamAll)
		defer b.Unsubscribe(engine.ArenaStream(1), arenaCh)
		defer b.Unsubscribe(engine.StreamAll, allCh)

		ev := newEvent(1)
		b.Broadcast(ev)

		require.Len(t, arenaCh, 1)
		require.Len(t, allCh, 1)
		assert.Equal(t, ev.ID, (<-arenaCh).ID)
		assert.Equal(t, ev.ID, (<-allCh).ID)
	})

	t.Run("other arena streams do not receive", func(t *testing.T) {
		b := engine.NewBroadcaster()
		otherCh := b.Subscribe(engine.ArenaStream(2))
		defer b.Unsubscribe(engine.ArenaStream(2), otherCh)

		b.Broadcast(newEvent(1))
		assert.Empty(t, otherCh)
	})

	t.Run("full subscriber buffer drops instead of blocking", func(t *testing.T) {
		b := engine.NewBroadcaster()
		ch := b.Subscribe(engine.StreamAll)
		defer b.Unsubscribe(engine.StreamAll, ch)

		for i := 0; i < 150; i++ {
			b.Broadcast(newEvent(1))
		}
		assert.Len(t, ch, cap(ch), "delivery past capacity must drop, not block")
	})

	t.Run("unsubscribe closes the channel", func(t *testing.T) {
		b := engine.NewBroadcaster()
		ch := b.Subscribe(engine.StreamAll)
		b.Unsubscribe(engine.StreamAll, ch)

		_, open := <-ch
		assert.False(t, open)

		// Broadcasting after unsubscribe is a no-op.
		b.Broadcast(newEvent(1))
	})
}
