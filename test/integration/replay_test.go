// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

//go:build integration

package integration

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/oklog/ulid/v2"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/command"
	"github.com/ghostloop/ghostloop/internal/content"
	"github.com/ghostloop/ghostloop/internal/engine"
	"github.com/ghostloop/ghostloop/internal/store"
	"github.com/ghostloop/ghostloop/internal/timeline"
)

const catalogYAML = `
engine: ">= 0.3.0, < 1.0.0"
abilities:
  - id: arrow
    name: Arrow
    kind: strike
    power: 10
    radius: 1
  - id: mend
    name: Mend
    kind: heal
    power: 5
    radius: 2
classes:
  - name: hunter
    slots: [arrow]
  - name: oracle
    slots: [mend]
arenas:
  - id: 1
    name: Hollow Span
    grid:
      width: 16
      height: 16
`

const (
	cycleTicks     = arena.Tick(40)
	countdownTicks = arena.Tick(4)
)

// world bundles one engine over a shared vault, built the way the run
// command builds it.
type world struct {
	engine  *engine.Engine
	vault   *store.MemoryVault
	roster  *arena.Roster
	catalog *content.Catalog
}

func newWorld(vault *store.MemoryVault) *world {
	catalog, err := content.Parse([]byte(catalogYAML))
	Expect(err).NotTo(HaveOccurred())

	roster := arena.NewRoster()
	eng := engine.New(engine.Config{
		TickRate:       20,
		CycleTicks:     cycleTicks,
		CountdownTicks: countdownTicks,
		ClassSlots: func(class arena.Class) ([]string, bool) {
			slots := catalog.ClassSlots(class)
			return slots, slots != nil
		},
	}, roster, catalog, vault, vault, nil)
	eng.AddArena(arena.New(1, "Hollow Span", arena.Grid{Width: 16, Height: 16},
		arena.NewClock(arena.ClockConfig{CycleTicks: cycleTicks, CountdownTicks: countdownTicks})))

	return &world{engine: eng, vault: vault, roster: roster, catalog: catalog}
}

func (w *world) dispatch(line string) {
	dispatcher := command.NewDispatcher(w.engine, nil)
	Expect(dispatcher.DispatchLine(context.Background(), line)).To(Succeed())
}

func (w *world) tick(n int) {
	for i := 0; i < n; i++ {
		w.engine.Tick(context.Background())
	}
}

var _ = Describe("record and replay", func() {
	var w *world

	BeforeEach(func() {
		w = newWorld(store.NewMemoryVault(20))
	})

	joinAndRecord := func() ulid.ULID {
		w.dispatch("join Sable hunter")
		w.tick(1)
		actorID := w.engine.CurrentActor()
		Expect(actorID.IsZero()).To(BeFalse())

		w.dispatch("start " + actorID.String())
		w.tick(int(countdownTicks))

		for i := 0; i < 5; i++ {
			w.dispatch("move north")
			w.tick(1)
		}
		w.dispatch("commit")
		w.tick(1)
		return actorID
	}

	It("spawns a ghost from a committed recording", func() {
		actorID := joinAndRecord()

		Expect(w.engine.GhostCount(1)).To(Equal(1))

		tl, err := w.vault.Get(context.Background(),
			timelineKeyFor(actorID))
		Expect(err).NotTo(HaveOccurred())
		Expect(tl.Length()).To(Equal(cycleTicks))
	})

	It("replays the ghost identically every cycle", func() {
		actorID := joinAndRecord()

		// Finish the current cycle, then sample the ghost at the same
		// position in two consecutive cycles.
		pos := w.engine.Arena(1).Clock.Pos()
		w.tick(int(cycleTicks - pos))
		w.tick(10)

		first, ok := w.engine.StateOf(1, actorID)
		Expect(ok).To(BeTrue())

		w.tick(int(cycleTicks))
		second, ok := w.engine.StateOf(1, actorID)
		Expect(ok).To(BeTrue())

		Expect(second.Pos).To(Equal(first.Pos))
	})

	It("survives an engine restart through the vault", func() {
		joinAndRecord()

		restarted := newWorld(w.vault)
		Expect(restarted.engine.LoadGhosts(context.Background(), 1)).To(Succeed())
		Expect(restarted.engine.GhostCount(1)).To(Equal(1))
		Expect(restarted.engine.Arena(1).Clock.Phase()).To(Equal(arena.PhaseCountdown))
	})

	It("drops corrupt recordings and surfaces a notice", func() {
		actorID := joinAndRecord()
		w.vault.Corrupt(timelineKeyFor(actorID))

		restarted := newWorld(w.vault)
		Expect(restarted.engine.LoadGhosts(context.Background(), 1)).To(Succeed())
		Expect(restarted.engine.GhostCount(1)).To(BeZero())
		Expect(restarted.engine.Feed().Len()).NotTo(BeZero())

		_, err := w.vault.Get(context.Background(), timelineKeyFor(actorID))
		Expect(err).To(MatchError(store.ErrNotFound))
	})
})

var _ = Describe("offline estimation", func() {
	It("reports elapsed cycles from the shutdown snapshot", func() {
		vault := store.NewMemoryVault(20)
		w := newWorld(vault)

		// A 40-tick cycle at 20 Hz is two seconds; ten minutes offline is
		// 300 whole cycles.
		past := time.Now().Add(-10 * time.Minute)
		Expect(vault.Save(context.Background(), store.Snapshot{
			Arena:             1,
			LastTimestamp:     past.UnixMilli(),
			ActiveRosterIDs:   []ulid.ULID{ulid.Make()},
			ActiveRosterCount: 1,
		})).To(Succeed())

		events := w.engine.Broadcaster().Subscribe(engine.StreamAll)
		defer w.engine.Broadcaster().Unsubscribe(engine.StreamAll, events)

		Expect(w.engine.RunOffline(context.Background())).To(Succeed())

		var ev engine.Event
		Expect(events).To(Receive(&ev))
		Expect(ev.Type).To(Equal(engine.EventOfflineReportReady))
		Expect(ev.Report.Cycles).To(Equal(int64(300)))
		Expect(w.engine.Feed().Len()).To(Equal(1))
	})
})

// timelineKeyFor builds the vault key for an actor's arena 1 recording.
func timelineKeyFor(actorID ulid.ULID) timeline.Key {
	return timeline.Key{Actor: actorID, Arena: 1}
}
