// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

// Package engine is the simulation core: it owns the arenas, their clocks,
// the combat resolver, ghost playback, and the recording lifecycle, and
// advances everything one tick at a time from a single goroutine. External
// layers talk to it through the command queue and the event broadcaster.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/combat"
	"github.com/ghostloop/ghostloop/internal/command"
	"github.com/ghostloop/ghostloop/internal/ghost"
	"github.com/ghostloop/ghostloop/internal/offline"
	"github.com/ghostloop/ghostloop/internal/record"
	"github.com/ghostloop/ghostloop/internal/store"
	"github.com/ghostloop/ghostloop/internal/timeline"
	"github.com/ghostloop/ghostloop/pkg/errutil"
)

// Config carries engine tuning. Zero values fall back to defaults.
type Config struct {
	TickRate       int
	CycleTicks     arena.Tick
	CountdownTicks arena.Tick
	StepEvery      arena.Tick
	CommandBuffer  int
	FeedCapacity   int
	Now            func() time.Time

	// Reward overrides the offline reward curve; nil uses the default.
	Reward offline.RewardFunc

	// ClassSlots resolves a class name to its equipped ability slots for
	// the join command. Nil rejects every join. The content catalog's
	// ClassSlots method fits after wrapping the missing-class case.
	ClassSlots func(class arena.Class) ([]string, bool)

	// JoinHealth is the max health given to newly joined actors.
	JoinHealth int
}

func (c Config) withDefaults() Config {
	if c.TickRate <= 0 {
		c.TickRate = arena.DefaultTickRate
	}
	if c.CycleTicks <= 0 {
		c.CycleTicks = arena.DefaultCycleTicks
	}
	if c.CountdownTicks <= 0 {
		c.CountdownTicks = arena.DefaultCountdownTicks
	}
	if c.StepEvery <= 0 {
		c.StepEvery = ghost.DefaultStepEvery
	}
	if c.CommandBuffer <= 0 {
		c.CommandBuffer = 64
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.JoinHealth <= 0 {
		c.JoinHealth = 100
	}
	return c
}

// arenaState is everything the engine tracks per arena beyond the arena
// itself: ghost instances, combat state, and the monotonic total tick the
// buff system keys on.
type arenaState struct {
	arena     *arena.Arena
	ghosts    map[ulid.ULID]*ghost.Ghost
	states    map[ulid.ULID]*combat.ActorState
	totalTick arena.Tick
}

// Engine is the deterministic simulation core. All mutation happens on the
// goroutine calling Tick; Enqueue is the only concurrency-safe entry point.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	roster      *arena.Roster
	arenas      []*arenaState // ordered by arena ID
	arenaIndex  map[arena.ID]*arenaState
	buffs       *arena.BuffSet
	resolver    *combat.Resolver
	recorder    *record.Recorder
	vault       store.TimelineVault
	snapshots   store.SnapshotStore
	driver      *ghost.Driver
	estimator   *offline.Estimator
	feed        *offline.Feed
	broadcaster *Broadcaster

	commands chan command.Command

	currentArena arena.ID
	globalPaused bool

	// currentActor is mutated on the loop goroutine but read by the input
	// layer, so it carries its own lock.
	curMu        sync.RWMutex
	currentActor ulid.ULID

	// pendingActor is the switch target held while an actor-switch
	// confirmation dialog is open.
	pendingActor ulid.ULID

	// liveIntents are this tick's inputs from the controlled actor,
	// stamped when their command was applied.
	liveIntents []combat.Intent

	// liveRun tracks the controlled actor's held movement run so that live
	// stepping uses the same cadence ghost playback will reproduce.
	liveRun struct {
		active bool
		dir    arena.Direction
		start  arena.Tick
		last   arena.Tick
	}
}

// New creates an engine. abilities resolves ability IDs for the resolver;
// the content catalog implements it.
func New(
	cfg Config,
	roster *arena.Roster,
	abilities combat.AbilityLookup,
	vault store.TimelineVault,
	snapshots store.SnapshotStore,
	logger *slog.Logger,
) *Engine {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	buffs := arena.NewBuffSet()
	return &Engine{
		cfg:         cfg,
		logger:      logger,
		roster:      roster,
		arenaIndex:  make(map[arena.ID]*arenaState),
		buffs:       buffs,
		resolver:    combat.NewResolver(abilities, buffs),
		recorder:    record.NewRecorder(vault, snapshots, cfg.Now, cfg.CycleTicks),
		vault:       vault,
		snapshots:   snapshots,
		driver:      ghost.NewDriver(cfg.StepEvery),
		estimator:   offline.NewEstimator(cfg.Now, time.Duration(cfg.CycleTicks/arena.Tick(cfg.TickRate))*time.Second, cfg.Reward),
		feed:        offline.NewFeed(cfg.FeedCapacity, cfg.Now),
		broadcaster: NewBroadcaster(),
		commands:    make(chan command.Command, cfg.CommandBuffer),
	}
}

// AddArena registers an arena with the engine and wires its clock
// callbacks. Arenas must be added in ascending ID order before the first
// Tick; the first added arena becomes the viewed one.
func (e *Engine) AddArena(ar *arena.Arena) {
	as := &arenaState{
		arena:  ar,
		ghosts: make(map[ulid.ULID]*ghost.Ghost),
		states: make(map[ulid.ULID]*combat.ActorState),
	}
	ar.Clock.OnWrap(func() { e.handleWrap(as) })
	ar.Clock.OnCountdownDone(func() { e.handleCycleStart(as) })
	if len(e.arenas) == 0 {
		e.currentArena = ar.ID
	}
	e.arenas = append(e.arenas, as)
	e.arenaIndex[ar.ID] = as
}

// Arena returns the registered arena with the given ID, or nil.
func (e *Engine) Arena(id arena.ID) *arena.Arena {
	if as, ok := e.arenaIndex[id]; ok {
		return as.arena
	}
	return nil
}

// Broadcaster exposes the event stream for subscribers.
func (e *Engine) Broadcaster() *Broadcaster { return e.broadcaster }

// Feed exposes the notification feed.
func (e *Engine) Feed() *offline.Feed { return e.feed }

// Buffs exposes the buff set for activation by outer layers.
func (e *Engine) Buffs() *arena.BuffSet { return e.buffs }

// CurrentArena returns the viewed arena's ID.
func (e *Engine) CurrentArena() arena.ID { return e.currentArena }

// CurrentActor returns the controlled actor's ID (zero when none). Safe to
// call from outside the loop goroutine.
func (e *Engine) CurrentActor() ulid.ULID {
	e.curMu.RLock()
	defer e.curMu.RUnlock()
	return e.currentActor
}

func (e *Engine) setCurrentActor(id ulid.ULID) {
	e.curMu.Lock()
	e.currentActor = id
	e.curMu.Unlock()
}

// GhostCount returns how many ghosts are installed in an arena.
func (e *Engine) GhostCount(id arena.ID) int {
	if as, ok := e.arenaIndex[id]; ok {
		return len(as.ghosts)
	}
	return 0
}

// StateOf returns a copy of an actor's combat state in an arena.
func (e *Engine) StateOf(arenaID arena.ID, actorID ulid.ULID) (combat.ActorState, bool) {
	as, ok := e.arenaIndex[arenaID]
	if !ok {
		return combat.ActorState{}, false
	}
	st, ok := as.states[actorID]
	if !ok {
		return combat.ActorState{}, false
	}
	return *st, true
}

// Enqueue implements command.Sink. It never blocks; a saturated queue
// rejects the command.
func (e *Engine) Enqueue(cmd command.Command) error {
	select {
	case e.commands <- cmd:
		return nil
	default:
		return command.ErrQueueFull(cmd.Name())
	}
}

// Tick advances the whole world by one tick: queued commands are applied
// first, then every arena's clock and simulation. The order of arenas is
// fixed (ascending ID), so a given command history always produces the
// same world state.
func (e *Engine) Tick(ctx context.Context) {
	start := time.Now()
	e.drainCommands(ctx)

	for _, as := range e.arenas {
		e.tickArena(as)
	}
	e.liveIntents = nil

	tickDuration.Observe(time.Since(start).Seconds())
}

func (e *Engine) drainCommands(ctx context.Context) {
	for {
		select {
		case cmd := <-e.commands:
			if err := e.apply(ctx, cmd); err != nil {
				errutil.LogError(e.logger.With("command", cmd.Name()), "command failed", err)
				e.feed.Append(command.Dialog(err))
			}
		default:
			return
		}
	}
}

func (e *Engine) tickArena(as *arenaState) {
	clock := as.arena.Clock
	clock.Tick(1)
	if clock.Phase() != arena.PhaseRunning || clock.Paused() {
		return
	}
	as.totalTick++

	pos := clock.Pos()
	intents := e.gatherIntents(as, pos)
	outcomes := e.resolver.Resolve(as.arena, e.roster, as.states, intents, pos, as.totalTick)
	e.applyOutcomes(as, outcomes)
}

// gatherIntents collects this tick's intents: ghost playback for every
// ghost in the arena, plus the controlled actor's live inputs. Ghosts are
// visited in roster join order so the intent stream is reproducible.
func (e *Engine) gatherIntents(as *arenaState, pos arena.Tick) []combat.Intent {
	var intents []combat.Intent
	for idx, id := range as.arena.Roster() {
		g, ok := as.ghosts[id]
		if !ok {
			continue
		}
		intents = append(intents, e.driver.Advance(g, pos, idx)...)
	}
	if as.arena.ID == e.currentArena {
		intents = append(intents, e.liveIntents...)
	}
	return intents
}

// applyOutcomes turns resolver outcomes into broadcast events and, for the
// recording actor, captured death samples.
func (e *Engine) applyOutcomes(as *arenaState, outcomes []combat.Outcome) {
	for _, out := range outcomes {
		switch out.Kind {
		case combat.OutcomeDied:
			if _, isGhost := as.ghosts[out.Actor]; isGhost {
				e.emit(EventGhostDied, as, out.Actor)
			}
			if sess := e.recorder.Session(out.Actor); sess != nil {
				err := e.recorder.Capture(out.Actor, record.Sample{
					Kind: record.SampleDeath,
					Tick: out.Tick,
					Pos:  out.Cell,
				})
				if err != nil {
					e.logger.Warn("death capture failed", "actor", out.Actor.String(), "error", err)
				}
			}
		case combat.OutcomeRevived:
			if _, isGhost := as.ghosts[out.Actor]; isGhost {
				e.emit(EventGhostRevived, as, out.Actor)
			}
		}
	}
}

// handleCycleStart fires when the countdown completes: every ghost in the
// arena restarts playback from tick zero, in sync with the fresh clock.
func (e *Engine) handleCycleStart(as *arenaState) {
	e.respawnAll(as)
	for _, g := range as.ghosts {
		g.Restart()
	}
}

// handleWrap fires when the cycle boundary is crossed: an in-progress
// recording in this arena auto-commits at full length, combat state
// respawns, and every ghost restarts.
func (e *Engine) handleWrap(as *arenaState) {
	if sess := e.recorder.SessionInArena(as.arena.ID); sess != nil {
		actorID := sess.Actor()
		if actor := e.roster.Get(actorID); actor != nil {
			// A full-length recording ends here no matter what; an open
			// actor-switch dialog is abandoned rather than blocking it.
			if sess.PendingSwitch() {
				if err := e.recorder.DismissSwitch(actorID); err == nil {
					e.pendingActor = ulid.ULID{}
				}
			}
			tl, err := e.recorder.Commit(context.Background(), actor)
			if err != nil {
				e.logger.Error("auto-commit at cycle end failed", "actor", actorID.String(), "error", err)
			} else {
				e.installGhost(as, tl)
				e.emit(EventRecordingStopped, as, actorID)
			}
		}
	}

	e.respawnAll(as)
	for _, g := range as.ghosts {
		g.Restart()
	}
	cyclesCompleted.WithLabelValues(fmt.Sprintf("%d", as.arena.ID)).Inc()
	e.emit(EventCycleCompleted, as, ulid.ULID{})
}

func (e *Engine) respawnAll(as *arenaState) {
	spawn := as.arena.Grid.Center()
	for _, st := range as.states {
		st.Respawn(spawn, st.Actor.MaxHealth)
	}
}

// installGhost makes a committed timeline play back in its arena from the
// next cycle start. Any prior ghost for the actor is replaced.
func (e *Engine) installGhost(as *arenaState, tl *timeline.Timeline) {
	key := tl.Key()
	as.ghosts[key.Actor] = ghost.New(key.Actor, tl)
	e.ensureState(as, key.Actor)
	if actor := e.roster.Get(key.Actor); actor != nil && actor.Mode != arena.ModeLive {
		actor.Mode = arena.ModeGhost
	}
	activeGhosts.WithLabelValues(fmt.Sprintf("%d", as.arena.ID)).Set(float64(len(as.ghosts)))
	e.emit(EventGhostSpawned, as, key.Actor)
}

func (e *Engine) ensureState(as *arenaState, id ulid.ULID) *combat.ActorState {
	if st, ok := as.states[id]; ok {
		return st
	}
	actor := e.roster.Get(id)
	if actor == nil {
		return nil
	}
	st := &combat.ActorState{
		Actor:  actor,
		Pos:    as.arena.Grid.Center(),
		Health: actor.MaxHealth,
		Alive:  true,
	}
	as.states[id] = st
	return st
}

// LoadGhosts restores every stored timeline for the arena from the vault.
// Corrupt recordings are deleted and surfaced as a feed notice; they never
// enter playback.
func (e *Engine) LoadGhosts(ctx context.Context, arenaID arena.ID) error {
	as, ok := e.arenaIndex[arenaID]
	if !ok {
		return command.ErrUnknownArena(uint8(arenaID))
	}

	timelines, corrupt, err := e.vault.ByArena(ctx, arenaID)
	if err != nil {
		return oops.With("arena", arenaID).Wrapf(err, "loading ghosts")
	}

	for _, key := range corrupt {
		e.logger.Error("corrupt timeline discarded", "key", key.String())
		if err := e.vault.Delete(ctx, key); err != nil {
			e.logger.Error("deleting corrupt timeline failed", "key", key.String(), "error", err)
		}
		e.feed.Append(fmt.Sprintf("A recording in %s was corrupted and has been removed.", as.arena.Name))
	}

	for _, tl := range timelines {
		key := tl.Key()
		if e.roster.Get(key.Actor) == nil {
			e.logger.Warn("stored timeline for unknown actor skipped", "key", key.String())
			continue
		}
		if err := as.arena.Bind(key.Actor); err != nil {
			e.logger.Warn("binding stored actor failed", "key", key.String(), "error", err)
			continue
		}
		e.installGhost(as, tl)
	}

	if len(as.ghosts) > 0 && as.arena.Clock.Phase() == arena.PhaseIdle {
		as.arena.Clock.StartCountdown()
	}
	return nil
}

// RunOffline estimates elapsed cycles for every arena snapshot and posts
// the resulting reports. Call once at startup, before the loop starts.
func (e *Engine) RunOffline(ctx context.Context) error {
	snaps, err := e.snapshots.LoadAll(ctx)
	if err != nil {
		return oops.Wrapf(err, "loading snapshots")
	}

	for _, snap := range snaps {
		report := e.estimator.Estimate(snap)
		if report.Cycles == 0 {
			continue
		}
		e.feed.AppendReport(report)
		e.broadcaster.Broadcast(Event{
			ID:        ulid.Make(),
			Type:      EventOfflineReportReady,
			Arena:     snap.Arena,
			Timestamp: e.cfg.Now(),
			Report:    &report,
		})
	}
	return nil
}

// Shutdown persists a final snapshot for every arena with a bound roster.
func (e *Engine) Shutdown(ctx context.Context) error {
	var firstErr error
	for _, as := range e.arenas {
		ids := as.arena.Roster()
		if len(ids) == 0 {
			continue
		}
		snap := store.Snapshot{
			Arena:             as.arena.ID,
			LastTimestamp:     e.cfg.Now().UnixMilli(),
			ActiveRosterIDs:   ids,
			ActiveRosterCount: uint32(len(ids)),
		}
		if err := e.snapshots.Save(ctx, snap); err != nil && firstErr == nil {
			firstErr = oops.With("arena", as.arena.ID).Wrapf(err, "saving shutdown snapshot")
		}
	}
	return firstErr
}

func (e *Engine) emit(typ EventType, as *arenaState, actor ulid.ULID) {
	e.broadcaster.Broadcast(Event{
		ID:        ulid.Make(),
		Type:      typ,
		Arena:     as.arena.ID,
		Actor:     actor,
		Tick:      as.arena.Clock.Pos(),
		Timestamp: e.cfg.Now(),
	})
}
