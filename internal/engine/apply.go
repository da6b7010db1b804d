// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package engine

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/combat"
	"github.com/ghostloop/ghostloop/internal/command"
	"github.com/ghostloop/ghostloop/internal/record"
	"github.com/ghostloop/ghostloop/internal/timeline"
)

// apply executes one queued command. Failures are user errors, not engine
// faults: the caller logs them and posts their dialog to the feed.
func (e *Engine) apply(ctx context.Context, cmd command.Command) error {
	switch c := cmd.(type) {
	case command.JoinRoster:
		return e.applyJoin(c.ActorName, c.Class)
	case command.StartRecording:
		return e.applyStartRecording(ctx, c.ActorID)
	case command.StopRecording:
		return e.applyStopRecording(ctx, c.Reason, ulid.ULID{})
	case command.CommitRecording:
		return e.applyCommit(ctx)
	case command.CancelRecording:
		return e.applyCancel(ctx)
	case command.SwitchArena:
		return e.applySwitchArena(ctx, c.ArenaID)
	case command.SwitchActor:
		return e.applySwitchActor(ctx, c.ActorID)
	case command.ConfirmActorSwitch:
		return e.applyConfirmSwitch(ctx, c.Accept)
	case command.SetPaused:
		e.applySetPaused(c.Paused)
		return nil
	case command.PauseArena:
		return e.applyPauseArena(c.ArenaID, c.Paused)
	case command.LiveMove:
		return e.applyLiveMove(c.Dir)
	case command.LiveCast:
		return e.applyLiveCast(c.Slot, c.Target)
	case command.LiveRelease:
		return e.applyLiveRelease(c.Slot)
	default:
		return oops.With("command", cmd.Name()).Errorf("unhandled command type")
	}
}

func (e *Engine) applyJoin(name string, class arena.Class) error {
	if e.cfg.ClassSlots == nil {
		return oops.Code(command.CodeInvalidArgs).
			With("class", string(class)).
			Errorf("no classes are available")
	}
	slots, ok := e.cfg.ClassSlots(class)
	if !ok {
		return oops.Code(command.CodeInvalidArgs).
			With("class", string(class)).
			Errorf("unknown class %q", class)
	}

	actor, err := arena.NewActor(name, class, 1, e.cfg.JoinHealth, slots)
	if err != nil {
		return err
	}
	if err := e.roster.Add(actor); err != nil {
		return err
	}
	if e.currentActor == (ulid.ULID{}) {
		e.setCurrentActor(actor.ID)
	}
	e.logger.Info("actor joined roster", "actor", actor.ID, "name", name, "class", class)
	return nil
}

func (e *Engine) applyStartRecording(ctx context.Context, actorID ulid.ULID) error {
	actor := e.roster.Get(actorID)
	if actor == nil {
		return command.ErrUnknownActor(actorID.String())
	}
	as := e.arenaIndex[e.currentArena]

	if err := e.recorder.Start(ctx, actor, as.arena); err != nil {
		return err
	}
	e.setCurrentActor(actorID)
	e.ensureState(as, actorID)
	e.emit(EventRecordingStarted, as, actorID)
	return nil
}

func (e *Engine) applyStopRecording(ctx context.Context, reason command.StopReason, switchTarget ulid.ULID) error {
	switch reason {
	case command.StopManual:
		return e.applyCommit(ctx)
	case command.StopArenaSwitch:
		return e.applyCancel(ctx)
	case command.StopActorSwitch:
		actor := e.controlledActor()
		if actor == nil {
			return oops.Code(command.CodeInvalidSessionState).Errorf("no active recording")
		}
		needsConfirm, err := e.recorder.Interrupt(ctx, actor, record.InterruptActorSwitch)
		if err != nil {
			return err
		}
		if needsConfirm {
			e.pendingActor = switchTarget
		}
		return nil
	default:
		return oops.With("reason", string(reason)).Errorf("unknown stop reason")
	}
}

func (e *Engine) applyCommit(ctx context.Context) error {
	actor := e.controlledActor()
	if actor == nil {
		return oops.Code(command.CodeInvalidSessionState).Errorf("no active recording")
	}
	as := e.sessionArena(actor.ID)
	tl, err := e.recorder.Commit(ctx, actor)
	if err != nil {
		return err
	}
	if as != nil {
		e.installGhost(as, tl)
		e.emit(EventRecordingStopped, as, actor.ID)
	}
	return nil
}

func (e *Engine) applyCancel(ctx context.Context) error {
	actor := e.controlledActor()
	if actor == nil {
		return oops.Code(command.CodeInvalidSessionState).Errorf("no active recording")
	}
	as := e.sessionArena(actor.ID)
	if err := e.recorder.Cancel(ctx, actor); err != nil {
		return err
	}
	if as != nil {
		e.emit(EventRecordingStopped, as, actor.ID)
	}
	return nil
}

// applySwitchArena changes the viewed arena. An active recording is
// discarded immediately, without confirmation: partial recordings must
// never persist.
func (e *Engine) applySwitchArena(ctx context.Context, id arena.ID) error {
	if _, ok := e.arenaIndex[id]; !ok {
		return command.ErrUnknownArena(uint8(id))
	}
	if actor := e.controlledActor(); actor != nil && e.recorder.Session(actor.ID) != nil {
		if _, err := e.recorder.Interrupt(ctx, actor, record.InterruptArenaSwitch); err != nil {
			return err
		}
	}
	e.currentArena = id
	return nil
}

// applySwitchActor changes the controlled actor. With a recording active
// the switch is held behind a confirmation dialog.
func (e *Engine) applySwitchActor(ctx context.Context, id ulid.ULID) error {
	if e.roster.Get(id) == nil {
		return command.ErrUnknownActor(id.String())
	}
	if actor := e.controlledActor(); actor != nil && e.recorder.Session(actor.ID) != nil {
		return e.applyStopRecording(ctx, command.StopActorSwitch, id)
	}
	e.setCurrentActor(id)
	return nil
}

func (e *Engine) applyConfirmSwitch(ctx context.Context, accept bool) error {
	actor := e.controlledActor()
	if actor == nil {
		return oops.Code(command.CodeInvalidSessionState).Errorf("no switch confirmation pending")
	}
	if !accept {
		e.pendingActor = ulid.ULID{}
		return e.recorder.DismissSwitch(actor.ID)
	}

	as := e.sessionArena(actor.ID)
	tl, err := e.recorder.ConfirmSwitch(ctx, actor)
	if err != nil {
		return err
	}
	if as != nil {
		e.installGhost(as, tl)
		e.emit(EventRecordingStopped, as, actor.ID)
	}
	if e.pendingActor != (ulid.ULID{}) {
		e.setCurrentActor(e.pendingActor)
		e.pendingActor = ulid.ULID{}
	}
	return nil
}

// applySetPaused freezes or resumes every arena clock at once. Residual
// countdown and cycle position both survive the freeze exactly.
func (e *Engine) applySetPaused(paused bool) {
	e.globalPaused = paused
	for _, as := range e.arenas {
		if paused {
			as.arena.Clock.Pause()
		} else {
			as.arena.Clock.Resume()
		}
	}
}

func (e *Engine) applyPauseArena(id arena.ID, paused bool) error {
	as, ok := e.arenaIndex[id]
	if !ok {
		return command.ErrUnknownArena(uint8(id))
	}
	if paused {
		as.arena.Clock.Pause()
	} else {
		as.arena.Clock.Resume()
	}
	return nil
}

// applyLiveMove folds one held-movement tick into the current run. Every
// sample is captured, but a step intent is only emitted at the run's
// cadence ticks so live stepping matches what playback will reproduce.
func (e *Engine) applyLiveMove(dir arena.Direction) error {
	actor, as, pos, err := e.liveContext()
	if err != nil {
		return err
	}
	e.captureLive(actor.ID, record.Sample{Kind: record.SampleMove, Tick: pos, Dir: dir})

	run := &e.liveRun
	if !run.active || run.dir != dir || pos != run.last+1 {
		run.active, run.dir, run.start = true, dir, pos
	}
	run.last = pos

	if (pos-run.start)%e.cfg.StepEvery == 0 {
		e.queueLiveIntent(as, actor.ID, timeline.Move(dir, run.start, pos+1))
	}
	return nil
}

func (e *Engine) applyLiveCast(slot uint8, target arena.Cell) error {
	actor, as, pos, err := e.liveContext()
	if err != nil {
		return err
	}
	e.captureLive(actor.ID, record.Sample{Kind: record.SampleAbilityStart, Tick: pos, Slot: slot, Target: target})
	e.queueLiveIntent(as, actor.ID, timeline.AbilityStart(slot, target, 0, pos))
	return nil
}

func (e *Engine) applyLiveRelease(slot uint8) error {
	actor, as, pos, err := e.liveContext()
	if err != nil {
		return err
	}
	e.captureLive(actor.ID, record.Sample{Kind: record.SampleAbilityEnd, Tick: pos, Slot: slot})
	e.queueLiveIntent(as, actor.ID, timeline.AbilityEnd(slot, pos))
	return nil
}

// liveContext resolves the controlled actor and the viewed arena for a
// live input. Inputs are only meaningful while the arena clock runs.
func (e *Engine) liveContext() (*arena.Actor, *arenaState, arena.Tick, error) {
	actor := e.controlledActor()
	if actor == nil {
		return nil, nil, 0, command.ErrUnknownActor("none selected")
	}
	as := e.arenaIndex[e.currentArena]
	clock := as.arena.Clock
	if clock.Phase() != arena.PhaseRunning || clock.Paused() {
		return nil, nil, 0, oops.Code(command.CodeInvalidSessionState).
			With("phase", clock.Phase().String()).
			Errorf("arena clock is not running")
	}
	e.ensureState(as, actor.ID)
	return actor, as, clock.Pos(), nil
}

// captureLive records a sample into the active session, if any. Live play
// without a recording in progress is fine; the sample just isn't kept.
func (e *Engine) captureLive(actorID ulid.ULID, sample record.Sample) {
	if e.recorder.Session(actorID) == nil {
		return
	}
	if err := e.recorder.Capture(actorID, sample); err != nil {
		e.logger.Warn("sample capture failed", "actor", actorID.String(), "error", err)
	}
}

func (e *Engine) queueLiveIntent(as *arenaState, actorID ulid.ULID, ev timeline.Event) {
	joinIndex := as.arena.JoinIndex(actorID)
	if joinIndex < 0 {
		if err := as.arena.Bind(actorID); err != nil {
			e.logger.Warn("binding live actor failed", "actor", actorID.String(), "error", err)
			return
		}
		joinIndex = as.arena.JoinIndex(actorID)
	}
	e.liveIntents = append(e.liveIntents, combat.Intent{
		Actor:     actorID,
		JoinIndex: joinIndex,
		Event:     ev,
	})
}

func (e *Engine) controlledActor() *arena.Actor {
	if e.currentActor == (ulid.ULID{}) {
		return nil
	}
	return e.roster.Get(e.currentActor)
}

// sessionArena returns the arena state holding the actor's active session.
func (e *Engine) sessionArena(actorID ulid.ULID) *arenaState {
	sess := e.recorder.Session(actorID)
	if sess == nil {
		return nil
	}
	return e.arenaIndex[sess.Arena().ID]
}
