// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

// Package record captures live input into transient sessions and finalizes
// them into immutable timelines. Capture stores intent, not resulting
// state: a held direction becomes one coalesced event, an ability cast one
// discrete event with its target and hold duration.
package record

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/store"
	"github.com/ghostloop/ghostloop/internal/timeline"
)

// InterruptReason says why a recording is being interrupted.
type InterruptReason uint8

const (
	// InterruptArenaSwitch stops immediately with no confirmation and
	// discards partial data.
	InterruptArenaSwitch InterruptReason = iota
	// InterruptActorSwitch requests confirmation first; a dismissed switch
	// leaves the recording untouched, a confirmed one commits.
	InterruptActorSwitch
)

// Recorder owns every recording session in the system: at most one per
// actor, at most one per arena. All methods are called from the engine's
// single simulation goroutine; there is no internal locking.
type Recorder struct {
	vault      store.TimelineVault
	snapshots  store.SnapshotStore
	now        func() time.Time
	cycleTicks arena.Tick

	sessions map[ulid.ULID]*Session
}

// NewRecorder creates a recorder persisting through the given vault and
// snapshot store. now supplies wall-clock time for snapshot autosaves only;
// it never influences simulation.
func NewRecorder(vault store.TimelineVault, snapshots store.SnapshotStore, now func() time.Time, cycleTicks arena.Tick) *Recorder {
	if now == nil {
		now = time.Now
	}
	if cycleTicks <= 0 {
		cycleTicks = arena.DefaultCycleTicks
	}
	return &Recorder{
		vault:      vault,
		snapshots:  snapshots,
		now:        now,
		cycleTicks: cycleTicks,
		sessions:   make(map[ulid.ULID]*Session),
	}
}

// Session returns the active session for an actor, or nil.
func (r *Recorder) Session(actor ulid.ULID) *Session {
	return r.sessions[actor]
}

// SessionInArena returns the active session in an arena, or nil.
func (r *Recorder) SessionInArena(arenaID arena.ID) *Session {
	for _, s := range r.sessions {
		if s.arena.ID == arenaID {
			return s
		}
	}
	return nil
}

// Start declares an actor as the recorder for an arena. The arena's clock
// is forced into Countdown regardless of current phase; capture begins at
// local t=0 once the countdown completes. Autosaves a snapshot.
func (r *Recorder) Start(ctx context.Context, actor *arena.Actor, ar *arena.Arena) error {
	if _, ok := r.sessions[actor.ID]; ok {
		return oops.Code("DUPLICATE_RECORDING").
			With("actor", actor.ID.String()).
			Wrap(ErrDuplicateRecording)
	}
	if s := r.SessionInArena(ar.ID); s != nil {
		return oops.Code("DUPLICATE_RECORDING").
			With("arena", ar.ID).
			With("recording_actor", s.actor.String()).
			Wrap(ErrDuplicateRecording)
	}
	if err := ar.Bind(actor.ID); err != nil {
		return err
	}

	r.sessions[actor.ID] = &Session{actor: actor.ID, arena: ar}
	actor.Mode = arena.ModeLive
	ar.Clock.StartCountdown()

	return r.autosave(ctx, ar)
}

// Capture folds an input sample into the actor's session. Samples arriving
// while the clock is not Running (countdown, pause) are dropped; partial
// input before t=0 is not part of the recording.
func (r *Recorder) Capture(actor ulid.ULID, sample Sample) error {
	s, ok := r.sessions[actor]
	if !ok {
		return oops.Code("INVALID_SESSION_STATE").
			With("actor", actor.String()).
			Wrap(ErrInvalidSessionState)
	}
	if s.arena.Clock.Phase() != arena.PhaseRunning || s.arena.Clock.Paused() {
		return nil
	}
	s.capture(sample)
	return nil
}

// Commit finalizes the session into an immutable full-cycle timeline: any
// real gap after the last captured event becomes implicit idle. The new
// timeline atomically replaces any prior one for the same (actor, arena)
// key. Autosaves a snapshot.
func (r *Recorder) Commit(ctx context.Context, actor *arena.Actor) (*timeline.Timeline, error) {
	s, ok := r.sessions[actor.ID]
	if !ok {
		return nil, oops.Code("INVALID_SESSION_STATE").
			With("actor", actor.ID.String()).
			Wrap(ErrInvalidSessionState)
	}
	if s.pendingSwitch {
		return nil, oops.Code("CONFIRM_PENDING").
			With("actor", actor.ID.String()).
			Wrap(ErrConfirmPending)
	}

	t, err := s.finalize(r.cycleTicks)
	if err != nil {
		return nil, oops.Code("COMMIT_FAILED").With("actor", actor.ID.String()).Wrap(err)
	}
	if err := r.vault.Put(ctx, t); err != nil {
		return nil, oops.Code("COMMIT_FAILED").With("actor", actor.ID.String()).Wrap(err)
	}

	delete(r.sessions, actor.ID)
	actor.Mode = arena.ModeIdle

	if err := r.autosave(ctx, s.arena); err != nil {
		return t, err
	}
	return t, nil
}

// Cancel discards the session atomically: the arena clock resets to Idle at
// 0, the actor returns to background-simulated status, and no partial data
// survives. Autosaves a snapshot.
func (r *Recorder) Cancel(ctx context.Context, actor *arena.Actor) error {
	s, ok := r.sessions[actor.ID]
	if !ok {
		return oops.Code("INVALID_SESSION_STATE").
			With("actor", actor.ID.String()).
			Wrap(ErrInvalidSessionState)
	}

	delete(r.sessions, actor.ID)
	s.arena.Clock.Reset()
	actor.Mode = arena.ModeIdle

	return r.autosave(ctx, s.arena)
}

// Interrupt handles an external event that conflicts with the recording.
// An arena switch discards immediately. An actor switch opens a two-step
// confirmation: the return value reports whether the caller must ask the
// player before proceeding.
func (r *Recorder) Interrupt(ctx context.Context, actor *arena.Actor, reason InterruptReason) (needsConfirm bool, err error) {
	s, ok := r.sessions[actor.ID]
	if !ok {
		return false, oops.Code("INVALID_SESSION_STATE").
			With("actor", actor.ID.String()).
			Wrap(ErrInvalidSessionState)
	}

	if s.pendingSwitch {
		return false, oops.Code("CONFIRM_PENDING").
			With("actor", actor.ID.String()).
			Wrap(ErrConfirmPending)
	}

	switch reason {
	case InterruptArenaSwitch:
		return false, r.Cancel(ctx, actor)
	case InterruptActorSwitch:
		s.pendingSwitch = true
		return true, nil
	default:
		return false, oops.Code("INVALID_SESSION_STATE").Errorf("unknown interrupt reason %d", reason)
	}
}

// ConfirmSwitch answers a pending actor-switch confirmation with yes:
// the recording stops as if manually committed.
func (r *Recorder) ConfirmSwitch(ctx context.Context, actor *arena.Actor) (*timeline.Timeline, error) {
	s, ok := r.sessions[actor.ID]
	if !ok || !s.pendingSwitch {
		return nil, oops.Code("INVALID_SESSION_STATE").
			With("actor", actor.ID.String()).
			Wrap(ErrInvalidSessionState)
	}
	s.pendingSwitch = false
	return r.Commit(ctx, actor)
}

// DismissSwitch answers a pending actor-switch confirmation with no: the
// switch is abandoned and recording continues unaffected.
func (r *Recorder) DismissSwitch(actor ulid.ULID) error {
	s, ok := r.sessions[actor]
	if !ok || !s.pendingSwitch {
		return oops.Code("INVALID_SESSION_STATE").
			With("actor", actor.String()).
			Wrap(ErrInvalidSessionState)
	}
	s.pendingSwitch = false
	return nil
}

// autosave writes the arena's snapshot: last wall-clock timestamp plus the
// active roster identity and count. Triggered on every recording start and
// stop, and by the engine on shutdown.
func (r *Recorder) autosave(ctx context.Context, ar *arena.Arena) error {
	roster := ar.Roster()
	snap := store.Snapshot{
		Arena:             ar.ID,
		LastTimestamp:     r.now().UnixMilli(),
		ActiveRosterIDs:   roster,
		ActiveRosterCount: uint32(len(roster)),
	}
	if err := r.snapshots.Save(ctx, snap); err != nil {
		return oops.Code("AUTOSAVE_FAILED").With("arena", ar.ID).Wrap(err)
	}
	return nil
}
