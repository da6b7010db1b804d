// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

// Package command defines the typed command surface the input/UI layer
// feeds into the engine, plus the dispatcher that validates, traces, and
// enqueues them. Commands are pure data; the engine applies them at the
// start of its next tick.
package command

import (
	"github.com/oklog/ulid/v2"

	"github.com/ghostloop/ghostloop/internal/arena"
)

// Command is a typed instruction for the engine.
type Command interface {
	// Name returns the stable command name used for metrics and tracing.
	Name() string
}

// StopReason says why a recording is being stopped.
type StopReason string

const (
	// StopManual is the player pressing stop: the recording commits.
	StopManual StopReason = "manual"
	// StopArenaSwitch discards the recording immediately, no confirmation.
	StopArenaSwitch StopReason = "arena_switch"
	// StopActorSwitch opens a confirmation dialog before stopping.
	StopActorSwitch StopReason = "actor_switch"
)

// JoinRoster creates a new actor and adds it to the shared roster. The new
// actor becomes the controlled actor when none is selected yet.
type JoinRoster struct {
	ActorName string
	Class     arena.Class
}

func (JoinRoster) Name() string { return "join" }

// StartRecording declares an actor as the recorder in the current arena.
type StartRecording struct {
	ActorID ulid.ULID
}

func (StartRecording) Name() string { return "start-recording" }

// StopRecording stops the active recording for the given reason.
type StopRecording struct {
	Reason StopReason
}

func (StopRecording) Name() string { return "stop-recording" }

// CommitRecording finalizes the active recording into a timeline.
type CommitRecording struct{}

func (CommitRecording) Name() string { return "commit-recording" }

// CancelRecording discards the active recording.
type CancelRecording struct{}

func (CancelRecording) Name() string { return "cancel-recording" }

// SwitchArena changes the viewed arena. An active recording is discarded
// immediately, without confirmation.
type SwitchArena struct {
	ArenaID arena.ID
}

func (SwitchArena) Name() string { return "switch-arena" }

// SwitchActor changes the controlled actor. An active recording asks for
// confirmation first.
type SwitchActor struct {
	ActorID ulid.ULID
}

func (SwitchActor) Name() string { return "switch-actor" }

// ConfirmActorSwitch answers the actor-switch confirmation dialog. Accept
// commits the recording and performs the switch; decline leaves the
// recording running.
type ConfirmActorSwitch struct {
	Accept bool
}

func (ConfirmActorSwitch) Name() string { return "confirm-actor-switch" }

// SetPaused toggles the global (menu) pause. Every arena clock freezes
// simultaneously and resumes with its exact residual time.
type SetPaused struct {
	Paused bool
}

func (SetPaused) Name() string { return "set-paused" }

// PauseArena toggles a single arena's pause without touching the others.
type PauseArena struct {
	ArenaID arena.ID
	Paused  bool
}

func (PauseArena) Name() string { return "pause-arena" }

// LiveMove is a movement input for the controlled actor. The engine stamps
// it with the current clock position when it captures the sample.
type LiveMove struct {
	Dir arena.Direction
}

func (LiveMove) Name() string { return "move" }

// LiveCast begins an ability cast at a target cell.
type LiveCast struct {
	Slot   uint8
	Target arena.Cell
}

func (LiveCast) Name() string { return "cast" }

// LiveRelease ends a held ability cast.
type LiveRelease struct {
	Slot uint8
}

func (LiveRelease) Name() string { return "release" }
