// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package command_test

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/command"
)

func TestParse(t *testing.T) {
	actorID := ulid.Make()

	tests := []struct {
		name string
		line string
		want command.Command
	}{
		{"start", "start " + actorID.String(), command.StartRecording{ActorID: actorID}},
		{"stop", "stop", command.StopRecording{Reason: command.StopManual}},
		{"commit", "commit", command.CommitRecording{}},
		{"cancel", "cancel", command.CancelRecording{}},
		{"arena", "arena 3", command.SwitchArena{ArenaID: 3}},
		{"actor", "actor " + actorID.String(), command.SwitchActor{ActorID: actorID}},
		{"confirm yes", "confirm yes", command.ConfirmActorSwitch{Accept: true}},
		{"confirm no", "confirm n", command.ConfirmActorSwitch{Accept: false}},
		{"pause global", "pause", command.SetPaused{Paused: true}},
		{"resume arena", "resume 2", command.PauseArena{ArenaID: 2, Paused: false}},
		{"move", "move north", command.LiveMove{Dir: arena.North}},
		{"cast", "cast 1 10 10", command.LiveCast{Slot: 1, Target: arena.Cell{X: 10, Y: 10}}},
		{"release", "release 1", command.LiveRelease{Slot: 1}},
		{"join", "join Sable hunter", command.JoinRoster{ActorName: "Sable", Class: arena.ClassHunter}},
		{"verb case insensitive", "STOP", command.StopRecording{Reason: command.StopManual}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := command.Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantCode string
	}{
		{"empty", "", command.CodeInvalidArgs},
		{"unknown verb", "frobnicate", command.CodeUnknownCommand},
		{"bad actor id", "start not-a-ulid", command.CodeInvalidArgs},
		{"arena out of range", "arena 300", command.CodeInvalidArgs},
		{"slot out of range", "release 9", command.CodeInvalidArgs},
		{"bad direction", "move up", command.CodeInvalidArgs},
		{"stop takes no args", "stop now", command.CodeInvalidArgs},
		{"join missing class", "join Sable", command.CodeInvalidArgs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := command.Parse(tt.line)
			require.Error(t, err)
			oopsErr, ok := oops.AsOops(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, oopsErr.Code())
		})
	}
}

func TestDialog(t *testing.T) {
	err := command.ErrInvalidArgs("arena", "arena <id>")
	assert.Equal(t, "Usage: arena <id>", command.Dialog(err))

	_, err = command.Parse("frobnicate")
	assert.Equal(t, "Unknown command. Try 'help'.", command.Dialog(err))

	err = oops.Code(command.CodeConfirmPending).Errorf("confirmation pending")
	assert.Equal(t, "Answer the switch prompt first: confirm yes or confirm no.", command.Dialog(err))

	assert.Equal(t, "Something went wrong. Try again.", command.Dialog(nil))
}

type captureSink struct {
	cmds []command.Command
	err  error
}

func (s *captureSink) Enqueue(cmd command.Command) error {
	if s.err != nil {
		return s.err
	}
	s.cmds = append(s.cmds, cmd)
	return nil
}

func TestDispatcher(t *testing.T) {
	t.Run("forwards parsed command to sink", func(t *testing.T) {
		sink := &captureSink{}
		d := command.NewDispatcher(sink, nil)

		err := d.DispatchLine(context.Background(), "pause")
		require.NoError(t, err)
		require.Len(t, sink.cmds, 1)
		assert.Equal(t, command.SetPaused{Paused: true}, sink.cmds[0])
	})

	t.Run("propagates sink rejection", func(t *testing.T) {
		sink := &captureSink{err: command.ErrQueueFull("pause")}
		d := command.NewDispatcher(sink, nil)

		err := d.DispatchLine(context.Background(), "pause")
		require.Error(t, err)
		assert.Equal(t, "The engine is busy. Try again.", command.Dialog(err))
	})

	t.Run("parse failure never reaches sink", func(t *testing.T) {
		sink := &captureSink{}
		d := command.NewDispatcher(sink, nil)

		err := d.DispatchLine(context.Background(), "bogus")
		require.Error(t, err)
		assert.Empty(t, sink.cmds)
	})
}
