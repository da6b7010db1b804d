// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package command

import (
	"github.com/samber/oops"
)

// Error codes for command dispatch failures. Codes raised deeper in the
// stack (the recorder's DUPLICATE_RECORDING and INVALID_SESSION_STATE, the
// vault's corruption codes) surface here too; Dialog knows all of them.
const (
	CodeUnknownCommand      = "UNKNOWN_COMMAND"
	CodeInvalidArgs         = "INVALID_ARGS"
	CodeUnknownActor        = "UNKNOWN_ACTOR"
	CodeUnknownArena        = "UNKNOWN_ARENA"
	CodeQueueFull           = "QUEUE_FULL"
	CodeDuplicateRecording  = "DUPLICATE_RECORDING"
	CodeInvalidSessionState = "INVALID_SESSION_STATE"
	CodeConfirmPending      = "CONFIRM_PENDING"
	CodeCorruptTimeline     = "CORRUPT_TIMELINE"
)

// ErrUnknownCommand creates an error for an unknown command word.
func ErrUnknownCommand(word string) error {
	return oops.Code(CodeUnknownCommand).
		With("command", word).
		Errorf("unknown command: %s", word)
}

// ErrInvalidArgs creates an error for invalid arguments.
func ErrInvalidArgs(cmd, usage string) error {
	return oops.Code(CodeInvalidArgs).
		With("command", cmd).
		With("usage", usage).
		Errorf("invalid arguments")
}

// ErrUnknownActor creates an error for an actor ID not on the roster.
func ErrUnknownActor(id string) error {
	return oops.Code(CodeUnknownActor).
		With("actor", id).
		Errorf("unknown actor: %s", id)
}

// ErrUnknownArena creates an error for an arena ID outside the world.
func ErrUnknownArena(id uint8) error {
	return oops.Code(CodeUnknownArena).
		With("arena", id).
		Errorf("unknown arena: %d", id)
}

// ErrQueueFull creates an error for a saturated command queue.
func ErrQueueFull(cmd string) error {
	return oops.Code(CodeQueueFull).
		With("command", cmd).
		Errorf("command queue is full")
}

// Dialog extracts a player-facing message from an error. Session-state
// errors are recovered locally and shown as dialogs, never crashes.
func Dialog(err error) string {
	if err == nil {
		return "Something went wrong. Try again."
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "Something went wrong. Try again."
	}

	switch oopsErr.Code() {
	case CodeUnknownCommand:
		return "Unknown command. Try 'help'."
	case CodeInvalidArgs:
		if usage, ok := oopsErr.Context()["usage"].(string); ok && usage != "" {
			return "Usage: " + usage
		}
		return "Invalid arguments."
	case CodeUnknownActor:
		return "No such actor."
	case CodeUnknownArena:
		return "No such arena."
	case CodeQueueFull:
		return "The engine is busy. Try again."
	case CodeDuplicateRecording:
		return "Already recording. Stop the current recording first."
	case CodeInvalidSessionState:
		return "No recording is in progress."
	case CodeConfirmPending:
		return "Answer the switch prompt first: confirm yes or confirm no."
	case CodeCorruptTimeline:
		return "A recording could not be read and was discarded."
	default:
		return "Something went wrong. Try again."
	}
}
