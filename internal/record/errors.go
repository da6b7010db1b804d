// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package record

import "errors"

// Sentinel errors for session state. These are recovered locally by the
// input layer and surfaced as user dialogs, never crashes.
var (
	// ErrDuplicateRecording is returned when starting a recording for an
	// actor that already has an active session, or in an arena that is
	// already recording.
	ErrDuplicateRecording = errors.New("recording already in progress")

	// ErrInvalidSessionState is returned by commit/cancel/interrupt when no
	// session is active for the actor.
	ErrInvalidSessionState = errors.New("no active recording session")

	// ErrConfirmPending is returned when an operation conflicts with an
	// actor-switch confirmation that is still awaiting an answer.
	ErrConfirmPending = errors.New("actor switch confirmation pending")
)
