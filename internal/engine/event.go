// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package engine

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/offline"
)

// EventType identifies the kind of engine event.
type EventType string

const (
	EventGhostSpawned       EventType = "ghost_spawned"
	EventGhostDied          EventType = "ghost_died"
	EventGhostRevived       EventType = "ghost_revived"
	EventCycleCompleted     EventType = "cycle_completed"
	EventOfflineReportReady EventType = "offline_report_ready"
	EventRecordingStarted   EventType = "recording_started"
	EventRecordingStopped   EventType = "recording_stopped"
)

// Event is one engine notification for external layers. Simulation state
// never depends on who consumes these.
type Event struct {
	ID        ulid.ULID
	Type      EventType
	Arena     arena.ID
	Actor     ulid.ULID // zero for arena-level events
	Tick      arena.Tick
	Timestamp time.Time

	// Report is set for EventOfflineReportReady.
	Report *offline.Report
}

// Stream returns the stream key the event is broadcast on.
func (e Event) Stream() string {
	return ArenaStream(e.Arena)
}

// ArenaStream returns the broadcast stream key for an arena.
func ArenaStream(id arena.ID) string {
	return fmt.Sprintf("arena:%d", id)
}

// StreamAll receives every event regardless of arena.
const StreamAll = "all"
