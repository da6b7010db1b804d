// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

//go:build !debug

package arena

import "log/slog"

// desync resynchronizes an out-of-range clock position to the nearest valid
// phase. This state is unreachable through the public API; if it is ever
// observed, resynchronizing keeps the arena from freezing.
func (c *Clock) desync(pos Tick) Tick {
	resynced := ((pos % c.cycleTicks) + c.cycleTicks) % c.cycleTicks
	slog.Error("clock desync: position outside cycle, resynchronized",
		"pos", int32(pos),
		"cycle_ticks", int32(c.cycleTicks),
		"resynced", int32(resynced),
	)
	return resynced
}
