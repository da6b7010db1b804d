// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

//go:build debug

package arena

import "fmt"

// desync panics in debug builds: an out-of-range clock position is a
// programming invariant violation, not a recoverable condition.
func (c *Clock) desync(pos Tick) Tick {
	panic(fmt.Sprintf("clock desync: position %d outside [0,%d)", pos, c.cycleTicks))
}
