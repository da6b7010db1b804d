// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

// Package offline computes multi-cycle progress from a single snapshot: no
// frame-level simulation happens for time spent away. It runs once per
// arena at load, independent of the live tick loop.
package offline

import (
	"time"

	"github.com/ghostloop/ghostloop/internal/store"
)

// Reward is the aggregate payout for an offline period.
type Reward struct {
	XP   int64
	Gold int64
}

// RewardFunc maps whole elapsed cycles and the roster size at snapshot time
// to a reward. It must be pure: same inputs, same reward. Deaths during
// offline time are deliberately not modeled; the signature carries only
// what the snapshot records.
type RewardFunc func(cycles int64, rosterCount uint32) Reward

// DefaultReward is the built-in payout curve: linear XP per cycle scaled by
// roster size, with gold at a fifth of XP.
func DefaultReward(cycles int64, rosterCount uint32) Reward {
	if cycles <= 0 {
		return Reward{}
	}
	xp := cycles * 10 * int64(rosterCount)
	return Reward{XP: xp, Gold: xp / 5}
}

// Report is the per-arena offline result appended to the notification feed
// and announced through OfflineReportReady.
type Report struct {
	Arena       uint8
	Cycles      int64
	RosterCount uint32
	Reward      Reward
	Away        time.Duration
}

// Estimator turns per-arena snapshots into offline reports.
type Estimator struct {
	now    func() time.Time
	cycle  time.Duration
	reward RewardFunc
}

// NewEstimator creates an estimator. now defaults to time.Now, cycle to
// two minutes, reward to DefaultReward.
func NewEstimator(now func() time.Time, cycle time.Duration, reward RewardFunc) *Estimator {
	if now == nil {
		now = time.Now
	}
	if cycle <= 0 {
		cycle = 120 * time.Second
	}
	if reward == nil {
		reward = DefaultReward
	}
	return &Estimator{now: now, cycle: cycle, reward: reward}
}

// Estimate computes the whole cycles elapsed since the snapshot and the
// resulting reward. Partial cycles are floored away: 310 seconds at a 120
// second cycle is 2 cycles, never 3. A snapshot from the future yields
// zero cycles.
func (e *Estimator) Estimate(snap store.Snapshot) Report {
	away := e.now().Sub(snap.Time())
	cycles := int64(0)
	if away > 0 {
		cycles = int64(away / e.cycle)
	}
	return Report{
		Arena:       uint8(snap.Arena),
		Cycles:      cycles,
		RosterCount: snap.ActiveRosterCount,
		Reward:      e.reward(cycles, snap.ActiveRosterCount),
		Away:        away,
	}
}
