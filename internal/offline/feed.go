// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package offline

import (
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Entry is one notification in the feed.
type Entry struct {
	ID   ulid.ULID
	Text string
	At   time.Time
}

// Feed is the capped ring buffer of chat/notification lines. When capacity
// is exceeded the oldest entries are evicted first. There is no pagination
// or archival: offline results are a single delta, not a frame-by-frame
// record. The engine loop appends while the input layer reads, so access
// is serialized internally.
type Feed struct {
	mu      sync.Mutex
	entries []Entry
	head    int
	size    int
	evicted uint64
	now     func() time.Time
}

// DefaultFeedCapacity is the default ring size.
const DefaultFeedCapacity = 64

// NewFeed creates a feed with the given capacity. Non-positive capacities
// fall back to the default.
func NewFeed(capacity int, now func() time.Time) *Feed {
	if capacity <= 0 {
		capacity = DefaultFeedCapacity
	}
	if now == nil {
		now = time.Now
	}
	return &Feed{entries: make([]Entry, capacity), now: now}
}

// Append adds a notification line, evicting the oldest when full.
func (f *Feed) Append(text string) Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	e := Entry{ID: ulid.Make(), Text: text, At: f.now()}
	cap := len(f.entries)
	if f.size == cap {
		f.entries[f.head] = e
		f.head = (f.head + 1) % cap
		f.evicted++
		return e
	}
	f.entries[(f.head+f.size)%cap] = e
	f.size++
	return e
}

// AppendReport formats and appends an offline report.
func (f *Feed) AppendReport(r Report) Entry {
	return f.Append(fmt.Sprintf(
		"arena %d: away %s, %d cycles completed by %d actors, +%d xp +%d gold",
		r.Arena, r.Away.Truncate(time.Second), r.Cycles, r.RosterCount, r.Reward.XP, r.Reward.Gold,
	))
}

// Entries returns the notifications oldest first. The slice is a copy.
func (f *Feed) Entries() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Entry, 0, f.size)
	for i := 0; i < f.size; i++ {
		out = append(out, f.entries[(f.head+i)%len(f.entries)])
	}
	return out
}

// Len returns the number of retained entries.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.size
}

// Evicted returns how many entries have been dropped to stay within
// capacity.
func (f *Feed) Evicted() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.evicted
}
