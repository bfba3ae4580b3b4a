package bridge

import (
	"sync"

	"github.com/showctl/dicentis-osc-bridge/internal/dicentis"
)

// DiscussionState holds the last discussion snapshot the poll loop fetched.
// It is the sole source of truth for "current mic state" and may be stale by
// up to one poll interval.
//
// Writes happen only on the scheduler goroutine; the lock exists because the
// diagnostics HTTP API reads from arbitrary goroutines. Replacement is
// wholesale, never incremental.
type DiscussionState struct {
	mu      sync.RWMutex
	entries []dicentis.DiscussionEntry
}

// Replace swaps in a new snapshot. nil clears it.
func (s *DiscussionState) Replace(entries []dicentis.DiscussionEntry) {
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
}

// MicState returns the cached microphone state for a screen line, comparing
// labels exactly as the server reported them. Unknown lines and an empty
// snapshot both read as off.
func (s *DiscussionState) MicState(screenLine string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ScreenLine == screenLine {
			if e.MicrophoneState == "" {
				return dicentis.MicOff
			}
			return e.MicrophoneState
		}
	}
	return dicentis.MicOff
}

// ActiveLines lists the screen lines whose microphone is on, in snapshot
// order.
func (s *DiscussionState) ActiveLines() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var active []string
	for _, e := range s.entries {
		if e.MicrophoneState == dicentis.MicOn {
			active = append(active, e.ScreenLine)
		}
	}
	return active
}

// Snapshot returns a copy of the cached entries.
func (s *DiscussionState) Snapshot() []dicentis.DiscussionEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]dicentis.DiscussionEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
