// Copyright (c) scoreboard-hub contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package store holds the latest decoded snapshot per sport and per
// (source, sport), and tracks when each source was last heard from.
package store

import (
	"sync"
	"time"

	"github.com/scorehub/ingest-hub/internal/protocol"
	"github.com/scorehub/ingest-hub/pkg/schema"
)

// StaleTTL is how long a source may go silent before PurgeStale drops it.
const StaleTTL = time.Hour

// Store is the in-memory latest-value cache described in spec.md §4.4. All
// fields are guarded by mu; callers never see partially-updated state.
//
// Lock ordering: any caller holding a source-registry lock must acquire it
// before mu, never after, mirroring the original system's
// data_sources_lock-then-parsed_data_lock discipline. SnapshotSources
// releases mu before it calls its NameLookup, so the HTTP source-listing
// handler never takes the registry lock while mu is held.
type Store struct {
	mu sync.Mutex

	bySport  map[schema.Sport]schema.Snapshot
	bySource map[string]map[schema.Sport]schema.Snapshot
	lastSeen map[string]time.Time

	innings *protocol.InningTracker
	now     func() time.Time
}

// New returns an empty Store. nowFn overrides time.Now for tests; pass nil
// in production code.
func New(nowFn func() time.Time) *Store {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Store{
		bySport:  make(map[schema.Sport]schema.Snapshot),
		bySource: make(map[string]map[schema.Sport]schema.Snapshot),
		lastSeen: make(map[string]time.Time),
		innings:  protocol.NewInningTracker(),
		now:      nowFn,
	}
}

// Record stores a decoded snapshot as the latest value for sport, both
// globally and for sourceID. Baseball snapshots are enriched with inning,
// half, and inning_display before storage.
func (s *Store) Record(sport schema.Sport, snap schema.Snapshot, sourceID string) {
	if sourceID == "" {
		sourceID = "unknown"
	}
	receivedAt := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if sport == schema.Baseball {
		half, inning := s.innings.Update(snap, sourceID)
		enriched := make(schema.Snapshot, len(snap)+3)
		for k, v := range snap {
			enriched[k] = v
		}
		enriched["inning"] = inning
		enriched["half"] = string(half)
		enriched["inning_display"] = protocol.Display(half, inning)
		snap = enriched
	}

	withMeta := schema.WithMeta(snap, schema.Meta{
		Source:     sourceID,
		ReceivedAt: float64(receivedAt.UnixNano()) / 1e9,
	})

	s.bySport[sport] = withMeta
	if s.bySource[sourceID] == nil {
		s.bySource[sourceID] = make(map[schema.Sport]schema.Snapshot)
	}
	s.bySource[sourceID][sport] = withMeta
	s.lastSeen[sourceID] = receivedAt
}

// Get returns the latest snapshot for sport, scoped to sourceID when given,
// else the latest across all sources. Returns an empty, non-nil Snapshot
// when nothing has been recorded yet.
func (s *Store) Get(sport schema.Sport, sourceID string) schema.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap schema.Snapshot
	if sourceID != "" {
		snap = s.bySource[sourceID][sport]
	} else {
		snap = s.bySport[sport]
	}
	return copySnapshot(snap)
}

func copySnapshot(snap schema.Snapshot) schema.Snapshot {
	out := make(schema.Snapshot, len(snap))
	for k, v := range snap {
		out[k] = v
	}
	return out
}

// NameLookup resolves a source ID to its configured display name, falling
// back to the ID itself. Passed by the caller so Store never needs a
// direct dependency on the source registry (lock-ordering discipline).
type NameLookup func(sourceID string) string

// SnapshotSources returns one SourceInfo per source that has ever reported
// data, in no particular order.
func (s *Store) SnapshotSources(names NameLookup) []schema.SourceInfo {
	now := s.now()

	s.mu.Lock()
	out := make([]schema.SourceInfo, 0, len(s.lastSeen))
	for sourceID, lastSeen := range s.lastSeen {
		sports := make([]string, 0, len(s.bySource[sourceID]))
		for sport := range s.bySource[sourceID] {
			sports = append(sports, string(sport))
		}
		out = append(out, schema.SourceInfo{
			Source:     sourceID,
			Name:       sourceID,
			LastSeen:   float64(lastSeen.UnixNano()) / 1e9,
			AgeSeconds: now.Sub(lastSeen).Seconds(),
			Sports:     sports,
		})
	}
	s.mu.Unlock()

	if names != nil {
		for i := range out {
			out[i].Name = names(out[i].Source)
		}
	}
	return out
}

// PurgeStale drops every source not heard from within ttl and returns the
// IDs it removed.
func (s *Store) PurgeStale(ttl time.Duration) []string {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for sourceID, lastSeen := range s.lastSeen {
		if lastSeen.Before(cutoff) {
			removed = append(removed, sourceID)
			delete(s.lastSeen, sourceID)
			delete(s.bySource, sourceID)
			for sport, snap := range s.bySport {
				if meta, ok := snap["_meta"].(map[string]any); ok && meta["source"] == sourceID {
					delete(s.bySport, sport)
				}
			}
		}
	}
	return removed
}

// ResetInnings clears the baseball inning tracker for sourceID, or every
// source when sourceID is empty.
func (s *Store) ResetInnings(sourceID string) {
	s.innings.Reset(sourceID)
}
