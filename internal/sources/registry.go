// Copyright (c) scoreboard-hub contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sources manages the configured outbound TCP sources and the
// worker goroutines that read from them, serial ports, and inbound
// listeners, feeding decoded packets into a store.Store.
package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/scorehub/ingest-hub/pkg/log"
	"github.com/scorehub/ingest-hub/pkg/schema"
)

// ErrConflict is returned by Patch when the recomputed id collides with an
// existing entry.
var ErrConflict = fmt.Errorf("source id conflict")

// ErrNotFound is returned by Patch and Delete when the id is unknown.
var ErrNotFound = fmt.Errorf("source not found")

// Registry is the persisted, mutex-guarded list of configured TCP sources
// described in spec.md §4.6. It starts and stops the corresponding worker
// whenever an entry is added, removed, enabled, disabled, or re-addressed.
//
// Lock ordering: Registry's lock is always acquired before a store.Store
// lock when both are needed, never after.
type Registry struct {
	mu      sync.Mutex
	path    string
	sources []schema.ConfiguredSource

	starter func(schema.ConfiguredSource)
	stopper func(id string)
}

// New returns a Registry backed by path, with starter/stopper invoked to
// start and stop the outbound TCP worker for a given source. Callers load
// persisted state with Load after construction.
func New(path string, starter func(schema.ConfiguredSource), stopper func(id string)) *Registry {
	return &Registry{path: path, starter: starter, stopper: stopper}
}

// Load reads the persisted source list and starts a worker for every
// enabled entry. A missing file is not an error; it yields an empty list.
func (r *Registry) Load() error {
	raw, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", r.path, err)
	}

	if !validateDataSources(raw) {
		return nil
	}

	var entries []schema.ConfiguredSource
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Errorf("sources: %s is not valid JSON: %v", r.path, err)
		return nil
	}

	normalized := make([]schema.ConfiguredSource, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" || e.Host == "" || e.Port == 0 {
			continue
		}
		e.SportOverrides = normalizeOverrides(e.SportOverrides)
		normalized = append(normalized, e)
	}

	r.mu.Lock()
	r.sources = normalized
	r.mu.Unlock()

	for _, e := range normalized {
		if e.Enabled {
			r.starter(e)
		}
	}
	return nil
}

func (r *Registry) persistLocked() {
	payload, err := json.MarshalIndent(r.sources, "", "  ")
	if err != nil {
		log.Errorf("sources: marshal %s: %v", r.path, err)
		return
	}
	if err := os.WriteFile(r.path, payload, 0o644); err != nil {
		log.Errorf("sources: write %s: %v", r.path, err)
	}
}

// List returns a copy of the configured sources.
func (r *Registry) List() []schema.ConfiguredSource {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]schema.ConfiguredSource, len(r.sources))
	copy(out, r.sources)
	return out
}

// NameFor resolves id to its configured display name, or id itself when
// unknown. Suitable for passing as a store.NameLookup.
func (r *Registry) NameFor(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sources {
		if s.ID == id {
			if s.Name != "" {
				return s.Name
			}
			return s.ID
		}
	}
	return id
}

// OverrideFor returns the configured sport_overrides replacement for
// (sourceID, sport), or "" if none applies.
func (r *Registry) OverrideFor(sourceID string, sport schema.Sport) schema.Sport {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sources {
		if s.ID == sourceID {
			return s.SportOverrides[sport]
		}
	}
	return ""
}

func makeID(host string, port int) string {
	return fmt.Sprintf("tcp:%s:%d", host, port)
}

func (r *Registry) idTakenLocked(id string) bool {
	for _, s := range r.sources {
		if s.ID == id {
			return true
		}
	}
	return false
}

func (r *Registry) uniqueIDLocked(host string, port int) string {
	base := makeID(host, port)
	if !r.idTakenLocked(base) {
		return base
	}
	for suffix := 2; ; suffix++ {
		candidate := fmt.Sprintf("%s:%d", base, suffix)
		if !r.idTakenLocked(candidate) {
			return candidate
		}
	}
}

// Add validates and appends a new source, persists, and starts its worker.
func (r *Registry) Add(name, host string, port int, enabled bool, overrides map[schema.Sport]schema.Sport) (schema.ConfiguredSource, error) {
	if host == "" {
		return schema.ConfiguredSource{}, fmt.Errorf("%w: host is required", errBadRequest)
	}
	if port <= 0 {
		return schema.ConfiguredSource{}, fmt.Errorf("%w: port must be a positive integer", errBadRequest)
	}

	r.mu.Lock()
	id := r.uniqueIDLocked(host, port)
	if name == "" {
		name = id
	}
	entry := schema.ConfiguredSource{
		ID:             id,
		Name:           name,
		Host:           host,
		Port:           port,
		Enabled:        enabled,
		SportOverrides: normalizeOverrides(overrides),
	}
	r.sources = append(r.sources, entry)
	r.persistLocked()
	r.mu.Unlock()

	if enabled {
		r.starter(entry)
	}
	return entry, nil
}

// errBadRequest marks validation failures distinct from ErrConflict/ErrNotFound.
var errBadRequest = errors.New("invalid source")

// IsBadRequest reports whether err originated from a validation failure in Add or Patch.
func IsBadRequest(err error) bool {
	return errors.Is(err, errBadRequest)
}

// Delete removes id, stops its worker, and persists.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	idx := -1
	for i, s := range r.sources {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		r.mu.Unlock()
		return ErrNotFound
	}
	r.sources = append(r.sources[:idx], r.sources[idx+1:]...)
	r.persistLocked()
	r.mu.Unlock()

	r.stopper(id)
	return nil
}

// PatchRequest carries the optional fields Patch may update; nil pointers
// mean "leave unchanged".
type PatchRequest struct {
	Name           *string
	Enabled        *bool
	Host           *string
	Port           *int
	SportOverrides map[schema.Sport]schema.Sport
}

// Patch applies req to the entry named by id, per spec.md §4.6.
func (r *Registry) Patch(id string, req PatchRequest) (schema.ConfiguredSource, error) {
	r.mu.Lock()

	idx := -1
	for i, s := range r.sources {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		r.mu.Unlock()
		return schema.ConfiguredSource{}, ErrNotFound
	}

	entry := r.sources[idx]
	oldID := entry.ID
	readdressed := false

	if req.Host != nil {
		if *req.Host == "" {
			r.mu.Unlock()
			return schema.ConfiguredSource{}, fmt.Errorf("%w: host is required", errBadRequest)
		}
		entry.Host = *req.Host
		readdressed = true
	}
	if req.Port != nil {
		if *req.Port <= 0 {
			r.mu.Unlock()
			return schema.ConfiguredSource{}, fmt.Errorf("%w: port must be a positive integer", errBadRequest)
		}
		entry.Port = *req.Port
		readdressed = true
	}
	if req.Name != nil {
		entry.Name = *req.Name
	}
	if req.SportOverrides != nil {
		entry.SportOverrides = normalizeOverrides(req.SportOverrides)
	}

	enabledChanged := false
	if req.Enabled != nil && *req.Enabled != entry.Enabled {
		entry.Enabled = *req.Enabled
		enabledChanged = true
	}

	if readdressed {
		newID := makeID(entry.Host, entry.Port)
		if newID != oldID {
			for i, s := range r.sources {
				if i != idx && s.ID == newID {
					r.mu.Unlock()
					return schema.ConfiguredSource{}, ErrConflict
				}
			}
			entry.ID = newID
		}
	}

	r.sources[idx] = entry
	r.persistLocked()
	r.mu.Unlock()

	switch {
	case readdressed && entry.ID != oldID:
		r.stopper(oldID)
		if entry.Enabled {
			r.starter(entry)
		}
	case enabledChanged:
		if entry.Enabled {
			r.starter(entry)
		} else {
			r.stopper(entry.ID)
		}
	}

	return entry, nil
}

func normalizeOverrides(in map[schema.Sport]schema.Sport) map[schema.Sport]schema.Sport {
	if len(in) == 0 {
		return nil
	}
	out := make(map[schema.Sport]schema.Sport, len(in))
	for from, to := range in {
		normFrom := schema.NormalizeSport(string(from))
		normTo := schema.NormalizeSport(string(to))
		if normFrom != "" && normTo != "" {
			out[normFrom] = normTo
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ApplyOverride implements the single hard-coded sport_overrides rewrite
// (Lacrosse -> Gymnastics truncates the snapshot to game_clock); every
// other configured pair passes the snapshot through unchanged.
func ApplyOverride(sport schema.Sport, snap schema.Snapshot, override schema.Sport) (schema.Sport, schema.Snapshot) {
	if override == "" {
		return sport, snap
	}
	if sport == schema.Lacrosse && override == schema.Gymnastics {
		return override, schema.Snapshot{"game_clock": snap["game_clock"]}
	}
	return override, snap
}
