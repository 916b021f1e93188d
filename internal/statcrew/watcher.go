// Copyright (c) scoreboard-hub contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package statcrew

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/scorehub/ingest-hub/internal/store"
	"github.com/scorehub/ingest-hub/pkg/log"
	"github.com/scorehub/ingest-hub/pkg/schema"
)

const defaultPollInterval = 5.0

// Config is one sport's persisted watcher configuration, matching
// statcrew_sources.json's per-sport object.
type Config struct {
	Enabled      bool    `json:"enabled"`
	FilePath     string  `json:"file_path"`
	PollInterval float64 `json:"poll_interval"`
}

// Watchers owns the per-sport poll loops that read a StatCrew export file
// whenever its mtime advances, described in spec.md §4.7.
type Watchers struct {
	mu     sync.Mutex
	path   string
	config map[schema.Sport]Config
	colors ColorLookup
	store  *store.Store

	cancels map[schema.Sport]context.CancelFunc
	wg      sync.WaitGroup
}

// New returns a Watchers backed by configPath, persisting store.Snapshots
// into dest and resolving team colors with colors (may be nil).
func New(configPath string, dest *store.Store, colors ColorLookup) *Watchers {
	config := make(map[schema.Sport]Config, len(schema.AllSports))
	for _, sport := range schema.AllSports {
		config[sport] = Config{PollInterval: defaultPollInterval}
	}
	return &Watchers{
		path:    configPath,
		config:  config,
		colors:  colors,
		store:   dest,
		cancels: make(map[schema.Sport]context.CancelFunc),
	}
}

// Load reads the persisted config and starts a watcher for every sport
// with enabled=true and a non-empty file_path.
func (w *Watchers) Load() {
	raw, err := os.ReadFile(w.path)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		log.Errorf("statcrew: read %s: %v", w.path, err)
		return
	}

	var loaded map[schema.Sport]Config
	if err := json.Unmarshal(raw, &loaded); err != nil {
		log.Errorf("statcrew: %s is not valid JSON: %v", w.path, err)
		return
	}

	w.mu.Lock()
	for sport, cfg := range loaded {
		if _, known := w.config[sport]; !known {
			continue
		}
		if cfg.PollInterval <= 0 {
			cfg.PollInterval = defaultPollInterval
		}
		w.config[sport] = cfg
	}
	w.mu.Unlock()

	for _, sport := range schema.AllSports {
		cfg := w.Config(sport)
		if cfg.Enabled && cfg.FilePath != "" {
			w.Start(sport, cfg.FilePath, cfg.PollInterval)
		}
	}
}

func (w *Watchers) persistLocked() {
	payload, err := json.MarshalIndent(w.config, "", "  ")
	if err != nil {
		log.Errorf("statcrew: marshal %s: %v", w.path, err)
		return
	}
	if err := os.WriteFile(w.path, payload, 0o644); err != nil {
		log.Errorf("statcrew: write %s: %v", w.path, err)
	}
}

// Config returns sport's current watcher configuration.
func (w *Watchers) Config(sport schema.Sport) Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.config[sport]
}

// Running reports whether sport currently has an active watcher goroutine.
func (w *Watchers) Running(sport schema.Sport) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.cancels[sport]
	return ok
}

// Update applies a config change for sport: clamps poll_interval to
// [1, 60], starts or stops the watcher, and persists the result.
func (w *Watchers) Update(sport schema.Sport, filePath string, pollInterval float64, enabled bool) Config {
	if pollInterval < 1 {
		pollInterval = 1
	}
	if pollInterval > 60 {
		pollInterval = 60
	}

	if enabled && filePath != "" {
		w.Start(sport, filePath, pollInterval)
	} else {
		w.Stop(sport)
		enabled = false
	}

	cfg := Config{Enabled: enabled, FilePath: filePath, PollInterval: pollInterval}
	w.mu.Lock()
	w.config[sport] = cfg
	w.persistLocked()
	w.mu.Unlock()

	return cfg
}

// Start begins polling path for sport every pollInterval seconds. Starting
// a watcher for a sport that already has one running stops it first.
func (w *Watchers) Start(sport schema.Sport, path string, pollInterval float64) {
	w.Stop(sport)

	ctx, cancel := context.WithCancel(context.Background())
	w.mu.Lock()
	w.cancels[sport] = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.poll(ctx, sport, path, pollInterval)
	}()
}

// Stop signals sport's watcher goroutine, if any, to exit.
func (w *Watchers) Stop(sport schema.Sport) {
	w.mu.Lock()
	cancel, ok := w.cancels[sport]
	delete(w.cancels, sport)
	w.mu.Unlock()

	if ok {
		cancel()
	}
}

// StopAll signals every running watcher and waits briefly for them to
// exit.
func (w *Watchers) StopAll() {
	w.mu.Lock()
	sports := make([]schema.Sport, 0, len(w.cancels))
	for sport := range w.cancels {
		sports = append(sports, sport)
	}
	w.mu.Unlock()

	for _, sport := range sports {
		w.Stop(sport)
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

func (w *Watchers) poll(ctx context.Context, sport schema.Sport, path string, pollInterval float64) {
	interval := time.Duration(pollInterval * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastMtime time.Time

	check := func() {
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		mtime := info.ModTime()
		if !lastMtime.IsZero() && !mtime.After(lastMtime) {
			return
		}
		lastMtime = mtime

		raw, err := os.ReadFile(path)
		if err != nil {
			log.Warnf("statcrew: failed to read %s for %s: %v", path, sport, err)
			return
		}

		parsedSport, snap := Parse(string(raw), w.colors)
		if len(snap) == 0 {
			return
		}
		if parsedSport == "" {
			parsedSport = sport
		}

		snap["mtime"] = mtime.Unix()
		w.store.Record(parsedSport, snap, path)
	}

	check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
