// Copyright (c) scoreboard-hub contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package engine bundles the store, source registry, worker manager, and
// stats-file watchers into one explicit value constructed at startup, per
// the design notes against relying on implicit package-level singletons.
package engine

import (
	"github.com/scorehub/ingest-hub/internal/config"
	"github.com/scorehub/ingest-hub/internal/sources"
	"github.com/scorehub/ingest-hub/internal/statcrew"
	"github.com/scorehub/ingest-hub/internal/store"
	"github.com/scorehub/ingest-hub/pkg/log"
)

// Engine is the process-wide set of live components every HTTP handler
// and background task is built against.
type Engine struct {
	Store    *store.Store
	Registry *sources.Registry
	Manager  *sources.Manager
	Watchers *statcrew.Watchers
	Config   config.Config
}

// New wires an Engine from cfg. Colors resolves a team code to a broadcast
// color for the StatCrew parser; pass nil when no color table is
// available (the lookup is an external collaborator's concern).
func New(cfg config.Config, colors statcrew.ColorLookup) *Engine {
	st := store.New(nil)

	e := &Engine{Store: st, Config: cfg}

	sink := &sources.Sink{Store: st}
	manager := sources.NewManager(sink)
	e.Manager = manager

	e.Registry = sources.New(cfg.SourcesFile, manager.StartTCPClient, manager.StopTCPClient)
	sink.Registry = e.Registry

	e.Watchers = statcrew.New(cfg.StatcrewConfigFile, st, colors)

	return e
}

// Start loads persisted configuration and brings up every background
// worker: the source registry's auto-start entries, the stats-file
// watchers, the optional serial reader, and the inbound network
// listeners.
func (e *Engine) Start() {
	if err := e.Registry.Load(); err != nil {
		log.Errorf("engine: failed to load source registry: %v", err)
	}
	e.Watchers.Load()

	if e.Config.ScoreboardSerial != "" {
		e.Manager.StartSerial(e.Config.ScoreboardSerial)
	}

	e.Manager.StartNetworkListeners(e.Config.ScoreboardTCPPort, e.Config.ScoreboardUDPPort, e.Config.ScoreboardMode)
}

// Shutdown stops every background worker and waits briefly for them to
// exit.
func (e *Engine) Shutdown() {
	e.Manager.Shutdown()
	e.Watchers.StopAll()
}

// PurgeStale drops sources that have gone silent past the staleness TTL.
// Intended to be called on a schedule (see cmd/scoreboard-hub/server.go).
func (e *Engine) PurgeStale() {
	if removed := e.Store.PurgeStale(store.StaleTTL); len(removed) > 0 {
		log.Infof("engine: purged %d stale source(s): %v", len(removed), removed)
	}
}
