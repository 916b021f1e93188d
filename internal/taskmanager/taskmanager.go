// Copyright (c) scoreboard-hub contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package taskmanager schedules the background maintenance jobs that run
// alongside the ingestion workers and HTTP server.
package taskmanager

import (
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/scorehub/ingest-hub/internal/engine"
	"github.com/scorehub/ingest-hub/pkg/log"
)

// purgeInterval is how often the stale-source purge task runs, per
// spec.md §4.4.
const purgeInterval = 300 * time.Second

var s gocron.Scheduler

// Start creates the scheduler and registers every maintenance job against
// e. Call Stop on shutdown.
func Start(e *engine.Engine) error {
	var err error
	s, err = gocron.NewScheduler()
	if err != nil {
		return err
	}

	registerPurgeStale(e)

	s.Start()
	return nil
}

// Stop shuts the scheduler down, waiting for any in-flight job to finish.
func Stop() {
	if s == nil {
		return
	}
	if err := s.Shutdown(); err != nil {
		log.Errorf("taskmanager: shutdown: %v", err)
	}
}

func registerPurgeStale(e *engine.Engine) {
	_, err := s.NewJob(gocron.DurationJob(purgeInterval),
		gocron.NewTask(e.PurgeStale))
	if err != nil {
		log.Errorf("taskmanager: failed to register purge-stale job: %v", err)
	}
}
