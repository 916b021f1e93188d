// Copyright (c) scoreboard-hub contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/scorehub/ingest-hub/internal/config"
	"github.com/scorehub/ingest-hub/internal/engine"
	"github.com/scorehub/ingest-hub/internal/httpapi"
	"github.com/scorehub/ingest-hub/internal/runtimeEnv"
	"github.com/scorehub/ingest-hub/internal/taskmanager"
	"github.com/scorehub/ingest-hub/pkg/log"
)

func runServer(cfg config.Config) error {
	e := engine.New(cfg, nil)
	e.Start()

	if err := taskmanager.Start(e); err != nil {
		return fmt.Errorf("starting task scheduler: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.HTTPHost, cfg.HTTPPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      httpapi.NewRouter(e),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Infof("scoreboard-hub: HTTP server listening at %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("scoreboard-hub: HTTP server error: %v", err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	runtimeEnv.SystemdNotifiy(true, "running")
	<-sigs

	runtimeEnv.SystemdNotifiy(false, "shutting down")
	log.Info("scoreboard-hub: shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("scoreboard-hub: HTTP server shutdown error: %v", err)
	}

	taskmanager.Stop()
	e.Shutdown()

	wg.Wait()
	log.Info("scoreboard-hub: graceful shutdown complete")
	return nil
}
