// Copyright (c) scoreboard-hub contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"flag"
	"os"

	"github.com/scorehub/ingest-hub/internal/config"
	"github.com/scorehub/ingest-hub/pkg/log"
)

func main() {
	var flagLogLevel string
	var flagLogDate bool
	flag.StringVar(&flagLogLevel, "loglevel", "", "Overwrite LOG_LEVEL ('debug', 'info', 'warn', 'err')")
	flag.BoolVar(&flagLogDate, "logdate", false, "Prefix log lines with date and time")
	flag.Parse()

	cfg := config.Load()

	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	log.SetLogLevel(level)
	log.SetLogDateTime(cfg.LogDateTime || flagLogDate)

	if err := runServer(cfg); err != nil {
		log.Errorf("fatal: %v", err)
		os.Exit(1)
	}
}
