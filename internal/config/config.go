// Copyright (c) scoreboard-hub contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads process configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/scorehub/ingest-hub/internal/sources"
	"github.com/scorehub/ingest-hub/pkg/log"
)

// Config is the fully-resolved set of environment-derived settings the
// process needs at startup. None of it affects wire semantics.
type Config struct {
	HTTPHost string
	HTTPPort int

	ScoreboardMode     sources.ListenMode
	ScoreboardTCPPort  int
	ScoreboardUDPPort  int
	ScoreboardSerial   string
	SourcesFile        string
	StatcrewConfigFile string

	BrowseRoots []string

	LogLevel    string
	LogDateTime bool
}

// Load reads .env (if present) then the process environment, applying the
// same defaults the original Python service used.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("config: failed to load .env: %v", err)
	}

	cfg := Config{
		HTTPHost:           getString("HTTP_HOST", "0.0.0.0"),
		HTTPPort:           getInt("HTTP_PORT", 5000),
		ScoreboardMode:     sources.ListenMode(getString("SCOREBOARD_MODE", "auto")),
		ScoreboardTCPPort:  getInt("SCOREBOARD_TCP_PORT", 5001),
		ScoreboardUDPPort:  getInt("SCOREBOARD_UDP_PORT", 5002),
		ScoreboardSerial:   getString("SCOREBOARD_SERIAL_PORT", ""),
		SourcesFile:        resolvePath(getString("SCOREBOARD_SOURCES_FILE", "data_sources.json")),
		StatcrewConfigFile: resolvePath(getString("STATCREW_SOURCES_FILE", "statcrew_sources.json")),
		BrowseRoots:        splitRoots(getString("BROWSE_ROOTS", "/mnt/stats")),
		LogLevel:           getString("LOG_LEVEL", "info"),
		LogDateTime:        getBool("LOG_DATE_TIME", false),
	}

	return cfg
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func resolvePath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "data_sources.json"
	}
	if filepath.IsAbs(raw) {
		return raw
	}
	return raw
}

func splitRoots(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{"/mnt/stats"}
	}
	var out []string
	for _, segment := range strings.Split(raw, string(os.PathListSeparator)) {
		if segment != "" {
			out = append(out, segment)
		}
	}
	if len(out) == 0 {
		return []string{"/mnt/stats"}
	}
	return out
}
