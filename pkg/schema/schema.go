// Copyright (c) scoreboard-hub contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package schema carries the wire-level types shared between the
// ingestion engine's packages, the way cc-backend's pkg/schema centralizes
// types reused across its internal packages.
package schema

import "strings"

// Sport is the closed set of supported sports. The canonical string form
// is always title-cased, matching the on-the-wire dispatch table.
type Sport string

const (
	Basketball Sport = "Basketball"
	Baseball   Sport = "Baseball"
	Softball   Sport = "Softball"
	Football   Sport = "Football"
	Volleyball Sport = "Volleyball"
	Lacrosse   Sport = "Lacrosse"
	Hockey     Sport = "Hockey"
	Soccer     Sport = "Soccer"
	Wrestling  Sport = "Wrestling"
	Track      Sport = "Track"
	Gymnastics Sport = "Gymnastics"
)

// AllSports is the closed set of sports the engine knows about, used for
// normalizing free-form sport names from HTTP requests, registry overrides,
// and persisted config.
var AllSports = []Sport{
	Basketball, Baseball, Softball, Football, Volleyball,
	Lacrosse, Hockey, Soccer, Wrestling, Track, Gymnastics,
}

// NormalizeSport title-cases name and checks it against the closed set.
// Returns "" if name does not name a supported sport.
func NormalizeSport(name string) Sport {
	if name == "" {
		return ""
	}
	candidate := Sport(titleCase(name))
	for _, s := range AllSports {
		if s == candidate {
			return s
		}
	}
	return ""
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Snapshot is the untyped mapping produced by a decoder. Per spec.md §9
// design notes, a typed reimplementation would model each sport's
// snapshot as a tagged variant, but the boundary representation stays a
// flat map — this is that boundary representation used throughout.
type Snapshot map[string]any

// Meta is attached to every stored Snapshot under the "_meta" key.
type Meta struct {
	Source     string  `json:"source"`
	ReceivedAt float64 `json:"received_at"`
}

// WithMeta returns a copy of snap with a "_meta" key set, without mutating
// the original map.
func WithMeta(snap Snapshot, meta Meta) Snapshot {
	out := make(Snapshot, len(snap)+1)
	for k, v := range snap {
		out[k] = v
	}
	out["_meta"] = map[string]any{
		"source":      meta.Source,
		"received_at": meta.ReceivedAt,
	}
	return out
}

// SourceInfo is the shape returned by GET /get_sources.
type SourceInfo struct {
	Source     string   `json:"source"`
	Name       string   `json:"name"`
	LastSeen   float64  `json:"last_seen"`
	AgeSeconds float64  `json:"age_seconds"`
	Sports     []string `json:"sports"`
}

// ConfiguredSource is one entry of the persisted source registry
// (data_sources.json).
type ConfiguredSource struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Host           string          `json:"host"`
	Port           int             `json:"port"`
	Enabled        bool            `json:"enabled"`
	SportOverrides map[Sport]Sport `json:"sport_overrides,omitempty"`
}

// StatFileBinding is one sport's entry in the persisted stats-file watcher
// config (statcrew_sources.json).
type StatFileBinding struct {
	Enabled      bool    `json:"enabled"`
	FilePath     string  `json:"file_path"`
	PollInterval float64 `json:"poll_interval"`
}
