// Copyright (c) scoreboard-hub contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package httpapi exposes the read/write JSON surface described in
// spec.md §6: latest-snapshot reads, the source registry, and the
// StatCrew watcher configuration.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/scorehub/ingest-hub/internal/engine"
	"github.com/scorehub/ingest-hub/internal/sources"
	"github.com/scorehub/ingest-hub/pkg/log"
	"github.com/scorehub/ingest-hub/pkg/schema"
)

// NewRouter builds the full mux.Router for e, wrapped with the same
// compression/CORS/recovery/logging middleware stack used throughout this
// codebase's HTTP surface.
func NewRouter(e *engine.Engine) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/get_raw_data/{sport}", getRawData(e)).Methods(http.MethodGet)
	r.HandleFunc("/get_sources", getSources(e)).Methods(http.MethodGet)

	r.HandleFunc("/data_sources", listDataSources(e)).Methods(http.MethodGet)
	r.HandleFunc("/data_sources", postDataSource(e)).Methods(http.MethodPost)
	r.HandleFunc("/data_sources/{id}", deleteDataSource(e)).Methods(http.MethodDelete)
	r.HandleFunc("/data_sources/{id}", patchDataSource(e)).Methods(http.MethodPatch)

	r.HandleFunc("/statcrew_sources/{sport}", getStatcrewConfig(e)).Methods(http.MethodGet)
	r.HandleFunc("/statcrew_sources/{sport}", patchStatcrewConfig(e)).Methods(http.MethodPatch)

	r.HandleFunc("/get_trackman_data/{sport}", notFoundUnlessSupported).Methods(http.MethodGet)
	r.HandleFunc("/get_trackman_debug/{sport}", notFoundUnlessSupported).Methods(http.MethodGet)

	r.Use(handlers.CompressHandler)
	r.Use(handlers.RecoveryHandler(handlers.PrintRecoveryStack(true)))
	r.Use(handlers.CORS(
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedOrigins([]string{"*"})))

	return handlers.CustomLoggingHandler(io.Discard, r, func(_ io.Writer, params handlers.LogFormatterParams) {
		log.Debugf("http: %s %s -> %d", params.Request.Method, params.URL.Path, params.StatusCode)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("http: encode response: %v", err)
	}
}

func getRawData(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sport := schema.NormalizeSport(mux.Vars(r)["sport"])
		if sport == "" {
			writeJSON(w, http.StatusOK, schema.Snapshot{})
			return
		}
		snap := e.Store.Get(sport, r.URL.Query().Get("source"))
		if snap == nil {
			snap = schema.Snapshot{}
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func getSources(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		infos := e.Store.SnapshotSources(e.Registry.NameFor)
		writeJSON(w, http.StatusOK, map[string]any{"sources": infos})
	}
}

func listDataSources(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, e.Registry.List())
	}
}

type postSourceRequest struct {
	Name           string                    `json:"name"`
	Host           string                    `json:"host"`
	Port           int                       `json:"port"`
	Enabled        *bool                     `json:"enabled"`
	SportOverrides map[schema.Sport]schema.Sport `json:"sport_overrides"`
}

func postDataSource(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req postSourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		enabled := true
		if req.Enabled != nil {
			enabled = *req.Enabled
		}

		entry, err := e.Registry.Add(req.Name, req.Host, req.Port, enabled, req.SportOverrides)
		if sources.IsBadRequest(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "source": entry})
	}
}

func deleteDataSource(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if err := e.Registry.Delete(id); err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "source not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type patchSourceRequest struct {
	Name           *string                       `json:"name"`
	Enabled        *bool                         `json:"enabled"`
	Host           *string                       `json:"host"`
	Port           *int                          `json:"port"`
	SportOverrides map[schema.Sport]schema.Sport `json:"sport_overrides"`
}

func patchDataSource(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		var req patchSourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		entry, err := e.Registry.Patch(id, sources.PatchRequest{
			Name:           req.Name,
			Enabled:        req.Enabled,
			Host:           req.Host,
			Port:           req.Port,
			SportOverrides: req.SportOverrides,
		})
		switch {
		case err == sources.ErrNotFound:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "source not found"})
		case err == sources.ErrConflict:
			writeJSON(w, http.StatusConflict, map[string]string{"error": "source id conflict"})
		case sources.IsBadRequest(err):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case err != nil:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusOK, entry)
		}
	}
}

func getStatcrewConfig(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sport := schema.NormalizeSport(mux.Vars(r)["sport"])
		if sport == "" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unsupported sport"})
			return
		}
		cfg := e.Watchers.Config(sport)
		writeJSON(w, http.StatusOK, map[string]any{
			"enabled":       cfg.Enabled,
			"file_path":     cfg.FilePath,
			"poll_interval": cfg.PollInterval,
			"running":       e.Watchers.Running(sport),
		})
	}
}

type patchStatcrewRequest struct {
	FilePath     *string  `json:"file_path"`
	PollInterval *float64 `json:"poll_interval"`
	Enabled      *bool    `json:"enabled"`
}

func patchStatcrewConfig(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sport := schema.NormalizeSport(mux.Vars(r)["sport"])
		if sport == "" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unsupported sport"})
			return
		}

		var req patchStatcrewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		current := e.Watchers.Config(sport)
		filePath := current.FilePath
		if req.FilePath != nil {
			filePath = *req.FilePath
		}
		pollInterval := current.PollInterval
		if req.PollInterval != nil {
			pollInterval = *req.PollInterval
		}
		enabled := current.Enabled
		if req.Enabled != nil {
			enabled = *req.Enabled
		}

		updated := e.Watchers.Update(sport, filePath, pollInterval, enabled)
		writeJSON(w, http.StatusOK, map[string]any{
			"enabled":       updated.Enabled,
			"file_path":     updated.FilePath,
			"poll_interval": updated.PollInterval,
			"running":       e.Watchers.Running(sport),
		})
	}
}

// notFoundUnlessSupported backs the two Trackman passthrough routes: this
// deployment has no Trackman integration, so every sport is unsupported.
func notFoundUnlessSupported(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "unsupported sport"})
}
