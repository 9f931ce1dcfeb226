package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-logr/logr"

	"github.com/khor-project/khord/internal/config"
	"github.com/khor-project/khord/internal/control"
	"github.com/khor-project/khord/internal/coordinator"
)

// newMux builds the HTTP surface from spec.md §6. Routing and JSON
// marshaling are intentionally thin: an external collaborator is expected
// to own request routing in a fuller deployment (spec.md §1), this is only
// enough glue to make the binary runnable end-to-end.
func newMux(log logr.Logger, s *control.Surface, cfg config.Config) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Health())
	})

	mux.HandleFunc("/api/metrics", func(w http.ResponseWriter, r *http.Request) {
		includeHistory := r.URL.Query().Get("history") == "true" || r.URL.Query().Get("history") == "1"
		writeJSON(w, http.StatusOK, s.Metrics(includeHistory, time.Now().UnixMilli()))
	})

	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, s.ConfigGet())
		case http.MethodPut:
			body, err := io.ReadAll(r.Body)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			res, err := s.ConfigPut(body)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"config":           res.Config,
				"restart_required": res.Applied.RestartRequired,
				"applied":          res.Applied,
			})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/presets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"presets": s.PresetsList()})
	})

	mux.HandleFunc("/api/preset/select", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		name := r.URL.Query().Get("name")
		c, err := s.PresetSelect(name)
		if err != nil {
			var unknown control.ErrUnknownPreset
			if errors.As(err, &unknown) {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	})

	mux.HandleFunc("/api/audio/devices", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"devices": s.AudioDevicesEnumerate()})
	})

	mux.HandleFunc("/api/audio/device", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var body struct {
			Device string `json:"device"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if body.Device == "" {
			body.Device = r.URL.Query().Get("device")
		}
		res, err := s.AudioSetDevice(body.Device)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, res.Config)
	})

	mux.HandleFunc("/api/actions/test_note", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		midi, _ := strconv.Atoi(r.URL.Query().Get("midi"))
		vel, _ := strconv.ParseFloat(r.URL.Query().Get("vel"), 64)
		dur, _ := strconv.ParseFloat(r.URL.Query().Get("dur"), 64)

		if err := s.TestNote(midi, vel, dur); err != nil {
			if errors.Is(err, coordinator.ErrNoSinkReady) {
				writeError(w, http.StatusConflict, err)
				return
			}
			writeError(w, http.StatusBadRequest, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/api/stream", func(w http.ResponseWriter, r *http.Request) {
		streamMetrics(log, s, w, r)
	})

	if cfg.UI.Serve && cfg.UI.Dir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.UI.Dir)))
	}

	return mux
}

// streamMetrics emits one metrics snapshot every 100ms as a server-sent
// event, matching GET /api/stream in spec.md §6.
func streamMetrics(log logr.Logger, s *control.Surface, w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			b, err := json.Marshal(s.Metrics(false, time.Now().UnixMilli()))
			if err != nil {
				log.V(1).Info("stream: marshal metrics failed", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
