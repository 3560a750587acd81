// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/accel_windows/internal/export"
	"github.com/relabs-tech/accel_windows/internal/imu"
	"github.com/relabs-tech/accel_windows/internal/orientation"
	"github.com/relabs-tech/accel_windows/internal/pipeline"
	"github.com/relabs-tech/accel_windows/internal/stats"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const wsWriteTimeout = 5 * time.Second

// WebOpts configures the HTTP API.
type WebOpts struct {
	Session    string
	ExportPath string
	Exports    exportRecorder // optional
	StaticDir  string         // optional, served at /
}

// Web serves the window log, the export trigger and a live feed of
// committed windows.
type Web struct {
	orch *pipeline.Orchestrator
	opts WebOpts
}

func NewWeb(orch *pipeline.Orchestrator, opts WebOpts) *Web {
	return &Web{orch: orch, opts: opts}
}

// ResultsResponse is the body of GET /api/results.
type ResultsResponse struct {
	Session    string         `json:"session,omitempty"`
	WindowSize int            `json:"window_size"`
	Windows    int            `json:"windows"`
	Results    []stats.Triple `json:"results"`
}

// GravityResponse is the body of GET /api/gravity.
type GravityResponse struct {
	Gravity imu.Sample       `json:"gravity"`
	Tilt    orientation.Tilt `json:"tilt"`
}

// ExportResponse is the body of a successful POST /api/export.
type ExportResponse struct {
	Status  string `json:"status"`
	Path    string `json:"path"`
	Windows int    `json:"windows"`
}

// Routes returns the API handler.
func (w *Web) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/results", w.handleResults)
	mux.HandleFunc("/api/windows", w.handleWindows)
	mux.HandleFunc("/api/gravity", w.handleGravity)
	mux.HandleFunc("/api/export", w.handleExport)
	mux.HandleFunc("/ws", w.handleLive)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	if w.opts.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(w.opts.StaticDir)))
	}
	return mux
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func allowMethod(rw http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	rw.Header().Set("Allow", method)
	http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

func (w *Web) handleResults(rw http.ResponseWriter, r *http.Request) {
	if !allowMethod(rw, r, http.MethodGet) {
		return
	}
	results := w.orch.Results()
	writeJSON(rw, http.StatusOK, ResultsResponse{
		Session:    w.opts.Session,
		WindowSize: w.orch.Options().WindowSize,
		Windows:    len(results) / len(imu.Axes),
		Results:    results,
	})
}

func (w *Web) handleWindows(rw http.ResponseWriter, r *http.Request) {
	if !allowMethod(rw, r, http.MethodGet) {
		return
	}
	summaries := w.orch.Summaries()
	if summaries == nil {
		summaries = []stats.Summary{}
	}
	writeJSON(rw, http.StatusOK, summaries)
}

func (w *Web) handleGravity(rw http.ResponseWriter, r *http.Request) {
	if !allowMethod(rw, r, http.MethodGet) {
		return
	}
	g := w.orch.Gravity()
	writeJSON(rw, http.StatusOK, GravityResponse{Gravity: g, Tilt: orientation.FromGravity(g)})
}

// handleExport writes the report file. It is refused with 409 until the
// first window has been dispatched.
func (w *Web) handleExport(rw http.ResponseWriter, r *http.Request) {
	if !allowMethod(rw, r, http.MethodPost) {
		return
	}
	if !w.orch.Exportable() {
		http.Error(rw, "not enough samples for a window yet", http.StatusConflict)
		return
	}

	err := exportResults(w.orch, w.opts.ExportPath, w.opts.Exports)
	switch {
	case err == nil:
		log.Printf("web: results exported to %s", w.opts.ExportPath)
		writeJSON(rw, http.StatusOK, ExportResponse{
			Status:  "ok",
			Path:    w.opts.ExportPath,
			Windows: len(w.orch.Results()) / len(imu.Axes),
		})
	case errors.Is(err, export.ErrNoResults):
		http.Error(rw, "no window has been computed yet", http.StatusConflict)
	case errors.Is(err, export.ErrNotFound):
		log.Printf("web: export failed: %v", err)
		http.Error(rw, "Error! File not found", http.StatusNotFound)
	default:
		log.Printf("web: export failed: %v", err)
		http.Error(rw, "Error! Input/Output Exception", http.StatusInternalServerError)
	}
}

// handleLive streams every window committed after the client connects.
func (w *Web) handleLive(rw http.ResponseWriter, r *http.Request) {
	// subscribe before the handshake completes so no window is missed
	events, unsubscribe := w.orch.Subscribe(64)
	defer unsubscribe()

	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// The client never sends anything useful; reading only notices it left.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("web: websocket error: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case s, ok := <-events:
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "pipeline stopped")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(s); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		}
	}
}
