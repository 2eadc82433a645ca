package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/zeusync/grove/internal/core/observability/log"
)

type health struct {
	Status  string  `json:"status"`
	Tick    uint64  `json:"tick"`
	Time    float64 `json:"time"`
	Clients int     `json:"clients"`
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := s.source.Snapshot()
	s.writeJSON(w, health{
		Status:  "ok",
		Tick:    s.source.Tick(),
		Time:    snap.Time,
		Clients: s.hub.len(),
	})
}

// handleSnapshot serves the current snapshot as JSON, or as one log line
// per entity with ?format=lines.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	switch r.URL.Query().Get("format") {
	case "", "json":
		w.Header().Set("X-Snapshot-Digest", snap.DigestHex())
		s.writeJSON(w, snap)
	case "lines":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, strings.Join(snap.LogLines(), "\n"))
	default:
		http.Error(w, "unknown format", http.StatusBadRequest)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", log.Error(err))
	}
}
