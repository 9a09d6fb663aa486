package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

const healthProbeTimeout = 3 * time.Second

type errorResponse struct {
	Error string `json:"error"`
}

// handleGetSignals returns the most recent evaluation batch. Query
// parameter actionable=true restricts the list to actionable signals.
func (s *Server) handleGetSignals(w http.ResponseWriter, r *http.Request) {
	batch := s.source.Latest()
	if batch == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "no evaluation completed yet"})
		return
	}

	if r.URL.Query().Get("actionable") == "true" {
		writeJSON(w, http.StatusOK, models.Batch{
			Signals:     batch.Actionable,
			Actionable:  batch.Actionable,
			EvaluatedAt: batch.EvaluatedAt,
		})
		return
	}

	writeJSON(w, http.StatusOK, batch)
}

// handleGetSignal returns the latest signal for a single symbol
func (s *Server) handleGetSignal(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	batch := s.source.Latest()
	if batch == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "no evaluation completed yet"})
		return
	}

	for i := range batch.Signals {
		if batch.Signals[i].Symbol == symbol {
			writeJSON(w, http.StatusOK, batch.Signals[i])
			return
		}
	}
	for i := range batch.Skipped {
		if batch.Skipped[i].Symbol == symbol {
			writeJSON(w, http.StatusOK, batch.Skipped[i])
			return
		}
	}

	writeJSON(w, http.StatusNotFound, errorResponse{Error: "symbol not in universe: " + symbol})
}

// handleHealth reports overall status and per-dependency probes
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	status := http.StatusOK
	services := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			services[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			services[name] = "ok"
		}
	}

	health := map[string]interface{}{
		"status":   "healthy",
		"services": services,
	}
	if status != http.StatusOK {
		health["status"] = "degraded"
	}
	if batch := s.source.Latest(); batch != nil {
		health["last_evaluation"] = batch.EvaluatedAt
	}

	writeJSON(w, status, health)
}
