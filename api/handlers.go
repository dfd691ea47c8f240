package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/parcelops/fleetsim/core/graph"
	"github.com/parcelops/fleetsim/core/history"
	"github.com/parcelops/fleetsim/core/sim"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": s.hello})
}

func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	var req sim.StartRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	runID, err := s.mgr.Start(req)
	switch {
	case errors.Is(err, sim.ErrRunActive):
		writeError(w, http.StatusConflict, "a run is already active")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"run_id": runID})
}

func (s *Server) stop(w http.ResponseWriter, _ *http.Request) {
	if s.mgr.Stop() {
		writeJSON(w, http.StatusOK, map[string]string{"result": "stopped"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "idle"})
}

func (s *Server) pause(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"paused": s.mgr.Pause()})
}

func (s *Server) resume(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"resumed": s.mgr.Resume()})
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.mgr.Status())
}

func (s *Server) state(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.mgr.Snapshot()
	if !ok {
		writeError(w, http.StatusNotFound, "no run")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) mapInfo(w http.ResponseWriter, _ *http.Request) {
	info, err := s.mgr.MapInfo()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// orders accepts either {"count": n} or an explicit list [{"dropoff": id}].
func (s *Server) orders(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	var dropoffs []graph.NodeID
	count := 0
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []struct {
			Dropoff int64 `json:"dropoff"`
		}
		if err := json.Unmarshal(trimmed, &list); err != nil {
			writeError(w, http.StatusBadRequest, "invalid order list")
			return
		}
		for _, o := range list {
			dropoffs = append(dropoffs, graph.NodeID(o.Dropoff))
		}
	} else if len(trimmed) > 0 {
		var req struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(trimmed, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		count = req.Count
	}
	if count == 0 && len(dropoffs) == 0 {
		count = 1
	}
	added, err := s.mgr.AddOrders(dropoffs, count)
	if err != nil {
		if errors.Is(err, sim.ErrNoRun) {
			writeError(w, http.StatusConflict, "no active run")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"added": added})
}

// history serves the persisted run events. Requests must include an
// Authorization header with "Bearer <token>" when a token is configured.
func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Token != "" {
		auth := r.Header.Get("Authorization")
		if auth != "Bearer "+s.cfg.Token {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
	}
	q := history.Query{
		Kind:    history.Kind(r.URL.Query().Get("kind")),
		AgentID: r.URL.Query().Get("agent_id"),
	}
	if v := r.URL.Query().Get("task_id"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			q.TaskID = id
		}
	}
	if v := r.URL.Query().Get("from_tick"); v != "" {
		if tick, err := strconv.Atoi(v); err == nil {
			q.FromTick = tick
		}
	}
	if v := r.URL.Query().Get("to_tick"); v != "" {
		if tick, err := strconv.Atoi(v); err == nil {
			q.ToTick = tick
		}
	}
	if v := r.URL.Query().Get("start"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.Start = t
		}
	}
	if v := r.URL.Query().Get("end"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.End = t
		}
	}
	records, err := s.mgr.History(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) agentKPIs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	records, err := s.mgr.KPIs(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) backfillKPIs(w http.ResponseWriter, r *http.Request) {
	if err := s.mgr.BackfillKPIs(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}
