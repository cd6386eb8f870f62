package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fleetplan/internal/buildinfo"
	"fleetplan/internal/metrics"
	"fleetplan/internal/model"
	"fleetplan/internal/opt"
	"fleetplan/internal/store"
)

// SolveHandler handles POST /v1/solve: run the solver inline and return
// the best solution. Large instances belong on the job queue instead.
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateSolveRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid solve request", err.Error(), r.URL.Path)
		return
	}
	prob, err := s.buildProblem(r.Context(), &req)
	if err != nil {
		status := http.StatusBadGateway
		var cfgErr *opt.ConfigurationError
		if errors.As(err, &cfgErr) {
			status = http.StatusBadRequest
		}
		writeProblem(w, status, "Problem construction failed", err.Error(), r.URL.Path)
		return
	}
	solver, err := opt.NewSolver(prob, s.gaConfig(req.GA))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid solver parameters", err.Error(), r.URL.Path)
		return
	}
	start := time.Now()
	sol, m := solver.Solve(nil)
	metrics.SolveRuns.WithLabelValues("ok").Inc()
	metrics.SolveDuration.Observe(time.Since(start).Seconds())
	metrics.SolveGenerations.Add(float64(m.Generations))
	writeJSON(w, http.StatusOK, map[string]any{
		"solution": solutionOut(sol),
		"metrics":  metricsOut(m),
	})
}

// JobsHandler handles POST/GET /v1/jobs
func (s *Server) JobsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req model.SolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateSolveRequest(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid solve request", err.Error(), r.URL.Path)
			return
		}
		job, err := s.Store.CreateJob(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create job failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusAccepted, job)
	case http.MethodGet:
		status := r.URL.Query().Get("status")
		cursor := r.URL.Query().Get("cursor")
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			fmt.Sscanf(v, "%d", &limit)
		}
		items, next, err := s.Store.ListJobs(r.Context(), status, cursor, limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List jobs failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// JobByIDHandler handles GET /v1/jobs/{id} plus the /solution, /metrics,
// and /progress/stream subresources.
func (s *Server) JobByIDHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	rest := strings.TrimPrefix(path, "/v1/jobs/")
	if rest == path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", path)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]

	if len(parts) > 2 && parts[1] == "progress" && parts[2] == "stream" {
		s.streamProgress(w, r, id)
		return
	}
	if len(parts) > 2 && parts[1] == "progress" && parts[2] == "ws" {
		s.ProgressWSHandler(w, r, id)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch {
	case len(parts) == 1:
		job, err := s.Store.GetJob(r.Context(), id)
		if err != nil {
			s.notFoundOr500(w, r, err, "Job not found")
			return
		}
		writeJSON(w, http.StatusOK, job)
	case len(parts) == 2 && parts[1] == "solution":
		sol, err := s.Store.GetSolution(r.Context(), id)
		if err != nil {
			s.notFoundOr500(w, r, err, "Solution not available")
			return
		}
		writeJSON(w, http.StatusOK, sol)
	case len(parts) == 2 && parts[1] == "metrics":
		// Jobs solved in this process are served from the in-memory
		// recorder; the store covers jobs solved elsewhere.
		if m, ok := opt.GetMetrics(id); ok {
			writeJSON(w, http.StatusOK, metricsOut(m))
			return
		}
		m, err := s.Store.GetSolveMetrics(r.Context(), id)
		if err != nil {
			s.notFoundOr500(w, r, err, "Metrics not available")
			return
		}
		writeJSON(w, http.StatusOK, m)
	default:
		writeProblem(w, http.StatusNotFound, "Not Found", "", path)
	}
}

func (s *Server) notFoundOr500(w http.ResponseWriter, r *http.Request, err error, title string) {
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, title, err.Error(), r.URL.Path)
		return
	}
	writeProblem(w, http.StatusInternalServerError, title, err.Error(), r.URL.Path)
}

// streamProgress serves SSE progress events for a running job. Finished
// jobs get a single terminal event so late subscribers do not hang.
func (s *Server) streamProgress(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	job, err := s.Store.GetJob(r.Context(), id)
	if err != nil {
		s.notFoundOr500(w, r, err, "Job not found")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeEvent := func(evt model.ProgressEvent) {
		b, _ := json.Marshal(evt)
		fmt.Fprintf(w, "event: progress\n")
		fmt.Fprintf(w, "data: %s\n\n", string(b))
		flusher.Flush()
	}

	if job.Status == model.JobDone || job.Status == model.JobFailed {
		evt := model.ProgressEvent{JobID: id, Done: true}
		if job.Solution != nil {
			evt.BestCost = job.Solution.Cost
			evt.Vehicles = job.Solution.Vehicles
			evt.Generation = job.Solution.FoundAtGen
		}
		writeEvent(evt)
		return
	}

	ch := s.Broker.Subscribe(id)
	defer s.Broker.Unsubscribe(id, ch)

	fmt.Fprintf(w, "event: heartbeat\n")
	fmt.Fprintf(w, "data: {\"jobId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
	flusher.Flush()

	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			writeEvent(evt)
			if evt.Done {
				return
			}
		case <-time.After(15 * time.Second):
			fmt.Fprintf(w, "event: heartbeat\n")
			fmt.Fprintf(w, "data: {\"jobId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
			flusher.Flush()
		}
	}
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// Check DB connectivity when using Postgres store
	type pinger interface{ Ping(ctx context.Context) error }
	if pg, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeProblem(w, 503, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, 200, map[string]string{"status": "ready"})
}

func (s *Server) VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, buildinfo.Info())
}
