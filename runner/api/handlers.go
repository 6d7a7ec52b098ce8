package api

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/buildbench/runner/exporter"
	"github.com/buildbench/runner/types"
)

// runResponse is a stored run together with its statistics
type runResponse struct {
	types.Run
	Summary exporter.RunSummary `json:"summary"`
}

func newRunResponses(runs []types.Run) []runResponse {
	responses := make([]runResponse, len(runs))
	for i, run := range runs {
		responses[i] = runResponse{Run: run, Summary: exporter.Summarize(run)}
	}
	return responses
}

// chartInfo describes one chart the server can render
type chartInfo struct {
	File     string `json:"file"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	URL      string `json:"url"`
}

// loadRuns returns the latest runs, or every run when all=true is requested
func (s *Server) loadRuns(r *http.Request) ([]types.Run, error) {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); all {
		return s.runs.LoadAllRuns(r.Context())
	}
	return s.runs.LoadLatestRuns(r.Context())
}

// handleListRuns lists the latest run of every benchmark spec
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.loadRuns(r)
	if err != nil {
		s.log.WithError(err).Error("Failed to load runs")
		s.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"runs":  newRunResponses(runs),
		"count": len(runs),
	})
}

// handleGetRun retrieves one run by id
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["runId"], 10, 64)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Run ID must be an integer")
		return
	}

	s.storeMu.Lock()
	runs, err := s.runs.LoadRunsByIDs(r.Context(), []types.RunID{types.RunID(id)})
	s.storeMu.Unlock()
	if err != nil {
		s.log.WithError(err).Error("Failed to load run")
		s.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve run")
		return
	}
	if len(runs) == 0 {
		s.writeErrorResponse(w, http.StatusNotFound, "Run not found")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, newRunResponses(runs)[0])
}

// handleListCharts lists the chart definitions
func (s *Server) handleListCharts(w http.ResponseWriter, r *http.Request) {
	defs := s.charter.Definitions()
	charts := make([]chartInfo, len(defs))
	for i, def := range defs {
		charts[i] = chartInfo{
			File:     def.File,
			Title:    def.Title,
			Subtitle: def.Subtitle,
			URL:      "/charts/" + def.File,
		}
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"charts": charts,
		"count":  len(charts),
	})
}

// handleChart renders one chart from the latest runs
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	def, ok := s.charter.Find(mux.Vars(r)["file"])
	if !ok {
		s.writeErrorResponse(w, http.StatusNotFound, "Chart not found")
		return
	}

	s.storeMu.Lock()
	runs, err := s.runs.LoadLatestRuns(r.Context())
	s.storeMu.Unlock()
	if err != nil {
		s.log.WithError(err).Error("Failed to load runs")
		s.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}

	var svg bytes.Buffer
	rendered, err := s.charter.Render(&svg, def, runs)
	if err != nil {
		s.log.WithError(err).WithField("chart", def.File).Error("Failed to render chart")
		s.writeErrorResponse(w, http.StatusInternalServerError, "Failed to render chart")
		return
	}
	if !rendered {
		s.writeErrorResponse(w, http.StatusNotFound, "No runs match chart")
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(svg.Bytes()); err != nil {
		s.log.WithError(err).Debug("Failed to write chart")
	}
}

var exportContentTypes = map[string]string{
	exporter.FormatCSV:   "text/csv; charset=utf-8",
	exporter.FormatJSON:  "application/json",
	exporter.FormatTable: "text/plain; charset=utf-8",
}

// handleExport streams the runs in an export format
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = exporter.FormatJSON
	}
	contentType, ok := exportContentTypes[format]
	if !ok {
		s.writeErrorResponse(w, http.StatusBadRequest, "Unsupported export format")
		return
	}

	runs, err := s.loadRuns(r)
	if err != nil {
		s.log.WithError(err).Error("Failed to load runs")
		s.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}

	var body bytes.Buffer
	if err := exporter.Export(&body, format, runs); err != nil {
		s.log.WithError(err).Error("Failed to export runs")
		s.writeErrorResponse(w, http.StatusInternalServerError, "Failed to export runs")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body.Bytes()); err != nil {
		s.log.WithError(err).Debug("Failed to write export")
	}
}

// handleHealth reports whether the run store is reachable
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"services": map[string]string{
			"database": "connected",
		},
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	s.storeMu.Lock()
	err := s.runs.Ping(ctx)
	s.storeMu.Unlock()
	if err != nil {
		s.log.WithError(err).Warn("Health check failed")
		status["status"] = "unhealthy"
		status["services"].(map[string]string)["database"] = "disconnected"
		s.writeJSONResponse(w, http.StatusServiceUnavailable, status)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, status)
}
