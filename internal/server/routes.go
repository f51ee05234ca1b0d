package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route - per-job state streaming
	mux.HandleFunc("/ws/jobs/", s.handleJobSocket)

	// API routes - Jobs
	mux.HandleFunc("/api/jobs", s.handleJobsRoute) // GET (list), POST (create)
	mux.HandleFunc("/api/jobs/", s.handleJobRoutes) // Handles /api/jobs/{id} and subpaths

	// API routes - System
	mux.HandleFunc("/api/templates", s.app.SystemHandler.TemplatesHandler)
	mux.HandleFunc("/api/version", s.app.SystemHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.SystemHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.SystemHandler.NotFoundHandler)

	return mux
}

// handleJobsRoute dispatches the collection endpoint by method
func (s *Server) handleJobsRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.app.JobHandler.CreateJobHandler(w, r)
	case http.MethodGet:
		s.app.JobHandler.ListJobsHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleJobRoutes routes job-related requests to the appropriate handler
func (s *Server) handleJobRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if rest == "" {
		s.app.SystemHandler.NotFoundHandler(w, r)
		return
	}

	parts := strings.SplitN(rest, "/", 2)
	jobID := parts[0]

	// GET /api/jobs/{id}
	if len(parts) == 1 {
		s.app.JobHandler.GetJobHandler(w, r, jobID)
		return
	}

	switch parts[1] {
	case "status":
		s.app.JobHandler.StatusHandler(w, r, jobID)
	case "result":
		s.app.JobHandler.ResultHandler(w, r, jobID)
	case "retry":
		s.app.JobHandler.RetryHandler(w, r, jobID)
	case "download":
		s.app.JobHandler.DownloadHandler(w, r, jobID)
	default:
		s.app.SystemHandler.NotFoundHandler(w, r)
	}
}

// handleJobSocket extracts the job id from the websocket path
func (s *Server) handleJobSocket(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/ws/jobs/")
	if jobID == "" || strings.Contains(jobID, "/") {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	s.app.WSHandler.HandleJobSocket(w, r, jobID)
}
