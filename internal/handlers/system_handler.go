// -----------------------------------------------------------------------
// System Handler - Health, version and template listing endpoints
// -----------------------------------------------------------------------

package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/services/render"
)

// SystemHandler serves the non-job endpoints.
type SystemHandler struct {
	renderSvc *render.Service
	logger    arbor.ILogger
	startTime time.Time
}

// NewSystemHandler creates a new system handler.
func NewSystemHandler(renderSvc *render.Service, logger arbor.ILogger) *SystemHandler {
	return &SystemHandler{
		renderSvc: renderSvc,
		logger:    logger,
		startTime: time.Now(),
	}
}

// HealthHandler reports service liveness
// GET /api/health
func (h *SystemHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}

// VersionHandler reports build information
// GET /api/version
func (h *SystemHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.Version,
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}

// TemplatesHandler lists the available deck templates
// GET /api/templates
func (h *SystemHandler) TemplatesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"templates": h.renderSvc.Templates(),
	})
}

// NotFoundHandler catches unmatched API routes
func (h *SystemHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, "Endpoint not found: "+r.URL.Path)
}
