// -----------------------------------------------------------------------
// Job Handler - REST surface for the generation pipeline
// -----------------------------------------------------------------------

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
	"github.com/ternarybob/suadeo/internal/pipeline"
)

// CreateJobRequest is the POST /api/jobs payload.
type CreateJobRequest struct {
	Topic    string `json:"topic" validate:"required,min=10,max=500"`
	Length   string `json:"length" validate:"omitempty,oneof=short medium long"`
	Template string `json:"template" validate:"omitempty,max=64"`
}

// JobHandler handles job-related API requests
type JobHandler struct {
	store             interfaces.JobStore
	pool              *pipeline.Pool
	logger            arbor.ILogger
	validate          *validator.Validate
	structureProvider string
	searchProvider    string
}

// NewJobHandler creates a new job handler
func NewJobHandler(store interfaces.JobStore, pool *pipeline.Pool, structureProvider, searchProvider string, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		store:             store,
		pool:              pool,
		logger:            logger,
		validate:          validator.New(),
		structureProvider: structureProvider,
		searchProvider:    searchProvider,
	}
}

// CreateJobHandler accepts a new generation job
// POST /api/jobs
func (h *JobHandler) CreateJobHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Validation failed: %v", err))
		return
	}

	length := models.DeckLength(req.Length)
	if req.Length == "" {
		length = models.DeckLengthMedium
	}

	now := time.Now()
	job := &models.Job{
		ID:                common.NewJobID(),
		Topic:             req.Topic,
		Length:            length,
		Status:            models.JobStatusQueued,
		Progress:          models.ProgressQueued,
		Message:           "Job queued",
		StructureProvider: h.structureProvider,
		SearchProvider:    h.searchProvider,
		TemplateID:        req.Template,
		CreatedAt:         now,
		RunStartedAt:      now,
	}

	if err := h.store.Create(r.Context(), job); err != nil {
		h.logger.Error().Err(err).Msg("Failed to create job")
		WriteError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}

	// A full admission queue is not an error: the job stays queued and the
	// maintenance sweep re-admits it.
	if err := h.pool.Admit(job.ID, job.Generation); err != nil {
		h.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Job created but not admitted yet")
	}

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"id":     job.ID,
		"status": job.Status,
	})
}

// GetJobHandler returns the full job record
// GET /api/jobs/{id}
func (h *JobHandler) GetJobHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	job, err := h.store.Get(r.Context(), jobID)
	if err != nil {
		h.writeLookupError(w, jobID, err)
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

// StatusHandler returns the pollable status snapshot for a job
// GET /api/jobs/{id}/status
func (h *JobHandler) StatusHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	job, err := h.store.Get(r.Context(), jobID)
	if err != nil {
		h.writeLookupError(w, jobID, err)
		return
	}

	response := map[string]interface{}{
		"id":       job.ID,
		"status":   job.Status,
		"progress": job.Progress,
		"message":  job.Message,
	}
	if job.Error != "" {
		response["error"] = job.Error
	}

	WriteJSON(w, http.StatusOK, response)
}

// ResultHandler returns the full outputs of a completed job
// GET /api/jobs/{id}/result
func (h *JobHandler) ResultHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	job, err := h.store.Get(r.Context(), jobID)
	if err != nil {
		h.writeLookupError(w, jobID, err)
		return
	}

	if job.Status != models.JobStatusCompleted {
		WriteError(w, http.StatusConflict, fmt.Sprintf("Job is %s, result available once completed", job.Status))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"id":            job.ID,
		"topic":         job.Topic,
		"length":        job.Length,
		"storyline":     job.Storyline,
		"research":      job.Research,
		"quality_score": job.QualityScore,
		"deck_path":     job.DeckPath,
		"created_at":    job.CreatedAt,
		"completed_at":  job.CompletedAt,
	})
}

// RetryHandler starts a fresh run for a failed job
// POST /api/jobs/{id}/retry
func (h *JobHandler) RetryHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	job, err := h.store.Get(r.Context(), jobID)
	if err != nil {
		h.writeLookupError(w, jobID, err)
		return
	}
	if job.Status != models.JobStatusFailed {
		WriteError(w, http.StatusConflict, fmt.Sprintf("Only failed jobs can be retried, job is %s", job.Status))
		return
	}

	updated, err := h.store.Update(r.Context(), jobID, func(j *models.Job) {
		j.ResetForRetry()
	})
	if err != nil {
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to reset job for retry")
		WriteError(w, http.StatusInternalServerError, "Failed to retry job")
		return
	}

	if err := h.pool.Admit(updated.ID, updated.Generation); err != nil {
		h.logger.Warn().Err(err).Str("job_id", jobID).Msg("Retry queued but not admitted yet")
	}

	h.logger.Info().
		Str("job_id", jobID).
		Int("generation", updated.Generation).
		Msg("Job retried as new run")

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"id":         updated.ID,
		"status":     updated.Status,
		"generation": updated.Generation,
	})
}

// ListJobsHandler returns a paginated list of job summaries, newest first
// GET /api/jobs?page=1&per_page=20
func (h *JobHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	page := 1
	perPage := 20
	if v := r.URL.Query().Get("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			perPage = parsed
		}
	}

	list, err := h.store.List(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list jobs")
		WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	WriteJSON(w, http.StatusOK, list)
}

// DownloadHandler streams the rendered deck of a completed job
// GET /api/jobs/{id}/download
func (h *JobHandler) DownloadHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	job, err := h.store.Get(r.Context(), jobID)
	if err != nil {
		h.writeLookupError(w, jobID, err)
		return
	}
	if job.Status != models.JobStatusCompleted || job.DeckPath == "" {
		WriteError(w, http.StatusConflict, "Deck available once the job is completed")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", job.ID+".pdf"))
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, job.DeckPath)
}

func (h *JobHandler) writeLookupError(w http.ResponseWriter, jobID string, err error) {
	if errors.Is(err, interfaces.ErrJobNotFound) {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("Job not found: %s", jobID))
		return
	}
	h.logger.Error().Err(err).Str("job_id", jobID).Msg("Job lookup failed")
	WriteError(w, http.StatusInternalServerError, "Job lookup failed")
}
