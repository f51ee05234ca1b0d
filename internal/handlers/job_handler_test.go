package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/models"
	"github.com/ternarybob/suadeo/internal/pipeline"
	"github.com/ternarybob/suadeo/internal/services/events"
	jobsvc "github.com/ternarybob/suadeo/internal/services/jobs"
	storage "github.com/ternarybob/suadeo/internal/storage/badger"
)

func newTestHandler(t *testing.T) (*JobHandler, *jobsvc.Service) {
	t.Helper()

	logger := arbor.NewLogger()
	db, err := storage.NewBadgerDB(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := jobsvc.NewService(storage.NewJobStorage(db, logger), events.NewService(logger), logger)
	t.Cleanup(func() { store.Close() })

	// A pool that is never started: admissions queue but no worker runs, so
	// handler tests observe jobs exactly as created.
	pool := pipeline.NewPool(nil, 1, 16, logger)

	return NewJobHandler(store, pool, "mock", "mock", logger), store
}

func TestCreateJobHandler(t *testing.T) {
	handler, store := newTestHandler(t)

	body, _ := json.Marshal(CreateJobRequest{Topic: "Evaluate nearshoring options for assembly"})
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.CreateJobHandler(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "queued", resp["status"])
	require.NotEmpty(t, resp["id"])

	job, err := store.Get(context.Background(), resp["id"])
	require.NoError(t, err)
	assert.Equal(t, models.DeckLengthMedium, job.Length, "length defaults to medium")
	assert.Equal(t, "mock", job.StructureProvider)
}

func TestCreateJobHandlerValidation(t *testing.T) {
	handler, _ := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"topic too short", `{"topic": "short"}`},
		{"missing topic", `{}`},
		{"bad length", `{"topic": "a perfectly reasonable topic", "length": "gigantic"}`},
		{"not json", `topic=nearshoring`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewReader([]byte(tt.body)))
			rec := httptest.NewRecorder()
			handler.CreateJobHandler(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestStatusAndResultHandlers(t *testing.T) {
	handler, store := newTestHandler(t)
	ctx := context.Background()

	job := &models.Job{
		ID:        "job_http",
		Topic:     "Evaluate nearshoring options for assembly",
		Length:    models.DeckLengthShort,
		Status:    models.JobStatusResearching,
		Progress:  models.ProgressResearchEnter,
		Message:   "Researching 2 hypotheses...",
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.Create(ctx, job))

	rec := httptest.NewRecorder()
	handler.StatusHandler(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/job_http/status", nil), "job_http")
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "researching", status["status"])
	assert.Equal(t, float64(models.ProgressResearchEnter), status["progress"])
	_, hasError := status["error"]
	assert.False(t, hasError, "error field omitted while empty")

	// Result is gated on completion.
	rec = httptest.NewRecorder()
	handler.ResultHandler(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/job_http/result", nil), "job_http")
	assert.Equal(t, http.StatusConflict, rec.Code)

	_, err := store.Update(ctx, "job_http", func(j *models.Job) {
		j.MarkCompleted("Presentation ready")
	})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	handler.ResultHandler(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/job_http/result", nil), "job_http")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusHandlerUnknownJob(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.StatusHandler(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/job_missing/status", nil), "job_missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRetryHandlerOnlyRetriesFailedJobs(t *testing.T) {
	handler, store := newTestHandler(t)
	ctx := context.Background()

	job := &models.Job{
		ID:        "job_retry",
		Topic:     "Evaluate nearshoring options for assembly",
		Length:    models.DeckLengthShort,
		Status:    models.JobStatusQueued,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.Create(ctx, job))

	rec := httptest.NewRecorder()
	handler.RetryHandler(rec, httptest.NewRequest(http.MethodPost, "/api/jobs/job_retry/retry", nil), "job_retry")
	assert.Equal(t, http.StatusConflict, rec.Code, "queued jobs cannot be retried")

	_, err := store.Update(ctx, "job_retry", func(j *models.Job) {
		j.MarkFailed("research_timeout")
	})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	handler.RetryHandler(rec, httptest.NewRequest(http.MethodPost, "/api/jobs/job_retry/retry", nil), "job_retry")
	require.Equal(t, http.StatusAccepted, rec.Code)

	retried, err := store.Get(ctx, "job_retry")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, retried.Status)
	assert.Equal(t, 1, retried.Generation)
	assert.Empty(t, retried.Error)
}

func TestListJobsHandler(t *testing.T) {
	handler, store := newTestHandler(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Create(ctx, &models.Job{
			ID:        "job_list_" + string(rune('a'+i)),
			Topic:     "Evaluate nearshoring options for assembly",
			Length:    models.DeckLengthShort,
			Status:    models.JobStatusQueued,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	rec := httptest.NewRecorder()
	handler.ListJobsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/jobs?page=1&per_page=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Jobs    []models.JobSummary `json:"jobs"`
		Total   int                 `json:"total"`
		Page    int                 `json:"page"`
		PerPage int                 `json:"per_page"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 3, list.Total)
	require.Len(t, list.Jobs, 2)
	assert.Equal(t, "job_list_c", list.Jobs[0].ID)
}

func TestMethodGuards(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.CreateJobHandler(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	handler.RetryHandler(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/x/retry", nil), "x")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
