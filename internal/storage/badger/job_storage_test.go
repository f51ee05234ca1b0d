package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
)

func newTestStorage(t *testing.T) *JobStorage {
	t.Helper()

	logger := arbor.NewLogger()
	db, err := NewBadgerDB(logger, &common.BadgerConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewJobStorage(db, logger)
}

func testJob(id string, status models.JobStatus, createdAt time.Time) *models.Job {
	return &models.Job{
		ID:        id,
		Topic:     "Should we expand into adjacent markets",
		Length:    models.DeckLengthMedium,
		Status:    status,
		CreatedAt: createdAt,
	}
}

func TestJobPersistenceRoundtrip(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	job := testJob("job_1", models.JobStatusQueued, time.Now())
	job.Generation = 2
	if err := storage.SaveJob(ctx, job); err != nil {
		t.Fatalf("Failed to save job: %v", err)
	}

	loaded, err := storage.GetJob(ctx, "job_1")
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if loaded.Topic != job.Topic {
		t.Errorf("Topic mismatch: got %q, want %q", loaded.Topic, job.Topic)
	}
	if loaded.Generation != 2 {
		t.Errorf("Generation mismatch: got %d, want 2", loaded.Generation)
	}

	// Upsert replaces the record.
	job.Status = models.JobStatusStoryline
	if err := storage.SaveJob(ctx, job); err != nil {
		t.Fatalf("Failed to update job: %v", err)
	}
	loaded, err = storage.GetJob(ctx, "job_1")
	if err != nil {
		t.Fatalf("Failed to reload job: %v", err)
	}
	if loaded.Status != models.JobStatusStoryline {
		t.Errorf("Status mismatch after upsert: got %s", loaded.Status)
	}
}

func TestGetJobNotFound(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.GetJob(context.Background(), "job_missing")
	if !errors.Is(err, interfaces.ErrJobNotFound) {
		t.Fatalf("Expected ErrJobNotFound, got %v", err)
	}
}

func TestListJobsNewestFirstWithPaging(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		job := testJob("job_"+string(rune('a'+i)), models.JobStatusQueued, base.Add(time.Duration(i)*time.Minute))
		if err := storage.SaveJob(ctx, job); err != nil {
			t.Fatalf("Failed to save job %d: %v", i, err)
		}
	}

	count, err := storage.CountJobs(ctx)
	if err != nil {
		t.Fatalf("Failed to count jobs: %v", err)
	}
	if count != 5 {
		t.Fatalf("Expected 5 jobs, got %d", count)
	}

	page1, err := storage.ListJobs(ctx, 1, 2)
	if err != nil {
		t.Fatalf("Failed to list page 1: %v", err)
	}
	if len(page1) != 2 {
		t.Fatalf("Expected 2 jobs on page 1, got %d", len(page1))
	}
	// Newest first: job_e was created last.
	if page1[0].ID != "job_e" {
		t.Errorf("Expected job_e first, got %s", page1[0].ID)
	}

	page3, err := storage.ListJobs(ctx, 3, 2)
	if err != nil {
		t.Fatalf("Failed to list page 3: %v", err)
	}
	if len(page3) != 1 {
		t.Errorf("Expected 1 job on page 3, got %d", len(page3))
	}
}

func TestGetJobsByStatus(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	now := time.Now()
	storage.SaveJob(ctx, testJob("job_q1", models.JobStatusQueued, now))
	storage.SaveJob(ctx, testJob("job_r1", models.JobStatusResearching, now.Add(time.Second)))
	storage.SaveJob(ctx, testJob("job_q2", models.JobStatusQueued, now.Add(2*time.Second)))

	queued, err := storage.GetJobsByStatus(ctx, models.JobStatusQueued)
	if err != nil {
		t.Fatalf("Failed to query by status: %v", err)
	}
	if len(queued) != 2 {
		t.Fatalf("Expected 2 queued jobs, got %d", len(queued))
	}
	// Oldest first for sweep ordering.
	if queued[0].ID != "job_q1" {
		t.Errorf("Expected job_q1 first, got %s", queued[0].ID)
	}
}

func TestDeleteJob(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	storage.SaveJob(ctx, testJob("job_del", models.JobStatusQueued, time.Now()))
	if err := storage.DeleteJob(ctx, "job_del"); err != nil {
		t.Fatalf("Failed to delete job: %v", err)
	}
	if _, err := storage.GetJob(ctx, "job_del"); !errors.Is(err, interfaces.ErrJobNotFound) {
		t.Fatalf("Expected ErrJobNotFound after delete, got %v", err)
	}

	// Deleting a missing id is not an error.
	if err := storage.DeleteJob(ctx, "job_del"); err != nil {
		t.Errorf("Delete of missing job should not fail: %v", err)
	}
}
