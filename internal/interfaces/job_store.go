package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/suadeo/internal/models"
)

// ErrJobNotFound is returned by store lookups for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// ErrStaleGeneration is returned when an update targets a run generation
// that has since been superseded by a retry. The write is discarded.
var ErrStaleGeneration = errors.New("stale job generation")

// JobUpdate mutates a job in place under the store's per-id lock.
type JobUpdate func(job *models.Job)

// JobList is one page of job summaries, newest first.
type JobList struct {
	Jobs    []models.JobSummary `json:"jobs"`
	Total   int                 `json:"total"`
	Page    int                 `json:"page"`
	PerPage int                 `json:"per_page"`
}

// JobStore provides atomic job persistence with per-job snapshot
// subscriptions. All reads return copies; callers never share the stored
// record.
type JobStore interface {
	// Create persists a new job. The id must be unused.
	Create(ctx context.Context, job *models.Job) error

	// Get returns a copy of the job, or ErrJobNotFound.
	Get(ctx context.Context, id string) (*models.Job, error)

	// Update applies fn atomically to the stored job and publishes the
	// resulting snapshot to subscribers.
	Update(ctx context.Context, id string, fn JobUpdate) (*models.Job, error)

	// UpdateIfGeneration applies fn only while the stored job still carries
	// the given run generation, otherwise returns ErrStaleGeneration.
	UpdateIfGeneration(ctx context.Context, id string, generation int, fn JobUpdate) (*models.Job, error)

	// List returns a page of job summaries ordered by creation time
	// descending. page is 1-based.
	List(ctx context.Context, page, perPage int) (*JobList, error)

	// Subscribe returns a channel of job snapshots for the given id. The
	// current snapshot is delivered first; the channel closes after a
	// terminal snapshot or when the context ends. A retry opens a fresh
	// run, so callers following a retried job subscribe again.
	Subscribe(ctx context.Context, id string) (<-chan models.Job, error)

	// Close releases the underlying storage.
	Close() error
}
