package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
	"github.com/ternarybob/suadeo/internal/quality"
	"github.com/ternarybob/suadeo/internal/services/events"
	jobsvc "github.com/ternarybob/suadeo/internal/services/jobs"
	storage "github.com/ternarybob/suadeo/internal/storage/badger"
)

// fakeStructure returns a fixed two-hypothesis storyline.
type fakeStructure struct {
	err   error
	calls atomic.Int32
}

func (f *fakeStructure) GenerateStoryline(ctx context.Context, topic string, length models.DeckLength) (*models.Storyline, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Storyline{
		SCQA: models.SCQA{
			Situation:    "The market is shifting",
			Complication: "Incumbents are slow to react",
			Question:     "Where should we invest",
			Answer:       "Invest where the shift compounds fastest",
		},
		GoverningThought: "Back the compounding shift early",
		KeyLine:          []string{"Demand is growing", "Supply is constrained"},
		Hypotheses: []models.Hypothesis{
			{ID: 1, Statement: "Demand keeps growing strongly"},
			{ID: 2, Statement: "Supply stays constrained"},
		},
	}, nil
}

func (f *fakeStructure) Provider() string { return "fake" }

// fakeSearch supports hypothesis one and returns nothing for hypothesis two.
type fakeSearch struct{}

func (f *fakeSearch) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	if len(query) > 0 && query[0] == 'D' { // "Demand ..."
		return []models.SearchResult{
			{
				Title:   "Demand shows strong growth momentum",
				URL:     "https://example.com/demand",
				Snippet: "Demand continues to rise and expand across segments",
			},
		}, nil
	}
	return nil, nil
}

func (f *fakeSearch) Provider() string { return "fake" }

// fakeRenderer records calls and pretends to write a deck.
type fakeRenderer struct {
	err   error
	calls atomic.Int32
}

func (f *fakeRenderer) RenderDeck(ctx context.Context, job *models.Job) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	if job.Storyline == nil || job.Research == nil {
		return "", fmt.Errorf("missing stage outputs")
	}
	return "/tmp/decks/" + job.ID + ".pdf", nil
}

type fixture struct {
	store        *jobsvc.Service
	structure    *fakeStructure
	renderer     *fakeRenderer
	orchestrator *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := arbor.NewLogger()
	db, err := storage.NewBadgerDB(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := jobsvc.NewService(storage.NewJobStorage(db, logger), events.NewService(logger), logger)
	t.Cleanup(func() { store.Close() })

	structure := &fakeStructure{}
	renderer := &fakeRenderer{}
	config := &common.PipelineConfig{StageTimeout: "5s", RetryBackoff: "10ms"}

	orch := NewOrchestrator(store, structure, &fakeSearch{}, nil, renderer, quality.NewScorer(logger), config, logger)

	return &fixture{store: store, structure: structure, renderer: renderer, orchestrator: orch}
}

func createJob(t *testing.T, f *fixture, id string) *models.Job {
	t.Helper()
	job := &models.Job{
		ID:        id,
		Topic:     "Where should the fund deploy capital next year",
		Length:    models.DeckLengthShort,
		Status:    models.JobStatusQueued,
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.store.Create(context.Background(), job))
	return job
}

func TestExecuteHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createJob(t, f, "job_happy")

	// Watch progress while the pipeline runs.
	updates, err := f.store.Subscribe(ctx, "job_happy")
	require.NoError(t, err)

	f.orchestrator.Execute(ctx, "job_happy", 0)

	job, err := f.store.Get(ctx, "job_happy")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, models.ProgressCompleted, job.Progress)
	assert.NotNil(t, job.CompletedAt)
	assert.NotNil(t, job.Storyline)
	assert.NotNil(t, job.Research)
	assert.NotNil(t, job.QualityScore)
	assert.Equal(t, "/tmp/decks/job_happy.pdf", job.DeckPath)

	// A hypothesis with zero search results still completes the run.
	require.Len(t, job.Research.Hypotheses, 2)
	assert.Empty(t, job.Research.Hypotheses[1].Evidence)
	assert.Equal(t, models.ConfidenceLow, job.Research.Hypotheses[1].Confidence)
	assert.Nil(t, job.Research.Hypotheses[1].Validated)

	// Snapshots arrive with monotonically non-decreasing progress and the
	// channel closes on the terminal snapshot.
	last := -1
	for snapshot := range updates {
		assert.GreaterOrEqual(t, snapshot.Progress, last)
		last = snapshot.Progress
	}
	assert.Equal(t, models.ProgressCompleted, last)
}

func TestExecuteStorylineFailureFailsJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createJob(t, f, "job_storyfail")

	f.structure.err = fmt.Errorf("provider unavailable")
	f.orchestrator.Execute(ctx, "job_storyfail", 0)

	job, err := f.store.Get(ctx, "job_storyfail")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, "storyline_failed", job.Error)
	assert.NotNil(t, job.CompletedAt)

	// One initial call plus the single retry.
	assert.Equal(t, int32(2), f.structure.calls.Load())
	// Later stages never ran.
	assert.Equal(t, int32(0), f.renderer.calls.Load())
}

func TestExecuteRenderFailureFailsJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createJob(t, f, "job_renderfail")

	f.renderer.err = fmt.Errorf("pdf validation failed")
	f.orchestrator.Execute(ctx, "job_renderfail", 0)

	job, err := f.store.Get(ctx, "job_renderfail")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, "slides_failed", job.Error)
	// Storyline and research outputs from before the failure are preserved.
	assert.NotNil(t, job.Storyline)
	assert.NotNil(t, job.Research)
	assert.Nil(t, job.QualityScore)
}

func TestExecuteAbortsWhenGenerationSuperseded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createJob(t, f, "job_stale")

	// A retry happened before the worker picked the run up.
	_, err := f.store.Update(ctx, "job_stale", func(j *models.Job) {
		j.MarkFailed("storyline_failed")
	})
	require.NoError(t, err)
	_, err = f.store.Update(ctx, "job_stale", func(j *models.Job) {
		j.ResetForRetry()
	})
	require.NoError(t, err)

	f.orchestrator.Execute(ctx, "job_stale", 0)

	// The stale run never touched the job.
	job, err := f.store.Get(ctx, "job_stale")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, job.Status)
	assert.Equal(t, 1, job.Generation)
	assert.Equal(t, int32(0), f.structure.calls.Load())

	// The fresh generation runs normally.
	f.orchestrator.Execute(ctx, "job_stale", 1)
	job, err = f.store.Get(ctx, "job_stale")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
}

func TestCallExternalRetriesOnce(t *testing.T) {
	attempts := 0
	err := callExternal(context.Background(), time.Second, time.Millisecond, func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			return fmt.Errorf("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	attempts = 0
	err = callExternal(context.Background(), time.Second, time.Millisecond, func(ctx context.Context) error {
		attempts++
		return fmt.Errorf("persistent")
	})
	require.Error(t, err)
	assert.Equal(t, 2, attempts)
	assert.Contains(t, err.Error(), "failed after retry")
}

func TestCallExternalStopsOnPermanentFailure(t *testing.T) {
	attempts := 0
	err := callExternal(context.Background(), time.Second, time.Millisecond, func(ctx context.Context) error {
		attempts++
		return fmt.Errorf("%w: provider rejected the request", interfaces.ErrPermanent)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrPermanent)
	assert.Equal(t, 1, attempts, "permanent failures are not retried")
}

func TestPoolAdmitBoundsQueue(t *testing.T) {
	logger := arbor.NewLogger()
	f := newFixture(t)

	pool := NewPool(f.orchestrator, 1, 1, logger)
	// Not started: admissions queue on the channel up to capacity.
	require.NoError(t, pool.Admit("job_a", 0))
	assert.Error(t, pool.Admit("job_b", 0), "queue beyond capacity should be rejected")

	pool.Stop()
	assert.Error(t, pool.Admit("job_c", 0), "stopped pool rejects admissions")
}
