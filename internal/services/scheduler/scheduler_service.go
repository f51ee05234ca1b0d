// -----------------------------------------------------------------------
// Scheduler Service - Periodic maintenance sweep over the job store
// -----------------------------------------------------------------------

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
	"github.com/ternarybob/suadeo/internal/pipeline"
	storage "github.com/ternarybob/suadeo/internal/storage/badger"
)

const (
	// requeueGrace is how long a job may sit queued before the sweep
	// re-admits it, covering admissions lost to a full pool queue.
	requeueGrace = 2 * time.Minute

	// orphanTimeout marks a mid-stage job as interrupted when it has been
	// running longer than any plausible pipeline execution.
	orphanTimeout = 30 * time.Minute
)

// midStageStatuses are the states a crash can strand a job in.
var midStageStatuses = []models.JobStatus{
	models.JobStatusStoryline,
	models.JobStatusResearching,
	models.JobStatusSlides,
	models.JobStatusQuality,
}

// Service runs the periodic maintenance sweep: it re-admits jobs stuck in
// queued with no live execution and fails orphaned mid-stage jobs left
// behind by a crash.
type Service struct {
	config  *common.SchedulerConfig
	storage *storage.JobStorage
	store   interfaces.JobStore
	pool    *pipeline.Pool
	logger  arbor.ILogger
	cron    *cron.Cron
}

// NewService creates the scheduler service.
func NewService(config *common.SchedulerConfig, jobStorage *storage.JobStorage, store interfaces.JobStore, pool *pipeline.Pool, logger arbor.ILogger) *Service {
	return &Service{
		config:  config,
		storage: jobStorage,
		store:   store,
		pool:    pool,
		logger:  logger,
		cron:    cron.New(cron.WithSeconds()),
	}
}

// Start registers the sweep and starts the cron loop.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.logger.Info().Msg("Maintenance scheduler disabled")
		return nil
	}

	schedule := s.config.Schedule
	if schedule == "" {
		schedule = "0 * * * * *"
	}

	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return fmt.Errorf("failed to register maintenance sweep: %w", err)
	}

	s.cron.Start()
	s.logger.Info().Str("schedule", schedule).Msg("Maintenance scheduler started")
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Maintenance scheduler stopped")
}

// RecoverOnStartup handles jobs stranded by the previous process: every
// mid-stage job is failed as interrupted and every queued job is
// re-admitted. Called once before the server starts accepting work.
func (s *Service) RecoverOnStartup(ctx context.Context) {
	for _, status := range midStageStatuses {
		jobs, err := s.storage.GetJobsByStatus(ctx, status)
		if err != nil {
			s.logger.Error().Err(err).Str("status", string(status)).Msg("Startup recovery query failed")
			continue
		}
		for _, job := range jobs {
			s.failInterrupted(ctx, job)
		}
	}

	s.readmitQueued(ctx, 0)
}

// sweep is the periodic maintenance pass.
func (s *Service) sweep() {
	ctx := context.Background()

	s.readmitQueued(ctx, requeueGrace)

	cutoff := time.Now().Add(-orphanTimeout)
	for _, status := range midStageStatuses {
		jobs, err := s.storage.GetJobsByStatus(ctx, status)
		if err != nil {
			s.logger.Error().Err(err).Str("status", string(status)).Msg("Maintenance sweep query failed")
			continue
		}
		for _, job := range jobs {
			// Age the run, not the record: a retry restarts the clock, so a
			// healthy rerun of an old job is never swept.
			if job.RunStarted().Before(cutoff) {
				s.failInterrupted(ctx, job)
			}
		}
	}
}

// readmitQueued re-admits queued jobs older than the grace period.
func (s *Service) readmitQueued(ctx context.Context, grace time.Duration) {
	jobs, err := s.storage.GetJobsByStatus(ctx, models.JobStatusQueued)
	if err != nil {
		s.logger.Error().Err(err).Msg("Queued-job sweep query failed")
		return
	}

	cutoff := time.Now().Add(-grace)
	for _, job := range jobs {
		// A run younger than the grace period was already admitted by its
		// create or retry handler; re-admitting it would run it twice.
		if grace > 0 && job.RunStarted().After(cutoff) {
			continue
		}
		if err := s.pool.Admit(job.ID, job.Generation); err != nil {
			s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Re-admission failed, job stays queued")
			continue
		}
		s.logger.Info().Str("job_id", job.ID).Msg("Re-admitted queued job")
	}
}

// failInterrupted marks an orphaned job as failed.
func (s *Service) failInterrupted(ctx context.Context, job *models.Job) {
	_, err := s.store.UpdateIfGeneration(ctx, job.ID, job.Generation, func(j *models.Job) {
		j.MarkFailed("interrupted")
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to mark orphaned job interrupted")
		return
	}
	s.logger.Warn().
		Str("job_id", job.ID).
		Str("stage", string(job.Status)).
		Msg("Orphaned job marked interrupted")
}
