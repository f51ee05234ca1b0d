// -----------------------------------------------------------------------
// Stage Orchestrator - Runs a job's stages in fixed order
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
	"github.com/ternarybob/suadeo/internal/quality"
	"github.com/ternarybob/suadeo/internal/research"
)

// Orchestrator executes the fixed stage sequence for one job run:
// storyline, research, slides, quality. Every transition is written to the
// job store under the run's generation token; a write rejected as stale
// aborts the run silently, because a retry has superseded it.
type Orchestrator struct {
	store     interfaces.JobStore
	structure interfaces.StructureCapability
	search    interfaces.SearchCapability
	enricher  interfaces.QuoteEnricher
	renderer  interfaces.RenderCapability
	scorer    *quality.Scorer
	logger    arbor.ILogger
	config    *common.PipelineConfig
}

// NewOrchestrator creates the stage orchestrator.
func NewOrchestrator(
	store interfaces.JobStore,
	structure interfaces.StructureCapability,
	search interfaces.SearchCapability,
	enricher interfaces.QuoteEnricher,
	renderer interfaces.RenderCapability,
	scorer *quality.Scorer,
	config *common.PipelineConfig,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		store:     store,
		structure: structure,
		search:    search,
		enricher:  enricher,
		renderer:  renderer,
		scorer:    scorer,
		logger:    logger,
		config:    config,
	}
}

// Execute runs the full pipeline for one job run. The generation token
// distinguishes this run from any retry that may supersede it.
func (o *Orchestrator) Execute(ctx context.Context, jobID string, generation int) {
	logger := o.logger
	logger.Info().
		Str("job_id", jobID).
		Int("generation", generation).
		Msg("Pipeline execution started")

	job, err := o.store.Get(ctx, jobID)
	if err != nil {
		logger.Error().Err(err).Str("job_id", jobID).Msg("Pipeline aborted: job not found")
		return
	}
	if job.Generation != generation || job.Status != models.JobStatusQueued {
		logger.Debug().Str("job_id", jobID).Msg("Pipeline aborted: run superseded before start")
		return
	}

	storyline, err := o.runStoryline(ctx, job)
	if err != nil {
		o.failJob(ctx, jobID, generation, StageStoryline, err)
		return
	}
	if storyline == nil {
		return // superseded
	}

	researchResults, err := o.runResearch(ctx, job, storyline)
	if err != nil {
		o.failJob(ctx, jobID, generation, StageResearch, err)
		return
	}
	if researchResults == nil {
		return
	}

	deckPath, err := o.runSlides(ctx, job, storyline, researchResults)
	if err != nil {
		o.failJob(ctx, jobID, generation, StageSlides, err)
		return
	}
	if deckPath == "" {
		return
	}

	score, err := o.runQuality(ctx, job, storyline, researchResults)
	if err != nil {
		o.failJob(ctx, jobID, generation, StageQuality, err)
		return
	}
	if score == nil {
		return
	}

	_, err = o.store.UpdateIfGeneration(ctx, jobID, generation, func(j *models.Job) {
		j.MarkCompleted("Presentation ready")
	})
	if err != nil && !errors.Is(err, interfaces.ErrStaleGeneration) {
		logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to mark job completed")
		return
	}

	logger.Info().
		Str("job_id", jobID).
		Int("generation", generation).
		Int("quality_score", score.OverallScore).
		Msg("Pipeline execution completed")
}

// runStoryline executes the storyline stage. A nil result with nil error
// means the run was superseded mid-stage.
func (o *Orchestrator) runStoryline(ctx context.Context, job *models.Job) (*models.Storyline, error) {
	if !o.enterStage(ctx, job, models.JobStatusStoryline, models.ProgressStorylineEnter, "Generating SCQA storyline...") {
		return nil, nil
	}

	var storyline *models.Storyline
	err := callExternal(ctx, o.config.StageTimeoutDuration(), o.config.RetryBackoffDuration(), func(callCtx context.Context) error {
		var genErr error
		storyline, genErr = o.structure.GenerateStoryline(callCtx, job.Topic, job.Length)
		return genErr
	})
	if err != nil {
		return nil, err
	}

	_, err = o.store.UpdateIfGeneration(ctx, job.ID, job.Generation, func(j *models.Job) {
		j.Storyline = storyline
		j.SetProgress(models.ProgressStorylineExit)
		j.Message = fmt.Sprintf("Storyline ready with %d hypotheses", len(storyline.Hypotheses))
	})
	if errors.Is(err, interfaces.ErrStaleGeneration) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return storyline, nil
}

// runResearch executes the research stage over the evidence aggregator.
// Per-query timeouts live in the search decorator; a hypothesis with no
// usable queries degrades to zero evidence rather than failing the stage.
func (o *Orchestrator) runResearch(ctx context.Context, job *models.Job, storyline *models.Storyline) (*models.ResearchResults, error) {
	message := fmt.Sprintf("Researching %d hypotheses...", len(storyline.Hypotheses))
	if !o.enterStage(ctx, job, models.JobStatusResearching, models.ProgressResearchEnter, message) {
		return nil, nil
	}

	boundedSearch := &timeoutSearch{inner: o.search, timeout: o.config.StageTimeoutDuration()}
	aggregator := research.NewAggregator(boundedSearch, o.enricher, o.logger)

	target := models.LengthConfigFor(job.Length).TargetSources
	results, err := aggregator.Research(ctx, storyline, target)
	if err != nil {
		return nil, err
	}

	_, err = o.store.UpdateIfGeneration(ctx, job.ID, job.Generation, func(j *models.Job) {
		j.Storyline = storyline // carries the validated flags set during research
		j.Research = results
		j.SetProgress(models.ProgressResearchExit)
		j.Message = fmt.Sprintf("Research complete: %d sources across %d hypotheses",
			results.TotalEvidence(), len(results.Hypotheses))
	})
	if errors.Is(err, interfaces.ErrStaleGeneration) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return results, nil
}

// runSlides executes the render stage. Render failure is stage-fatal after
// the single retry.
func (o *Orchestrator) runSlides(ctx context.Context, job *models.Job, storyline *models.Storyline, results *models.ResearchResults) (string, error) {
	if !o.enterStage(ctx, job, models.JobStatusSlides, models.ProgressSlidesEnter, "Assembling slides...") {
		return "", nil
	}

	// Render from a snapshot carrying this run's outputs.
	renderJob := *job
	renderJob.Storyline = storyline
	renderJob.Research = results

	var deckPath string
	err := callExternal(ctx, o.config.StageTimeoutDuration(), o.config.RetryBackoffDuration(), func(callCtx context.Context) error {
		var renderErr error
		deckPath, renderErr = o.renderer.RenderDeck(callCtx, &renderJob)
		return renderErr
	})
	if err != nil {
		return "", err
	}

	_, err = o.store.UpdateIfGeneration(ctx, job.ID, job.Generation, func(j *models.Job) {
		j.DeckPath = deckPath
		j.SetProgress(models.ProgressSlidesExit)
		j.Message = "Slides assembled"
	})
	if errors.Is(err, interfaces.ErrStaleGeneration) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return deckPath, nil
}

// runQuality executes the quality stage. Scoring is a pure function over
// this run's outputs; no external call, no timeout.
func (o *Orchestrator) runQuality(ctx context.Context, job *models.Job, storyline *models.Storyline, results *models.ResearchResults) (*models.QualityScore, error) {
	if !o.enterStage(ctx, job, models.JobStatusQuality, models.ProgressQualityEnter, "Scoring deck quality...") {
		return nil, nil
	}

	score := o.scorer.Score(storyline, results)

	_, err := o.store.UpdateIfGeneration(ctx, job.ID, job.Generation, func(j *models.Job) {
		j.QualityScore = score
		j.SetProgress(models.ProgressQualityExit)
		j.Message = fmt.Sprintf("Quality score: %d/100", score.OverallScore)
	})
	if errors.Is(err, interfaces.ErrStaleGeneration) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return score, nil
}

// enterStage writes the stage-entry transition. Returns false when the run
// has been superseded and the pipeline should stop.
func (o *Orchestrator) enterStage(ctx context.Context, job *models.Job, status models.JobStatus, progress int, message string) bool {
	_, err := o.store.UpdateIfGeneration(ctx, job.ID, job.Generation, func(j *models.Job) {
		j.Status = status
		j.SetProgress(progress)
		j.Message = message
	})
	if errors.Is(err, interfaces.ErrStaleGeneration) {
		o.logger.Debug().
			Str("job_id", job.ID).
			Str("stage", string(status)).
			Msg("Stage entry discarded: run superseded")
		return false
	}
	if err != nil {
		o.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to write stage entry")
		return false
	}
	return true
}

// failJob writes the terminal failure with a short classified reason. The
// raw collaborator error goes to the log only.
func (o *Orchestrator) failJob(ctx context.Context, jobID string, generation int, stage string, cause error) {
	o.logger.Error().
		Err(cause).
		Str("job_id", jobID).
		Str("stage", stage).
		Msg("Stage failed")

	reason := fmt.Sprintf("%s_failed", stage)
	if errors.Is(cause, context.DeadlineExceeded) {
		reason = fmt.Sprintf("%s_timeout", stage)
	}

	_, err := o.store.UpdateIfGeneration(ctx, jobID, generation, func(j *models.Job) {
		j.MarkFailed(reason)
	})
	if err != nil && !errors.Is(err, interfaces.ErrStaleGeneration) {
		o.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to record job failure")
	}
}
