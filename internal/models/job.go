// -----------------------------------------------------------------------
// Job - Presentation generation job and its lifecycle state
// -----------------------------------------------------------------------

package models

import (
	"fmt"
	"time"
)

// JobStatus represents the lifecycle state of a generation job.
type JobStatus string

const (
	JobStatusQueued      JobStatus = "queued"
	JobStatusStoryline   JobStatus = "storyline"
	JobStatusResearching JobStatus = "researching"
	JobStatusSlides      JobStatus = "slides"
	JobStatusQuality     JobStatus = "quality"
	JobStatusCompleted   JobStatus = "completed"
	JobStatusFailed      JobStatus = "failed"
)

// IsTerminal returns true for states a job never leaves within a run.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// DeckLength controls slide, hypothesis and source-count targets.
type DeckLength string

const (
	DeckLengthShort  DeckLength = "short"
	DeckLengthMedium DeckLength = "medium"
	DeckLengthLong   DeckLength = "long"
)

// LengthConfig holds the per-length pipeline targets.
type LengthConfig struct {
	MinHypotheses int
	MaxHypotheses int
	TargetSources int // target kept-evidence count per hypothesis
}

// LengthConfigFor returns the targets for a deck length.
// Unknown lengths fall back to medium.
func LengthConfigFor(length DeckLength) LengthConfig {
	switch length {
	case DeckLengthShort:
		return LengthConfig{MinHypotheses: 2, MaxHypotheses: 3, TargetSources: 2}
	case DeckLengthLong:
		return LengthConfig{MinHypotheses: 5, MaxHypotheses: 8, TargetSources: 6}
	default:
		return LengthConfig{MinHypotheses: 3, MaxHypotheses: 5, TargetSources: 4}
	}
}

// Progress marks per stage. Values must be monotonic across the pipeline;
// the orchestrator never writes a lower value than the job already carries.
const (
	ProgressQueued          = 0
	ProgressStorylineEnter  = 5
	ProgressStorylineExit   = 25
	ProgressResearchEnter   = 30
	ProgressResearchExit    = 55
	ProgressSlidesEnter     = 60
	ProgressSlidesExit      = 80
	ProgressQualityEnter    = 85
	ProgressQualityExit     = 95
	ProgressCompleted       = 100
)

// Job is the unit of work for the generation pipeline. It is owned by the
// job store and mutated only through store updates issued by the
// orchestrator and the retry/create handlers.
type Job struct {
	ID     string     `json:"id" badgerhold:"key"`
	Topic  string     `json:"topic"`
	Length DeckLength `json:"length"`

	Status   JobStatus `json:"status"`
	Progress int       `json:"progress"`
	Message  string    `json:"message"`
	Error    string    `json:"error,omitempty"`

	// Generation distinguishes successive runs of the same job id. A retry
	// bumps it; stage completions from an older generation are discarded.
	Generation int `json:"generation"`

	// Provider ids recorded at creation so a retry reuses the same stack.
	StructureProvider string `json:"structure_provider,omitempty"`
	SearchProvider    string `json:"search_provider,omitempty"`
	TemplateID        string `json:"template_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// RunStartedAt marks when the current run began. Creation and retry both
	// set it; the maintenance sweep ages runs against this, not CreatedAt.
	RunStartedAt time.Time  `json:"run_started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	// Stage outputs, populated only after the producing stage completes.
	Storyline    *Storyline       `json:"storyline,omitempty"`
	Research     *ResearchResults `json:"research,omitempty"`
	QualityScore *QualityScore    `json:"quality_score,omitempty"`

	// Path of the rendered deck on the local filesystem.
	DeckPath string `json:"deck_path,omitempty"`
}

// Validate checks the structural invariants of a job record.
func (j *Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job ID is required")
	}
	if j.Topic == "" {
		return fmt.Errorf("job topic is required")
	}
	switch j.Length {
	case DeckLengthShort, DeckLengthMedium, DeckLengthLong:
	default:
		return fmt.Errorf("invalid deck length: %s", j.Length)
	}
	if j.Progress < 0 || j.Progress > 100 {
		return fmt.Errorf("job progress out of range: %d", j.Progress)
	}
	// completed_at is set if and only if the job is terminal
	if j.Status.IsTerminal() != (j.CompletedAt != nil) {
		return fmt.Errorf("completed_at inconsistent with status %s", j.Status)
	}
	return nil
}

// SetProgress raises the job progress to p. Progress is monotonic within a
// run; a lower value is ignored rather than clamped silently elsewhere.
func (j *Job) SetProgress(p int) {
	if p > j.Progress {
		j.Progress = p
	}
}

// MarkCompleted transitions the job to its terminal success state.
func (j *Job) MarkCompleted(message string) {
	j.Status = JobStatusCompleted
	j.Progress = ProgressCompleted
	j.Message = message
	j.Error = ""
	now := time.Now()
	j.CompletedAt = &now
}

// MarkFailed transitions the job to its terminal failure state with a short
// classified reason. Raw collaborator detail belongs in the log, not here.
func (j *Job) MarkFailed(reason string) {
	j.Status = JobStatusFailed
	j.Error = reason
	j.Message = "Failed: " + reason
	now := time.Now()
	j.CompletedAt = &now
}

// ResetForRetry prepares a failed job for a fresh run. Prior stage outputs
// are discarded, the id and inputs are preserved, and the run generation is
// bumped so lingering executions of the old run cannot write state.
func (j *Job) ResetForRetry() {
	j.Status = JobStatusQueued
	j.Progress = ProgressQueued
	j.Message = "Job queued (retry)"
	j.Error = ""
	j.CompletedAt = nil
	j.Storyline = nil
	j.Research = nil
	j.QualityScore = nil
	j.DeckPath = ""
	j.RunStartedAt = time.Now()
	j.Generation++
}

// RunStarted returns when the current run began, falling back to the
// creation time for records written before retries stamped runs.
func (j *Job) RunStarted() time.Time {
	if j.RunStartedAt.IsZero() {
		return j.CreatedAt
	}
	return j.RunStartedAt
}

// JobSummary is the list-endpoint projection of a job.
type JobSummary struct {
	ID                  string     `json:"id"`
	Topic               string     `json:"topic"`
	Length              DeckLength `json:"length"`
	Status              JobStatus  `json:"status"`
	Progress            int        `json:"progress"`
	QualityScoreOverall *int       `json:"quality_score_overall,omitempty"`
	Error               string     `json:"error,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
}

// Summary builds the list projection for this job.
func (j *Job) Summary() JobSummary {
	s := JobSummary{
		ID:          j.ID,
		Topic:       j.Topic,
		Length:      j.Length,
		Status:      j.Status,
		Progress:    j.Progress,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		CompletedAt: j.CompletedAt,
	}
	if j.QualityScore != nil {
		overall := j.QualityScore.OverallScore
		s.QualityScoreOverall = &overall
	}
	return s
}
