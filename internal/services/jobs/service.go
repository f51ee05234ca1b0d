// -----------------------------------------------------------------------
// Job Service - Atomic job state over Badger with snapshot fan-out
// -----------------------------------------------------------------------

package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
	storage "github.com/ternarybob/suadeo/internal/storage/badger"
)

// subscriberBuffer bounds each subscription channel. A slow consumer loses
// intermediate snapshots, never the latest one.
const subscriberBuffer = 16

type subscriber struct {
	ch   chan models.Job
	done <-chan struct{}
}

// jobLock is a per-id mutex with a reference count so entries can be pruned
// once no operation holds or waits on them.
type jobLock struct {
	sync.Mutex
	refs int
}

// Service implements interfaces.JobStore over Badger job storage. Every
// mutation for a job id runs under that id's lock, so read-modify-write
// updates are atomic and snapshot fan-out preserves write order. Updates
// for distinct ids proceed concurrently.
type Service struct {
	storage *storage.JobStorage
	events  interfaces.EventService
	logger  arbor.ILogger

	mu    sync.Mutex
	locks map[string]*jobLock
	subs  map[string][]*subscriber
}

// NewService creates the job service.
func NewService(jobStorage *storage.JobStorage, events interfaces.EventService, logger arbor.ILogger) *Service {
	return &Service{
		storage: jobStorage,
		events:  events,
		logger:  logger,
		locks:   make(map[string]*jobLock),
		subs:    make(map[string][]*subscriber),
	}
}

// Compile-time interface check
var _ interfaces.JobStore = (*Service)(nil)

// acquireLock takes the mutex guarding a job id, creating it on first use.
// Each acquire must be paired with releaseLock, which prunes the entry once
// nothing holds or waits on it, so the map stays bounded by in-flight work.
func (s *Service) acquireLock(id string) *jobLock {
	s.mu.Lock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &jobLock{}
		s.locks[id] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.Lock()
	return lock
}

// releaseLock unlocks a job lock and drops the map entry when unused.
func (s *Service) releaseLock(id string, lock *jobLock) {
	lock.Unlock()

	s.mu.Lock()
	lock.refs--
	if lock.refs <= 0 {
		delete(s.locks, id)
	}
	s.mu.Unlock()
}

// Create persists a new job and notifies listeners.
func (s *Service) Create(ctx context.Context, job *models.Job) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}

	lock := s.acquireLock(job.ID)
	defer s.releaseLock(job.ID, lock)

	if _, err := s.storage.GetJob(ctx, job.ID); err == nil {
		return fmt.Errorf("job already exists: %s", job.ID)
	}

	if job.RunStartedAt.IsZero() {
		job.RunStartedAt = job.CreatedAt
	}

	if err := s.storage.SaveJob(ctx, job); err != nil {
		return err
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Str("topic", job.Topic).
		Str("length", string(job.Length)).
		Msg("Job created")

	s.publish(*job)
	s.events.Publish(ctx, interfaces.Event{Type: interfaces.EventJobCreated, Payload: job.Summary()})

	return nil
}

// Get returns the stored job.
func (s *Service) Get(ctx context.Context, id string) (*models.Job, error) {
	return s.storage.GetJob(ctx, id)
}

// Update applies fn atomically and fans out the resulting snapshot.
func (s *Service) Update(ctx context.Context, id string, fn interfaces.JobUpdate) (*models.Job, error) {
	return s.update(ctx, id, -1, fn)
}

// UpdateIfGeneration applies fn only while the stored job still carries the
// given run generation. A superseded run gets ErrStaleGeneration and its
// write is discarded.
func (s *Service) UpdateIfGeneration(ctx context.Context, id string, generation int, fn interfaces.JobUpdate) (*models.Job, error) {
	return s.update(ctx, id, generation, fn)
}

func (s *Service) update(ctx context.Context, id string, generation int, fn interfaces.JobUpdate) (*models.Job, error) {
	lock := s.acquireLock(id)
	defer s.releaseLock(id, lock)

	job, err := s.storage.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	if generation >= 0 && job.Generation != generation {
		s.logger.Debug().
			Str("job_id", id).
			Int("write_generation", generation).
			Int("current_generation", job.Generation).
			Msg("Discarding stale job update")
		return nil, interfaces.ErrStaleGeneration
	}

	// A terminal record never reopens within a run. Only a retry leaves a
	// terminal state, and it goes through Update with a generation bump.
	if generation >= 0 && job.Status.IsTerminal() {
		s.logger.Debug().
			Str("job_id", id).
			Str("status", string(job.Status)).
			Msg("Discarding run update against terminal job")
		return nil, interfaces.ErrStaleGeneration
	}

	prevGeneration := job.Generation
	fn(job)

	if err := s.storage.SaveJob(ctx, job); err != nil {
		return nil, err
	}

	s.publish(*job)
	s.notifyLifecycle(ctx, job, prevGeneration)

	return job, nil
}

// notifyLifecycle publishes the bus event matching the new job state.
func (s *Service) notifyLifecycle(ctx context.Context, job *models.Job, prevGeneration int) {
	if job.Generation > prevGeneration {
		s.events.Publish(ctx, interfaces.Event{Type: interfaces.EventJobRetried, Payload: job.Summary()})
		return
	}
	switch job.Status {
	case models.JobStatusCompleted:
		s.events.Publish(ctx, interfaces.Event{Type: interfaces.EventJobCompleted, Payload: job.Summary()})
	case models.JobStatusFailed:
		s.events.Publish(ctx, interfaces.Event{Type: interfaces.EventJobFailed, Payload: job.Summary()})
	default:
		s.events.Publish(ctx, interfaces.Event{Type: interfaces.EventJobUpdated, Payload: job.Summary()})
	}
}

// List returns one page of job summaries, newest first.
func (s *Service) List(ctx context.Context, page, perPage int) (*interfaces.JobList, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	total, err := s.storage.CountJobs(ctx)
	if err != nil {
		return nil, err
	}

	jobs, err := s.storage.ListJobs(ctx, page, perPage)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.JobSummary, len(jobs))
	for i, job := range jobs {
		summaries[i] = job.Summary()
	}

	return &interfaces.JobList{
		Jobs:    summaries,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

// Subscribe returns a snapshot channel for the job. The current snapshot is
// delivered first; the channel closes after a terminal snapshot or when the
// context ends.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan models.Job, error) {
	lock := s.acquireLock(id)
	defer s.releaseLock(id, lock)

	job, err := s.storage.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	sub := &subscriber{
		ch:   make(chan models.Job, subscriberBuffer),
		done: ctx.Done(),
	}
	sub.ch <- *job

	if job.Status.IsTerminal() {
		// Terminal already: deliver the one snapshot and close.
		close(sub.ch)
		return sub.ch, nil
	}

	s.mu.Lock()
	s.subs[id] = append(s.subs[id], sub)
	s.mu.Unlock()

	// Detach the subscriber when the caller's context ends.
	go func() {
		<-ctx.Done()
		s.removeSubscriber(id, sub)
	}()

	return sub.ch, nil
}

// publish fans a snapshot out to the job's subscribers. Called under the
// job's lock, so snapshots arrive in write order. A full channel drops its
// oldest snapshot to make room; the latest state always lands.
func (s *Service) publish(snapshot models.Job) {
	s.mu.Lock()
	subs := s.subs[snapshot.ID]

	for _, sub := range subs {
		select {
		case sub.ch <- snapshot:
		default:
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- snapshot
		}
	}

	if snapshot.Status.IsTerminal() {
		for _, sub := range subs {
			close(sub.ch)
		}
		delete(s.subs, snapshot.ID)
	}
	s.mu.Unlock()
}

// removeSubscriber drops a detached subscriber and closes its channel.
func (s *Service) removeSubscriber(id string, target *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.subs[id]
	for i, sub := range subs {
		if sub == target {
			s.subs[id] = append(subs[:i], subs[i+1:]...)
			close(sub.ch)
			break
		}
	}
	if len(s.subs[id]) == 0 {
		delete(s.subs, id)
	}
}

// Close releases the underlying storage and open subscriptions.
func (s *Service) Close() error {
	s.mu.Lock()
	for id, subs := range s.subs {
		for _, sub := range subs {
			close(sub.ch)
		}
		delete(s.subs, id)
	}
	s.mu.Unlock()
	return nil
}
