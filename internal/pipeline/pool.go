// -----------------------------------------------------------------------
// Worker Pool - Bounded concurrent job execution
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
)

// admission is one queued run waiting for a worker slot.
type admission struct {
	jobID      string
	generation int
}

// Pool bounds how many jobs execute concurrently. Admitted runs queue on a
// buffered channel; a full queue rejects the admission and the job stays
// queued until the maintenance sweep re-admits it.
type Pool struct {
	orchestrator *Orchestrator
	logger       arbor.ILogger
	workers      int

	admissions chan admission
	wg         sync.WaitGroup
	cancel     context.CancelFunc

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewPool creates the worker pool.
func NewPool(orchestrator *Orchestrator, workers, queueCapacity int, logger arbor.ILogger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueCapacity < workers {
		queueCapacity = workers
	}
	return &Pool{
		orchestrator: orchestrator,
		logger:       logger,
		workers:      workers,
		admissions:   make(chan admission, queueCapacity),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx, i)
	}

	p.logger.Info().
		Int("workers", p.workers).
		Int("queue_capacity", cap(p.admissions)).
		Msg("Worker pool started")
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case adm, ok := <-p.admissions:
			if !ok {
				return
			}
			p.logger.Debug().
				Int("worker", id).
				Str("job_id", adm.jobID).
				Msg("Worker picked up job")
			p.orchestrator.Execute(ctx, adm.jobID, adm.generation)
		}
	}
}

// Admit queues a job run for execution. Returns an error when the pool is
// stopped or the admission queue is full; the job stays queued either way.
// The send happens under the lock so Stop cannot close the channel out from
// under an in-flight admission.
func (p *Pool) Admit(jobID string, generation int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return fmt.Errorf("worker pool is shut down")
	}

	select {
	case p.admissions <- admission{jobID: jobID, generation: generation}:
		return nil
	default:
		return fmt.Errorf("admission queue is full")
	}
}

// Stop rejects new admissions and waits for in-flight jobs to drain.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped || !p.started {
		p.stopped = true
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.admissions)
	p.wg.Wait()
	if p.cancel != nil {
		p.cancel()
	}

	p.logger.Info().Msg("Worker pool stopped")
}
