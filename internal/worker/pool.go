package worker

import (
	"context"
	"sync"

	"github.com/ilee165/network-device-backup/internal/log"
)

// Pool runs device backup jobs with bounded parallelism. Jobs are
// independent; the pool imposes no ordering between them.
type Pool struct {
	maxWorkers int
	jobs       chan Job
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

// Job is one unit of work, typically a single device's backup task.
type Job struct {
	Name string
	Run  func(ctx context.Context)
}

// NewPool creates a pool with the given number of workers. queue sizes
// the submission buffer; Submit blocks once it is full.
func NewPool(maxWorkers, queue int) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		maxWorkers: maxWorkers,
		jobs:       make(chan Job, queue),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	log.Debug("Worker pool started", "workers", p.maxWorkers)
}

// Submit queues a job. It fails only when the pool has been aborted.
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Drain stops accepting work, waits for queued jobs to finish, then
// releases the workers. In-flight jobs always run to completion.
func (p *Pool) Drain() {
	close(p.jobs)
	p.wg.Wait()
	p.cancel()
}

// Abort stops submission immediately. Queued jobs that have not been
// picked up are discarded; running jobs finish naturally.
func (p *Pool) Abort() {
	p.cancel()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			log.Debug("Worker executing job", "worker_id", id, "job", job.Name)
			job.Run(p.ctx)
		}
	}
}
