package dedup

import (
	"context"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
)

type Job interface {
	Execute(ctx context.Context) error
}

// WorkerPool runs independent fingerprinting jobs. Fingerprinting is pure
// and CPU-bound, so the pool is sized from the CPU count with a reserve
// for the rest of the process.
type WorkerPool struct {
	workers  int
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewWorkerPool creates a worker pool with CPU-based sizing.
func NewWorkerPool(ctx context.Context) *WorkerPool {
	totalCPU := runtime.NumCPU()
	systemReserve := max(1, totalCPU/4)
	size := max(1, totalCPU-systemReserve)
	log.Info().
		Int("totalCPU", totalCPU).
		Int("systemReserve", systemReserve).
		Int("workers", size).
		Msg("Worker pool initialized")
	poolCtx, cancel := context.WithCancel(ctx)

	pool := &WorkerPool{
		workers:  size,
		jobQueue: make(chan Job, size*2),
		ctx:      poolCtx,
		cancel:   cancel,
	}

	pool.start()

	return pool
}

func (p *WorkerPool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job := <-p.jobQueue:
			if err := job.Execute(p.ctx); err != nil {
				log.Error().Err(err).Msg("Worker failed to execute job")
			}
		}
	}
}

// Submit queues a job; it blocks while the queue is full and fails once
// the pool is shut down.
func (p *WorkerPool) Submit(job Job) error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	case p.jobQueue <- job:
		return nil
	}
}

// Close shuts the pool down and waits for all workers to finish. The job
// queue is never closed; workers exit through context cancellation, which
// keeps a racing Submit from panicking on a closed channel.
func (p *WorkerPool) Close() {
	p.cancel()
	p.wg.Wait()
}

// Size returns the number of workers.
func (p *WorkerPool) Size() int {
	return p.workers
}
