package runner

import (
	"context"
	"sync"
)

// WorkerPool runs a fixed number of workers over a buffered job queue and
// collects their results.
type WorkerPool[Job any, Result any] struct {
	numWorkers int
	jobs       chan Job
	results    chan Result
	wg         sync.WaitGroup
}

// NewWorkerPool creates a pool with numWorkers workers and room for numJobs
// queued jobs. If numWorkers is 0 or negative, one worker is used. If
// numJobs is smaller than numWorkers, the pool is sized to match numJobs.
func NewWorkerPool[Job any, Result any](numWorkers, numJobs int) *WorkerPool[Job, Result] {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if numJobs > 0 {
		numWorkers = min(numWorkers, numJobs)
	}

	return &WorkerPool[Job, Result]{
		numWorkers: numWorkers,
		jobs:       make(chan Job, numJobs),
		results:    make(chan Result, numJobs),
	}
}

// Start launches the workers. workerFn is called once per job with ctx and
// must itself decide what to do when ctx is done; every job yields a result
// so the caller can account for it.
func (p *WorkerPool[Job, Result]) Start(ctx context.Context, workerFn func(context.Context, Job) Result) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.results <- workerFn(ctx, job)
			}
		}()
	}
}

// Submit queues a job. It blocks only when the queue is full.
func (p *WorkerPool[Job, Result]) Submit(job Job) {
	p.jobs <- job
}

// Close closes the job queue. The results channel is closed once every
// worker has finished.
func (p *WorkerPool[Job, Result]) Close() {
	close(p.jobs)
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

// Results returns the results channel.
func (p *WorkerPool[Job, Result]) Results() <-chan Result {
	return p.results
}

// Size returns the number of workers.
func (p *WorkerPool[Job, Result]) Size() int {
	return p.numWorkers
}
