// Package dispatch provides the bounded work queue behind fire-and-forget
// view-store writes. A fixed worker pool drains the queue; a full queue
// drops new jobs instead of blocking the caller, and every drop and
// failure is logged, keeping backpressure and failure visibility explicit.
package dispatch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

type job struct {
	id   string
	name string
	run  func(context.Context) error
}

// Queue is a bounded job queue drained by a fixed pool of workers.
type Queue struct {
	jobs      chan job
	wg        sync.WaitGroup
	logger    *slog.Logger
	closeOnce sync.Once
}

// New starts a queue with the given worker count and capacity. Values
// below 1 are raised to 1. A nil logger defaults to slog.Default().
func New(workers, depth int, logger *slog.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	if depth < 1 {
		depth = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	q := &Queue{
		jobs:   make(chan job, depth),
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Enqueue submits a job for background execution and returns immediately.
// It reports false when the queue is full, in which case the job is
// dropped and logged. Enqueue must not be called after Close.
func (q *Queue) Enqueue(name string, run func(context.Context) error) bool {
	j := job{id: uuid.New().String(), name: name, run: run}
	select {
	case q.jobs <- j:
		return true
	default:
		q.logger.Warn("dispatch queue full, dropping job",
			"job", j.name,
			"jobID", j.id,
		)
		return false
	}
}

// Close stops accepting jobs, drains the queue, and waits for in-flight
// jobs to finish. It is safe to call more than once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.jobs)
	})
	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for j := range q.jobs {
		if err := j.run(context.Background()); err != nil {
			q.logger.Error("background write failed",
				"job", j.name,
				"jobID", j.id,
				"error", err,
			)
		}
	}
}
