package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of background work, such as rendering a maintenance report.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a single job. A non-nil error triggers a retry.
type Handler func(context.Context, Job) error

// QueueConfig tunes the worker pool.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue dispatches jobs to a fixed pool of goroutine workers. Failed jobs
// are retried in place with a fixed delay up to MaxRetries attempts.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewQueue builds a queue for the given handler. Zero config fields get
// sensible defaults.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
	q.started = true
	q.cfg.Logger.Sugar().Infow("queue started", "queue", q.name, "workers", q.cfg.Workers)
}

// Stop cancels in-flight work and waits for the workers to drain.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.cfg.Logger.Sugar().Infow("queue stopped", "queue", q.name)
}

// Enqueue submits a job. It blocks while the buffer is full and fails once
// the queue is stopped or was never started.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx := q.ctx
	started := q.started
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	}
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.process(job)
		}
	}
}

// process runs the handler, retrying with a fixed delay. Retrying in the
// worker keeps failed jobs from starving fresh ones of buffer space.
func (q *Queue) process(job Job) {
	log := q.cfg.Logger.Sugar()
	for {
		err := q.handler(q.ctx, job)
		if err == nil {
			return
		}
		job.Attempt++
		if job.Attempt > q.cfg.MaxRetries {
			log.Errorw("job exceeded retries",
				"queue", q.name, "job_id", job.ID, "type", job.Type, "error", err)
			return
		}
		log.Warnw("job failed, retrying",
			"queue", q.name, "job_id", job.ID, "type", job.Type, "attempt", job.Attempt, "error", err)

		timer := time.NewTimer(q.cfg.RetryDelay)
		select {
		case <-q.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
