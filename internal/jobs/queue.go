// Package jobs runs fire-and-forget background work on a bounded worker pool.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/observability/metrics"

	"github.com/google/uuid"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Config struct {
	Workers   int
	QueueSize int
	// Timeout bounds each job run. Zero means 30s.
	Timeout time.Duration
}

type envelope struct {
	id  string
	job Job
}

type Queue struct {
	cfg  Config
	ch   chan envelope
	log  *slog.Logger
	wg   sync.WaitGroup
	mu   sync.RWMutex
	done bool
}

// New starts cfg.Workers workers reading from a buffered queue.
func New(cfg Config, log *slog.Logger) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	q := &Queue{cfg: cfg, ch: make(chan envelope, cfg.QueueSize), log: log}
	for i := 0; i < cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Enqueue never blocks. It returns false when the queue is full or stopped.
func (q *Queue) Enqueue(job Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.done {
		q.log.Warn("job dropped, queue stopped", "job", job.Name())
		metrics.JobsDroppedTotal.Inc()
		return false
	}
	env := envelope{id: uuid.NewString(), job: job}
	select {
	case q.ch <- env:
		q.log.Debug("job enqueued", "job", job.Name(), "job_id", env.id)
		return true
	default:
		q.log.Warn("job dropped, queue full", "job", job.Name(), "job_id", env.id)
		metrics.JobsDroppedTotal.Inc()
		return false
	}
}

// Stop refuses new jobs and waits for queued ones to finish or ctx to end.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.done {
		q.done = true
		close(q.ch)
	}
	q.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop job queue: %w", ctx.Err())
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for env := range q.ch {
		q.run(env)
	}
}

func (q *Queue) run(env envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), q.cfg.Timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("job panicked", "job", env.job.Name(), "job_id", env.id, "panic", r)
		}
	}()

	start := time.Now()
	if err := env.job.Run(ctx); err != nil {
		q.log.Warn("job failed", "job", env.job.Name(), "job_id", env.id, "err", err)
		return
	}
	q.log.Debug("job finished", "job", env.job.Name(), "job_id", env.id, "duration_ms", time.Since(start).Milliseconds())
}
