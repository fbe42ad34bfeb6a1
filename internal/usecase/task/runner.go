// Package task runs analysis jobs on a bounded worker pool. The status
// record in the repository is the only channel back to callers.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/compscope/internal/domain"
	domtask "github.com/kailas-cloud/compscope/internal/domain/task"
	"github.com/kailas-cloud/compscope/internal/metrics"
)

// ErrClosed is returned by Submit after Shutdown.
var ErrClosed = errors.New("task runner closed")

// Defaults.
const (
	DefaultWorkers    = 4
	DefaultQueueSize  = 64
	DefaultJobTimeout = 15 * time.Minute
	statusTimeout     = 5 * time.Second
)

// Job runs one analysis for a business and returns its warnings.
type Job func(ctx context.Context, businessID string) (warnings []string, err error)

// Jobs maps task kinds to their implementations.
type Jobs map[domtask.Kind]Job

// Options configures the worker pool.
type Options struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// Runner accepts tasks and executes them in the background.
type Runner struct {
	repo   Repository
	jobs   Jobs
	opts   Options
	logger *zap.Logger

	queue  chan domtask.Task
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
}

// New creates a runner and starts its workers.
func New(repo Repository, jobs Jobs, opts Options, logger *zap.Logger) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = DefaultJobTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		repo:   repo,
		jobs:   jobs,
		opts:   opts,
		logger: logger,
		queue:  make(chan domtask.Task, opts.QueueSize),
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
	}
	for i := 0; i < opts.Workers; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
	logger.Info("Task workers started", zap.Int("workers", opts.Workers), zap.Int("queue", opts.QueueSize))
	return r
}

// Submit records a pending task and queues it. The returned task carries
// the new ID; a full queue fails fast with domain.ErrRateLimited.
func (r *Runner) Submit(ctx context.Context, kind domtask.Kind, businessID string) (domtask.Task, error) {
	if _, ok := r.jobs[kind]; !ok || !kind.Valid() {
		return domtask.Task{}, domain.NewValidation("kind", fmt.Sprintf("unknown task kind %q", kind))
	}
	if businessID == "" {
		return domtask.Task{}, domain.NewValidation("business_id", "is required")
	}

	now := r.now().UTC()
	t := domtask.Task{
		ID:         uuid.New().String(),
		Kind:       kind,
		BusinessID: businessID,
		Status:     domtask.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.repo.Save(ctx, t); err != nil {
		return domtask.Task{}, fmt.Errorf("save task: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.finish(t, nil, ErrClosed)
		return domtask.Task{}, ErrClosed
	}
	select {
	case r.queue <- t:
		return t, nil
	default:
		err := fmt.Errorf("%w: task queue full", domain.ErrRateLimited)
		r.finish(t, nil, err)
		return domtask.Task{}, err
	}
}

// Get reads the status of a task. Malformed IDs are reported as not found.
func (r *Runner) Get(ctx context.Context, id string) (domtask.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domtask.Task{}, domain.ErrNotFound
	}
	return r.repo.Get(ctx, id)
}

// Shutdown stops accepting tasks and waits for queued and running ones.
// When ctx expires first, running jobs are cancelled and ctx.Err() is returned.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		r.logger.Info("Task workers stopped")
		return nil
	case <-ctx.Done():
		r.cancel()
		r.logger.Warn("Task shutdown timed out, cancelling running jobs", zap.Int("queued", len(r.queue)))
		<-done
		return ctx.Err()
	}
}

func (r *Runner) worker(id int) {
	defer r.wg.Done()
	for t := range r.queue {
		r.run(id, t)
	}
}

func (r *Runner) run(workerID int, t domtask.Task) {
	metrics.TasksInFlight.Inc()
	defer metrics.TasksInFlight.Dec()

	log := r.logger.With(
		zap.Int("worker", workerID),
		zap.String("task_id", t.ID),
		zap.String("kind", string(t.Kind)),
		zap.String("business_id", t.BusinessID),
	)

	t.Status = domtask.StatusRunning
	t.UpdatedAt = r.now().UTC()
	r.save(t, log)

	start := time.Now()
	ctx, cancel := context.WithTimeout(r.ctx, r.opts.JobTimeout)
	warnings, err := r.call(ctx, t)
	cancel()

	t = r.finish(t, warnings, err)
	if err != nil {
		log.Error("Task failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return
	}
	log.Info("Task succeeded", zap.Duration("duration", time.Since(start)), zap.Int("warnings", len(t.Warnings)))
}

// call runs the job, turning a panic into a failure.
func (r *Runner) call(ctx context.Context, t domtask.Task) (warnings []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return r.jobs[t.Kind](ctx, t.BusinessID)
}

// finish writes the terminal status and counts it.
func (r *Runner) finish(t domtask.Task, warnings []string, err error) domtask.Task {
	t.Warnings = warnings
	t.Status = domtask.StatusSucceeded
	if err != nil {
		t.Status = domtask.StatusFailed
		t.Message = err.Error()
	}
	t.UpdatedAt = r.now().UTC()
	r.save(t, r.logger)
	metrics.TasksTotal.WithLabelValues(string(t.Kind), string(t.Status)).Inc()
	return t
}

// save persists status outside the job context so cancelled jobs still report.
func (r *Runner) save(t domtask.Task, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()
	if err := r.repo.Save(ctx, t); err != nil {
		log.Error("Failed to save task status", zap.String("status", string(t.Status)), zap.Error(err))
	}
}
