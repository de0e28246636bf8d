// Package queue implements a small in-process work queue with per-task
// result handles. Tasks run on a fixed worker pool detached from the
// submitting request: a caller that gives up waiting does not cancel the
// task, which may still complete and publish its result afterwards.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/memahdii/social-network/internal/logging"
)

// ErrQueueClosed is returned by Submit after Close.
var ErrQueueClosed = errors.New("queue closed")

// Task is a unit of work executed by the pool.
type Task func(ctx context.Context) (any, error)

// Result is the handle a submitter blocks on until the task settles.
type Result struct {
	done  chan struct{}
	value any
	err   error
}

func newResult() *Result {
	return &Result{done: make(chan struct{})}
}

func (r *Result) settle(value any, err error) {
	r.value = value
	r.err = err
	close(r.done)
}

// Wait blocks until the task settles or ctx is done. On ctx expiry the
// task keeps running; only the wait is abandoned.
func (r *Result) Wait(ctx context.Context) (any, error) {
	select {
	case <-r.done:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type submission struct {
	id   string
	task Task
	res  *Result
}

// Queue runs submitted tasks on a fixed number of workers.
type Queue struct {
	tasks  chan submission
	logger logging.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New starts a queue with the given number of workers. workers below 1 is
// clamped to 1.
func New(workers int, logger logging.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &Queue{
		tasks:  make(chan submission),
		logger: logger.With("module", "queue"),
		cancel: cancel,
	}

	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.worker(ctx)
	}

	return q
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-q.tasks:
			if !ok {
				return
			}
			value, err := s.task(ctx)
			if err != nil {
				q.logger.Warn(ctx, "task failed", "task_id", s.id, "error", err.Error())
			}
			s.res.settle(value, err)
		}
	}
}

// Submit enqueues a task and returns its result handle. Blocks until a
// worker accepts the task or ctx is done.
func (q *Queue) Submit(ctx context.Context, task Task) (*Result, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrQueueClosed
	}
	q.mu.Unlock()

	s := submission{id: uuid.NewString(), task: task, res: newResult()}

	select {
	case q.tasks <- s:
		return s.res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the workers and waits for in-flight tasks to settle. Submit
// fails with ErrQueueClosed afterwards.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
}
