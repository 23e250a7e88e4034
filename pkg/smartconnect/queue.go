package smartconnect

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/time/rate"
)

// QueueRate is the broker's request ceiling: 3 requests per second.
const QueueRate = 3

// Queue is the single-lane FIFO command queue every broker call flows
// through. One worker drains jobs in submission order under a 3 req/s
// limiter; a job failing with ErrSessionExpired triggers exactly one
// session renewal and one retry before the error is surfaced.
type Queue struct {
	limiter *rate.Limiter
	jobs    chan queueJob
	renew   func() error
	done    chan struct{}
}

type queueJob struct {
	ctx    context.Context
	fn     func() error
	result chan error
}

// NewQueue creates a queue whose worker renews the session with renew on
// expiry errors. Call Run to start the worker.
func NewQueue(renew func() error) *Queue {
	return &Queue{
		limiter: rate.NewLimiter(rate.Limit(QueueRate), 1),
		jobs:    make(chan queueJob, 64),
		renew:   renew,
		done:    make(chan struct{}),
	}
}

// Run drains the queue until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			job.result <- q.execute(job.ctx, job.fn)
		}
	}
}

// Depth returns the number of queued jobs not yet started.
func (q *Queue) Depth() int { return len(q.jobs) }

// Do submits fn and blocks until it has run (or ctx is cancelled while
// still queued). Jobs execute strictly in submission order.
func (q *Queue) Do(ctx context.Context, fn func() error) error {
	job := queueJob{ctx: ctx, fn: fn, result: make(chan error, 1)}
	select {
	case q.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return fmt.Errorf("smartconnect: queue stopped")
	}
	select {
	case err := <-job.result:
		return err
	case <-q.done:
		return fmt.Errorf("smartconnect: queue stopped")
	}
}

func (q *Queue) execute(ctx context.Context, fn func() error) error {
	if err := q.limiter.Wait(ctx); err != nil {
		return err
	}
	err := fn()
	if err == nil || !errors.Is(err, ErrSessionExpired) {
		return err
	}

	// One renewal, one retry. A second expiry is surfaced to the caller.
	log.Printf("[queue] session expired mid-command, renewing: %v", err)
	if rerr := q.renew(); rerr != nil {
		return fmt.Errorf("smartconnect: session renewal failed: %w", rerr)
	}
	if werr := q.limiter.Wait(ctx); werr != nil {
		return werr
	}
	return fn()
}
