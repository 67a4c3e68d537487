package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

type ProcessFunc[T any] func(ctx context.Context, job T) error

// Pool runs jobs of one type on a fixed set of goroutines.
type Pool[T any] struct {
	name       string
	numWorkers int
	jobs       chan T
	processor  ProcessFunc[T]
	wg         sync.WaitGroup
	failed     atomic.Int64
}

func NewPool[T any](name string, numWorkers, bufferSize int, processor ProcessFunc[T]) *Pool[T] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Pool[T]{
		name:       name,
		numWorkers: numWorkers,
		jobs:       make(chan T, bufferSize),
		processor:  processor,
	}
}

func (p *Pool[T]) Start(ctx context.Context) {
	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool[T]) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			if err := p.processor(ctx, job); err != nil {
				p.failed.Add(1)
				slog.Warn("job failed", "pool", p.name, "worker", id, "error", err)
			}
		}
	}
}

// Submit queues job, blocking while the buffer is full. It returns the
// context error if ctx is cancelled first.
func (p *Pool[T]) Submit(ctx context.Context, job T) error {
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Failed reports how many jobs returned an error.
func (p *Pool[T]) Failed() int64 {
	return p.failed.Load()
}

// Stop closes the queue and waits for the workers to drain it.
func (p *Pool[T]) Stop() {
	close(p.jobs)
	p.wg.Wait()
}
