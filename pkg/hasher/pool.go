package hasher

import (
	"context"
	"errors"
	"sync"
)

var ErrPoolStopped = errors.New("hasher pool is stopped")

type result struct {
	token string
	ok    bool
	err   error
}

// Pool runs hash and verify jobs on a fixed set of worker goroutines. Each
// caller waits only for its own job.
type Pool struct {
	cost    int
	workers int

	jobs chan func()
	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewPool starts workers goroutines hashing at the given cost.
func NewPool(cost, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	p := &Pool{
		cost:    cost,
		workers: workers,
		jobs:    make(chan func(), workers*4),
		quit:    make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

func (p *Pool) Cost() int {
	return p.cost
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobs:
			job()
		case <-p.quit:
			// finish whatever was queued before Stop
			for {
				select {
				case job := <-p.jobs:
					job()
				default:
					return
				}
			}
		}
	}
}

func (p *Pool) submit(ctx context.Context, job func(chan<- result)) (result, error) {
	out := make(chan result, 1)

	select {
	case <-p.quit:
		return result{}, ErrPoolStopped
	default:
	}

	select {
	case p.jobs <- func() { job(out) }:
	case <-ctx.Done():
		return result{}, ctx.Err()
	case <-p.quit:
		return result{}, ErrPoolStopped
	}

	select {
	case r := <-out:
		return r, nil
	case <-ctx.Done():
		return result{}, ctx.Err()
	case <-p.quit:
		// the job may still have run during the drain
		select {
		case r := <-out:
			return r, nil
		default:
			return result{}, ErrPoolStopped
		}
	}
}

// Hash hashes password on a worker at the pool's cost.
func (p *Pool) Hash(ctx context.Context, password string) (string, error) {
	r, err := p.submit(ctx, func(out chan<- result) {
		token, err := Hash(password, p.cost)
		out <- result{token: token, err: err}
	})
	if err != nil {
		return "", err
	}
	return r.token, r.err
}

// Verify compares password against token on a worker.
func (p *Pool) Verify(ctx context.Context, password, token string) (bool, error) {
	r, err := p.submit(ctx, func(out chan<- result) {
		out <- result{ok: Verify(password, token)}
	})
	if err != nil {
		return false, err
	}
	return r.ok, nil
}

// Stop drains queued jobs and waits for the workers to exit. It is safe to
// call more than once.
func (p *Pool) Stop() {
	p.once.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
}
