package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Goofygiraffe06/janseva/internal/logging"
)

// Task is one unit of work. ctx carries the pool's per-task deadline.
type Task func(ctx context.Context)

var (
	// ErrPoolClosed is returned when submitting to a closed pool.
	ErrPoolClosed = errors.New("worker pool closed")
	// ErrQueueFull is returned when the queue has no room; the task is dropped.
	ErrQueueFull = errors.New("worker pool queue full")
)

const (
	defaultTaskTimeout     = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Pool runs submitted tasks on a fixed number of goroutines.
type Pool struct {
	name        string
	size        int
	taskTimeout time.Duration

	mu     sync.RWMutex
	queue  chan Task
	closed bool
	wg     sync.WaitGroup
}

type Option func(*Pool)

// WithTaskTimeout bounds how long a single task may run.
func WithTaskTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.taskTimeout = d
		}
	}
}

// New starts size workers sharing a queue of queueCap tasks.
func New(name string, size, queueCap int, opts ...Option) *Pool {
	if size <= 0 {
		size = 1
	}
	if queueCap <= 0 {
		queueCap = 1
	}
	p := &Pool{
		name:        name,
		size:        size,
		taskTimeout: defaultTaskTimeout,
		queue:       make(chan Task, queueCap),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.start()
	return p
}

func (p *Pool) Name() string { return p.name }

func (p *Pool) start() {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for task := range p.queue {
				p.run(id, task)
			}
		}(i)
	}
}

func (p *Pool) run(id int, task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), p.taskTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorLog("workerpool '%s' worker %d recovered from panic: %v", p.name, id, r)
		}
	}()
	task(ctx)
}

// Submit enqueues task without waiting for it to run.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.queue <- task:
		return nil
	default:
		logging.WarnLog("workerpool '%s' queue full; dropping task", p.name)
		return ErrQueueFull
	}
}

// Do runs fn on the pool and waits for it. fn sees a context that is done when
// either ctx or the pool's task deadline is. If ctx ends first Do returns
// ctx.Err() and fn's result is discarded.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	result := make(chan error, 1)
	err := p.Submit(func(taskCtx context.Context) {
		runCtx, cancel := context.WithCancel(taskCtx)
		defer cancel()
		stop := context.AfterFunc(ctx, cancel)
		defer stop()

		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("workerpool '%s': task panicked: %v", p.name, r)
			}
		}()
		result <- fn(runCtx)
	})
	if err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work and waits a bounded time for queued tasks.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(defaultShutdownTimeout):
		logging.WarnLog("workerpool '%s' shutdown timed out", p.name)
	}
}
