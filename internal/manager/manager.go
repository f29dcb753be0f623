package manager

import (
	"context"
	"time"

	"github.com/Goofygiraffe06/janseva/internal/config"
	"github.com/Goofygiraffe06/janseva/internal/workerpool"
)

// WorkManager keeps bcrypt and outbound mail off the HTTP goroutines, each on
// its own pool so a slow relay cannot starve password checks.
type WorkManager struct {
	hash *workerpool.Pool
	mail *workerpool.Pool
}

// Option configures the WorkManager.
type Option func(*options)

type options struct {
	hashWorkers int
	mailWorkers int
	queueSize   int
	mailTimeout time.Duration
}

// WithHashWorkers sets the password hashing worker count.
func WithHashWorkers(n int) Option { return func(o *options) { o.hashWorkers = n } }

// WithMailWorkers sets the mail dispatch worker count.
func WithMailWorkers(n int) Option { return func(o *options) { o.mailWorkers = n } }

// WithQueueSize sets the queue size of each pool.
func WithQueueSize(n int) Option { return func(o *options) { o.queueSize = n } }

// WithMailTimeout bounds a single mail dispatch.
func WithMailTimeout(d time.Duration) Option { return func(o *options) { o.mailTimeout = d } }

// NewWorkManager constructs the manager with the given options (or defaults from config).
func NewWorkManager(opts ...Option) *WorkManager {
	o := &options{
		hashWorkers: config.HashWorkerCount(),
		mailWorkers: config.MailWorkerCount(),
		queueSize:   config.WorkerQueueSize(),
		mailTimeout: 20 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return &WorkManager{
		hash: workerpool.New("hash", o.hashWorkers, o.queueSize, workerpool.WithTaskTimeout(10*time.Second)),
		mail: workerpool.New("mail", o.mailWorkers, o.queueSize, workerpool.WithTaskTimeout(o.mailTimeout)),
	}
}

// Close shuts down all pools.
func (m *WorkManager) Close() {
	if m == nil {
		return
	}
	m.hash.Close()
	m.mail.Close()
}

// RunHash runs fn on the hash pool and waits for its result.
func (m *WorkManager) RunHash(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.hash.Do(ctx, fn)
}

// SubmitMail schedules a mail dispatch and returns without waiting.
func (m *WorkManager) SubmitMail(fn func(ctx context.Context)) error {
	return m.mail.Submit(fn)
}

// RunWithTimeout runs a function respecting a deadline and returns whether it completed.
func RunWithTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context)) bool {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	done := make(chan struct{})
	go func() { fn(ctx); close(done) }()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
