package authflow_test

import (
	"context"
	"sync"
	"time"

	"github.com/Goofygiraffe06/janseva/internal/authflow"
	"github.com/Goofygiraffe06/janseva/internal/guard"
	"github.com/Goofygiraffe06/janseva/internal/models"
	"github.com/Goofygiraffe06/janseva/internal/session"
)

type fakeRemote struct {
	mu        sync.Mutex
	registers []models.RegisterRequest
	verifies  []models.VerifyOTPRequest
	logins    []models.LoginRequest

	registerErr error
	verifyErr   error
	loginErr    error
	token       string

	// gate, when set, blocks every call until it is closed; entered receives
	// one value per call that reached the remote.
	gate    chan struct{}
	entered chan struct{}
}

func (r *fakeRemote) wait(ctx context.Context) error {
	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.gate == nil {
		return nil
	}
	select {
	case <-r.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *fakeRemote) Register(ctx context.Context, req models.RegisterRequest) (models.MessageResponse, error) {
	r.mu.Lock()
	r.registers = append(r.registers, req)
	r.mu.Unlock()
	if err := r.wait(ctx); err != nil {
		return models.MessageResponse{}, err
	}
	return models.MessageResponse{Message: "otp sent"}, r.registerErr
}

func (r *fakeRemote) VerifyOTP(ctx context.Context, req models.VerifyOTPRequest) (models.MessageResponse, error) {
	r.mu.Lock()
	r.verifies = append(r.verifies, req)
	r.mu.Unlock()
	if err := r.wait(ctx); err != nil {
		return models.MessageResponse{}, err
	}
	return models.MessageResponse{Message: "verified"}, r.verifyErr
}

func (r *fakeRemote) Login(ctx context.Context, req models.LoginRequest) (models.TokenResponse, error) {
	r.mu.Lock()
	r.logins = append(r.logins, req)
	r.mu.Unlock()
	if err := r.wait(ctx); err != nil {
		return models.TokenResponse{}, err
	}
	if r.loginErr != nil {
		return models.TokenResponse{}, r.loginErr
	}
	return models.TokenResponse{Token: r.token}, nil
}

func (r *fakeRemote) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.registers) + len(r.verifies) + len(r.logins)
}

// slowStore holds every Save until release is closed, then stores the token
// whatever the context says.
type slowStore struct {
	*session.MemoryStore
	saving  chan struct{}
	release chan struct{}
}

func newSlowStore() *slowStore {
	return &slowStore{
		MemoryStore: session.NewMemoryStore(),
		saving:      make(chan struct{}, 1),
		release:     make(chan struct{}),
	}
}

func (s *slowStore) Save(ctx context.Context, token string) error {
	s.saving <- struct{}{}
	<-s.release
	return s.MemoryStore.Save(context.Background(), token)
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// manualClock only fires timers when told to.
type manualClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *manualClock) AfterFunc(d time.Duration, fn func()) authflow.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{delay: d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) fire() int {
	c.mu.Lock()
	timers := c.timers
	c.timers = nil
	c.mu.Unlock()

	fired := 0
	for _, t := range timers {
		if !t.stopped {
			t.stopped = true
			t.fn()
			fired++
		}
	}
	return fired
}

func (c *manualClock) scheduled() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*fakeTimer(nil), c.timers...)
}

type navRecorder struct {
	mu      sync.Mutex
	visited []guard.Route
}

func (n *navRecorder) Navigate(to guard.Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.visited = append(n.visited, to)
}

func (n *navRecorder) routes() []guard.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]guard.Route(nil), n.visited...)
}
