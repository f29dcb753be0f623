// Package authflow implements the register, verify and login steps of the
// portal as a single state machine over a shared credentials draft.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Goofygiraffe06/janseva/internal/apiclient"
	"github.com/Goofygiraffe06/janseva/internal/guard"
	"github.com/Goofygiraffe06/janseva/internal/logging"
	"github.com/Goofygiraffe06/janseva/internal/models"
	"github.com/Goofygiraffe06/janseva/internal/session"
	"github.com/Goofygiraffe06/janseva/internal/utils"
)

var (
	// ErrBusy is returned when a request is already outstanding. Nothing is sent.
	ErrBusy = errors.New("authflow: request in flight")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("authflow: closed")
	// ErrDiscarded is returned by a Submit whose attempt was superseded by a
	// state change before the response arrived.
	ErrDiscarded = errors.New("authflow: attempt discarded")
	// ErrUnknownField is returned by SetField for a field the draft lacks.
	ErrUnknownField = errors.New("authflow: unknown field")
)

// DefaultDelay is how long a success message stays up before the next step.
const DefaultDelay = 1500 * time.Millisecond

// Remote is the auth service. *apiclient.Client satisfies it.
type Remote interface {
	Register(ctx context.Context, req models.RegisterRequest) (models.MessageResponse, error)
	VerifyOTP(ctx context.Context, req models.VerifyOTPRequest) (models.MessageResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (models.TokenResponse, error)
}

type Option func(*Flow)

// WithNavigator receives the move to the protected area after login.
func WithNavigator(n guard.Navigator) Option { return func(f *Flow) { f.nav = n } }

// WithScheduler replaces the wall clock used for delayed transitions.
func WithScheduler(s Scheduler) Option { return func(f *Flow) { f.sched = s } }

// WithDelay sets the success-message delay before auto-transitions.
func WithDelay(d time.Duration) Option { return func(f *Flow) { f.delay = d } }

// WithObserver is called with a fresh snapshot after every change. It runs
// without the flow's lock held and may call View but must not block.
func WithObserver(fn func(View)) Option { return func(f *Flow) { f.observer = fn } }

// Flow is safe for concurrent use.
type Flow struct {
	remote   Remote
	session  *session.Session
	nav      guard.Navigator
	sched    Scheduler
	delay    time.Duration
	observer func(View)

	mu      sync.Mutex
	state   State
	draft   Draft
	busy    bool
	errMsg  string
	success string
	closed  bool

	// gen changes on every submit and every state change; a response is only
	// applied if gen is unchanged since its request went out.
	gen       uint64
	cancel    context.CancelFunc
	pending   Timer
	pendingID uint64
}

// New starts a flow in the Register state. remote and sess are required; a
// successful login is recorded in sess.
func New(remote Remote, sess *session.Session, opts ...Option) *Flow {
	if remote == nil || sess == nil {
		panic("authflow: New needs a remote and a session")
	}
	f := &Flow{
		remote:  remote,
		session: sess,
		nav:     guard.NavigatorFunc(func(guard.Route) {}),
		sched:   WallClock,
		delay:   DefaultDelay,
		state:   Register,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// View returns the current snapshot.
func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

func (f *Flow) viewLocked() View {
	return View{
		State:   f.state,
		Draft:   f.draft,
		Busy:    f.busy,
		Error:   f.errMsg,
		Success: f.success,
	}
}

func (f *Flow) notify(v View) {
	if f.observer != nil {
		f.observer(v)
	}
}

// SetField updates one input. Inputs are disabled while busy. Editing clears
// an error message but leaves a success message alone.
func (f *Flow) SetField(field Field, value string) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.busy {
		f.mu.Unlock()
		return ErrBusy
	}
	if !f.draft.set(field, value) {
		f.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	f.errMsg = ""
	v := f.viewLocked()
	f.mu.Unlock()

	f.notify(v)
	return nil
}

// HandleKey treats Enter as pressing the submit control of the current state.
func (f *Flow) HandleKey(ctx context.Context, key Key) error {
	if key != KeyEnter {
		return nil
	}
	return f.Submit(ctx)
}

// SwitchTo follows the "sign in", "create account" and "resend" links. Any
// outstanding request and pending auto-transition are dropped.
func (f *Flow) SwitchTo(s State) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	from := f.state
	f.transitionLocked(s)
	v := f.viewLocked()
	f.mu.Unlock()

	logging.DebugLog("Auth flow: switched %s -> %s", from, s)
	f.notify(v)
	return nil
}

// Resend returns to Register so the details can be submitted again, which
// makes the service mail a fresh OTP.
func (f *Flow) Resend() error {
	return f.SwitchTo(Register)
}

// Close tears the flow down: pending transitions never fire and an
// outstanding request is cancelled.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.stopPendingLocked()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

// Submit validates the draft for the current state and, if it passes, sends
// the matching request. The outcome lands in the message slot; the returned
// error is a *ValidationError, *apiclient.RejectedError,
// *apiclient.ConnectivityError, ErrBusy, ErrDiscarded or ErrClosed.
func (f *Flow) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.busy {
		f.mu.Unlock()
		return ErrBusy
	}

	state, draft := f.state, f.draft
	if err := Validate(state, draft); err != nil {
		f.errMsg = err.Error()
		f.success = ""
		v := f.viewLocked()
		f.mu.Unlock()

		f.notify(v)
		return err
	}

	f.busy = true
	f.errMsg = ""
	f.success = ""
	f.gen++
	gen := f.gen
	reqCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	v := f.viewLocked()
	f.mu.Unlock()

	f.notify(v)

	emailHash := utils.HashEmail(utils.NormalizeEmail(draft.Email))
	logging.DebugLog("Auth flow: %s submit [%s]", state, emailHash)

	token, err := f.send(reqCtx, state, draft)

	signedIn := false
	if err == nil && state == Login {
		if !f.current(gen) {
			cancel()
			return ErrDiscarded
		}
		// reqCtx is still live so a switch during the save cancels it
		err = f.session.SignIn(reqCtx, token)
		signedIn = err == nil
	}
	cancel()

	f.mu.Lock()
	if f.closed || gen != f.gen {
		f.mu.Unlock()
		logging.DebugLog("Auth flow: %s response discarded [%s]", state, emailHash)
		if signedIn {
			f.revoke(emailHash)
		}
		return ErrDiscarded
	}
	f.busy = false
	f.cancel = nil

	if err != nil {
		f.errMsg = failureMessage(state, err)
		v := f.viewLocked()
		f.mu.Unlock()

		logging.InfoLog("Auth flow: %s failed [%s]: %v", state, emailHash, err)
		f.notify(v)
		return err
	}

	switch state {
	case Register:
		f.success = MsgRegistered
		f.scheduleLocked(Verify)
	case Verify:
		f.success = MsgVerified
		f.scheduleLocked(Login)
	}
	v = f.viewLocked()
	f.mu.Unlock()

	logging.InfoLog("Auth flow: %s success [%s]", state, emailHash)
	f.notify(v)
	if state == Login {
		f.nav.Navigate(guard.RouteHome)
	}
	return nil
}

func (f *Flow) send(ctx context.Context, s State, d Draft) (string, error) {
	email := utils.NormalizeEmail(d.Email)
	switch s {
	case Register:
		_, err := f.remote.Register(ctx, models.RegisterRequest{
			Username: strings.TrimSpace(d.DisplayName),
			Email:    email,
			Password: d.Password,
		})
		return "", err
	case Verify:
		_, err := f.remote.VerifyOTP(ctx, models.VerifyOTPRequest{
			Email: email,
			OTP:   strings.TrimSpace(d.OTP),
		})
		return "", err
	case Login:
		resp, err := f.remote.Login(ctx, models.LoginRequest{
			Email:    email,
			Password: d.Password,
		})
		if err != nil {
			return "", err
		}
		return resp.Token, nil
	}
	return "", fmt.Errorf("authflow: no request for state %s", s)
}

// revoke drops a token saved by an attempt that was superseded meanwhile.
func (f *Flow) revoke(emailHash string) {
	if err := f.session.SignOut(context.Background()); err != nil {
		logging.ErrorLog("Auth flow: dropping superseded token failed [%s]: %v", emailHash, err)
	}
}

func (f *Flow) current(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed && gen == f.gen
}

func failureMessage(s State, err error) string {
	var rejected *apiclient.RejectedError
	if errors.As(err, &rejected) {
		if rejected.Message != "" {
			return rejected.Message
		}
		return fallbackMessage(s)
	}
	var conn *apiclient.ConnectivityError
	if errors.As(err, &conn) {
		return MsgNetwork
	}
	return fallbackMessage(s)
}

// transitionLocked moves to s and resets everything transient.
func (f *Flow) transitionLocked(s State) {
	f.stopPendingLocked()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.gen++
	f.busy = false
	f.errMsg = ""
	f.success = ""
	f.state = s
}

func (f *Flow) scheduleLocked(next State) {
	f.stopPendingLocked()
	f.pendingID++
	id := f.pendingID
	f.pending = f.sched.AfterFunc(f.delay, func() { f.advance(id, next) })
}

func (f *Flow) stopPendingLocked() {
	if f.pending != nil {
		f.pending.Stop()
		f.pending = nil
	}
	// a timer that already fired still sees a stale id
	f.pendingID++
}

func (f *Flow) advance(id uint64, next State) {
	f.mu.Lock()
	if f.closed || id != f.pendingID {
		f.mu.Unlock()
		return
	}
	f.pending = nil
	from := f.state
	f.transitionLocked(next)
	v := f.viewLocked()
	f.mu.Unlock()

	logging.DebugLog("Auth flow: auto-transition %s -> %s", from, next)
	f.notify(v)
}
