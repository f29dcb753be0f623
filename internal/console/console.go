// Package console renders the auth flow and the signed-in home area on a
// terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Goofygiraffe06/janseva/internal/authflow"
	"github.com/Goofygiraffe06/janseva/internal/guard"
	"github.com/Goofygiraffe06/janseva/internal/logging"
	"github.com/Goofygiraffe06/janseva/internal/session"
	"github.com/fatih/color"
)

var errQuit = errors.New("console: quit")

var (
	titleC   = color.New(color.FgHiYellow, color.Bold)
	headingC = color.New(color.FgBlue, color.Bold)
	errorC   = color.New(color.FgRed)
	successC = color.New(color.FgGreen)
	hintC    = color.New(color.FgHiBlack)
)

// Config wires the console to the auth service and the session.
type Config struct {
	Remote  authflow.Remote
	Session *session.Session
	// Delay overrides the success-message delay; zero keeps the default.
	Delay time.Duration
}

type Console struct {
	cfg   Config
	in    *bufio.Scanner
	out   io.Writer
	guard *guard.Guard

	route   guard.Route
	flow    *authflow.Flow
	changes chan authflow.View
}

func New(in io.Reader, out io.Writer, cfg Config) *Console {
	return &Console{
		cfg:   cfg,
		in:    bufio.NewScanner(in),
		out:   out,
		guard: guard.New(cfg.Session),
	}
}

// Navigate implements guard.Navigator.
func (c *Console) Navigate(to guard.Route) {
	logging.DebugLog("Console: navigate %s", to)
	c.route = to
}

// Run drives the console until input ends, :quit is entered or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	titleC.Fprintln(c.out, "Jan Seva Kendra")
	hintC.Fprintln(c.out, "Public Service Portal")

	c.guard.Enter(ctx, guard.RouteHome, c)
	defer func() {
		if c.flow != nil {
			c.flow.Close()
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		if c.guard.Resolve(ctx, c.route) == guard.RouteHome {
			err = c.home(ctx)
		} else {
			err = c.auth(ctx)
		}

		switch {
		case err == nil:
		case errors.Is(err, errQuit), errors.Is(err, io.EOF):
			return nil
		default:
			return err
		}
	}
}

func (c *Console) mount() {
	if c.flow != nil {
		c.flow.Close()
	}
	c.changes = make(chan authflow.View, 32)
	opts := []authflow.Option{
		authflow.WithNavigator(c),
		authflow.WithObserver(func(v authflow.View) {
			select {
			case c.changes <- v:
			default:
			}
		}),
	}
	if c.cfg.Delay > 0 {
		opts = append(opts, authflow.WithDelay(c.cfg.Delay))
	}
	c.flow = authflow.New(c.cfg.Remote, c.cfg.Session, opts...)
}

// auth renders one pass over the current step: prompt each field, then submit
// at the last one.
func (c *Console) auth(ctx context.Context) error {
	if c.flow == nil {
		c.mount()
	}
	v := c.flow.View()
	c.renderStep(v)

	for _, field := range authflow.Fields(v.State) {
		line, err := c.prompt(label(v.State, field), current(v, field))
		if err != nil {
			return err
		}
		if strings.HasPrefix(line, ":") {
			return c.command(ctx, line)
		}
		if line == "" {
			continue
		}
		if err := c.flow.SetField(field, line); err != nil {
			return err
		}
	}

	hintC.Fprintln(c.out, busyLabel(v.State))
	c.drain()
	err := c.flow.HandleKey(ctx, authflow.KeyEnter)
	after := c.flow.View()

	switch {
	case after.Error != "":
		errorC.Fprintln(c.out, "! "+after.Error)
		return nil
	case err != nil:
		return nil
	case after.Success != "":
		successC.Fprintln(c.out, "✓ "+after.Success)
		return c.awaitTransition(ctx, v.State)
	}
	return nil
}

func (c *Console) awaitTransition(ctx context.Context, from authflow.State) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case v := <-c.changes:
			if v.State != from {
				return nil
			}
		}
	}
}

func (c *Console) drain() {
	for {
		select {
		case <-c.changes:
		default:
			return
		}
	}
}

func (c *Console) command(ctx context.Context, line string) error {
	switch strings.TrimSpace(line) {
	case ":quit", ":q":
		return errQuit
	case ":login":
		return c.flow.SwitchTo(authflow.Login)
	case ":register":
		return c.flow.SwitchTo(authflow.Register)
	case ":resend":
		return c.flow.Resend()
	case ":logout":
		if c.guard.Resolve(ctx, guard.RouteHome) == guard.RouteHome {
			return c.logout(ctx)
		}
	}
	errorC.Fprintf(c.out, "! Unknown command %s\n", line)
	return nil
}

func (c *Console) home(ctx context.Context) error {
	headingC.Fprintln(c.out, "\nDashboard")
	fmt.Fprintln(c.out, "Welcome, Citizen")
	hintC.Fprintln(c.out, "Type :logout to sign out or :quit to exit.")

	line, err := c.prompt(">", "")
	if err != nil {
		return err
	}
	switch strings.TrimSpace(line) {
	case ":logout":
		return c.logout(ctx)
	case ":quit", ":q":
		return errQuit
	case "":
		return nil
	}
	errorC.Fprintf(c.out, "! Unknown command %s\n", line)
	return nil
}

func (c *Console) logout(ctx context.Context) error {
	if err := c.guard.Logout(ctx, c); err != nil {
		return err
	}
	// leaving the protected area remounts the flow from scratch
	c.mount()
	successC.Fprintln(c.out, "Signed out.")
	return nil
}

func (c *Console) prompt(label, value string) (string, error) {
	if value != "" {
		fmt.Fprintf(c.out, "%s [%s]: ", label, value)
	} else {
		fmt.Fprintf(c.out, "%s: ", label)
	}
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(c.in.Text(), "\r"), nil
}

func (c *Console) renderStep(v authflow.View) {
	headingC.Fprintln(c.out, "\n"+heading(v.State))
	hintC.Fprintln(c.out, switchHint(v.State))
}

func current(v authflow.View, f authflow.Field) string {
	if f == authflow.FieldPassword {
		if v.Draft.Password != "" {
			return strings.Repeat("*", len(v.Draft.Password))
		}
		return ""
	}
	return v.Draft.Get(f)
}

func heading(s authflow.State) string {
	switch s {
	case authflow.Register:
		return "Create Account"
	case authflow.Verify:
		return "Verify Email"
	default:
		return "Sign In"
	}
}

func switchHint(s authflow.State) string {
	switch s {
	case authflow.Register:
		return "Already have an account? :login"
	case authflow.Verify:
		return "Didn't receive OTP? :resend"
	default:
		return "Need an account? :register"
	}
}

func busyLabel(s authflow.State) string {
	switch s {
	case authflow.Register:
		return "Creating Account..."
	case authflow.Verify:
		return "Verifying..."
	default:
		return "Signing In..."
	}
}

func label(s authflow.State, f authflow.Field) string {
	switch f {
	case authflow.FieldName:
		return "Full Name"
	case authflow.FieldEmail:
		return "Email Address"
	case authflow.FieldOTP:
		return "Enter 6-digit OTP"
	case authflow.FieldPassword:
		if s == authflow.Register {
			return "Password (min 6 characters)"
		}
		return "Password"
	}
	return string(f)
}
