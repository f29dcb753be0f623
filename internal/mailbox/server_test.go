package mailbox_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/Goofygiraffe06/janseva/internal/mailbox"
	"github.com/Goofygiraffe06/janseva/internal/mailer"
	"github.com/emersion/go-smtp"
)

func startMailbox(t *testing.T, opts ...mailbox.Option) (*mailbox.Server, *mailbox.Inbox) {
	t.Helper()
	inbox := mailbox.NewInbox()
	srv := mailbox.NewServer(mailbox.NewBackend(inbox, "janseva.local", opts...), "127.0.0.1:0")
	if err := srv.Start(); err != nil {
		t.Fatalf("mailbox start failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Stop(ctx)
	})
	return srv, inbox
}

func waitFor(t *testing.T, inbox *mailbox.Inbox, to string, n int) mailbox.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	msg, err := inbox.Wait(ctx, to, n)
	if err != nil {
		t.Fatalf("no message %d for %s: %v", n, to, err)
	}
	return msg
}

func TestCapturesOTPFromMailer(t *testing.T) {
	srv, inbox := startMailbox(t)

	sender := mailer.NewSMTPSender(srv.ListenAddr(), "no-reply@janseva.local")
	if err := sender.SendOTP(context.Background(), "ravi@janseva.local", "Ravi Kumar", "042917"); err != nil {
		t.Fatalf("SendOTP failed: %v", err)
	}

	msg := waitFor(t, inbox, "ravi@janseva.local", 1)
	if msg.OTP != "042917" {
		t.Errorf("expected OTP 042917, got %q", msg.OTP)
	}
	if msg.DKIM != mailbox.DKIMNone {
		t.Errorf("expected no DKIM signature, got %s", msg.DKIM)
	}
	if msg.SPF != mailbox.SPFSkipped {
		t.Errorf("expected SPF skipped for loopback, got %s", msg.SPF)
	}

	latest, ok := inbox.Latest("RAVI@janseva.local")
	if !ok || latest.OTP != "042917" {
		t.Errorf("Latest should match case-insensitively, got %+v %v", latest, ok)
	}
}

func TestVerifiesDKIMSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	record := "v=DKIM1; k=ed25519; p=" + base64.StdEncoding.EncodeToString(pub)
	checker := &mailbox.DKIMChecker{LookupTXT: func(domain string) ([]string, error) {
		if domain != "dev._domainkey.janseva.local" {
			return nil, errors.New("no such record")
		}
		return []string{record}, nil
	}}

	srv, inbox := startMailbox(t, mailbox.WithDKIMChecker(checker))

	signed := mailer.NewSMTPSender(srv.ListenAddr(), "no-reply@janseva.local",
		mailer.WithDKIM("janseva.local", "dev", priv))
	if err := signed.SendOTP(context.Background(), "asha@janseva.local", "Asha", "123456"); err != nil {
		t.Fatalf("SendOTP failed: %v", err)
	}
	if msg := waitFor(t, inbox, "asha@janseva.local", 1); msg.DKIM != mailbox.DKIMPass {
		t.Errorf("expected DKIM pass, got %s", msg.DKIM)
	}

	_, otherPriv, _ := ed25519.GenerateKey(rand.Reader)
	forged := mailer.NewSMTPSender(srv.ListenAddr(), "no-reply@janseva.local",
		mailer.WithDKIM("janseva.local", "dev", otherPriv))
	if err := forged.SendOTP(context.Background(), "asha@janseva.local", "Asha", "654321"); err != nil {
		t.Fatalf("SendOTP failed: %v", err)
	}
	msg := waitFor(t, inbox, "asha@janseva.local", 2)
	if msg.DKIM != mailbox.DKIMFail {
		t.Errorf("expected DKIM fail for wrong key, got %s", msg.DKIM)
	}
	if msg.OTP != "654321" {
		t.Errorf("expected second OTP, got %q", msg.OTP)
	}
	if n := inbox.Count("asha@janseva.local"); n != 2 {
		t.Errorf("expected 2 messages, got %d", n)
	}
}

func TestRejectsForeignRecipients(t *testing.T) {
	srv, inbox := startMailbox(t)

	c, err := smtp.Dial(srv.ListenAddr())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()
	if ok, _ := c.Extension("STARTTLS"); ok {
		t.Error("mailbox should not offer STARTTLS")
	}
	if err := c.Mail("x@elsewhere.in", nil); err != nil {
		t.Fatalf("MAIL failed: %v", err)
	}
	err = c.Rcpt("victim@elsewhere.in", nil)
	var smtpErr *smtp.SMTPError
	if !errors.As(err, &smtpErr) || smtpErr.Code != 550 {
		t.Errorf("expected 550 rejection, got %v", err)
	}
	if inbox.Count("victim@elsewhere.in") != 0 {
		t.Error("foreign recipient should not be captured")
	}
}

func TestWaitHonoursContext(t *testing.T) {
	inbox := mailbox.NewInbox()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := inbox.Wait(ctx, "nobody@janseva.local", 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
