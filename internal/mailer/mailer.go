// Package mailer delivers one-time passcodes to newly registered users.
package mailer

import (
	"bytes"
	"context"
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/Goofygiraffe06/janseva/internal/config"
	"github.com/Goofygiraffe06/janseva/internal/logging"
	"github.com/Goofygiraffe06/janseva/internal/manager"
	"github.com/Goofygiraffe06/janseva/internal/utils"
	"github.com/emersion/go-msgauth/dkim"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
)

var ErrSendTimeout = errors.New("mailer: relay did not answer in time")

const defaultSendTimeout = 15 * time.Second

// Sender dispatches an OTP mail.
type Sender interface {
	SendOTP(ctx context.Context, to, username, otp string) error
}

// SMTPSender relays mail through an SMTP server, optionally signing it.
type SMTPSender struct {
	addr    string
	from    string
	auth    sasl.Client
	signing *dkim.SignOptions
	now     func() time.Time
}

type Option func(*SMTPSender)

// WithPlainAuth authenticates to the relay with SASL PLAIN.
func WithPlainAuth(username, password string) Option {
	return func(s *SMTPSender) {
		s.auth = sasl.NewPlainClient("", username, password)
	}
}

// WithDKIM signs outgoing mail as domain using selector.
func WithDKIM(domain, selector string, key crypto.Signer) Option {
	return func(s *SMTPSender) {
		s.signing = &dkim.SignOptions{
			Domain:   domain,
			Selector: selector,
			Signer:   key,

			HeaderCanonicalization: dkim.CanonicalizationRelaxed,
			BodyCanonicalization:   dkim.CanonicalizationRelaxed,

			HeaderKeys: []string{
				"From", "To", "Subject", "Date", "Message-ID", "MIME-Version", "Content-Type",
			},
		}
	}
}

func NewSMTPSender(addr, from string, opts ...Option) *SMTPSender {
	s := &SMTPSender{addr: addr, from: from, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendOTP composes, signs and relays the OTP message. The go-smtp client has
// no context support, so the relay call is raced against ctx instead.
func (s *SMTPSender) SendOTP(ctx context.Context, to, username, otp string) error {
	emailHash := utils.HashEmail(to)

	msg, err := s.compose(to, username, otp)
	if err != nil {
		logging.ErrorLog("OTP mail compose failed [%s]: %v", emailHash, err)
		return err
	}

	deadline := defaultSendTimeout
	if d, ok := ctx.Deadline(); ok {
		deadline = time.Until(d)
	}
	result := make(chan error, 1)
	completed := manager.RunWithTimeout(ctx, deadline, func(context.Context) {
		result <- s.relay(to, msg)
	})
	if !completed {
		logging.WarnLog("OTP mail relay timeout [%s] relay=%s", emailHash, s.addr)
		return ErrSendTimeout
	}
	if sendErr := <-result; sendErr != nil {
		logging.ErrorLog("OTP mail relay failed [%s]: %v", emailHash, sendErr)
		return fmt.Errorf("mailer: send: %w", sendErr)
	}

	logging.InfoLog("OTP mail relayed [%s] signed=%t", emailHash, s.signing != nil)
	return nil
}

// relay upgrades to TLS only when the server offers STARTTLS, so plaintext
// local sinks are reachable too.
func (s *SMTPSender) relay(to string, msg []byte) error {
	c, err := smtp.Dial(s.addr)
	if err != nil {
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		host, _, err := net.SplitHostPort(s.addr)
		if err != nil {
			host = s.addr
		}
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if s.auth != nil {
		if err := c.Auth(s.auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}
	if err := c.SendMail(s.from, []string{to}, bytes.NewReader(msg)); err != nil {
		return err
	}
	return c.Quit()
}

func (s *SMTPSender) compose(to, username, otp string) ([]byte, error) {
	raw := composeOTPMessage(s.from, to, username, otp, s.now())
	if s.signing == nil {
		return raw, nil
	}
	var signed bytes.Buffer
	if err := dkim.Sign(&signed, bytes.NewReader(raw), s.signing); err != nil {
		return nil, fmt.Errorf("dkim sign: %w", err)
	}
	return signed.Bytes(), nil
}

func composeOTPMessage(from, to, username, otp string, now time.Time) []byte {
	name := strings.TrimSpace(username)
	if name == "" {
		name = "Citizen"
	}
	domain := "localhost"
	if i := strings.LastIndex(from, "@"); i >= 0 {
		domain = from[i+1:]
	}

	var b strings.Builder
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }
	header("From", "Jan Seva Kendra <"+from+">")
	header("To", to)
	header("Subject", "Your Jan Seva verification code")
	header("Date", now.UTC().Format(time.RFC1123Z))
	header("Message-ID", "<"+uuid.NewString()+"@"+domain+">")
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=utf-8")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Namaste %s,\r\n\r\n", sanitizeLine(name))
	fmt.Fprintf(&b, "Your verification code is %s.\r\n", otp)
	fmt.Fprintf(&b, "It expires in %s. Do not share it with anyone.\r\n", config.OTPTTL())
	return []byte(b.String())
}

func sanitizeLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// LogSender is used when no relay is configured. It only records that a code
// was issued; the code itself is logged at debug level.
type LogSender struct{}

func (LogSender) SendOTP(_ context.Context, to, _, otp string) error {
	logging.InfoLog("OTP mail not relayed (no SMTP relay configured) [%s]", utils.HashEmail(to))
	logging.DebugLog("OTP for [%s]: %s", utils.HashEmail(to), otp)
	return nil
}

// LoadDKIMKey reads a PEM encoded PKCS#8 private key (RSA or Ed25519).
func LoadDKIMKey(path string) (crypto.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dkim key: %w", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("dkim key: no PEM block found")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("dkim key: %w", err)
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, errors.New("dkim key: not a signing key")
	}
	return signer, nil
}

// FromConfig builds the Sender described by the SMTP_* and DKIM_* settings.
func FromConfig() (Sender, error) {
	addr := config.SMTPRelayAddr()
	if addr == "" {
		logging.WarnLog("SMTP_RELAY_ADDR not set; OTP codes will only be logged")
		return LogSender{}, nil
	}

	var opts []Option
	if user := config.SMTPUsername(); user != "" {
		opts = append(opts, WithPlainAuth(user, config.SMTPPassword()))
	}
	if path := config.DKIMKeyPath(); path != "" {
		key, err := LoadDKIMKey(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithDKIM(config.DKIMDomain(), config.DKIMSelector(), key))
	}
	logging.InfoLog("OTP mail relay %s", addr)
	return NewSMTPSender(addr, config.SMTPFrom(), opts...), nil
}
