// Package mailbox is a local SMTP sink that captures OTP mail during
// development so no real mailbox is needed.
package mailbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/Goofygiraffe06/janseva/internal/config"
	"github.com/Goofygiraffe06/janseva/internal/logging"
	"github.com/Goofygiraffe06/janseva/internal/utils"
	smtpcore "github.com/emersion/go-smtp"
)

var otpPattern = regexp.MustCompile(`\b(\d{6})\b`)

type captureSession struct {
	backend    *Backend
	remoteIP   string
	helo       string
	from       string
	recipients []string
}

func (s *captureSession) Reset() {
	s.from = ""
	s.recipients = s.recipients[:0]
}

func (s *captureSession) Logout() error { return nil }

func (s *captureSession) Mail(from string, _ *smtpcore.MailOptions) error {
	s.from = from
	return nil
}

func (s *captureSession) Rcpt(to string, _ *smtpcore.RcptOptions) error {
	_, dom := splitAddress(to)
	if !domainEquals(dom, s.backend.domain) {
		logging.DebugLog("Mailbox RCPT rejected: foreign domain=%s", dom)
		return &smtpcore.SMTPError{Code: 550, EnhancedCode: smtpcore.EnhancedCode{5, 7, 1}, Message: "relay not permitted"}
	}
	if len(s.recipients) >= s.backend.maxRecipients {
		return &smtpcore.SMTPError{Code: 452, EnhancedCode: smtpcore.EnhancedCode{4, 5, 3}, Message: "too many recipients"}
	}
	s.recipients = append(s.recipients, to)
	return nil
}

func (s *captureSession) Data(r io.Reader) error {
	defer s.Reset()

	data, err := readMessageData(r, s.backend.maxMessageBytes)
	if err != nil {
		return err
	}
	if len(s.recipients) == 0 {
		return nil
	}

	dkimResult := s.backend.dkim.Check(data)
	spfResult := SPFSkipped
	if s.backend.checkSPF {
		spfResult = checkSPF(s.remoteIP, s.helo, s.from)
	}
	otp := extractOTP(data)

	for _, rcpt := range s.recipients {
		emailHash := utils.HashEmail(normalizeAddress(rcpt))
		if otp == "" {
			logging.WarnLog("Mailbox captured mail without OTP [%s]", emailHash)
		} else {
			logging.InfoLog("Mailbox captured OTP [%s] %s dkim=%s spf=%s", emailHash, otp, dkimResult, spfResult)
		}
		s.backend.inbox.deliver(Message{
			From:     s.from,
			To:       rcpt,
			OTP:      otp,
			DKIM:     dkimResult,
			SPF:      spfResult,
			Received: time.Now(),
		})
	}
	return nil
}

// extractOTP finds the first 6-digit run in the message body.
func extractOTP(message []byte) string {
	body := message
	if i := bytes.Index(message, []byte("\r\n\r\n")); i >= 0 {
		body = message[i+4:]
	} else if i := bytes.Index(message, []byte("\n\n")); i >= 0 {
		body = message[i+2:]
	}
	m := otpPattern.FindSubmatch(body)
	if m == nil {
		return ""
	}
	return string(m[1])
}

// Backend implements the SMTP Backend for go-smtp.
type Backend struct {
	inbox           *Inbox
	domain          string
	dkim            *DKIMChecker
	checkSPF        bool
	maxRecipients   int
	maxMessageBytes int64
}

type Option func(*Backend)

// WithDKIMChecker replaces the default DNS backed DKIM verifier.
func WithDKIMChecker(c *DKIMChecker) Option { return func(b *Backend) { b.dkim = c } }

// WithSPF turns SPF evaluation of non-loopback senders on or off.
func WithSPF(enabled bool) Option { return func(b *Backend) { b.checkSPF = enabled } }

func NewBackend(inbox *Inbox, domain string, opts ...Option) *Backend {
	b := &Backend{
		inbox:           inbox,
		domain:          domain,
		dkim:            &DKIMChecker{},
		checkSPF:        config.MailboxCheckSPF(),
		maxRecipients:   config.MailboxMaxRecipients(),
		maxMessageBytes: int64(config.MailboxMaxMessageBytes()),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) NewSession(c *smtpcore.Conn) (smtpcore.Session, error) {
	sess := &captureSession{backend: b, helo: c.Hostname()}
	if addr, ok := c.Conn().RemoteAddr().(*net.TCPAddr); ok {
		sess.remoteIP = addr.IP.String()
	}
	return sess, nil
}

// Server wraps go-smtp server with configuration.
type Server struct {
	*smtpcore.Server
	ln net.Listener
}

// NewServer constructs the capture server for addr.
func NewServer(b *Backend, addr string) *Server {
	s := &Server{Server: smtpcore.NewServer(b)}
	s.Server.Addr = addr
	s.Server.Domain = b.domain
	s.Server.ReadTimeout = 10 * time.Second
	s.Server.WriteTimeout = 10 * time.Second
	s.Server.MaxMessageBytes = b.maxMessageBytes
	s.Server.MaxRecipients = b.maxRecipients
	s.Server.AllowInsecureAuth = false
	return s
}

// Start begins listening in a separate goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Server.Addr)
	if err != nil {
		return fmt.Errorf("mailbox listen failed: %w", err)
	}
	s.ln = ln
	go func() {
		logging.InfoLog("Mailbox listening on %s (domain=%s)", ln.Addr(), s.Server.Domain)
		if err := s.Server.Serve(ln); err != nil && !errors.Is(err, smtpcore.ErrServerClosed) {
			logging.ErrorLog("Mailbox stopped: %v", err)
		}
	}()
	return nil
}

// ListenAddr is the bound address, useful when started on port 0.
func (s *Server) ListenAddr() string {
	if s.ln == nil {
		return s.Server.Addr
	}
	return s.ln.Addr().String()
}

// Stop shuts the server down, waiting for open sessions until ctx is done.
func (s *Server) Stop(ctx context.Context) {
	if s == nil || s.ln == nil {
		return
	}
	if err := s.Server.Shutdown(ctx); err != nil {
		logging.WarnLog("Mailbox shutdown: %v", err)
		_ = s.Server.Close()
	}
}

func readMessageData(r io.Reader, maxBytes int64) ([]byte, error) {
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, io.LimitReader(r, maxBytes)); err != nil {
		return nil, err
	}
	// drain anything past the limit so the connection stays in sync
	_, _ = io.Copy(io.Discard, r)
	return buf.Bytes(), nil
}

func splitAddress(addr string) (local, domain string) {
	addr = strings.Trim(strings.TrimSpace(addr), "<>")
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		return addr[:i], addr[i+1:]
	}
	return addr, ""
}

func domainEquals(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
