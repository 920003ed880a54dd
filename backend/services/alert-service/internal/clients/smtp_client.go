package clients

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNoSession is returned when mail is sent before a session was opened.
var ErrNoSession = errors.New("smtp: no open session")

// SMTPSettings configure an SMTP session. Timeout bounds the dial and every
// exchange that follows: the connect handshake, one message, or the closing QUIT.
type SMTPSettings struct {
	Addr       string
	Login      string
	Password   string
	From       string
	Recipients []string
	Timeout    time.Duration
}

// SMTPClient keeps one authenticated SMTP session and sends alert mail over it.
type SMTPClient struct {
	mu       sync.Mutex
	settings SMTPSettings
	conn     net.Conn
	session  *smtp.Client
	logger   *zap.Logger
}

// NewSMTPClient returns a client without an open session.
func NewSMTPClient(settings SMTPSettings, logger *zap.Logger) *SMTPClient {
	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	return &SMTPClient{settings: settings, logger: logger}
}

// Connect opens and authenticates a new session.
func (c *SMTPClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

// Reconnect drops the current session and opens a fresh one.
func (c *SMTPClient) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked(ctx)
	return c.connectLocked(ctx)
}

// SendMail sends one message to the configured recipients. A failed transaction is
// reset; if the reset fails too the session is dropped and the next send returns
// ErrNoSession until Reconnect.
func (c *SMTPClient) SendMail(ctx context.Context, subject, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return ErrNoSession
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := BuildMessage(c.settings.From, c.settings.Recipients, subject, body)
	if err != nil {
		return err
	}

	release := c.bound(ctx, c.conn)
	defer release()

	if err := c.session.Mail(c.settings.From); err != nil {
		return c.abortLocked(fmt.Errorf("smtp mail from: %w", err))
	}
	for _, rcpt := range c.settings.Recipients {
		if err := c.session.Rcpt(rcpt); err != nil {
			return c.abortLocked(fmt.Errorf("smtp rcpt %s: %w", rcpt, err))
		}
	}
	w, err := c.session.Data()
	if err != nil {
		return c.abortLocked(fmt.Errorf("smtp data: %w", err))
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return c.abortLocked(fmt.Errorf("smtp write: %w", err))
	}
	if err := w.Close(); err != nil {
		return c.abortLocked(fmt.Errorf("smtp data close: %w", err))
	}
	return nil
}

// Close ends the session if one is open.
func (c *SMTPClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked(context.Background())
	return nil
}

func (c *SMTPClient) connectLocked(ctx context.Context) error {
	host, _, err := net.SplitHostPort(c.settings.Addr)
	if err != nil {
		return fmt.Errorf("smtp addr: %w", err)
	}
	dialer := &net.Dialer{Timeout: c.settings.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.settings.Addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}

	release := c.bound(ctx, conn)
	defer release()

	session, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp greeting: %w", err)
	}
	if ok, _ := session.Extension("STARTTLS"); ok {
		if err := session.StartTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}); err != nil {
			_ = session.Close()
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if c.settings.Login != "" {
		auth := smtp.PlainAuth("", c.settings.Login, c.settings.Password, host)
		if err := session.Auth(auth); err != nil {
			_ = session.Close()
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	c.conn = conn
	c.session = session
	c.logger.Info("smtp session opened", zap.String("addr", c.settings.Addr))
	return nil
}

// bound sets a deadline on conn of Timeout, or the ctx deadline if sooner, and expires
// it at once when ctx is cancelled. The returned func clears both.
// The deadline lives on the raw conn, so it also covers the TLS layer after STARTTLS.
func (c *SMTPClient) bound(ctx context.Context, conn net.Conn) func() {
	deadline := time.Now().Add(c.settings.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	return func() {
		stop()
		_ = conn.SetDeadline(time.Time{})
	}
}

// abortLocked resets a half-done transaction so the next MAIL FROM is accepted.
func (c *SMTPClient) abortLocked(err error) error {
	if rerr := c.session.Reset(); rerr != nil {
		c.logger.Warn("smtp reset failed, dropping session", zap.Error(rerr))
		_ = c.session.Close()
		c.session = nil
		c.conn = nil
	}
	return err
}

func (c *SMTPClient) closeLocked(ctx context.Context) {
	if c.session == nil {
		return
	}
	release := c.bound(ctx, c.conn)
	if err := c.session.Quit(); err != nil {
		_ = c.session.Close()
	}
	release()
	c.session = nil
	c.conn = nil
}

// BuildMessage renders a UTF-8 plain text message with encoded headers.
func BuildMessage(from string, to []string, subject, body string) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(strings.ReplaceAll(body, "\n", "\r\n"))); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
