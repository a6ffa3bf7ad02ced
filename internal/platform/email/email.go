package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"holidayhub/internal/domain/leave"
	"holidayhub/internal/platform/config"
)

// Gate reports whether notifications should go out right now.
type Gate func() bool

type noopMailer struct{}

func (noopMailer) Notify(ctx context.Context, to, subject, htmlBody string) error {
	return nil
}

type smtpMailer struct {
	cfg config.Config
}

// New returns an SMTP notifier, or a no-op one when SMTP is not configured.
func New(cfg config.Config) leave.Notifier {
	if cfg.SMTPHost == "" {
		return noopMailer{}
	}
	return &smtpMailer{cfg: cfg}
}

func (s *smtpMailer) Notify(ctx context.Context, to, subject, htmlBody string) error {
	if strings.TrimSpace(to) == "" {
		return nil
	}
	addr := net.JoinHostPort(s.cfg.SMTPHost, fmt.Sprint(s.cfg.SMTPPort))
	msg := BuildMessage(s.cfg.EmailFrom, to, subject, htmlBody)

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		return err
	}
	defer client.Close()

	if s.cfg.SMTPUseTLS {
		tlsConfig := &tls.Config{ServerName: s.cfg.SMTPHost, MinVersion: tls.VersionTLS12}
		if err := client.StartTLS(tlsConfig); err != nil {
			return err
		}
	}

	if s.cfg.SMTPUser != "" {
		auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(s.cfg.EmailFrom); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// BuildMessage renders an RFC 5322 HTML message. The Gmail notifier sends
// the same bytes.
func BuildMessage(from, to, subject, htmlBody string) []byte {
	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", mime.QEncoding.Encode("utf-8", subject)),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n" + htmlBody)
}

type gated struct {
	next    leave.Notifier
	enabled Gate
}

// Gated drops notifications while enabled returns false.
func Gated(next leave.Notifier, enabled Gate) leave.Notifier {
	return &gated{next: next, enabled: enabled}
}

func (g *gated) Notify(ctx context.Context, to, subject, htmlBody string) error {
	if g.enabled != nil && !g.enabled() {
		return nil
	}
	return g.next.Notify(ctx, to, subject, htmlBody)
}
