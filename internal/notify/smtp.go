package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SMTPConfig holds the mail server settings.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Encryption string // "", "tls" (STARTTLS) or "ssl" (implicit TLS)
	Timeout    time.Duration
}

// SMTPNotifier renders messages and delivers them through an SMTP server.
type SMTPNotifier struct {
	renderer *Renderer
	cfg      SMTPConfig
}

func NewSMTPNotifier(renderer *Renderer, cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" || cfg.Port <= 0 {
		return nil, fmt.Errorf("smtp notifier requires MAIL_HOST and MAIL_PORT")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPNotifier{renderer: renderer, cfg: cfg}, nil
}

func (n *SMTPNotifier) Notify(ctx context.Context, msg Message) error {
	email, err := n.renderer.Render(msg)
	if err != nil {
		return err
	}
	if err := n.send(ctx, email); err != nil {
		return fmt.Errorf("smtp delivery of %s failed: %w", email.Kind, err)
	}

	zap.L().Info("Notification email sent",
		zap.String("kind", email.Kind.String()),
		zap.String("withdraw_id", email.Reference),
		zap.String("to", MaskPixKey(email.To)))
	return nil
}

func (n *SMTPNotifier) Close() error { return nil }

func (n *SMTPNotifier) send(ctx context.Context, email *Email) error {
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	dialer := &net.Dialer{Timeout: n.cfg.Timeout}

	var conn net.Conn
	var err error
	if strings.EqualFold(n.cfg.Encryption, "ssl") {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: n.cfg.Host}}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(n.cfg.Timeout))
	}

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() { _ = client.Close() }()

	if strings.EqualFold(n.cfg.Encryption, "tls") {
		if err := client.StartTLS(&tls.Config{ServerName: n.cfg.Host}); err != nil {
			return err
		}
	}

	if n.cfg.Username != "" {
		auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(email.From); err != nil {
		return err
	}
	if err := client.Rcpt(email.To); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(buildMIME(email)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildMIME(email *Email) []byte {
	from := (&mail.Address{Name: email.FromName, Address: email.From}).String()

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + email.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", email.Subject) + "\r\n")
	b.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(email.HTML)
	return []byte(b.String())
}
