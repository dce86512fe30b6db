package mail

import (
	"crypto/tls"
	"fmt"
	"net/mail"
	"net/smtp"
	"strings"
)

// Sender delivers a single rendered task. Every failure is treated as
// retryable by the worker; the transport does not need to distinguish
// transient from permanent errors.
type Sender interface {
	Send(task Task) error
}

// SMTPSender delivers tasks over SMTP.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	sender   string
	useTLS   bool
}

// SMTPConfig configures an SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string // optional, enables PLAIN auth together with Password
	Password string
	Sender   string // From header, e.g. `Marquee <no-reply@example.com>`
	UseTLS   bool   // issue STARTTLS before authenticating
}

// NewSMTPSender constructs an SMTPSender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		sender:   cfg.Sender,
		useTLS:   cfg.UseTLS,
	}
}

// Send delivers one task as a multipart/alternative message carrying the
// plain and HTML bodies.
func (s *SMTPSender) Send(task Task) error {
	msg := buildMessage(s.sender, task)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	var auth smtp.Auth
	if s.username != "" && s.password != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	envelopeFrom, err := envelopeAddress(s.sender)
	if err != nil {
		return fmt.Errorf("parse sender address: %w", err)
	}

	if s.useTLS {
		return s.sendTLS(addr, auth, envelopeFrom, task.Recipient, msg)
	}
	return smtp.SendMail(addr, auth, envelopeFrom, []string{task.Recipient}, msg)
}

func (s *SMTPSender) sendTLS(addr string, auth smtp.Auth, from, to string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("connect to smtp server: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
		return fmt.Errorf("start tls: %w", err)
	}
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp authentication: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("set recipient %s: %w", to, err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("open data writer: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data writer: %w", err)
	}
	return client.Quit()
}

const mimeBoundary = "marquee-alt-boundary"

func buildMessage(from string, task Task) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", task.Recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", task.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", mimeBoundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(task.PlainBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(task.HTMLBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", mimeBoundary)
	return []byte(b.String())
}

func envelopeAddress(sender string) (string, error) {
	parsed, err := mail.ParseAddress(sender)
	if err != nil {
		return "", err
	}
	return parsed.Address, nil
}
