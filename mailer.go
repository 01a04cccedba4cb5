package auth

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"

	goerrors "github.com/goliatone/go-errors"
)

// SMTPConfig carries the transport settings for the SMTP mailer.
// Port should be the implicit TLS port, usually 465.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPMailer delivers mail over an implicit TLS SMTP connection. A new
// connection is dialed per message, which is plenty for the volume of
// verification and recovery mail this package produces.
type SMTPMailer struct {
	config SMTPConfig
	logger Logger
}

func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		config: config,
		logger: defLogger{},
	}
}

func (m *SMTPMailer) WithLogger(logger Logger) *SMTPMailer {
	if logger != nil {
		m.logger = logger
	}
	return m
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled before mail delivery")
	default:
	}

	from := m.config.From
	if from == "" {
		from = m.config.Username
	}

	msg := []byte(
		fmt.Sprintf("From: %s\r\n", from) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body,
	)

	addr := m.config.Host + ":" + m.config.Port

	conn, err := tls.Dial("tcp", addr, &tls.Config{
		ServerName: m.config.Host,
	})
	if err != nil {
		return m.wrap(err, "failed to dial SMTP server")
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.config.Host)
	if err != nil {
		return m.wrap(err, "failed to open SMTP session")
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	if err := client.Auth(auth); err != nil {
		return m.wrap(err, "SMTP auth failed")
	}

	if err := client.Mail(from); err != nil {
		return m.wrap(err, "SMTP sender rejected")
	}
	if err := client.Rcpt(to); err != nil {
		return m.wrap(err, "SMTP recipient rejected")
	}

	w, err := client.Data()
	if err != nil {
		return m.wrap(err, "failed to open SMTP data stream")
	}
	if _, err := w.Write(msg); err != nil {
		return m.wrap(err, "failed to write message body")
	}
	if err := w.Close(); err != nil {
		return m.wrap(err, "failed to finalize message")
	}

	m.logger.Debug("mail delivered", "to", to, "subject", subject)

	return nil
}

func (m *SMTPMailer) wrap(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
		WithTextCode(TextCodeMailFailed).
		WithMetadata(map[string]any{"host": m.config.Host})
}

var _ Mailer = (*SMTPMailer)(nil)

// LogMailer writes mail to the logger instead of the wire. Used in
// development and as the fallback when no SMTP host is configured.
type LogMailer struct {
	logger Logger
}

func NewLogMailer(logger Logger) *LogMailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info("outgoing mail", "to", to, "subject", subject, "body", body)
	return nil
}

var _ Mailer = (*LogMailer)(nil)
