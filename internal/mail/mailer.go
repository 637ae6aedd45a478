// Package mail implements the email delivery adapter used to send
// one-time codes to users.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

var (
	// ErrNotConfigured means the SMTP credentials are missing. This is an
	// operator problem, not a user error, and callers surface it as such.
	ErrNotConfigured = errors.New("email configuration is missing, please set mail.username and mail.password")

	// ErrAuth means the SMTP server rejected our credentials.
	ErrAuth = errors.New("email authentication failed, please check your email credentials")

	// ErrConnection means the SMTP server could not be reached.
	ErrConnection = errors.New("could not connect to email server")
)

// Mailer is the delivery adapter the OTP engine dispatches codes through.
type Mailer interface {
	// Configured reports whether sending can possibly succeed. The engine
	// calls this before generating a code so it never persists a code that
	// can't be delivered.
	Configured() error

	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through a plain SMTP account using gomail.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

func NewSMTP(host string, port int, username, password, sender string) *SMTPMailer {
	if sender == "" {
		sender = username
	}

	return &SMTPMailer{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		Sender:   sender,
	}
}

func (m *SMTPMailer) Configured() error {
	if m.Username == "" || m.Password == "" {
		return ErrNotConfigured
	}

	return nil
}

// Send delivers a single text mail. The dial and send run in a separate
// goroutine so the context deadline bounds the whole exchange.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := m.Configured(); err != nil {
		return err
	}

	if to == m.Sender {
		return errors.New("invalid recipient address")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.Sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)

	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(msg)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w, %v", ErrConnection, ctx.Err())
	case err := <-done:
		if err == nil {
			return nil
		}

		return classify(err)
	}
}

func classify(err error) error {
	s := strings.ToLower(err.Error())

	// 535 is the SMTP bad-credentials reply, "auth" covers the rest of the
	// handshake failures gomail reports
	if strings.Contains(s, "535") || strings.Contains(s, "auth") {
		return fmt.Errorf("%w, %v", ErrAuth, err)
	}

	if strings.Contains(s, "dial") || strings.Contains(s, "connect") {
		return fmt.Errorf("%w, %v", ErrConnection, err)
	}

	return err
}
