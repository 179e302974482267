package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/staffstore-backend/pkg/config"
	"gopkg.in/gomail.v2"
)

// ErrMailNotConfigured is returned by Send when SMTP host, user or pass is missing.
var ErrMailNotConfigured = errors.New("mail transport not configured")

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, email Email) error
	Configured() bool
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer is an SMTP sender. The underlying dialer is built on first use and reused.
type Mailer struct {
	cfg     config.MailConfig
	once    sync.Once
	dialer  dialer
	newDial func(cfg config.MailConfig) dialer
}

// NewMailer returns a mailer for cfg. Nothing is dialed until Send.
func NewMailer(cfg config.MailConfig) *Mailer {
	return &Mailer{cfg: cfg, newDial: newGomailDialer}
}

func newGomailDialer(cfg config.MailConfig) dialer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.SSL = cfg.ImplicitTLS()
	return d
}

func (m *Mailer) Configured() bool {
	return m != nil && m.cfg.Configured()
}

func (m *Mailer) transport() dialer {
	m.once.Do(func() {
		m.dialer = m.newDial(m.cfg)
	})
	return m.dialer
}

// Send delivers email within the configured send timeout. The SMTP exchange
// itself is not cancellable, so on timeout it finishes in the background.
func (m *Mailer) Send(ctx context.Context, email Email) error {
	if !m.Configured() {
		return ErrMailNotConfigured
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", email.From)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/plain", email.Text)
	if email.HTML != "" {
		msg.AddAlternative("text/html", email.HTML)
	}

	timeout := m.cfg.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	d := m.transport()
	go func() {
		done <- d.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-sendCtx.Done():
		return fmt.Errorf("smtp send: %w", sendCtx.Err())
	}
}
