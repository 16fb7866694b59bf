// Package mailer sends notification email over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Email is one outgoing message. HTMLBody is optional.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers email. Implementations report success or failure; callers
// decide whether a failure blocks their workflow.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// Config is the SMTP connection.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// Mailer is the SMTP Sender.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	name   string
	log    *zap.Logger
}

// ErrNoRecipient is returned when Email.To is empty.
var ErrNoRecipient = errors.New("mailer: no recipient")

// New builds a Mailer. With an empty Host, messages are logged and dropped.
func New(cfg Config, logger *zap.Logger) *Mailer {
	m := &Mailer{from: cfg.From, name: cfg.FromName, log: logger}
	if cfg.Host != "" {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	}
	return m
}

// Send delivers e. The gomail dialer has no context support, so ctx is only
// checked before dialing.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	if strings.TrimSpace(e.To) == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.dialer == nil {
		m.log.Info("mail disabled; message dropped",
			zap.String("to", e.To),
			zap.String("subject", e.Subject))
		return nil
	}

	msg := gomail.NewMessage()
	if m.name != "" {
		msg.SetAddressHeader("From", m.from, m.name)
	} else {
		msg.SetHeader("From", m.from)
	}
	msg.SetHeader("To", splitRecipients(e.To)...)
	msg.SetHeader("Subject", e.Subject)
	msg.SetBody("text/plain", e.TextBody)
	if e.HTMLBody != "" {
		msg.AddAlternative("text/html", e.HTMLBody)
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", e.To, err)
	}
	return nil
}

func splitRecipients(to string) []string {
	parts := strings.Split(to, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
