/*
Package notify routes exception notifications to the operations team.

PURPOSE:
  The detection engine calls Notify for critical exceptions and escalations.
  Every notification is logged. When SMTP is configured it is also emailed
  to the operations recipient.

DELIVERY:
  - Email is optional: an empty host or recipient disables it
  - Send failures are logged and swallowed so detection is never blocked
    by a mail outage

SEE ALSO:
  - exceptions/detector.go: calls Notifier for critical exceptions
  - config/config.go: email.* keys
*/
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/propertyfriends/pf-engine/exceptions"
	"github.com/sirupsen/logrus"
)

var _ exceptions.Notifier = (*Notifier)(nil)

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	From         string
	OpsRecipient string
}

// Enabled reports whether email delivery is configured.
func (c EmailConfig) Enabled() bool {
	return c.Host != "" && c.OpsRecipient != ""
}

// Addr returns host:port, defaulting the port to 587.
func (c EmailConfig) Addr() string {
	port := c.Port
	if port == "" {
		port = "587"
	}
	return c.Host + ":" + port
}

// SendFunc delivers a prepared message.
type SendFunc func(e *email.Email, addr string, auth smtp.Auth) error

func smtpSend(e *email.Email, addr string, auth smtp.Auth) error {
	return e.Send(addr, auth)
}

// Notifier logs exceptions and optionally emails them.
type Notifier struct {
	cfg    EmailConfig
	logger logrus.FieldLogger
	send   SendFunc
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithSendFunc replaces SMTP delivery, for tests.
func WithSendFunc(f SendFunc) Option {
	return func(n *Notifier) { n.send = f }
}

// New creates a Notifier. A nil logger uses the logrus standard logger.
func New(cfg EmailConfig, logger logrus.FieldLogger, opts ...Option) *Notifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	n := &Notifier{cfg: cfg, logger: logger, send: smtpSend}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify logs e and emails it when email is configured. It only returns an
// error for a cancelled context.
func (n *Notifier) Notify(ctx context.Context, e exceptions.Exception) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	log := n.logger.WithFields(logrus.Fields{
		"exception_id": e.ID,
		"type":         e.Type,
		"severity":     e.Severity,
	})
	log.Warn(e.Title)

	if !n.cfg.Enabled() {
		return nil
	}

	msg := Message(n.cfg, e)
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	if err := n.send(msg, n.cfg.Addr(), auth); err != nil {
		log.WithError(err).Error("failed to email exception notification")
		return nil
	}
	log.WithField("to", n.cfg.OpsRecipient).Info("exception notification emailed")
	return nil
}

// Message builds the notification email for e.
func Message(cfg EmailConfig, e exceptions.Exception) *email.Email {
	msg := email.NewEmail()
	msg.From = cfg.From
	msg.To = []string{cfg.OpsRecipient}
	msg.Subject = fmt.Sprintf("[%s] %s", strings.ToUpper(string(e.Severity)), e.Title)

	var b strings.Builder
	b.WriteString(e.Title + "\n\n")
	if e.Description != "" {
		b.WriteString(e.Description + "\n\n")
	}
	fmt.Fprintf(&b, "Type: %s\n", e.Type)
	fmt.Fprintf(&b, "Severity: %s\n", e.Severity)
	for _, link := range []struct{ label, id string }{
		{"Property", e.PropertyID},
		{"Participant", e.ParticipantID},
		{"Claim", e.ClaimID},
	} {
		if link.id != "" {
			fmt.Fprintf(&b, "%s: %s\n", link.label, link.id)
		}
	}
	fmt.Fprintf(&b, "Exception: %s\n", e.ID)
	msg.Text = []byte(b.String())
	return msg
}
