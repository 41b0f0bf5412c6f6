// Package mailer sends reminder emails over SMTP. It implements the
// reminder.Notifier interface; transport failures are reported to the
// caller, which retries on the next scan tick.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	mail "github.com/wneessen/go-mail"

	"github.com/campusconnect/eventline/internal/config"
	"github.com/campusconnect/eventline/internal/model"
)

const reminderBody = `<!DOCTYPE html>
<html>
  <body style="font-family: sans-serif; color: #333;">
    <h2>{{.Event.Title}} starts {{.TierDescription}}!</h2>
    <p>Hi {{.User.Name}},</p>
    <p>This is your reminder that <strong>{{.Event.Title}}</strong> starts
    {{.TierDescription}}.</p>
    <ul>
      <li><strong>When:</strong> {{.StartAt}}</li>
      {{if .Event.Venue}}<li><strong>Where:</strong> {{.Event.Venue}}</li>{{end}}
      {{if .Event.Organizer}}<li><strong>Organizer:</strong> {{.Event.Organizer}}</li>{{end}}
    </ul>
    <p>See you there!</p>
  </body>
</html>`

// Mailer sends reminder emails through a configured SMTP relay.
type Mailer struct {
	cfg  config.SMTP
	tmpl *template.Template
}

// New constructs a Mailer.
func New(cfg config.SMTP) (*Mailer, error) {
	tmpl, err := template.New("reminder").Parse(reminderBody)
	if err != nil {
		return nil, fmt.Errorf("parse reminder template: %w", err)
	}
	return &Mailer{cfg: cfg, tmpl: tmpl}, nil
}

// SendReminder renders and sends one reminder email. The context bounds the
// dial and send.
func (m *Mailer) SendReminder(ctx context.Context, user model.User, event model.Event, tierDescription string) error {
	var body bytes.Buffer
	err := m.tmpl.Execute(&body, struct {
		User            model.User
		Event           model.Event
		TierDescription string
		StartAt         string
	}{
		User:            user,
		Event:           event,
		TierDescription: tierDescription,
		StartAt:         event.StartAt.Format(time.RFC1123),
	})
	if err != nil {
		return fmt.Errorf("render reminder email: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(user.Email); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(fmt.Sprintf("Reminder: %s starts %s", event.Title, tierDescription))
	msg.SetBodyString(mail.TypeTextHTML, body.String())

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.User),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send reminder email: %w", err)
	}
	return nil
}
