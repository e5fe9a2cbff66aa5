package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
	"github.com/sirupsen/logrus"
)

// MailgunSender delivers through the Mailgun HTTP API. One client is shared by all sends.
type MailgunSender struct {
	client  mg.Mailgun
	from    string
	tag     string
	timeout time.Duration
}

func NewMailgunSender(domain, apiKey, from, tag string) *MailgunSender {
	return &MailgunSender{
		client:  mg.NewMailgun(domain, apiKey),
		from:    from,
		tag:     tag,
		timeout: 10 * time.Second,
	}
}

func (m *MailgunSender) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.from, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	if m.tag != "" {
		if err := msg.AddTag(m.tag); err != nil {
			return err
		}
	}
	c, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}

// LogSender only logs what would have been sent. The worker uses it when
// real delivery is switched off so the queue still drains.
type LogSender struct {
	Logger *logrus.Logger
}

func (l LogSender) Send(_ context.Context, to, subject, text, html string) error {
	l.Logger.WithFields(logrus.Fields{
		"to":        to,
		"subject":   subject,
		"text_len":  len(text),
		"html_len":  len(html),
		"delivered": false,
	}).Info("mail send disabled; message logged")
	return nil
}
