package mailer

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourhub-api/pkg/mailer/templates"
)

// Publisher puts a JSON message on the email queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueNotifier hands jobs to the email worker through RabbitMQ. Delivery
// errors after the publish are the worker's concern.
type QueueNotifier struct {
	Pub Publisher
}

func NewQueueNotifier(pub Publisher) *QueueNotifier {
	return &QueueNotifier{Pub: pub}
}

func (n *QueueNotifier) Send(ctx context.Context, to, template string, data map[string]any) error {
	job := EmailJob{To: to, Template: template, Data: data}
	if err := job.Validate(); err != nil {
		return err
	}
	return n.Pub.PublishJSON(ctx, job)
}

// MailgunNotifier renders and sends in the calling goroutine. Used when no
// broker is configured.
type MailgunNotifier struct {
	Sender Sender
	Brand  templates.Brand
}

func NewMailgunNotifier(s Sender, brand templates.Brand) *MailgunNotifier {
	return &MailgunNotifier{Sender: s, Brand: brand}
}

func (n *MailgunNotifier) Send(ctx context.Context, to, template string, data map[string]any) error {
	return Deliver(ctx, n.Sender, EmailJob{To: to, Template: template, Data: data}, n.Brand)
}

// LogNotifier only logs. For development with MAIL_SEND_ENABLED=false.
type LogNotifier struct {
	Logger *logrus.Logger
}

func (n *LogNotifier) Send(_ context.Context, to, template string, data map[string]any) error {
	job := EmailJob{To: to, Template: template, Data: data}
	if err := job.Validate(); err != nil {
		return err
	}
	n.Logger.WithFields(logrus.Fields{
		"to":       to,
		"template": template,
		"data":     data,
	}).Info("email not sent (mail sending disabled)")
	return nil
}
