package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/oksasatya/tourhub-api/pkg/mailer/templates"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// A job either names a Template with its Data, or carries a ready Subject with
// Text and/or HTML.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

var (
	// ErrUnknownTemplate is returned for templates that are not embedded.
	ErrUnknownTemplate = errors.New("unknown email template")
	// ErrBadJob marks jobs that will never succeed; they must not be retried.
	ErrBadJob = errors.New("malformed email job")
)

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Validate checks that job can be rendered.
func (j EmailJob) Validate() error {
	if j.To == "" {
		return fmt.Errorf("%w: missing recipient", ErrBadJob)
	}
	if j.Template == "" {
		if j.Subject == "" || (j.Text == "" && j.HTML == "") {
			return fmt.Errorf("%w: either template or subject with text/html is required", ErrBadJob)
		}
		return nil
	}
	if !templates.Exists(j.Template) {
		return fmt.Errorf("%w: %w %q", ErrBadJob, ErrUnknownTemplate, j.Template)
	}
	return nil
}

// Deliver renders job when it names a template and hands it to s.
func Deliver(ctx context.Context, s Sender, job EmailJob, brand templates.Brand) error {
	if err := job.Validate(); err != nil {
		return err
	}
	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		var err error
		subject, text, html, err = templates.Render(job.Template, templates.WithBrand(job.Data, brand))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBadJob, err)
		}
	}
	return s.Send(ctx, job.To, subject, text, html)
}
