package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/tourhub-api/pkg/mailer/templates"
)

type fakeSender struct {
	to, subject, text, html string
	calls                   int
	err                     error
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	f.calls++
	f.to, f.subject, f.text, f.html = to, subject, text, html
	return f.err
}

type fakePublisher struct {
	jobs []EmailJob
}

func (f *fakePublisher) PublishJSON(_ context.Context, body any) error {
	f.jobs = append(f.jobs, body.(EmailJob))
	return nil
}

func TestDeliverRendersPasswordReset(t *testing.T) {
	s := &fakeSender{}
	job := EmailJob{To: "leo@example.com", Template: templates.PasswordReset, Data: map[string]any{
		"name":            "Leo",
		"reset_url":       "https://tours.example/reset/abc123",
		"expires_minutes": 10,
	}}

	err := Deliver(context.Background(), s, job, templates.Brand{AppName: "Natours"})
	require.NoError(t, err)
	assert.Equal(t, "leo@example.com", s.to)
	assert.Equal(t, "Your password reset token (valid for 10 minutes)", s.subject)
	assert.Contains(t, s.text, "Hi Leo,")
	assert.Contains(t, s.text, "https://tours.example/reset/abc123")
	assert.Contains(t, s.text, "-- Natours")
	assert.Contains(t, s.html, `href="https://tours.example/reset/abc123"`)
}

func TestDeliverWelcomeDefaults(t *testing.T) {
	s := &fakeSender{}
	err := Deliver(context.Background(), s, EmailJob{To: "a@example.com", Template: templates.Welcome}, templates.Brand{})
	require.NoError(t, err)
	assert.Equal(t, "Welcome to the Tourhub family!", s.subject)
	assert.Contains(t, s.text, "Hi there,")
	assert.NotContains(t, s.text, "no value")
}

func TestDeliverRawJob(t *testing.T) {
	s := &fakeSender{}
	err := Deliver(context.Background(), s, EmailJob{To: "a@example.com", Subject: "Hi", Text: "plain"}, templates.Brand{})
	require.NoError(t, err)
	assert.Equal(t, "Hi", s.subject)
	assert.Equal(t, "plain", s.text)
}

func TestDeliverRejectsBadJobs(t *testing.T) {
	s := &fakeSender{}
	for _, job := range []EmailJob{
		{Template: templates.Welcome},
		{To: "a@example.com"},
		{To: "a@example.com", Template: "newsletter"},
	} {
		err := Deliver(context.Background(), s, job, templates.Brand{})
		assert.ErrorIs(t, err, ErrBadJob)
	}
	assert.Zero(t, s.calls)
}

func TestDeliverPassesSendError(t *testing.T) {
	boom := errors.New("mailgun down")
	s := &fakeSender{err: boom}
	err := Deliver(context.Background(), s, EmailJob{To: "a@example.com", Template: templates.Welcome}, templates.Brand{})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrBadJob)
}

func TestQueueNotifierPublishesJob(t *testing.T) {
	pub := &fakePublisher{}
	n := NewQueueNotifier(pub)

	require.NoError(t, n.Send(context.Background(), "a@example.com", templates.Welcome, map[string]any{"name": "Ann"}))
	require.Len(t, pub.jobs, 1)
	assert.Equal(t, EmailJob{To: "a@example.com", Template: templates.Welcome, Data: map[string]any{"name": "Ann"}}, pub.jobs[0])

	err := n.Send(context.Background(), "a@example.com", "unknown", nil)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
	assert.Len(t, pub.jobs, 1)
}

func TestLogNotifier(t *testing.T) {
	logger, hook := test.NewNullLogger()
	n := &LogNotifier{Logger: logger}

	require.NoError(t, n.Send(context.Background(), "a@example.com", templates.PasswordReset, map[string]any{"reset_url": "u"}))
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, templates.PasswordReset, hook.LastEntry().Data["template"])
}
