package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourhub-api/config"
	"github.com/oksasatya/tourhub-api/pkg/helpers"
	"github.com/oksasatya/tourhub-api/pkg/mailer"
	"github.com/oksasatya/tourhub-api/pkg/mailer/templates"
)

const (
	prefetch    = 16
	sendTimeout = 15 * time.Second
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env, cfg.LogLevel)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, prefetch)
	if err != nil {
		logger.WithError(err).Fatal("amqp connect failed")
	}
	defer consumer.Close()

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	brand := templates.Brand{AppName: cfg.AppName, SupportURL: cfg.SupportURL}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.WithField("queue", cfg.RabbitMQEmailQueue).Info("email worker listening")
	if err := consumer.Consume(ctx, handler(mg, brand, logger)); err != nil {
		logger.WithError(err).Fatal("consumer stopped")
	}
	logger.Info("email worker stopped")
}

// handler delivers one queued job. Jobs that can never be sent are dropped;
// transport failures are requeued.
func handler(s mailer.Sender, brand templates.Brand, logger *logrus.Logger) func(context.Context, []byte) error {
	return func(ctx context.Context, body []byte) error {
		var job mailer.EmailJob
		if err := json.Unmarshal(body, &job); err != nil {
			logger.WithError(err).Warn("bad message")
			return helpers.ErrDiscard
		}

		c, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()
		err := mailer.Deliver(c, s, job, brand)
		entry := logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template})
		switch {
		case err == nil:
			entry.Info("email sent")
			return nil
		case errors.Is(err, mailer.ErrBadJob):
			entry.WithError(err).Warn("dropping email job")
			return helpers.ErrDiscard
		default:
			entry.WithError(err).Error("send failed")
			return err
		}
	}
}
