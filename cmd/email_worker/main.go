package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-eventhub/config"
	"github.com/oksasatya/go-eventhub/pkg/helpers"
	"github.com/oksasatya/go-eventhub/pkg/mailer"
)

const (
	sendTimeout = 15 * time.Second
	consumerTag = "email-worker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env, cfg.LogLevel)

	if cfg.RabbitMQURL == "" || cfg.RabbitMQEventsQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}

	var sender mailer.Sender = mailer.LogSender{Logger: logger}
	if cfg.MailSendEnabled {
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
			logger.Fatal("Mailgun not configured")
		}
		sender = mailer.NewMailgunSender(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender, "event-notification")
	} else {
		logger.Info("MAIL_SEND_ENABLED=false; jobs will be logged, not mailed")
	}

	conn, ch, err := helpers.DialRabbit(cfg.RabbitMQURL, cfg.RabbitMQEventsQueue)
	if err != nil {
		logger.Fatalf("amqp: %v", err)
	}
	defer func() { _ = conn.Close() }()
	defer func() { _ = ch.Close() }()

	// Prefetch for fair dispatch across workers
	if err := ch.Qos(16, 0, false); err != nil {
		logger.Fatalf("qos: %v", err)
	}
	msgs, err := ch.Consume(cfg.RabbitMQEventsQueue, consumerTag, false, false, false, false, nil)
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			job, outcome, err := mailer.Handle(ctx, sender, msg.Body, sendTimeout)
			entry := logger.WithFields(logrus.Fields{"message_id": msg.MessageId, "template": job.Template, "outcome": outcome.String()})
			switch outcome {
			case mailer.Ack:
				_ = msg.Ack(false)
				entry.Debug("job delivered")
			case mailer.Drop:
				_ = msg.Nack(false, false)
				entry.WithError(err).Warn("dropping job")
			case mailer.Requeue:
				_ = msg.Nack(false, true)
				entry.WithError(err).WithField("to", job.To).Warn("send failed; requeueing")
			}
		}
	}()

	logger.Infof("email worker listening on queue=%s", cfg.RabbitMQEventsQueue)
	<-ctx.Done()
	logger.Info("shutting down...")
	_ = ch.Cancel(consumerTag, false)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
