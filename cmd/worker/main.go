package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"eventhub/config"
	"eventhub/internal/adapters/email"
	"eventhub/internal/adapters/messaging"
	"eventhub/internal/repository/postgres"
	"eventhub/internal/services"
)

func main() {
	logger := config.NewLogger().With("component", "worker")
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("worker stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.AMQP.URL == "" {
		return errors.New("AMQP_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()

	mailer := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Mail.Provider,
		FromAddress: cfg.Mail.FromAddress,
		FromName:    cfg.Mail.FromName,
		SES: email.SESConfig{
			Region:             cfg.Mail.SESRegion,
			AccessKeyID:        cfg.Mail.SESAccessKeyID,
			SecretAccessKey:    cfg.Mail.SESSecretAccessKey,
			InsecureSkipVerify: cfg.Mail.InsecureSkipVerify,
		},
	}, logger)
	emails := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)
	notifier := services.NewRSVPNotifier(postgres.NewUserRepository(db), postgres.NewEventRepository(db), emails, logger)

	consumer := messaging.NewConsumer(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, notifier, logger)
	logger.Info("consuming", "queue", cfg.AMQP.Queue, "exchange", cfg.AMQP.Exchange, "binding", messaging.RSVPBindingKey)
	return consumer.Run(ctx)
}
