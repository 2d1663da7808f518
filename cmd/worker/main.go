// Command worker consumes notification events from RabbitMQ and sends
// the localized emails.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/sportbnb/internal/config"
	"github.com/iliyamo/sportbnb/internal/i18n"
	"github.com/iliyamo/sportbnb/internal/logging"
	"github.com/iliyamo/sportbnb/internal/notify"
)

func main() {
	config.LoadDotEnv()
	log := logging.Init("worker", os.Getenv("APP_ENV"))

	notifyCfg := config.LoadNotifyConfig()
	mailCfg := config.LoadMailConfig()

	var sender notify.Sender = notify.LogSender{Log: log}
	if mailCfg.Host != "" {
		smtp := notify.SMTPSender{
			Host:     mailCfg.Host,
			Port:     mailCfg.Port,
			User:     mailCfg.User,
			Pass:     mailCfg.Pass,
			From:     mailCfg.From,
			FromName: mailCfg.FromName,
			Timeout:  mailCfg.SendTimeout,
		}
		sender = notify.NewBreakerSender(smtp, uint32(mailCfg.BreakerFailures), mailCfg.BreakerCooldown, log)
	} else {
		log.Warn().Msg("SMTP_HOST not set, mails are logged only")
	}

	mailer := notify.NewMailer(i18n.Default(), sender, log)
	consumer := notify.NewConsumer(notifyCfg.AMQPURL, notifyCfg.Queue, mailer, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("queue", notifyCfg.Queue).Msg("worker started")
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("consumer stopped")
	}
	log.Info().Msg("worker stopped")
}
