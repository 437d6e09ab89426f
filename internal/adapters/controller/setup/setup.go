package setup

import (
	"context"

	"github.com/fitness360/notification-svc/cmd/notifier"
	"github.com/fitness360/notification-svc/internal/adapters/channels/push"
	"github.com/fitness360/notification-svc/internal/adapters/channels/whatsapp"
	"github.com/fitness360/notification-svc/internal/adapters/controller/kafka"
	"github.com/fitness360/notification-svc/internal/adapters/controller/rest"
	"github.com/fitness360/notification-svc/internal/adapters/controller/rest/ws"
	"github.com/fitness360/notification-svc/internal/adapters/controller/scheduler"
	"github.com/fitness360/notification-svc/internal/adapters/controller/telegram"
	"github.com/fitness360/notification-svc/internal/adapters/database/postgres"
	"github.com/fitness360/notification-svc/internal/domain/service"
	"github.com/fitness360/notification-svc/pkg/logger"
	"github.com/fitness360/notification-svc/pkg/logger/types"
	"github.com/fitness360/notification-svc/pkg/smtp"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Setup builds storages, services and controllers and attaches them to n.
func Setup(n *notifier.Notifier) error {
	loggers, err := namedLoggers("preferences", "templates", "grouping", "dispatcher", "notification", "http", "feed", "kafka", "scheduler", "telegram")
	if err != nil {
		return err
	}

	// Storages
	notificationStorage := postgres.NewNotificationStorage(n.DB)
	preferenceStorage := postgres.NewPreferenceStorage(n.DB)
	settingsStorage := postgres.NewSettingsStorage(n.DB)
	templateStorage := postgres.NewTemplateStorage(n.DB)
	userStorage := postgres.NewUserStorage(n.DB)

	// Channel adapters
	emailClient := smtp.NewClient(n.SMTPDialer, viper.GetString("service.smtp.email"), viper.GetString("service.smtp.domain"))
	pushClient := push.NewClient(push.Options{
		Endpoint:  viper.GetString("service.push.endpoint"),
		ServerKey: viper.GetString("service.push.server-key"),
	})
	whatsappClient := whatsapp.NewClient(whatsapp.Options{
		BaseURL:    viper.GetString("service.whatsapp.endpoint"),
		AccountSID: viper.GetString("service.whatsapp.account-sid"),
		AuthToken:  viper.GetString("service.whatsapp.auth-token"),
		From:       viper.GetString("service.whatsapp.from"),
	})

	// Services
	preferenceService := service.NewPreferenceService(
		preferenceStorage,
		settingsStorage,
		n.Redis.Preferences,
		userStorage,
		n.Location,
		loggers["preferences"],
	)
	templateService := service.NewTemplateService(templateStorage, viper.GetString("settings.default-language"), loggers["templates"])
	groupingService := service.NewGroupingService(notificationStorage, loggers["grouping"])
	dispatcher := service.NewDispatcher(emailClient, pushClient, whatsappClient, viper.GetString("service.smtp.footer"), loggers["dispatcher"])
	notificationService := service.NewNotificationService(
		notificationStorage,
		userStorage,
		preferenceService,
		groupingService,
		templateService,
		dispatcher,
		loggers["notification"],
	)

	hub := ws.NewHub(loggers["feed"])
	notificationService.SetFeed(hub)

	// Controllers
	handler := rest.NewHandler(notificationService, preferenceService, templateService, hub, loggers["http"])
	n.Router = rest.NewRouter(handler)

	muteScheduler := scheduler.NewMuteScheduler(preferenceService, n.Location, loggers["scheduler"])
	n.AddWorker(notifier.WorkerFunc(func(ctx context.Context) {
		if err := muteScheduler.Start(ctx); err != nil {
			loggers["scheduler"].Errorf("Failed to start mute sweeper: %v", err)
			return
		}
		<-ctx.Done()
		muteScheduler.Stop()
	}))

	if viper.GetBool("service.kafka.enabled") {
		consumer := kafka.NewConsumer(kafka.Options{
			Brokers: viper.GetStringSlice("service.kafka.brokers"),
			Topic:   viper.GetString("service.kafka.topic"),
			GroupID: viper.GetString("service.kafka.group-id"),
		}, notificationService, loggers["kafka"])
		n.AddWorker(notifier.WorkerFunc(func(ctx context.Context) {
			if err := consumer.Run(ctx); err != nil {
				loggers["kafka"].Errorf("Kafka consumer stopped: %v", err)
			}
		}))
	}

	if viper.GetBool("settings.logging.log-to-channel") {
		bot, err := telegram.NewBot(viper.GetString("settings.logging.bot-token"))
		if err != nil {
			return err
		}
		forwarder := telegram.NewLogForwarder(
			bot,
			viper.GetInt64("settings.logging.channel-id"),
			zapcore.Level(viper.GetInt("settings.logging.channel-log-level")),
			loggers["telegram"],
		)
		logger.SetLogHook(forwarder.Hook())
		n.AddWorker(forwarder)
	}

	return nil
}

func namedLoggers(names ...string) (map[string]*types.Logger, error) {
	loggers := make(map[string]*types.Logger, len(names))
	for _, name := range names {
		l, err := logger.Named(name)
		if err != nil {
			return nil, err
		}
		loggers[name] = l
	}
	return loggers, nil
}
