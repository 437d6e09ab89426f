package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	postgresStorage "github.com/fitness360/notification-svc/internal/adapters/database/postgres"
	"github.com/fitness360/notification-svc/internal/adapters/database/redis"
	"github.com/fitness360/notification-svc/internal/domain/utils/location"
	"github.com/fitness360/notification-svc/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type Config struct {
	Database   *gorm.DB
	Redis      *redis.Client
	SMTPDialer *gomail.Dialer
	Location   *time.Location
}

func setDefaults() {
	viper.SetDefault("settings.debug", false)
	viper.SetDefault("settings.timezone", "America/Sao_Paulo")
	viper.SetDefault("settings.logs-dir", "logs")
	viper.SetDefault("settings.default-language", "pt-BR")
	viper.SetDefault("settings.logging.channel-log-level", int(2)) // zapcore.ErrorLevel

	viper.SetDefault("service.http.host", "0.0.0.0")
	viper.SetDefault("service.http.port", 3000)
	viper.SetDefault("service.database.port", 5432)
	viper.SetDefault("service.database.sslmode", "disable")
	viper.SetDefault("service.redis.port", 6379)
	viper.SetDefault("service.redis.db", 0)
	viper.SetDefault("service.redis.preferences-ttl", 300)
	viper.SetDefault("service.smtp.port", 587)
	viper.SetDefault("service.kafka.topic", "notifications.send")
	viper.SetDefault("service.kafka.group-id", "notification-service")
}

// initConfig reads .env and config.yaml. Every key can be overridden from the environment,
// e.g. SERVICE_DATABASE_PASSWORD for service.database.password.
func initConfig(paths ...string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, path := range paths {
		viper.AddConfigPath(path)
	}
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

func Get() *Config {
	if err := initConfig(); err != nil {
		panic(err)
	}

	loc, err := location.Load(viper.GetString("settings.timezone"))
	if err != nil {
		panic(err)
	}

	err = logger.Init(logger.Config{
		Debug:        viper.GetBool("settings.debug"),
		TimeLocation: loc,
		LogToFile:    viper.GetBool("settings.log-to-file"),
		LogsDir:      viper.GetString("settings.logs-dir"),
	})
	if err != nil {
		panic(err)
	}

	var gormConfig *gorm.Config
	if viper.GetBool("settings.debug") {
		newLogger := gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold: time.Second,
				LogLevel:      gormLogger.Info,
				Colorful:      true,
			},
		)
		gormConfig = &gorm.Config{
			Logger: newLogger,
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		}
	}

	database, err := gorm.Open(postgres.Open(DSN()), gormConfig)
	if err != nil {
		logger.Log.Panicf("Failed to connect to the database: %v", err)
	} else {
		logger.Log.Info("Successfully connected to the database")
	}

	errMigrate := database.AutoMigrate(postgresStorage.Migrations...)
	if errMigrate != nil {
		logger.Log.Panicf("Failed to migrate database: %v", errMigrate)
	}

	redisClient, err := redis.New(context.Background(), redis.Options{
		Host:     viper.GetString("service.redis.host"),
		Port:     viper.GetString("service.redis.port"),
		Password: viper.GetString("service.redis.password"),
		DB:       viper.GetInt("service.redis.db"),
	}, viper.GetInt("service.redis.preferences-ttl"))
	if err != nil {
		logger.Log.Panicf("Failed to connect to redis: %v", err)
	} else {
		logger.Log.Info("Successfully connected to redis")
	}

	return &Config{
		Database: database,
		Redis:    redisClient,
		SMTPDialer: gomail.NewDialer(
			viper.GetString("service.smtp.host"),
			viper.GetInt("service.smtp.port"),
			viper.GetString("service.smtp.email"),
			viper.GetString("service.smtp.password"),
		),
		Location: loc,
	}
}

// DSN builds the postgres connection string; sessions run in UTC.
func DSN() string {
	return fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%d sslmode=%s TimeZone=UTC",
		viper.GetString("service.database.user"),
		viper.GetString("service.database.password"),
		viper.GetString("service.database.name"),
		viper.GetString("service.database.host"),
		viper.GetInt("service.database.port"),
		viper.GetString("service.database.sslmode"),
	)
}
