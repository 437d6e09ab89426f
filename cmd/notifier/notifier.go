package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fitness360/notification-svc/internal/adapters/config"
	"github.com/fitness360/notification-svc/internal/adapters/database/redis"
	"github.com/fitness360/notification-svc/pkg/logger"
	"github.com/fitness360/notification-svc/pkg/logger/types"
	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

// Worker is a background component that runs until its context is canceled.
type Worker interface {
	Run(ctx context.Context)
}

// WorkerFunc adapts a function to Worker.
type WorkerFunc func(ctx context.Context)

func (f WorkerFunc) Run(ctx context.Context) {
	f(ctx)
}

type Notifier struct {
	DB         *gorm.DB
	Redis      *redis.Client
	SMTPDialer *gomail.Dialer
	Location   *time.Location
	Router     http.Handler
	Logger     *types.Logger

	workers []Worker
}

func New(config *config.Config) (*Notifier, error) {
	notifierLogger, err := logger.Named("notifier")
	if err != nil {
		return nil, err
	}

	return &Notifier{
		DB:         config.Database,
		Redis:      config.Redis,
		SMTPDialer: config.SMTPDialer,
		Location:   config.Location,
		Logger:     notifierLogger,
	}, nil
}

// AddWorker registers a component started alongside the HTTP server.
func (n *Notifier) AddWorker(w Worker) {
	n.workers = append(n.workers, w)
}

// Start serves HTTP and runs the workers until SIGINT or SIGTERM.
func (n *Notifier) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if n.Router == nil {
		return errors.New("router is not set up")
	}

	var wg sync.WaitGroup
	for _, w := range n.workers {
		wg.Add(1)
		go func(w Worker) {
			defer wg.Done()
			w.Run(ctx)
		}(w)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", viper.GetString("service.http.host"), viper.GetInt("service.http.port")),
		Handler:           n.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		n.Logger.Infof("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var err error
	select {
	case <-ctx.Done():
		n.Logger.Info("Shutting down")
	case err = <-serveErr:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		n.Logger.Errorf("HTTP server shutdown: %v", errShutdown)
	}
	wg.Wait()

	if errRedis := n.Redis.Close(); errRedis != nil {
		n.Logger.Warnf("Failed to close redis: %v", errRedis)
	}
	if sqlDB, errDB := n.DB.DB(); errDB == nil {
		_ = sqlDB.Close()
	}
	logger.Sync()
	return err
}
