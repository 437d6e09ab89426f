package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/fitness360/notification-svc/pkg/logger/types"
	"github.com/robfig/cron/v3"
)

// MuteSweepSpec runs the sweep at the start of every minute.
const MuteSweepSpec = "* * * * *"

const sweepTimeout = 30 * time.Second

type muteSweeper interface {
	ClearExpiredMutes(ctx context.Context) (int, error)
}

// MuteScheduler periodically lifts mutes whose deadline has passed.
type MuteScheduler struct {
	service muteSweeper
	cron    *cron.Cron
	logger  *types.Logger

	mu      sync.Mutex
	running bool
}

func NewMuteScheduler(service muteSweeper, location *time.Location, logger *types.Logger) *MuteScheduler {
	if location == nil {
		location = time.Local
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &MuteScheduler{
		service: service,
		cron:    cron.New(cron.WithParser(parser), cron.WithLocation(location)),
		logger:  logger,
	}
}

func (s *MuteScheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(MuteSweepSpec, func() { s.sweep(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("mute sweeper started")
	return nil
}

// Stop waits for a running sweep to finish.
func (s *MuteScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("mute sweeper stopped")
}

func (s *MuteScheduler) sweep(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Debug("previous mute sweep still running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	cleared, err := s.service.ClearExpiredMutes(ctx)
	if err != nil {
		s.logger.Errorf("failed to clear expired mutes: %v", err)
		return
	}
	if cleared > 0 {
		s.logger.Infof("cleared %d expired mutes", cleared)
	}
}
