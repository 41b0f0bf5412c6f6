package reminder

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SchedulerConfig carries the externally configured scheduling knobs.
type SchedulerConfig struct {
	Tiers           []Tier
	CleanupSchedule string // cron spec, e.g. "0 2 * * *"
}

// Scheduler owns the cron instance driving the reminder scanner and the
// cleanup sweeper. It is constructed with its configuration and started and
// stopped by its owner; there is no ambient singleton.
type Scheduler struct {
	cron    *cron.Cron
	scanner *Scanner
	sweeper *Sweeper
	cfg     SchedulerConfig
	logger  *zap.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler constructs a Scheduler. Overlapping runs of the same job are
// skipped: a tick that fires while the previous one is still working would
// only re-scan the same window, and the delivery markers already make that
// redundant.
func NewScheduler(cfg SchedulerConfig, scanner *Scanner, sweeper *Sweeper, logger *zap.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger)))
	return &Scheduler{
		cron:    c,
		scanner: scanner,
		sweeper: sweeper,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start registers one scan job per tier plus the cleanup job and starts the
// cron loop. Calling Start on a running scheduler is an error.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	for _, tier := range s.cfg.Tiers {
		tier := tier
		spec := "@every " + tier.Every.String()
		if _, err := s.cron.AddFunc(spec, func() {
			s.scanner.ScanTier(context.Background(), tier)
		}); err != nil {
			return fmt.Errorf("register %s tier scan: %w", tier.Name, err)
		}
		s.logger.Info("reminder tier scheduled",
			zap.String("tier", tier.Name),
			zap.Duration("lookahead", tier.Lookahead),
			zap.Duration("every", tier.Every),
		)
	}

	if _, err := s.cron.AddFunc(s.cfg.CleanupSchedule, func() {
		s.sweeper.Run(context.Background())
	}); err != nil {
		return fmt.Errorf("register cleanup job: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("reminder scheduler started",
		zap.Int("tiers", len(s.cfg.Tiers)),
		zap.String("cleanup_schedule", s.cfg.CleanupSchedule),
	)
	return nil
}

// Stop halts the cron loop and waits for in-flight jobs to finish, bounded
// by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false

	done := s.cron.Stop().Done()
	select {
	case <-done:
		s.logger.Info("reminder scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for reminder jobs: %w", ctx.Err())
	}
}
