package reminder

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper clears delivery markers on registrations for events long past,
// bounding marker metadata growth. Registration status and history are
// never touched, and re-running over already-clean records is a no-op.
type Sweeper struct {
	regs      RegistrationStore
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewSweeper constructs a Sweeper. retention is how long after an event's
// start time its markers are kept.
func NewSweeper(regs RegistrationStore, retention time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		regs:      regs,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Run performs one cleanup pass.
func (w *Sweeper) Run(ctx context.Context) {
	cutoff := w.now().Add(-w.retention)
	cleaned, err := w.regs.ClearMarkersBefore(ctx, cutoff)
	if err != nil {
		w.logger.Error("cleanup stale reminder markers", zap.Error(err))
		return
	}
	if cleaned > 0 {
		w.logger.Info("cleaned stale reminder markers", zap.Int64("registrations", cleaned))
	}
}
