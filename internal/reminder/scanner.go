package reminder

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campusconnect/eventline/internal/model"
)

// EventSource is the event query the scanner needs.
type EventSource interface {
	StartingBetween(ctx context.Context, from, to time.Time) ([]model.Event, error)
}

// Scanner finds events entering a tier's reminder window and drives the
// dispatcher for each. Window-based polling keeps the pipeline restart-safe:
// a missed tick means the next tick's window catches the same event, and the
// dispatcher's delivery markers stop duplicates.
type Scanner struct {
	events     EventSource
	dispatcher *Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewScanner constructs a Scanner.
func NewScanner(events EventSource, dispatcher *Dispatcher, logger *zap.Logger) *Scanner {
	return &Scanner{
		events:     events,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// ScanTier runs one scan tick for the tier: query active public events whose
// start time falls in the tier's window and dispatch reminders for each.
// Errors are logged, never propagated; the next tick is the retry.
func (s *Scanner) ScanTier(ctx context.Context, tier Tier) {
	now := s.now()
	from, to := tier.Window(now)

	events, err := s.events.StartingBetween(ctx, from, to)
	if err != nil {
		s.logger.Error("scan events for reminders",
			zap.String("tier", tier.Name),
			zap.Time("window_start", from),
			zap.Time("window_end", to),
			zap.Error(err),
		)
		return
	}
	if len(events) == 0 {
		return
	}

	s.logger.Info("events entering reminder window",
		zap.String("tier", tier.Name),
		zap.Int("count", len(events)),
	)
	for _, event := range events {
		if ctx.Err() != nil {
			return
		}
		s.dispatcher.DispatchForEvent(ctx, event, tier)
	}
}
