package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusconnect/eventline/internal/model"
	"github.com/campusconnect/eventline/internal/repository"
)

// RegistrationStore is the registration persistence the dispatcher and
// sweeper need.
type RegistrationStore interface {
	ListActiveByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Registration, error)
	MarkReminderSent(ctx context.Context, regID uuid.UUID, tier string, at time.Time) error
	ClearMarkersBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserSource resolves registrants to recipients.
type UserSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// DispatchResult summarises one dispatch pass over an event.
type DispatchResult struct {
	Sent    int
	Skipped int
	Failed  int
}

// Dispatcher sends tier reminders to every eligible registrant of an event,
// at most once per (registration, tier).
type Dispatcher struct {
	regs     RegistrationStore
	users    UserSource
	notifier Notifier
	logger   *zap.Logger

	throttle    time.Duration
	sendTimeout time.Duration
	now         func() time.Time
}

// NewDispatcher constructs a Dispatcher. throttle spaces consecutive
// notifier calls; sendTimeout bounds each one.
func NewDispatcher(regs RegistrationStore, users UserSource, notifier Notifier, throttle, sendTimeout time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		regs:        regs,
		users:       users,
		notifier:    notifier,
		logger:      logger,
		throttle:    throttle,
		sendTimeout: sendTimeout,
		now:         time.Now,
	}
}

// DispatchForEvent sends the tier's reminder to each active registrant of
// the event. Per-recipient failures are logged and leave the delivery
// marker unset so the next scan tick retries; they never abort the batch.
func (d *Dispatcher) DispatchForEvent(ctx context.Context, event model.Event, tier Tier) DispatchResult {
	var res DispatchResult

	regs, err := d.regs.ListActiveByEvent(ctx, event.ID)
	if err != nil {
		d.logger.Error("load registrations for reminder",
			zap.String("event_id", event.ID.String()),
			zap.String("tier", tier.Name),
			zap.Error(err),
		)
		return res
	}

	for i, reg := range regs {
		if ctx.Err() != nil {
			return res
		}
		if i > 0 {
			d.pause(ctx)
		}

		// Opt-out is a property of the user, not the registration, so the
		// filtering happens here rather than in the store query.
		user, err := d.users.GetByID(ctx, reg.UserID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				d.logger.Warn("resolve registrant",
					zap.String("registration_id", reg.ID.String()),
					zap.Error(err),
				)
			}
			res.Skipped++
			continue
		}
		if !user.IsActive || !user.EmailReminders {
			res.Skipped++
			continue
		}

		// Idempotency guard: a marker set by an earlier tick (or another
		// scanner instance) means this reminder already went out.
		if reg.Markers.SentFor(tier.Name) {
			res.Skipped++
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
		err = d.notifier.SendReminder(sendCtx, *user, event, tier.Describe())
		cancel()
		if err != nil {
			res.Failed++
			d.logger.Warn("send reminder",
				zap.String("to", user.Email),
				zap.String("event", event.Title),
				zap.String("tier", tier.Name),
				zap.Error(err),
			)
			continue
		}

		if err := d.regs.MarkReminderSent(ctx, reg.ID, tier.Name, d.now().UTC()); err != nil {
			if errors.Is(err, repository.ErrMarkerConflict) {
				// A concurrent scanner got there first; it owns the send.
				res.Skipped++
				continue
			}
			// Marker write failed after a successful send. The next tick
			// may double-send this one recipient; flag it loudly.
			res.Failed++
			d.logger.Error("record reminder delivery",
				zap.String("registration_id", reg.ID.String()),
				zap.String("tier", tier.Name),
				zap.Error(err),
			)
			continue
		}
		res.Sent++
	}

	d.logger.Info("reminder dispatch complete",
		zap.String("event", event.Title),
		zap.String("tier", tier.Name),
		zap.Int("sent", res.Sent),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
	return res
}

// pause throttles outbound notifier calls without outliving the context.
func (d *Dispatcher) pause(ctx context.Context) {
	if d.throttle <= 0 {
		return
	}
	t := time.NewTimer(d.throttle)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
