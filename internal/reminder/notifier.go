package reminder

import (
	"context"

	"go.uber.org/zap"

	"github.com/campusconnect/eventline/internal/model"
)

// Notifier delivers a reminder to one recipient. Implementations are
// expected to fail transiently; the dispatcher retries on the next scan
// tick rather than immediately.
type Notifier interface {
	SendReminder(ctx context.Context, user model.User, event model.Event, tierDescription string) error
}

// LogNotifier writes reminders to the log instead of sending them. Used in
// development and whenever no SMTP host is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendReminder(_ context.Context, user model.User, event model.Event, tierDescription string) error {
	n.logger.Info("reminder (log only)",
		zap.String("to", user.Email),
		zap.String("event", event.Title),
		zap.String("starts", tierDescription),
	)
	return nil
}
