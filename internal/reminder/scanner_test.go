package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/campusconnect/eventline/internal/model"
)

func TestScanTierDispatchesEventsInWindow(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	inWindow := store.addEvent(now.Add(23*time.Hour + 30*time.Minute))
	store.addEvent(now.Add(22 * time.Hour)) // before the window
	store.addEvent(now.Add(25 * time.Hour)) // after the window

	user := store.addUser(true, true)
	store.addRegistration(inWindow.ID, user.ID, model.StatusRegistered)

	notifier := newFakeNotifier()
	d := newTestDispatcher(store, notifier)
	s := NewScanner(store, d, d.logger)
	s.now = func() time.Time { return now }

	s.ScanTier(context.Background(), testTier)
	assert.Equal(t, 1, notifier.sentCount())
}

func TestScanTierSkipsPrivateEvents(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	private := store.addEvent(now.Add(23*time.Hour + 30*time.Minute))
	private.Visibility = model.VisibilityPrivate
	store.events[private.ID] = private

	user := store.addUser(true, true)
	store.addRegistration(private.ID, user.ID, model.StatusRegistered)

	notifier := newFakeNotifier()
	d := newTestDispatcher(store, notifier)
	s := NewScanner(store, d, d.logger)
	s.now = func() time.Time { return now }

	s.ScanTier(context.Background(), testTier)
	assert.Zero(t, notifier.sentCount())
}

// Consecutive ticks over the same event send exactly once: the second
// tick's window no longer contains the event, and even an overlapping
// re-scan is stopped by the delivery marker.
func TestConsecutiveTicksSendOnce(t *testing.T) {
	store := newFakeStore()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	event := store.addEvent(base.Add(24 * time.Hour)) // exactly on the first tick's upper bound
	user := store.addUser(true, true)
	store.addRegistration(event.ID, user.ID, model.StatusRegistered)

	notifier := newFakeNotifier()
	d := newTestDispatcher(store, notifier)
	s := NewScanner(store, d, d.logger)

	for tick := 0; tick < 3; tick++ {
		now := base.Add(time.Duration(tick) * testTier.Every)
		s.now = func() time.Time { return now }
		s.ScanTier(context.Background(), testTier)
	}
	assert.Equal(t, 1, notifier.sentCount())
}
