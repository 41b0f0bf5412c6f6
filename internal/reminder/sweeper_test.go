package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusconnect/eventline/internal/model"
)

func TestSweeperClearsMarkersForOldEvents(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)

	oldEvent := store.addEvent(now.Add(-4 * 24 * time.Hour))
	recentEvent := store.addEvent(now.Add(-24 * time.Hour))

	user := store.addUser(true, true)
	oldReg := store.addRegistration(oldEvent.ID, user.ID, model.StatusCheckedIn)
	recentReg := store.addRegistration(recentEvent.ID, user.ID, model.StatusCheckedIn)
	require.NoError(t, store.MarkReminderSent(context.Background(), oldReg.ID, "24h", now))
	require.NoError(t, store.MarkReminderSent(context.Background(), recentReg.ID, "24h", now))

	w := NewSweeper(store, 72*time.Hour, zap.NewNop())
	w.now = func() time.Time { return now }
	w.Run(context.Background())

	assert.Empty(t, store.markers(oldReg.ID), "markers for a 4-day-old event must be cleared")
	assert.True(t, store.markers(recentReg.ID).SentFor("24h"), "markers for a 1-day-old event must survive")

	// Second run over already-clean records is a no-op.
	w.Run(context.Background())
	assert.Empty(t, store.markers(oldReg.ID))
}
