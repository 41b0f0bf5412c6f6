package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusconnect/eventline/internal/model"
	"github.com/campusconnect/eventline/internal/repository"
)

// memRegStore mimics the repository contract: mutations run one at a time,
// the way the real store serialises them with a row lock, and the error
// taxonomy matches the repository package.
type memRegStore struct {
	mu     sync.Mutex
	events map[uuid.UUID]memEvent
	regs   map[uuid.UUID]*model.Registration
}

type memEvent struct {
	startAt  time.Time
	capacity *int
	active   bool
}

func newMemRegStore() *memRegStore {
	return &memRegStore{
		events: map[uuid.UUID]memEvent{},
		regs:   map[uuid.UUID]*model.Registration{},
	}
}

func (m *memRegStore) addEvent(startAt time.Time, capacity *int) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.events[id] = memEvent{startAt: startAt, capacity: capacity, active: true}
	return id
}

func (m *memRegStore) find(eventID, userID uuid.UUID) *model.Registration {
	for _, reg := range m.regs {
		if reg.EventID == eventID && reg.UserID == userID {
			return reg
		}
	}
	return nil
}

func (m *memRegStore) Register(_ context.Context, eventID, userID uuid.UUID, now time.Time) (*model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.events[eventID]
	if !ok || !event.active {
		return nil, repository.ErrNotFound
	}
	if !now.Before(event.startAt) {
		return nil, repository.ErrRegistrationClosed
	}

	existing := m.find(eventID, userID)
	if existing != nil && existing.Status != model.StatusCancelled {
		return nil, repository.ErrAlreadyRegistered
	}

	if event.capacity != nil {
		active := 0
		for _, reg := range m.regs {
			if reg.EventID == eventID && reg.Active() {
				active++
			}
		}
		if active >= *event.capacity {
			return nil, repository.ErrCapacityExceeded
		}
	}

	if existing != nil {
		existing.Status = model.StatusRegistered
		existing.RegisteredAt = now
		existing.Markers = model.DeliveryMarkers{}
		cp := *existing
		return &cp, nil
	}
	reg := &model.Registration{
		ID:           uuid.New(),
		EventID:      eventID,
		UserID:       userID,
		Status:       model.StatusRegistered,
		RegisteredAt: now,
		Markers:      model.DeliveryMarkers{},
	}
	m.regs[reg.ID] = reg
	cp := *reg
	return &cp, nil
}

func (m *memRegStore) Cancel(_ context.Context, eventID, userID uuid.UUID) (*model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg := m.find(eventID, userID)
	if reg == nil {
		return nil, repository.ErrNotFound
	}
	if reg.Status == model.StatusCancelled {
		return nil, repository.ErrAlreadyCancelled
	}
	reg.Status = model.StatusCancelled
	cp := *reg
	return &cp, nil
}

func (m *memRegStore) Get(_ context.Context, eventID, userID uuid.UUID) (*model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg := m.find(eventID, userID)
	if reg == nil {
		return nil, repository.ErrNotFound
	}
	cp := *reg
	return &cp, nil
}

func (m *memRegStore) ListByEvent(_ context.Context, eventID uuid.UUID, activeOnly bool) ([]model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Registration
	for _, reg := range m.regs {
		if reg.EventID != eventID {
			continue
		}
		if activeOnly && !reg.Active() {
			continue
		}
		out = append(out, *reg)
	}
	return out, nil
}

func (m *memRegStore) markReminderSent(regID uuid.UUID, tier string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.regs[regID].Markers[tier] = model.DeliveryMarker{Sent: true, SentAt: &now}
}

func newTestService(store *memRegStore) *RegistrationService {
	return NewRegistrationService(store, zap.NewNop())
}

func intPtr(v int) *int { return &v }

func TestRegisterHappyPath(t *testing.T) {
	store := newMemRegStore()
	eventID := store.addEvent(time.Now().Add(48*time.Hour), intPtr(100))
	svc := newTestService(store)

	reg, err := svc.Register(context.Background(), eventID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, model.StatusRegistered, reg.Status)
	assert.Empty(t, reg.Markers)
}

func TestRegisterUnknownEvent(t *testing.T) {
	svc := newTestService(newMemRegStore())
	_, err := svc.Register(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRegisterAfterEventStart(t *testing.T) {
	store := newMemRegStore()
	eventID := store.addEvent(time.Now().Add(-time.Minute), nil)
	svc := newTestService(store)

	_, err := svc.Register(context.Background(), eventID, uuid.New())
	assert.ErrorIs(t, err, repository.ErrRegistrationClosed)
}

func TestRegisterTwiceSamePair(t *testing.T) {
	store := newMemRegStore()
	eventID := store.addEvent(time.Now().Add(48*time.Hour), nil)
	svc := newTestService(store)
	userID := uuid.New()

	_, err := svc.Register(context.Background(), eventID, userID)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), eventID, userID)
	assert.ErrorIs(t, err, repository.ErrAlreadyRegistered)
}

func TestConcurrentRegistrationsRespectCapacity(t *testing.T) {
	store := newMemRegStore()
	eventID := store.addEvent(time.Now().Add(48*time.Hour), intPtr(1))
	svc := newTestService(store)

	const attempts = 16
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(), eventID, uuid.New())
		}(i)
	}
	wg.Wait()

	succeeded, full := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, repository.ErrCapacityExceeded):
			full++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one registration fits a capacity-1 event")
	assert.Equal(t, attempts-1, full)

	regs, err := store.ListByEvent(context.Background(), eventID, true)
	require.NoError(t, err)
	assert.Len(t, regs, 1)
}

func TestConcurrentRegistrationsSamePair(t *testing.T) {
	store := newMemRegStore()
	eventID := store.addEvent(time.Now().Add(48*time.Hour), nil)
	svc := newTestService(store)
	userID := uuid.New()

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(), eventID, userID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, repository.ErrAlreadyRegistered)
		}
	}
	assert.Equal(t, 1, succeeded, "at most one active registration per pair")
}

func TestCancelLifecycle(t *testing.T) {
	store := newMemRegStore()
	eventID := store.addEvent(time.Now().Add(48*time.Hour), nil)
	svc := newTestService(store)
	userID := uuid.New()

	_, err := svc.Cancel(context.Background(), eventID, userID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.Register(context.Background(), eventID, userID)
	require.NoError(t, err)

	reg, err := svc.Cancel(context.Background(), eventID, userID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, reg.Status)

	_, err = svc.Cancel(context.Background(), eventID, userID)
	assert.ErrorIs(t, err, repository.ErrAlreadyCancelled)
}

func TestReRegisterAfterCancelResetsMarkers(t *testing.T) {
	store := newMemRegStore()
	eventID := store.addEvent(time.Now().Add(48*time.Hour), nil)
	svc := newTestService(store)
	userID := uuid.New()

	first, err := svc.Register(context.Background(), eventID, userID)
	require.NoError(t, err)
	store.markReminderSent(first.ID, "24h")

	_, err = svc.Cancel(context.Background(), eventID, userID)
	require.NoError(t, err)

	second, err := svc.Register(context.Background(), eventID, userID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRegistered, second.Status)
	assert.False(t, second.Markers.SentFor("24h"), "reactivation must wipe delivery markers")
}

func TestCancelledSeatFreesCapacity(t *testing.T) {
	store := newMemRegStore()
	eventID := store.addEvent(time.Now().Add(48*time.Hour), intPtr(1))
	svc := newTestService(store)
	first := uuid.New()

	_, err := svc.Register(context.Background(), eventID, first)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), eventID, uuid.New())
	assert.ErrorIs(t, err, repository.ErrCapacityExceeded)

	_, err = svc.Cancel(context.Background(), eventID, first)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), eventID, uuid.New())
	assert.NoError(t, err, "a cancelled registration stops counting toward capacity")
}

func TestCheckStatus(t *testing.T) {
	store := newMemRegStore()
	eventID := store.addEvent(time.Now().Add(48*time.Hour), nil)
	svc := newTestService(store)
	userID := uuid.New()

	result, err := svc.CheckStatus(context.Background(), eventID, userID)
	require.NoError(t, err)
	assert.False(t, result.IsRegistered)
	assert.Nil(t, result.Registration)

	_, err = svc.Register(context.Background(), eventID, userID)
	require.NoError(t, err)

	result, err = svc.CheckStatus(context.Background(), eventID, userID)
	require.NoError(t, err)
	assert.True(t, result.IsRegistered)
	require.NotNil(t, result.Registration)

	_, err = svc.Cancel(context.Background(), eventID, userID)
	require.NoError(t, err)

	result, err = svc.CheckStatus(context.Background(), eventID, userID)
	require.NoError(t, err)
	assert.False(t, result.IsRegistered, "a cancelled registration reads as not registered")
}
