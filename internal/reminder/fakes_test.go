package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusconnect/eventline/internal/model"
	"github.com/campusconnect/eventline/internal/repository"
)

// fakeStore is an in-memory stand-in for the repository layer implementing
// RegistrationStore, UserSource, and EventSource.
type fakeStore struct {
	mu     sync.Mutex
	events map[uuid.UUID]model.Event
	regs   map[uuid.UUID]*model.Registration
	users  map[uuid.UUID]*model.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events: map[uuid.UUID]model.Event{},
		regs:   map[uuid.UUID]*model.Registration{},
		users:  map[uuid.UUID]*model.User{},
	}
}

func (f *fakeStore) addEvent(startAt time.Time) model.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := model.Event{
		ID:         uuid.New(),
		Title:      "Tech Talk",
		Type:       model.EventTechnical,
		StartAt:    startAt,
		Venue:      "Auditorium",
		Visibility: model.VisibilityPublic,
		IsActive:   true,
	}
	f.events[e.ID] = e
	return e
}

func (f *fakeStore) addUser(active, reminders bool) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &model.User{
		ID:             uuid.New(),
		Name:           "Jordan",
		Email:          uuid.NewString() + "@campus.edu",
		IsActive:       active,
		EmailReminders: reminders,
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeStore) addRegistration(eventID, userID uuid.UUID, status model.RegistrationStatus) *model.Registration {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg := &model.Registration{
		ID:           uuid.New(),
		EventID:      eventID,
		UserID:       userID,
		Status:       status,
		RegisteredAt: time.Now(),
		Markers:      model.DeliveryMarkers{},
	}
	f.regs[reg.ID] = reg
	return reg
}

func (f *fakeStore) ListActiveByEvent(_ context.Context, eventID uuid.UUID) ([]model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Registration
	for _, reg := range f.regs {
		if reg.EventID != eventID || !reg.Active() {
			continue
		}
		cp := *reg
		cp.Markers = model.DeliveryMarkers{}
		for k, v := range reg.Markers {
			cp.Markers[k] = v
		}
		out = append(out, cp)
	}
	return out, nil
}

func (f *fakeStore) MarkReminderSent(_ context.Context, regID uuid.UUID, tier string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.regs[regID]
	if !ok {
		return repository.ErrNotFound
	}
	if reg.Markers.SentFor(tier) {
		return repository.ErrMarkerConflict
	}
	sentAt := at
	reg.Markers[tier] = model.DeliveryMarker{Sent: true, SentAt: &sentAt}
	return nil
}

func (f *fakeStore) ClearMarkersBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var cleaned int64
	for _, reg := range f.regs {
		event, ok := f.events[reg.EventID]
		if !ok || !event.StartAt.Before(cutoff) || len(reg.Markers) == 0 {
			continue
		}
		reg.Markers = model.DeliveryMarkers{}
		cleaned++
	}
	return cleaned, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) StartingBetween(_ context.Context, from, to time.Time) ([]model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Event
	for _, e := range f.events {
		if !e.IsActive || e.Visibility != model.VisibilityPublic {
			continue
		}
		if e.StartAt.After(from) && !e.StartAt.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) markers(regID uuid.UUID) model.DeliveryMarkers {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.regs[regID].Markers
}

// fakeNotifier records reminder sends and can fail selected recipients.
type fakeNotifier struct {
	mu      sync.Mutex
	sent    []string // recipient emails, in order
	failFor map[string]bool
	onSend  func(email string)
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failFor: map[string]bool{}}
}

func (n *fakeNotifier) SendReminder(_ context.Context, user model.User, _ model.Event, _ string) error {
	n.mu.Lock()
	onSend := n.onSend
	fail := n.failFor[user.Email]
	if !fail {
		n.sent = append(n.sent, user.Email)
	}
	n.mu.Unlock()

	if onSend != nil {
		onSend(user.Email)
	}
	if fail {
		return context.DeadlineExceeded
	}
	return nil
}

func (n *fakeNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
