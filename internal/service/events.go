package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campusconnect/eventline/internal/model"
	"github.com/campusconnect/eventline/internal/repository"
)

// EventStore is the persistence contract the event service needs.
type EventStore interface {
	Create(ctx context.Context, e model.Event) (*model.Event, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	List(ctx context.Context, f repository.ListFilter) ([]model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// EventService orchestrates event CRUD.
type EventService struct {
	events EventStore
}

// NewEventService constructs an EventService.
func NewEventService(events EventStore) *EventService {
	return &EventService{events: events}
}

// CreateEventRequest is the payload for creating or updating an event.
type CreateEventRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Type        string     `json:"type"`
	StartAt     time.Time  `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
	Venue       string     `json:"venue"`
	Organizer   string     `json:"organizer"`
	Capacity    *int       `json:"capacity"`
	Visibility  string     `json:"visibility"`
	CreatedBy   uuid.UUID  `json:"created_by"`
}

func (req *CreateEventRequest) validate() error {
	req.Title = strings.TrimSpace(req.Title)
	req.Venue = strings.TrimSpace(req.Venue)
	if req.Title == "" {
		return fmt.Errorf("event title is required")
	}
	if len(req.Title) > 100 {
		return fmt.Errorf("title cannot exceed 100 characters")
	}
	if len(req.Description) > 1000 {
		return fmt.Errorf("description cannot exceed 1000 characters")
	}
	if !model.ValidEventType(model.EventType(req.Type)) {
		return fmt.Errorf("invalid event type %q", req.Type)
	}
	if req.StartAt.IsZero() {
		return fmt.Errorf("event start time is required")
	}
	if req.EndAt != nil && req.EndAt.Before(req.StartAt) {
		return fmt.Errorf("end time cannot be before start time")
	}
	if req.Venue == "" {
		return fmt.Errorf("venue is required")
	}
	if req.Capacity != nil {
		if *req.Capacity < 1 {
			return fmt.Errorf("capacity must be at least 1")
		}
		if *req.Capacity > 10_000 {
			return fmt.Errorf("capacity cannot exceed 10,000")
		}
	}
	switch model.Visibility(req.Visibility) {
	case "", model.VisibilityPublic, model.VisibilityPrivate:
	default:
		return fmt.Errorf("invalid visibility %q", req.Visibility)
	}
	return nil
}

func (req *CreateEventRequest) apply(e *model.Event) {
	e.Title = req.Title
	e.Description = req.Description
	e.Type = model.EventType(req.Type)
	e.StartAt = req.StartAt
	e.EndAt = req.EndAt
	e.Venue = req.Venue
	e.Organizer = req.Organizer
	e.Capacity = req.Capacity
	if req.Visibility != "" {
		e.Visibility = model.Visibility(req.Visibility)
	}
}

// CreateEvent validates the request and delegates to the repository.
func (s *EventService) CreateEvent(ctx context.Context, req CreateEventRequest) (*model.Event, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	var e model.Event
	req.apply(&e)
	e.CreatedBy = req.CreatedBy
	return s.events.Create(ctx, e)
}

// ListEvents returns events matching the filter.
func (s *EventService) ListEvents(ctx context.Context, f repository.ListFilter) ([]model.Event, error) {
	return s.events.List(ctx, f)
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// UpdateEvent replaces the editable fields of an existing event.
func (s *EventService) UpdateEvent(ctx context.Context, id uuid.UUID, req CreateEventRequest) (*model.Event, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !event.IsActive {
		return nil, repository.ErrNotFound
	}
	req.apply(event)
	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// DeleteEvent soft-deletes an event. Existing registrations are preserved.
func (s *EventService) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	return s.events.SoftDelete(ctx, id)
}
