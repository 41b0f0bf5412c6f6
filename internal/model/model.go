// Package model defines the core domain types for the event platform.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Visibility controls whether an event appears in public listings and
// reminder scans.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// EventType categorises an event.
type EventType string

const (
	EventTechnical EventType = "technical"
	EventCultural  EventType = "cultural"
	EventSports    EventType = "sports"
	EventAcademic  EventType = "academic"
	EventClub      EventType = "club"
)

// ValidEventType reports whether t is one of the known event types.
func ValidEventType(t EventType) bool {
	switch t {
	case EventTechnical, EventCultural, EventSports, EventAcademic, EventClub:
		return true
	}
	return false
}

// Event represents an event published by an organizer. Events are soft
// deleted: clearing IsActive hides them without invalidating historical
// registrations.
type Event struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Type        EventType  `json:"type"`
	StartAt     time.Time  `json:"start_at"`
	EndAt       *time.Time `json:"end_at,omitempty"`
	Venue       string     `json:"venue"`
	Organizer   string     `json:"organizer"`
	Capacity    *int       `json:"capacity,omitempty"`
	Visibility  Visibility `json:"visibility"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RegistrationOpen reports whether new registrations are still accepted.
func (e *Event) RegistrationOpen(now time.Time) bool {
	return e.IsActive && now.Before(e.StartAt)
}

// User is a registrant account. Auth credentials live outside this service;
// only the fields the reminder pipeline needs are carried here.
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	IsActive       bool      `json:"is_active"`
	EmailReminders bool      `json:"email_reminders"`
	CreatedAt      time.Time `json:"created_at"`
}

// RegistrationStatus is the registration lifecycle state.
type RegistrationStatus string

const (
	StatusRegistered RegistrationStatus = "registered"
	StatusCheckedIn  RegistrationStatus = "checked_in"
	StatusCancelled  RegistrationStatus = "cancelled"
)

// DeliveryMarker records that a reminder for one tier was sent.
type DeliveryMarker struct {
	Sent   bool       `json:"sent"`
	SentAt *time.Time `json:"sent_at,omitempty"`
}

// DeliveryMarkers maps tier name to its delivery marker. Stored as JSONB so
// the tier set can change without schema churn.
type DeliveryMarkers map[string]DeliveryMarker

// SentFor reports whether the reminder for the given tier was already sent.
func (m DeliveryMarkers) SentFor(tier string) bool {
	return m[tier].Sent
}

// Registration ties a user to an event. Records are never physically
// deleted; cancellation is a status transition so the audit trail and
// capacity accounting stay correct.
type Registration struct {
	ID           uuid.UUID          `json:"id"`
	EventID      uuid.UUID          `json:"event_id"`
	UserID       uuid.UUID          `json:"user_id"`
	Status       RegistrationStatus `json:"status"`
	RegisteredAt time.Time          `json:"registered_at"`
	Markers      DeliveryMarkers    `json:"markers"`
	Notes        string             `json:"notes,omitempty"`
}

// Active reports whether the registration counts toward event capacity.
func (r *Registration) Active() bool {
	return r.Status == StatusRegistered || r.Status == StatusCheckedIn
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
