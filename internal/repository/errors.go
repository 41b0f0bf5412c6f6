// Package repository implements all database queries for the event platform.
// It uses pgx directly (no ORM) for transparency and performance.
package repository

import "errors"

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrRegistrationClosed is returned when the event has already started.
var ErrRegistrationClosed = errors.New("registration closed: event already started")

// ErrAlreadyRegistered is returned when an active registration already
// exists for the (event, user) pair.
var ErrAlreadyRegistered = errors.New("already registered for this event")

// ErrAlreadyCancelled is returned when cancelling an already cancelled
// registration.
var ErrAlreadyCancelled = errors.New("registration already cancelled")

// ErrCapacityExceeded is returned when an event has no remaining capacity.
var ErrCapacityExceeded = errors.New("event is at capacity")

// ErrMarkerConflict is returned when a delivery marker was already claimed,
// typically by a concurrently running scanner instance.
var ErrMarkerConflict = errors.New("delivery marker already claimed")
