package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusconnect/eventline/internal/model"
)

const eventColumns = `id, title, description, event_type, start_at, end_at,
	venue, organizer, capacity, visibility, created_by, is_active,
	created_at, updated_at`

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Type, &e.StartAt, &e.EndAt,
		&e.Venue, &e.Organizer, &e.Capacity, &e.Visibility, &e.CreatedBy,
		&e.IsActive, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event and returns it with a generated UUID.
func (r *EventRepository) Create(ctx context.Context, e model.Event) (*model.Event, error) {
	now := time.Now().UTC()
	e.ID = uuid.New()
	e.IsActive = true
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.Visibility == "" {
		e.Visibility = model.VisibilityPublic
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, title, description, event_type, start_at, end_at,
			venue, organizer, capacity, visibility, created_by, is_active,
			created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID, e.Title, e.Description, e.Type, e.StartAt, e.EndAt,
		e.Venue, e.Organizer, e.Capacity, e.Visibility, e.CreatedBy,
		e.IsActive, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return &e, nil
}

// ListFilter narrows the event listing.
type ListFilter struct {
	UpcomingOnly   bool
	IncludePrivate bool
}

// List returns active events ordered by start time ascending.
func (r *EventRepository) List(ctx context.Context, f ListFilter) ([]model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE is_active`
	args := []any{}
	if f.UpcomingOnly {
		args = append(args, time.Now().UTC())
		q += fmt.Sprintf(" AND start_at >= $%d", len(args))
	}
	if !f.IncludePrivate {
		args = append(args, model.VisibilityPublic)
		q += fmt.Sprintf(" AND visibility = $%d", len(args))
	}
	q += " ORDER BY start_at ASC"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// Update replaces the editable fields of an event.
func (r *EventRepository) Update(ctx context.Context, e *model.Event) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE events
		 SET title = $2, description = $3, event_type = $4, start_at = $5,
		     end_at = $6, venue = $7, organizer = $8, capacity = $9,
		     visibility = $10, updated_at = $11
		 WHERE id = $1 AND is_active`,
		e.ID, e.Title, e.Description, e.Type, e.StartAt, e.EndAt,
		e.Venue, e.Organizer, e.Capacity, e.Visibility, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete clears the active flag. Historical registrations stay valid.
func (r *EventRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE events SET is_active = FALSE, updated_at = $2 WHERE id = $1 AND is_active`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("soft delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// StartingBetween returns active public events whose start time falls in
// (from, to]. The half-open bound keeps consecutive scan windows disjoint,
// so an event starting exactly on a window boundary matches exactly one
// tick. This backs the reminder scanner.
func (r *EventRepository) StartingBetween(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events
		 WHERE start_at > $1 AND start_at <= $2
		   AND is_active
		   AND visibility = $3
		 ORDER BY start_at ASC`,
		from, to, model.VisibilityPublic,
	)
	if err != nil {
		return nil, fmt.Errorf("query events in window: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}
