package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusconnect/eventline/internal/model"
)

const registrationColumns = `id, event_id, user_id, status, registered_at, markers, notes`

// RegistrationRepository handles persistence for registrations.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var reg model.Registration
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.UserID, &reg.Status,
		&reg.RegisteredAt, &reg.Markers, &reg.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Register performs a concurrency-safe registration inside a serialised
// transaction. Without the row lock, two transactions can read the same
// registration count before either inserts, overselling capacity; the
// SELECT ... FOR UPDATE on the event row forces concurrent attempts for the
// same event to run one at a time, so the count re-read immediately before
// the insert is authoritative.
func (r *RegistrationRepository) Register(ctx context.Context, eventID, userID uuid.UUID, now time.Time) (*model.Registration, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Lock the event row. Concurrent Register calls for this event block
	// here until we commit or roll back.
	var startAt time.Time
	var capacity *int
	var isActive bool
	err = tx.QueryRow(ctx,
		`SELECT start_at, capacity, is_active
		 FROM events
		 WHERE id = $1
		 FOR UPDATE`,
		eventID,
	).Scan(&startAt, &capacity, &isActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}
	if !isActive {
		err = ErrNotFound
		return nil, err
	}
	if !now.Before(startAt) {
		err = ErrRegistrationClosed
		return nil, err
	}

	// A cancelled row is reactivated rather than duplicated; the unique
	// (event_id, user_id) index covers every status.
	var existingID uuid.UUID
	var existingStatus model.RegistrationStatus
	err = tx.QueryRow(ctx,
		`SELECT id, status FROM registrations WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	).Scan(&existingID, &existingStatus)
	switch {
	case err == nil:
		if existingStatus != model.StatusCancelled {
			err = ErrAlreadyRegistered
			return nil, err
		}
	case errors.Is(err, pgx.ErrNoRows):
		err = nil
	default:
		return nil, fmt.Errorf("check existing registration: %w", err)
	}
	reactivate := existingID != uuid.Nil

	// Re-read the active count under the lock, immediately before writing.
	if capacity != nil {
		var active int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM registrations
			 WHERE event_id = $1 AND status IN ($2, $3)`,
			eventID, model.StatusRegistered, model.StatusCheckedIn,
		).Scan(&active)
		if err != nil {
			return nil, fmt.Errorf("count active registrations: %w", err)
		}
		if active >= *capacity {
			err = ErrCapacityExceeded
			return nil, err
		}
	}

	reg := &model.Registration{
		EventID:      eventID,
		UserID:       userID,
		Status:       model.StatusRegistered,
		RegisteredAt: now,
		Markers:      model.DeliveryMarkers{},
	}
	if reactivate {
		// Fresh lifecycle for the pair: timestamp reset, markers wiped so
		// reminders fire again for the new registration.
		reg.ID = existingID
		_, err = tx.Exec(ctx,
			`UPDATE registrations
			 SET status = $2, registered_at = $3, markers = '{}'::jsonb
			 WHERE id = $1`,
			reg.ID, reg.Status, reg.RegisteredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("reactivate registration: %w", err)
		}
	} else {
		reg.ID = uuid.New()
		_, err = tx.Exec(ctx,
			`INSERT INTO registrations (id, event_id, user_id, status, registered_at, markers, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			reg.ID, reg.EventID, reg.UserID, reg.Status, reg.RegisteredAt, reg.Markers, reg.Notes,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				err = ErrAlreadyRegistered
				return nil, err
			}
			return nil, fmt.Errorf("insert registration: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return reg, nil
}

// Cancel transitions a registration to cancelled. The record is kept for
// the audit trail; capacity accounting filters on status.
func (r *RegistrationRepository) Cancel(ctx context.Context, eventID, userID uuid.UUID) (*model.Registration, error) {
	reg, err := r.Get(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if reg.Status == model.StatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE registrations SET status = $2 WHERE id = $1 AND status <> $2`,
		reg.ID, model.StatusCancelled,
	)
	if err != nil {
		return nil, fmt.Errorf("cancel registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAlreadyCancelled
	}
	reg.Status = model.StatusCancelled
	return reg, nil
}

// Get returns the registration for the pair or ErrNotFound.
func (r *RegistrationRepository) Get(ctx context.Context, eventID, userID uuid.UUID) (*model.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRow(ctx,
		`SELECT `+registrationColumns+`
		 FROM registrations
		 WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

// ListByEvent returns registrations for an event, optionally restricted to
// active (registered or checked_in) ones.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID uuid.UUID, activeOnly bool) ([]model.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = $1`
	args := []any{eventID}
	if activeOnly {
		q += ` AND status IN ($2, $3)`
		args = append(args, model.StatusRegistered, model.StatusCheckedIn)
	}
	q += ` ORDER BY registered_at ASC`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

// ListActiveByEvent returns registrations that count toward capacity and are
// eligible for reminders.
func (r *RegistrationRepository) ListActiveByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Registration, error) {
	return r.ListByEvent(ctx, eventID, true)
}

// MarkReminderSent sets the delivery marker for one tier as a single
// conditional update: the WHERE clause requires the marker to still be
// unset, so when two scanner instances race, exactly one write succeeds and
// the other gets ErrMarkerConflict.
func (r *RegistrationRepository) MarkReminderSent(ctx context.Context, regID uuid.UUID, tier string, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE registrations
		 SET markers = jsonb_set(
		         markers,
		         ARRAY[$2],
		         jsonb_build_object('sent', TRUE, 'sent_at', to_jsonb($3::timestamptz)),
		         TRUE)
		 WHERE id = $1
		   AND NOT COALESCE((markers #>> ARRAY[$2, 'sent'])::boolean, FALSE)`,
		regID, tier, at,
	)
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMarkerConflict
	}
	return nil
}

// ClearMarkersBefore wipes delivery markers on registrations whose event
// started before the cutoff. Bounds marker metadata growth; registration
// status and history are untouched. Idempotent: already-empty marker sets
// are excluded by the predicate.
func (r *RegistrationRepository) ClearMarkersBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE registrations r
		 SET markers = '{}'::jsonb
		 FROM events e
		 WHERE r.event_id = e.id
		   AND e.start_at < $1
		   AND r.markers <> '{}'::jsonb`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("clear stale markers: %w", err)
	}
	return tag.RowsAffected(), nil
}
