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

// ErrEmailTaken is returned when creating a user with an existing email.
var ErrEmailTaken = errors.New("email already in use")

// UserRepository handles persistence for users.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and returns it with a generated UUID.
func (r *UserRepository) Create(ctx context.Context, u model.User) (*model.User, error) {
	u.ID = uuid.New()
	u.IsActive = true
	u.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, name, email, is_active, email_reminders, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Email, u.IsActive, u.EmailReminders, u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

// GetByID returns a single user or ErrNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, is_active, email_reminders, created_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.IsActive, &u.EmailReminders, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// SetReminderPreference flips the user's reminder opt-out flag.
func (r *UserRepository) SetReminderPreference(ctx context.Context, id uuid.UUID, enabled bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET email_reminders = $2 WHERE id = $1`,
		id, enabled,
	)
	if err != nil {
		return fmt.Errorf("update reminder preference: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
