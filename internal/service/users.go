package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/campusconnect/eventline/internal/model"
)

// UserStore is the persistence contract the user service needs.
type UserStore interface {
	Create(ctx context.Context, u model.User) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	SetReminderPreference(ctx context.Context, id uuid.UUID, enabled bool) error
}

// UserService handles the thin user-account surface this service owns:
// account records and the reminder opt-out flag. Authentication lives
// elsewhere.
type UserService struct {
	users UserStore
}

// NewUserService constructs a UserService.
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// CreateUserRequest is the payload for creating a user.
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateUser validates and persists a new user with reminders enabled.
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if !isValidEmail(req.Email) {
		return nil, fmt.Errorf("email is not a valid email address")
	}
	return s.users.Create(ctx, model.User{
		Name:           req.Name,
		Email:          req.Email,
		EmailReminders: true,
	})
}

// GetUser returns a single user by ID.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// SetReminderPreference enables or disables reminder emails for a user.
func (s *UserService) SetReminderPreference(ctx context.Context, id uuid.UUID, enabled bool) error {
	return s.users.SetReminderPreference(ctx, id, enabled)
}

// isValidEmail does a basic structural check (no external deps).
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
