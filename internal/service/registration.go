// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusconnect/eventline/internal/model"
	"github.com/campusconnect/eventline/internal/repository"
)

// RegistrationStore is the persistence contract the registration service
// needs. *repository.RegistrationRepository satisfies it; tests use an
// in-memory fake.
type RegistrationStore interface {
	Register(ctx context.Context, eventID, userID uuid.UUID, now time.Time) (*model.Registration, error)
	Cancel(ctx context.Context, eventID, userID uuid.UUID) (*model.Registration, error)
	Get(ctx context.Context, eventID, userID uuid.UUID) (*model.Registration, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID, activeOnly bool) ([]model.Registration, error)
}

// RegistrationService applies the registration state machine.
type RegistrationService struct {
	regs   RegistrationStore
	logger *zap.Logger
	now    func() time.Time
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(regs RegistrationStore, logger *zap.Logger) *RegistrationService {
	return &RegistrationService{regs: regs, logger: logger, now: time.Now}
}

// Register creates (or reactivates) a registration for the pair. The
// capacity and uniqueness checks happen atomically in the store; errors from
// the taxonomy are surfaced unwrapped so handlers can map them to status
// codes.
func (s *RegistrationService) Register(ctx context.Context, eventID, userID uuid.UUID) (*model.Registration, error) {
	if eventID == uuid.Nil {
		return nil, fmt.Errorf("event id is required")
	}
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required")
	}

	reg, err := s.regs.Register(ctx, eventID, userID, s.now().UTC())
	if err != nil {
		if isDomainErr(err) {
			return nil, err
		}
		return nil, fmt.Errorf("register for event: %w", err)
	}

	s.logger.Info("registration created",
		zap.String("event_id", eventID.String()),
		zap.String("user_id", userID.String()),
	)
	return reg, nil
}

// Cancel transitions the registration to cancelled without deleting it.
func (s *RegistrationService) Cancel(ctx context.Context, eventID, userID uuid.UUID) (*model.Registration, error) {
	if eventID == uuid.Nil || userID == uuid.Nil {
		return nil, fmt.Errorf("event id and user id are required")
	}

	reg, err := s.regs.Cancel(ctx, eventID, userID)
	if err != nil {
		if isDomainErr(err) {
			return nil, err
		}
		return nil, fmt.Errorf("cancel registration: %w", err)
	}

	s.logger.Info("registration cancelled",
		zap.String("event_id", eventID.String()),
		zap.String("user_id", userID.String()),
	)
	return reg, nil
}

// StatusResult is the answer to a registration status check.
type StatusResult struct {
	IsRegistered bool                `json:"isRegistered"`
	Registration *model.Registration `json:"registration"`
}

// CheckStatus reports whether the user holds an active registration for the
// event. A cancelled or absent registration reads as not registered.
func (s *RegistrationService) CheckStatus(ctx context.Context, eventID, userID uuid.UUID) (StatusResult, error) {
	reg, err := s.regs.Get(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return StatusResult{}, nil
		}
		return StatusResult{}, fmt.Errorf("check registration: %w", err)
	}
	if !reg.Active() {
		return StatusResult{}, nil
	}
	return StatusResult{IsRegistered: true, Registration: reg}, nil
}

// ListForEvent returns registrations for an event, active ones only unless
// includeCancelled is set.
func (s *RegistrationService) ListForEvent(ctx context.Context, eventID uuid.UUID, includeCancelled bool) ([]model.Registration, error) {
	return s.regs.ListByEvent(ctx, eventID, !includeCancelled)
}

func isDomainErr(err error) bool {
	return errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, repository.ErrRegistrationClosed) ||
		errors.Is(err, repository.ErrAlreadyRegistered) ||
		errors.Is(err, repository.ErrAlreadyCancelled) ||
		errors.Is(err, repository.ErrCapacityExceeded)
}
