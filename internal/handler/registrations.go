package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campusconnect/eventline/internal/model"
	"github.com/campusconnect/eventline/internal/repository"
	"github.com/campusconnect/eventline/internal/service"
)

// RegistrationHandler holds the HTTP handlers for the registration API.
type RegistrationHandler struct {
	svc *service.RegistrationService
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(svc *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

// Routes mounts the registration endpoints on a chi router.
func (h *RegistrationHandler) Routes(r chi.Router) {
	r.Post("/", h.Register)
	r.Delete("/{eventID}", h.Cancel)
	r.Get("/check/{eventID}", h.CheckStatus)
	r.Get("/event/{eventID}", h.ListForEvent)
}

// registerRequest is the payload for registering for an event. The user is
// identified by the upstream auth layer; this service only sees the ID.
type registerRequest struct {
	EventID uuid.UUID `json:"event_id"`
	UserID  uuid.UUID `json:"user_id"`
}

// Register handles POST /registrations.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.svc.Register(r.Context(), req.EventID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "event not found or no longer available")
		case errors.Is(err, repository.ErrRegistrationClosed):
			writeError(w, http.StatusBadRequest, "registration is closed: this event has already started")
		case errors.Is(err, repository.ErrAlreadyRegistered):
			writeError(w, http.StatusConflict, "you are already registered for this event")
		case errors.Is(err, repository.ErrCapacityExceeded):
			writeError(w, http.StatusConflict, "this event is full")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

func registrationIDs(r *http.Request) (eventID, userID uuid.UUID, err error) {
	eventID, err = uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		return
	}
	userID, err = uuid.Parse(r.URL.Query().Get("user_id"))
	return
}

// Cancel handles DELETE /registrations/{eventID}?user_id=...
func (h *RegistrationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	eventID, userID, err := registrationIDs(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event or user id")
		return
	}

	reg, err := h.svc.Cancel(r.Context(), eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "registration not found")
		case errors.Is(err, repository.ErrAlreadyCancelled):
			writeError(w, http.StatusBadRequest, "registration already cancelled")
		default:
			writeError(w, http.StatusInternalServerError, "failed to cancel registration")
		}
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// CheckStatus handles GET /registrations/check/{eventID}?user_id=...
func (h *RegistrationHandler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	eventID, userID, err := registrationIDs(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event or user id")
		return
	}

	result, err := h.svc.CheckStatus(r.Context(), eventID, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check registration status")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListForEvent handles GET /registrations/event/{eventID}. Active
// registrations only unless ?status=all.
func (h *RegistrationHandler) ListForEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	regs, err := h.svc.ListForEvent(r.Context(), eventID, r.URL.Query().Get("status") == "all")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list registrations")
		return
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	writeJSON(w, http.StatusOK, regs)
}
