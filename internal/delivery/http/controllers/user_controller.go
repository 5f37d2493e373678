package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"
)

// EventsSuccessResponse is the success response envelope for endpoints returning a list of events.
type EventsSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type UserController struct {
	Logger *slog.Logger
	Events domain.EventService
}

func NewUserController(logger *slog.Logger, events domain.EventService) *UserController {
	return &UserController{
		Logger: logger,
		Events: events,
	}
}

// ListAttending godoc
// @Summary Events I am attending
// @Description Events the authenticated user holds a reservation for, soonest first. Also served at /users/me/attending-events.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.EventsSuccessResponse "data contains events"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/attending [get]
func (c *UserController) ListAttending(w http.ResponseWriter, r *http.Request) {
	c.listFor(w, r, c.Events.ListAttendingEvents)
}

// ListCreated godoc
// @Summary Events I created
// @Description Events owned by the authenticated user, newest first.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.EventsSuccessResponse "data contains events"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/created-events [get]
func (c *UserController) ListCreated(w http.ResponseWriter, r *http.Request) {
	c.listFor(w, r, c.Events.ListCreatedEvents)
}

func (c *UserController) listFor(w http.ResponseWriter, r *http.Request, list func(context.Context, string) ([]*domain.Event, error)) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	events, err := list(r.Context(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}
