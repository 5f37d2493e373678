package controllers

import (
	"log/slog"
	"net/http"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"
)

// RSVPResponse carries the outcome message and the event with its updated counter.
type RSVPResponse struct {
	Message string        `json:"message"`
	Event   *domain.Event `json:"event"`
}

// RSVPSuccessResponse is the success response envelope for the RSVP endpoints.
type RSVPSuccessResponse struct {
	Data  RSVPResponse      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type RSVPController struct {
	Logger  *slog.Logger
	Service domain.RSVPService
}

func NewRSVPController(logger *slog.Logger, svc domain.RSVPService) *RSVPController {
	return &RSVPController{
		Logger:  logger,
		Service: svc,
	}
}

// JoinEvent godoc
// @Summary RSVP to an event
// @Description Reserves one slot for the authenticated user. Fails with 409 when the event is full or the user already holds a reservation. Nothing is retried server-side.
// @Tags rsvp
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 201 {object} controllers.RSVPSuccessResponse "data.message: RSVP confirmed"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 429 {object} helpers.APIResponse "error.code: too_many_requests"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error or configuration_error"
// @Router /events/{eventID}/rsvp [post]
func (c *RSVPController) JoinEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Service.Join(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, RSVPResponse{Message: "RSVP confirmed", Event: event})
}

// LeaveEvent godoc
// @Summary Cancel an RSVP
// @Description Releases the authenticated user's slot. Fails with 409 when the user holds no reservation.
// @Tags rsvp
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.RSVPSuccessResponse "data.message: RSVP removed"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 429 {object} helpers.APIResponse "error.code: too_many_requests"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error or configuration_error"
// @Router /events/{eventID}/rsvp [delete]
func (c *RSVPController) LeaveEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Service.Leave(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RSVPResponse{Message: "RSVP removed", Event: event})
}
