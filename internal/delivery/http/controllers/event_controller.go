package controllers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"
)

// acceptedTimeLayouts are tried in order for dateTime, from and to values.
// The second one is what an HTML datetime-local input submits.
var acceptedTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func parseTime(field, raw string) (time.Time, string) {
	raw = strings.TrimSpace(raw)
	for _, layout := range acceptedTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), ""
		}
	}
	return time.Time{}, field + " must be an RFC 3339 timestamp"
}

func parseCapacity(raw string) (int, string) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, "capacity must be a whole number"
	}
	return n, ""
}

// EventSuccessResponse is the success response envelope for endpoints returning one event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListResponse is one page of the public listing.
type EventListResponse struct {
	Items      []*domain.Event        `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// EventListSuccessResponse is the success response envelope for GET /events (200).
type EventListSuccessResponse struct {
	Data  EventListResponse `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// MessageSuccessResponse is the success response envelope for message-only responses.
type MessageSuccessResponse struct {
	Data  helpers.MessageResponse `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// UpdateEventRequest is the JSON body for PATCH /events/{eventID}. Omitted fields are left
// unchanged. RemoveImage clears the current image.
type UpdateEventRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DateTime    *string `json:"dateTime"`
	Location    *string `json:"location"`
	Capacity    *int    `json:"capacity"`
	Category    *string `json:"category"`
	RemoveImage bool    `json:"removeImage"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	if u.DateTime != nil {
		if _, msg := parseTime("dateTime", *u.DateTime); msg != "" {
			errs = append(errs, msg)
		}
	}
	return errs
}

func (u UpdateEventRequest) patch() domain.EventPatch {
	p := domain.EventPatch{
		Title:       u.Title,
		Description: u.Description,
		Location:    u.Location,
		Capacity:    u.Capacity,
		Category:    u.Category,
	}
	if u.DateTime != nil {
		t, _ := parseTime("dateTime", *u.DateTime)
		p.DateTime = &t
	}
	if u.RemoveImage {
		clearImage(&p)
	}
	return p
}

func clearImage(p *domain.EventPatch) {
	empty := ""
	p.ImageURL = &empty
	p.ImageKey = &empty
}

type EventController struct {
	Logger        *slog.Logger
	Service       domain.EventService
	MaxImageBytes int64
}

func NewEventController(logger *slog.Logger, svc domain.EventService, maxImageBytes int64) *EventController {
	return &EventController{
		Logger:        logger,
		Service:       svc,
		MaxImageBytes: maxImageBytes,
	}
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates an event from a multipart form. All text fields and the image are required; the authenticated user becomes the owner and reservedCount starts at 0.
// @Tags events
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param dateTime formData string true "Start time (RFC 3339)"
// @Param location formData string true "Location"
// @Param capacity formData int true "Number of attendee slots (>= 1)"
// @Param category formData string true "Category"
// @Param image formData file true "Cover image (jpeg, png, gif or webp)"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if !helpers.IsMultipart(r) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "expected multipart/form-data")
		return
	}
	if !helpers.ParseMultipart(w, r, c.MaxImageBytes) {
		return
	}

	var errs []string
	dateTime, msg := parseTime("dateTime", r.FormValue("dateTime"))
	if msg != "" {
		errs = append(errs, msg)
	}
	capacity, msg := parseCapacity(r.FormValue("capacity"))
	if msg != "" {
		errs = append(errs, msg)
	}
	if len(errs) > 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, strings.Join(errs, "; "))
		return
	}
	image, ok := helpers.FormImage(w, r, "image", c.MaxImageBytes)
	if !ok {
		return
	}

	event := domain.NewEvent(
		r.FormValue("title"),
		r.FormValue("description"),
		r.FormValue("location"),
		r.FormValue("category"),
		dateTime, capacity, userID, time.Now(),
	)
	if err := c.Service.CreateEvent(r.Context(), event, image); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListEvents godoc
// @Summary List events
// @Description Public listing with optional title search, category and date range filters, sorted by dateTime.
// @Tags events
// @Produce json
// @Param search query string false "Case-insensitive title substring"
// @Param category query string false "Exact category"
// @Param from query string false "Earliest dateTime (RFC 3339)"
// @Param to query string false "Latest dateTime (RFC 3339)"
// @Param sort query string false "asc (default) or desc"
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} controllers.EventListSuccessResponse "data contains items and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.EventFilter{
		Search:   strings.TrimSpace(q.Get("search")),
		Category: strings.TrimSpace(q.Get("category")),
		SortDesc: strings.EqualFold(q.Get("sort"), "desc"),
	}
	for field, dest := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := q.Get(field)
		if raw == "" {
			continue
		}
		t, msg := parseTime(field, raw)
		if msg != "" {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, msg)
			return
		}
		*dest = &t
	}

	params := helpers.ParsePagination(r)
	page, err := c.Service.ListEvents(r.Context(), filter, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	items := page.Items
	if items == nil {
		items = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, EventListResponse{
		Items:      items,
		Pagination: helpers.NewPaginationMeta(params, page.Total),
	})
}

// GetEvent godoc
// @Summary Get an event by ID
// @Description Returns the event including capacity and the current reservedCount.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Service.GetEvent(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Owner only. Accepts JSON or a multipart form; a new image replaces the old one. Capacity cannot drop below reservedCount.
// @Tags events
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param event body UpdateEventRequest false "Fields to change"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (capacity below reservations)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}

	var (
		patch domain.EventPatch
		image *domain.Image
	)
	if helpers.IsMultipart(r) {
		if patch, image, ok = c.multipartPatch(w, r); !ok {
			return
		}
	} else {
		var req UpdateEventRequest
		if !helpers.DecodeAndValidate(w, r, &req) {
			return
		}
		patch = req.patch()
	}

	if patch.IsEmpty() && image == nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "no fields to update")
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), eventID, userID, patch, image)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// multipartPatch reads the fields present in a multipart PATCH form.
func (c *EventController) multipartPatch(w http.ResponseWriter, r *http.Request) (domain.EventPatch, *domain.Image, bool) {
	var patch domain.EventPatch
	if !helpers.ParseMultipart(w, r, c.MaxImageBytes) {
		return patch, nil, false
	}
	form := r.MultipartForm.Value
	text := func(name string) *string {
		if v, ok := form[name]; ok && len(v) > 0 {
			return &v[0]
		}
		return nil
	}
	patch.Title = text("title")
	patch.Description = text("description")
	patch.Location = text("location")
	patch.Category = text("category")

	if v := text("dateTime"); v != nil {
		t, msg := parseTime("dateTime", *v)
		if msg != "" {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, msg)
			return patch, nil, false
		}
		patch.DateTime = &t
	}
	if v := text("capacity"); v != nil {
		n, msg := parseCapacity(*v)
		if msg != "" {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, msg)
			return patch, nil, false
		}
		patch.Capacity = &n
	}

	image, ok := helpers.FormImage(w, r, "image", c.MaxImageBytes)
	if !ok {
		return patch, nil, false
	}
	if v := text("removeImage"); image == nil && v != nil {
		if remove, _ := strconv.ParseBool(*v); remove {
			clearImage(&patch)
		}
	}
	return patch, image, true
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Owner only. Removes the event and every reservation for it.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.MessageSuccessResponse "data.message: Event deleted"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), eventID, userID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.MessageResponse{Message: "Event deleted"})
}
