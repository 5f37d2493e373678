package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"eventhub/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type eventService struct {
	eventRepo      domain.EventRepository
	images         domain.ImageStore
	cache          domain.EventListCache
	tracer         trace.Tracer
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

// NewEventService returns the event catalog. cache may be nil to disable listing caching.
func NewEventService(eventRepo domain.EventRepository,
	images domain.ImageStore,
	cache domain.EventListCache,
	tracer trace.Tracer,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		images:         images,
		cache:          cache,
		tracer:         tracer,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg)
}

func validateEvent(e *domain.Event) error {
	switch {
	case strings.TrimSpace(e.Title) == "":
		return invalid("title is required")
	case strings.TrimSpace(e.Description) == "":
		return invalid("description is required")
	case strings.TrimSpace(e.Location) == "":
		return invalid("location is required")
	case strings.TrimSpace(e.Category) == "":
		return invalid("category is required")
	case e.DateTime.IsZero():
		return invalid("dateTime is required")
	case e.Capacity < 1:
		return invalid("capacity must be at least 1")
	case e.CreatedBy == "":
		return invalid("event owner is required")
	}
	return nil
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event, image *domain.Image) error {
	ctx, span := s.tracer.Start(ctx, "events.Create")
	defer span.End()

	if err := validateEvent(event); err != nil {
		return err
	}
	if image == nil {
		return invalid("image is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	stored, err := s.images.Upload(ctx, image)
	if err != nil {
		return fmt.Errorf("upload image: %w", err)
	}

	now := s.now()
	event.Title = strings.TrimSpace(event.Title)
	event.Description = strings.TrimSpace(event.Description)
	event.Location = strings.TrimSpace(event.Location)
	event.Category = strings.TrimSpace(event.Category)
	event.ImageURL = stored.URL
	event.ImageKey = stored.Key
	event.ReservedCount = 0
	event.CreatedAt = now
	event.UpdatedAt = now

	if err := s.eventRepo.Create(ctx, event); err != nil {
		s.deleteImage(ctx, stored.Key)
		return fmt.Errorf("create event: %w", err)
	}
	span.SetAttributes(attribute.String("event.id", event.ID))
	s.invalidate(ctx)
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.eventRepo.GetByID(ctx, id)
}

func (s *eventService) ListEvents(ctx context.Context, filter domain.EventFilter, page domain.PaginationParams) (*domain.EventPage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var slot string
	if s.cache != nil {
		cached, cacheSlot, hit := s.cache.Get(ctx, listCacheKey(filter, page))
		if hit {
			return cached, nil
		}
		slot = cacheSlot
	}
	result, err := s.eventRepo.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, slot, result)
	}
	return result, nil
}

// listCacheKey is stable for equal filters; url.Values encodes keys in sorted order.
func listCacheKey(filter domain.EventFilter, page domain.PaginationParams) string {
	v := url.Values{}
	v.Set("q", strings.ToLower(strings.TrimSpace(filter.Search)))
	v.Set("category", strings.TrimSpace(filter.Category))
	if filter.From != nil {
		v.Set("from", filter.From.UTC().Format(time.RFC3339Nano))
	}
	if filter.To != nil {
		v.Set("to", filter.To.UTC().Format(time.RFC3339Nano))
	}
	v.Set("desc", strconv.FormatBool(filter.SortDesc))
	v.Set("limit", strconv.Itoa(page.Limit()))
	v.Set("offset", strconv.Itoa(page.Offset()))
	return v.Encode()
}

func (s *eventService) UpdateEvent(ctx context.Context, id, editorID string, patch domain.EventPatch, image *domain.Image) (*domain.Event, error) {
	ctx, span := s.tracer.Start(ctx, "events.Update", trace.WithAttributes(attribute.String("event.id", id)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	current, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.IsOwnedBy(editorID) {
		return nil, domain.ErrForbidden
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	var uploaded *domain.StoredImage
	if image != nil {
		uploaded, err = s.images.Upload(ctx, image)
		if err != nil {
			return nil, fmt.Errorf("upload image: %w", err)
		}
		patch.ImageURL = &uploaded.URL
		patch.ImageKey = &uploaded.Key
	}

	updated, err := s.eventRepo.Update(ctx, id, patch)
	if err != nil {
		if uploaded != nil {
			s.deleteImage(ctx, uploaded.Key)
		}
		return nil, fmt.Errorf("update event: %w", err)
	}

	if patch.ImageKey != nil && current.ImageKey != "" && *patch.ImageKey != current.ImageKey {
		s.deleteImage(ctx, current.ImageKey)
	}
	s.invalidate(ctx)
	return updated, nil
}

func validatePatch(p domain.EventPatch) error {
	blank := func(v *string) bool { return v != nil && strings.TrimSpace(*v) == "" }
	switch {
	case blank(p.Title):
		return invalid("title cannot be empty")
	case blank(p.Description):
		return invalid("description cannot be empty")
	case blank(p.Location):
		return invalid("location cannot be empty")
	case blank(p.Category):
		return invalid("category cannot be empty")
	case p.DateTime != nil && p.DateTime.IsZero():
		return invalid("dateTime is invalid")
	case p.Capacity != nil && *p.Capacity < 1:
		return invalid("capacity must be at least 1")
	}
	return nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id, editorID string) error {
	ctx, span := s.tracer.Start(ctx, "events.Delete", trace.WithAttributes(attribute.String("event.id", id)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	current, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !current.IsOwnedBy(editorID) {
		return domain.ErrForbidden
	}
	removed, err := s.eventRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	s.logger.InfoContext(ctx, "event deleted", "event_id", id, "reservations_removed", removed)

	if current.ImageKey != "" {
		s.deleteImage(ctx, current.ImageKey)
	}
	s.invalidate(ctx)
	return nil
}

func (s *eventService) ListCreatedEvents(ctx context.Context, userID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.eventRepo.ListByOwnerID(ctx, userID)
}

func (s *eventService) ListAttendingEvents(ctx context.Context, userID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.eventRepo.ListByAttendee(ctx, userID)
}

// deleteImage is best-effort: failures are logged and never returned.
func (s *eventService) deleteImage(ctx context.Context, key string) {
	if err := s.images.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.WarnContext(ctx, "delete image", "key", key, "err", err)
	}
}

func (s *eventService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
