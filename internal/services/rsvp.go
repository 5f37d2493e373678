package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventhub/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type rsvpService struct {
	store          domain.ReservationStore
	publisher      domain.RSVPPublisher
	tracer         trace.Tracer
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

// NewRSVPService returns the reservation coordinator. publisher may be nil, in which
// case no RSVP messages are emitted.
func NewRSVPService(store domain.ReservationStore, publisher domain.RSVPPublisher, tracer trace.Tracer, logger *slog.Logger, timeout time.Duration) domain.RSVPService {
	return &rsvpService{
		store:          store,
		publisher:      publisher,
		tracer:         tracer,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *rsvpService) Join(ctx context.Context, eventID, attendeeID string) (*domain.Event, error) {
	ctx, span := s.tracer.Start(ctx, "rsvp.Join", trace.WithAttributes(
		attribute.String("event.id", eventID),
		attribute.String("user.id", attendeeID),
	))
	defer span.End()

	if eventID == "" || attendeeID == "" {
		return nil, domain.ErrInvalidInput
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var updated *domain.Event
	err := s.store.InTx(ctx, func(tx domain.ReservationTx) error {
		if _, err := tx.GetEvent(ctx, eventID); err != nil {
			return err
		}
		// The unique constraint decides duplicates; no read beforehand.
		if err := tx.InsertReservation(ctx, domain.NewReservation(eventID, attendeeID, s.now())); err != nil {
			return err
		}
		ev, err := tx.IncrementReserved(ctx, eventID)
		if err != nil {
			return err
		}
		updated = ev
		return nil
	})
	if err != nil {
		recordOutcome(span, err)
		return nil, fmt.Errorf("join event: %w", err)
	}

	span.SetAttributes(attribute.Int("event.reserved_count", updated.ReservedCount))
	s.publish(ctx, domain.RSVPJoinedKey, updated, attendeeID)
	return updated, nil
}

func (s *rsvpService) Leave(ctx context.Context, eventID, attendeeID string) (*domain.Event, error) {
	ctx, span := s.tracer.Start(ctx, "rsvp.Leave", trace.WithAttributes(
		attribute.String("event.id", eventID),
		attribute.String("user.id", attendeeID),
	))
	defer span.End()

	if eventID == "" || attendeeID == "" {
		return nil, domain.ErrInvalidInput
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var updated *domain.Event
	err := s.store.InTx(ctx, func(tx domain.ReservationTx) error {
		if _, err := tx.GetEvent(ctx, eventID); err != nil {
			return err
		}
		if _, err := tx.DeleteReservation(ctx, eventID, attendeeID); err != nil {
			return err
		}
		ev, matched, err := tx.DecrementReserved(ctx, eventID)
		if err != nil {
			return err
		}
		if !matched {
			ev, err = tx.GetEvent(ctx, eventID)
			if err != nil {
				return err
			}
			s.logger.WarnContext(ctx, "rsvp counter drift",
				"event_id", eventID, "user_id", attendeeID, "reserved_count", ev.ReservedCount)
		}
		updated = ev
		return nil
	})
	if err != nil {
		recordOutcome(span, err)
		return nil, fmt.Errorf("leave event: %w", err)
	}

	span.SetAttributes(attribute.Int("event.reserved_count", updated.ReservedCount))
	s.publish(ctx, domain.RSVPLeftKey, updated, attendeeID)
	return updated, nil
}

// publish runs after commit. A broker failure never undoes a committed reservation.
func (s *rsvpService) publish(ctx context.Context, key string, ev *domain.Event, attendeeID string) {
	if s.publisher == nil {
		return
	}
	msg := &domain.RSVPMessage{
		EventID:       ev.ID,
		UserID:        attendeeID,
		ReservedCount: ev.ReservedCount,
		Capacity:      ev.Capacity,
		OccurredAt:    s.now().UTC(),
	}
	if err := s.publisher.PublishRSVP(ctx, key, msg); err != nil {
		s.logger.WarnContext(ctx, "publish rsvp message", "routing_key", key, "event_id", ev.ID, "err", err)
	}
}

// recordOutcome marks the span. Expected conflicts are recorded as events, not errors.
func recordOutcome(span trace.Span, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrAlreadyReserved),
		errors.Is(err, domain.ErrEventFull),
		errors.Is(err, domain.ErrNotReserved):
		span.AddEvent("rejected", trace.WithAttributes(attribute.String("reason", err.Error())))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
