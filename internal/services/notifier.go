package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"eventhub/internal/domain"
)

const emailDateLayout = "Mon, Jan 2 2006 15:04 MST"

type rsvpNotifier struct {
	users  domain.UserRepository
	events domain.EventRepository
	emails domain.EmailService
	logger *slog.Logger
}

// NewRSVPNotifier returns the handler the worker runs for each consumed RSVP message.
func NewRSVPNotifier(users domain.UserRepository, events domain.EventRepository, emails domain.EmailService, logger *slog.Logger) domain.RSVPNotifier {
	return &rsvpNotifier{users: users, events: events, emails: emails, logger: logger}
}

// HandleRSVP sends the email matching the routing key. A missing user or event is not
// an error: the message is stale and there is no one to notify.
func (n *rsvpNotifier) HandleRSVP(ctx context.Context, routingKey string, msg *domain.RSVPMessage) error {
	if routingKey != domain.RSVPJoinedKey && routingKey != domain.RSVPLeftKey {
		return fmt.Errorf("%w: %s", domain.ErrUnknownRoutingKey, routingKey)
	}

	user, err := n.users.GetByID(ctx, msg.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		n.logger.InfoContext(ctx, "skip rsvp email", "reason", "user gone", "user_id", msg.UserID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	event, err := n.events.GetByID(ctx, msg.EventID)
	if errors.Is(err, domain.ErrNotFound) {
		n.logger.InfoContext(ctx, "skip rsvp email", "reason", "event gone", "event_id", msg.EventID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}

	data := &domain.RSVPEmailData{
		Email:      user.Email,
		Name:       user.Name,
		EventTitle: event.Title,
		EventDate:  event.DateTime.UTC().Format(emailDateLayout),
		Location:   event.Location,
		SpotsLeft:  event.SpotsLeft(),
	}
	if routingKey == domain.RSVPJoinedKey {
		return n.emails.SendRSVPConfirmation(ctx, data)
	}
	return n.emails.SendRSVPCancellation(ctx, data)
}
