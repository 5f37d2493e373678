package domain

import (
	"context"
	"errors"
	"time"
)

// ErrUnknownRoutingKey is returned for messages no handler is registered for.
var ErrUnknownRoutingKey = errors.New("unknown routing key")

// Routing keys for RSVP messages.
const (
	RSVPJoinedKey = "rsvp.joined"
	RSVPLeftKey   = "rsvp.left"
)

// RSVPMessage is published after a join or leave has committed.
type RSVPMessage struct {
	EventID       string    `json:"eventId"`
	UserID        string    `json:"userId"`
	ReservedCount int       `json:"reservedCount"`
	Capacity      int       `json:"capacity"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// RSVPPublisher emits RSVP messages to downstream consumers.
type RSVPPublisher interface {
	PublishRSVP(ctx context.Context, routingKey string, msg *RSVPMessage) error
}

// RSVPNotifier reacts to a consumed RSVP message.
type RSVPNotifier interface {
	HandleRSVP(ctx context.Context, routingKey string, msg *RSVPMessage) error
}
