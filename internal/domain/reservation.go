package domain

import (
	"context"
	"time"
)

// ReservationStatusGoing is the only valid reservation status.
const ReservationStatusGoing = "going"

// Reservation is an attendee's slot for an event. The pair (EventID, UserID) is unique.
// swagger:model Reservation
type Reservation struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId"`
	UserID    string    `json:"userId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewReservation creates an active Reservation. ID is set by the store on insert.
func NewReservation(eventID, userID string, createdAt time.Time) *Reservation {
	return &Reservation{
		EventID:   eventID,
		UserID:    userID,
		Status:    ReservationStatusGoing,
		CreatedAt: createdAt,
	}
}

// ReservationTx is the set of operations available inside one reservation transaction.
// Nothing done through it is visible to other transactions until InTx commits.
type ReservationTx interface {
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	// InsertReservation fails with ErrAlreadyReserved when the (event, user) pair exists.
	InsertReservation(ctx context.Context, r *Reservation) error
	// DeleteReservation fails with ErrNotReserved when there is nothing to delete.
	DeleteReservation(ctx context.Context, eventID, userID string) (*Reservation, error)
	// IncrementReserved adds one to the counter only while it is below capacity,
	// as a single conditional update. Fails with ErrEventFull otherwise.
	IncrementReserved(ctx context.Context, eventID string) (*Event, error)
	// DecrementReserved subtracts one only while the counter is above zero. The bool is
	// false when no row matched the predicate.
	DecrementReserved(ctx context.Context, eventID string) (*Event, bool, error)
}

// ReservationStore runs fn inside a single atomic transaction. If fn returns an error
// the transaction is rolled back and that error is returned.
type ReservationStore interface {
	InTx(ctx context.Context, fn func(tx ReservationTx) error) error
}

// RSVPService joins and leaves events.
type RSVPService interface {
	Join(ctx context.Context, eventID, attendeeID string) (*Event, error)
	Leave(ctx context.Context, eventID, attendeeID string) (*Event, error)
}
